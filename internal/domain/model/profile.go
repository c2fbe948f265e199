//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxDisplayNameLen = 100
	maxUsernameLen    = 64
	maxBioLen         = 500
)

var usernameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// ProfileTheme controls the public card rendering theme.
type ProfileTheme string

const (
	ThemeDefault  ProfileTheme = "default"
	ThemeDark     ProfileTheme = "dark"
	ThemeLight    ProfileTheme = "light"
	ThemeColorful ProfileTheme = "colorful"
	ThemeMinimal  ProfileTheme = "minimal"
)

// Valid reports whether the theme is supported.
func (t ProfileTheme) Valid() bool {
	switch t {
	case ThemeDefault, ThemeDark, ThemeLight, ThemeColorful, ThemeMinimal:
		return true
	default:
		return false
	}
}

// normalizeTheme trims and lowercases the input, defaulting to default when empty.
func normalizeTheme(v ProfileTheme) ProfileTheme {
	normalized := ProfileTheme(strings.ToLower(strings.TrimSpace(string(v))))
	if normalized == "" {
		return ThemeDefault
	}
	return normalized
}

// SocialLinks holds the public link slots of a card.
type SocialLinks struct {
	Website   string `json:"website,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	GitHub    string `json:"github,omitempty"`
}

// ContactInfo holds optionally published contact details.
type ContactInfo struct {
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
}

// Profile represents a public business-card profile.
type Profile struct {
	ID          string       `json:"id"               db:"id"`
	UserID      string       `json:"user_id"          db:"user_id"`
	DisplayName string       `json:"display_name"     db:"display_name"`
	Username    string       `json:"username"         db:"username"`
	Bio         string       `json:"bio"              db:"bio"`
	Avatar      *string      `json:"avatar,omitempty" db:"avatar"`
	Theme       ProfileTheme `json:"theme"            db:"theme"`
	IsPublic    bool         `json:"is_public"        db:"is_public"`
	SocialLinks SocialLinks  `json:"social_links"     db:"social_links"`
	ContactInfo ContactInfo  `json:"contact_info"     db:"contact_info"`
	CreatedAt   time.Time    `json:"created_at"       db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"       db:"updated_at"`
}

// CreateProfileRequest represents parameters to create a Profile.
type CreateProfileRequest struct {
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Username    string       `json:"username"`
	Bio         string       `json:"bio"`
	Theme       ProfileTheme `json:"theme,omitempty"`
	IsPublic    *bool        `json:"is_public,omitempty"`
	SocialLinks SocialLinks  `json:"social_links"`
	ContactInfo ContactInfo  `json:"contact_info"`
}

// UpdateProfileRequest represents parameters to update a Profile.
type UpdateProfileRequest struct {
	DisplayName *string       `json:"display_name,omitempty"`
	Bio         *string       `json:"bio,omitempty"`
	Avatar      *string       `json:"avatar,omitempty"`
	Theme       *ProfileTheme `json:"theme,omitempty"`
	IsPublic    *bool         `json:"is_public,omitempty"`
	SocialLinks *SocialLinks  `json:"social_links,omitempty"`
	ContactInfo *ContactInfo  `json:"contact_info,omitempty"`
}

// Validate validates CreateProfileRequest.
func (r *CreateProfileRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	name := strings.TrimSpace(r.DisplayName)
	if name == "" {
		return errors.New("display_name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLen {
		return errors.New("display_name cannot exceed 100 characters")
	}
	username := strings.ToLower(strings.TrimSpace(r.Username))
	if username == "" {
		return errors.New("username is required and cannot be empty")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return errors.New("username cannot exceed 64 characters")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username must start with a letter or digit and contain only lowercase letters, digits, dots, underscores, or hyphens")
	}
	if utf8.RuneCountInString(r.Bio) > maxBioLen {
		return errors.New("bio cannot exceed 500 characters")
	}
	r.Username = username
	r.Theme = normalizeTheme(r.Theme)
	if !r.Theme.Valid() {
		return errors.New("theme is not supported")
	}
	return nil
}

// Validate validates UpdateProfileRequest.
func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName != nil {
		name := strings.TrimSpace(*r.DisplayName)
		if name == "" {
			return errors.New("display_name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxDisplayNameLen {
			return errors.New("display_name cannot exceed 100 characters")
		}
	}
	if r.Bio != nil && utf8.RuneCountInString(*r.Bio) > maxBioLen {
		return errors.New("bio cannot exceed 500 characters")
	}
	if r.Theme != nil {
		theme := normalizeTheme(*r.Theme)
		if !theme.Valid() {
			return errors.New("theme is not supported")
		}
		*r.Theme = theme
	}
	return nil
}
