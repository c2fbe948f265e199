package auth

// Package auth contains domain-level types for accounts and authorization.
// It is pure and free of framework/adapter concerns.

import "strings"

// Role represents an account's authorization role.
// Keep string form for easy persistence and JSON.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	// RoleGuest is the derived role of an unauthenticated session; it is
	// never persisted.
	RoleGuest Role = "guest"
)

// Permission capability tokens granted to accounts.
const (
	PermQRGenerate   = "qr_generate"
	PermCardManage   = "card_manage"
	PermUserManage   = "user_manage"
	PermAnalytics    = "analytics"
	PermProfileView  = "profile_view"
	PermCardPurchase = "card_purchase"
)

// User represents an authenticated principal. Email doubles as the
// validity witness: a record without one is not a usable user.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

// Valid reports whether the record identifies a usable account.
func (u User) Valid() bool { return u.Email != "" }

// IsAdmin returns true if the user role is admin.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// HasPermission reports whether the user's permission set contains p.
// Order is irrelevant and duplicates are immaterial.
func (u User) HasPermission(p string) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Credentials carries an email/password login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration carries the fields of a new account request.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`
}

// AccountUpdate is a partial profile patch. Nil fields are left unchanged
// by the server; the returned record always replaces the local user
// wholesale.
type AccountUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Company  *string `json:"company,omitempty"`
	Position *string `json:"position,omitempty"`
}

// DeriveRole maps an email address to the role a synthesized demo account
// receives: admin when the address contains "admin", user otherwise.
func DeriveRole(email string) Role {
	if strings.Contains(strings.ToLower(email), "admin") {
		return RoleAdmin
	}
	return RoleUser
}

// DefaultPermissions returns the fixed permission set granted to a role.
// The returned slice is a fresh copy.
func DefaultPermissions(role Role) []string {
	if role == RoleAdmin {
		return []string{PermQRGenerate, PermCardManage, PermUserManage, PermAnalytics}
	}
	return []string{PermProfileView, PermCardPurchase}
}
