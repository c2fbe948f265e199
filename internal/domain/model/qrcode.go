//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxQRNameLen = 100

// QRSettings controls rendering of a generated QR code.
type QRSettings struct {
	Size                 int    `json:"size"`
	ForegroundColor      string `json:"foregroundColor"`
	BackgroundColor      string `json:"backgroundColor"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel"`
	Margin               int    `json:"margin"`
}

// DefaultQRSettings mirrors the schema default for new codes.
func DefaultQRSettings() QRSettings {
	return QRSettings{
		Size:                 200,
		ForegroundColor:      "#000000",
		BackgroundColor:      "#FFFFFF",
		ErrorCorrectionLevel: "M",
		Margin:               4,
	}
}

// QRCode represents a generated QR code pointing at a profile.
type QRCode struct {
	ID        string     `json:"id"                db:"id"`
	UserID    string     `json:"user_id"           db:"user_id"`
	ProfileID string     `json:"profile_id"        db:"profile_id"`
	Name      string     `json:"name"              db:"name"`
	QRData    string     `json:"qr_data"           db:"qr_data"`
	ScanCount int        `json:"scan_count"        db:"scan_count"`
	IsActive  bool       `json:"is_active"         db:"is_active"`
	Settings  QRSettings `json:"settings"          db:"settings"`
	LastScan  *time.Time `json:"last_scan,omitempty" db:"last_scan"`
	CreatedAt time.Time  `json:"created_at"        db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"        db:"updated_at"`
}

// CreateQRCodeRequest represents parameters to create a QRCode.
type CreateQRCodeRequest struct {
	UserID    string      `json:"user_id"`
	ProfileID string      `json:"profile_id"`
	Name      string      `json:"name"`
	QRData    string      `json:"qr_data"`
	Settings  *QRSettings `json:"settings,omitempty"`
}

// Validate validates CreateQRCodeRequest.
func (r *CreateQRCodeRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if strings.TrimSpace(r.ProfileID) == "" {
		return errors.New("profile_id is required")
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxQRNameLen {
		return errors.New("name cannot exceed 100 characters")
	}
	if strings.TrimSpace(r.QRData) == "" {
		return errors.New("qr_data is required")
	}
	if r.Settings != nil {
		if r.Settings.Size <= 0 {
			return errors.New("settings.size must be > 0")
		}
		switch r.Settings.ErrorCorrectionLevel {
		case "L", "M", "Q", "H":
		default:
			return errors.New("settings.errorCorrectionLevel must be one of L, M, Q, H")
		}
	}
	return nil
}
