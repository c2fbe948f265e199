//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// AnalyticsEvent is an append-only engagement record. Metadata is an
// opaque payload forwarded as-is to the tracking webhook when forwarding
// is enabled.
type AnalyticsEvent struct {
	ID            string         `json:"id"                   db:"id"`
	UserID        string         `json:"user_id"              db:"user_id"`
	ProfileID     *string        `json:"profile_id,omitempty" db:"profile_id"`
	QRCodeID      *string        `json:"qr_code_id,omitempty" db:"qr_code_id"`
	EventType     string         `json:"event_type"           db:"event_type"`
	EventCategory string         `json:"event_category"       db:"event_category"`
	EventAction   string         `json:"event_action"         db:"event_action"`
	Metadata      map[string]any `json:"metadata"             db:"metadata"`
	CreatedAt     time.Time      `json:"created_at"           db:"created_at"`
}

// RecordEventRequest represents parameters to record an AnalyticsEvent.
type RecordEventRequest struct {
	UserID        string         `json:"user_id"`
	ProfileID     *string        `json:"profile_id,omitempty"`
	QRCodeID      *string        `json:"qr_code_id,omitempty"`
	EventType     string         `json:"event_type"`
	EventCategory string         `json:"event_category,omitempty"`
	EventAction   string         `json:"event_action"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Validate validates RecordEventRequest, defaulting category the way the
// schema does.
func (r *RecordEventRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if strings.TrimSpace(r.EventType) == "" {
		return errors.New("event_type is required")
	}
	if strings.TrimSpace(r.EventAction) == "" {
		return errors.New("event_action is required")
	}
	if strings.TrimSpace(r.EventCategory) == "" {
		r.EventCategory = "engagement"
	}
	return nil
}
