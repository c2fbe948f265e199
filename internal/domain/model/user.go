//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"time"

	"github.com/taponn/taponn-api/internal/domain/auth"
)

// Account is the stored server-side record behind an auth.User. The
// password hash and lockout bookkeeping never leave the data layer.
type Account struct {
	ID            string     `json:"id"              db:"id"`
	Name          *string    `json:"name,omitempty"  db:"name"`
	Email         string     `json:"email"           db:"email"`
	PasswordHash  string     `json:"-"               db:"password_hash"`
	Role          auth.Role  `json:"role"            db:"role"`
	Permissions   []string   `json:"permissions"     db:"permissions"`
	Phone         *string    `json:"phone,omitempty"    db:"phone"`
	Company       *string    `json:"company,omitempty"  db:"company"`
	Position      *string    `json:"position,omitempty" db:"position"`
	IsLocked      bool       `json:"is_locked"       db:"is_locked"`
	LoginAttempts int        `json:"-"               db:"login_attempts"`
	LockUntil     *time.Time `json:"-"               db:"lock_until"`
	LastLogin     *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt     time.Time  `json:"created_at"      db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"      db:"updated_at"`
}

// User projects the account into the wire shape the client consumes.
func (a Account) User() auth.User {
	name := ""
	if a.Name != nil {
		name = *a.Name
	}
	perms := append([]string(nil), a.Permissions...)
	return auth.User{
		ID:          a.ID,
		Name:        name,
		Email:       a.Email,
		Role:        a.Role,
		Permissions: perms,
	}
}

// LockedNow reports whether the account is locked at the given instant.
// A lock expires once lock_until passes.
func (a Account) LockedNow(now time.Time) bool {
	if !a.IsLocked {
		return false
	}
	if a.LockUntil == nil {
		return true
	}
	return now.Before(*a.LockUntil)
}
