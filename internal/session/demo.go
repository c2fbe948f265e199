package session

import (
	"strconv"
	"time"

	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
)

// demoAccount is a locally synthesized account used when the auth
// service is disabled (demo mode) or unreachable during registration.
// Ids and tokens are timestamp-shaped placeholders, never persisted
// server-side.
type demoAccount struct {
	token string
	user  domainauth.User
}

func synthesizeDemoAccount(name, email string, now time.Time) demoAccount {
	role := domainauth.DeriveRole(email)
	stamp := strconv.FormatInt(now.UnixMilli(), 10)
	return demoAccount{
		token: "demo-token-" + stamp,
		user: domainauth.User{
			ID:          "demo-user-" + stamp,
			Name:        name,
			Email:       email,
			Role:        role,
			Permissions: domainauth.DefaultPermissions(role),
		},
	}
}
