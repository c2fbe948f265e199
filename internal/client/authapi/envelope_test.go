package authapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

func TestExtractUserPrecedence(t *testing.T) {
	// "user" beats "data" beats bare fields.
	body := []byte(`{
		"id": "bare", "email": "bare@x.com",
		"data": {"id": "data", "email": "data@x.com"},
		"user": {"id": "user", "email": "user@x.com"}
	}`)

	u, err := extractUser(body)
	require.NoError(t, err)
	assert.Equal(t, "user", u.ID)
}

func TestExtractUserFallsBackToData(t *testing.T) {
	u, err := extractUser([]byte(`{"data": {"id": "d1", "email": "d@x.com"}}`))
	require.NoError(t, err)
	assert.Equal(t, "d1", u.ID)
}

func TestExtractUserBareShape(t *testing.T) {
	u, err := extractUser([]byte(`{"id": "b1", "email": "b@x.com", "role": "admin"}`))
	require.NoError(t, err)
	assert.Equal(t, "b1", u.ID)
	assert.Equal(t, domainauth.RoleAdmin, u.Role)
}

func TestExtractUserNullUserFieldFallsThrough(t *testing.T) {
	u, err := extractUser([]byte(`{"user": null, "data": {"id": "d1", "email": "d@x.com"}}`))
	require.NoError(t, err)
	assert.Equal(t, "d1", u.ID)
}

func TestExtractUserMissingEmailFails(t *testing.T) {
	_, err := extractUser([]byte(`{"user": {"id": "u1", "name": "No Email"}}`))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidResponse, apperrors.GetCode(err))
}

func TestExtractUserUnreadableBody(t *testing.T) {
	_, err := extractUser([]byte(`<html>gateway error</html>`))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidResponse, apperrors.GetCode(err))
}

func TestExtractUserDefaultsRoleAndPermissions(t *testing.T) {
	u, err := extractUser([]byte(`{"user": {"id": "u1", "email": "admin@x.com"}}`))
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, u.Role)
	assert.Contains(t, u.Permissions, domainauth.PermUserManage)
}

func TestExtractMessagePrefersMessage(t *testing.T) {
	assert.Equal(t, "nope", extractMessage([]byte(`{"message": "nope", "error": "other"}`)))
	assert.Equal(t, "other", extractMessage([]byte(`{"error": "other"}`)))
	assert.Empty(t, extractMessage([]byte(`not json`)))
}
