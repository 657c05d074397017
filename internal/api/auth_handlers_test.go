package api

import (
	"context"
	"net/http"
	"testing"

	"encoding/json/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebooksapp/thebooks-server/internal/domain"
	domainerrors "github.com/thebooksapp/thebooks-server/internal/errors"
)

func TestRegister(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "thucydides",
		"email":    "thucydides@example.com",
		"phone":    "+30 210 9651254",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.NotEmpty(t, envelope.Data.ID)
	assert.Equal(t, "thucydides", envelope.Data.Username)
	assert.Equal(t, "thucydides@example.com", envelope.Data.Email)
	assert.True(t, envelope.Data.Active)
	assert.Empty(t, envelope.Data.Roles)

	// The password hash never surfaces in the payload.
	assert.NotContains(t, resp.Body.String(), "password_hash")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.registerAndLogin(t, "herodotus")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "Herodotus",
		"email":    "other@example.com",
		"password": "correct horse battery",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope testEnvelope[any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, domainerrors.DomainFailure, envelope.Status)
	assert.Contains(t, envelope.Errors, "username")
}

func TestLogin_ByPhoneFragment(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "xenophon",
		"email":    "xenophon@example.com",
		"phone":    "+30 210 9651254",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"identifier": "@9651254",
		"password":   "correct horse battery",
		"platform":   "android",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AuthSessionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "xenophon", envelope.Data.User.Username)
	assert.NotEmpty(t, envelope.Data.Session.AccessToken)
	assert.NotEmpty(t, envelope.Data.Session.RefreshToken)
	assert.Equal(t, "Bearer", envelope.Data.Session.TokenType)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.registerAndLogin(t, "plutarch")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"identifier": "plutarch",
		"password":   "incorrect password",
		"platform":   "web",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var envelope testEnvelope[any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, domainerrors.DomainFailure, envelope.Status)
}

func TestRefresh_RotatesToken(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "polybius",
		"email":    "polybius@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"identifier": "polybius",
		"password":   "correct horse battery",
		"platform":   "ios",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var login testEnvelope[AuthSessionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	bearer := "Bearer " + login.Data.Session.AccessToken
	refreshToken := login.Data.Session.RefreshToken

	resp = ts.api.Post("/api/v1/auth/refresh",
		"Authorization: "+bearer,
		map[string]any{"refresh_token": refreshToken},
	)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var refreshed testEnvelope[AuthSessionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &refreshed))
	assert.NotEqual(t, refreshToken, refreshed.Data.Session.RefreshToken)

	// The old refresh token is consumed and cannot be redeemed again.
	resp = ts.api.Post("/api/v1/auth/refresh",
		"Authorization: "+bearer,
		map[string]any{"refresh_token": refreshToken},
	)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// The rotated token still works.
	resp = ts.api.Post("/api/v1/auth/refresh",
		"Authorization: Bearer "+refreshed.Data.Session.AccessToken,
		map[string]any{"refresh_token": refreshed.Data.Session.RefreshToken},
	)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "tacitus",
		"email":    "tacitus@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"identifier": "tacitus",
		"password":   "correct horse battery",
		"platform":   "web",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var login testEnvelope[AuthSessionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	bearer := "Bearer " + login.Data.Session.AccessToken
	refreshToken := login.Data.Session.RefreshToken

	resp = ts.api.Post("/api/v1/auth/logout",
		"Authorization: "+bearer,
		map[string]any{"refresh_token": refreshToken},
	)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Redeeming the revoked token fails.
	resp = ts.api.Post("/api/v1/auth/refresh",
		"Authorization: "+bearer,
		map[string]any{"refresh_token": refreshToken},
	)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Logout is idempotent.
	resp = ts.api.Post("/api/v1/auth/logout",
		"Authorization: "+bearer,
		map[string]any{"refresh_token": refreshToken},
	)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetAuthUser(t *testing.T) {
	ts := newTestServer(t, nil)
	bearer, userID := ts.registerAndLogin(t, "suetonius")

	resp := ts.api.Post("/api/v1/auth/user", "Authorization: "+bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, userID, envelope.Data.ID)
	assert.Equal(t, "suetonius", envelope.Data.Username)
}

func TestAssignRoles_RequiresRoot(t *testing.T) {
	ts := newTestServer(t, nil)
	bearer, _ := ts.registerAndLogin(t, "caller")
	_, targetID := ts.registerAndLogin(t, "target")

	resp := ts.api.Post("/api/v1/auth/roles",
		"Authorization: "+bearer,
		map[string]any{"user_id": targetID, "roles": []string{"Admin"}},
	)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAssignRoles_AsRoot(t *testing.T) {
	ts := newTestServer(t, nil)
	_, rootID := ts.registerAndLogin(t, "root")
	_, targetID := ts.registerAndLogin(t, "target")

	// Promote the first account directly in the store; there is no
	// bootstrap endpoint in tests.
	ctx := context.Background()
	rootUser, err := ts.store.Users.Get(ctx, rootID)
	require.NoError(t, err)
	rootUser.Roles = []string{domain.RoleRoot}
	require.NoError(t, ts.store.Users.Update(ctx, rootID, rootUser))

	// Re-login so the access token carries the Root role claim.
	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"identifier": "root",
		"password":   "correct horse battery",
		"platform":   "web",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var login testEnvelope[AuthSessionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	resp = ts.api.Post("/api/v1/auth/roles",
		"Authorization: Bearer "+login.Data.Session.AccessToken,
		map[string]any{"user_id": targetID, "roles": []string{"Admin", "Editor"}},
	)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, []string{"Admin", "Editor"}, envelope.Data.Roles)
}
