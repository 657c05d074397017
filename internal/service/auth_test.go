package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebooksapp/thebooks-server/internal/auth"
	"github.com/thebooksapp/thebooks-server/internal/domain"
	domainerrors "github.com/thebooksapp/thebooks-server/internal/errors"
	"github.com/thebooksapp/thebooks-server/internal/id"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

// setupAuthTest creates the auth service stack on temporary storage.
func setupAuthTest(t *testing.T) (*AuthService, *SessionService, *auth.TokenService, *store.Store) {
	t.Helper()

	tmpDir := t.TempDir()

	s, err := store.New(tmpDir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	keyHex, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(keyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessionService := NewSessionService(s, tokenService, nil)
	authService := NewAuthService(s, tokenService, sessionService, nil)

	return authService, sessionService, tokenService, s
}

func registerTestUser(t *testing.T, svc *AuthService, username, email, phone string) *domain.User {
	t.Helper()

	user, err := svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    email,
		Phone:    phone,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return user
}

func assertCode(t *testing.T, err error, code domainerrors.Code) {
	t.Helper()

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, code, derr.Code)
}

func TestAuthService_Register(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)

	user := registerTestUser(t, svc, "thucydides", "thucydides@example.com", "9651254")

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "thucydides", user.Username)
	assert.Empty(t, user.Roles)
	assert.True(t, user.Active)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	registerTestUser(t, svc, "thucydides", "a@example.com", "")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "Thucydides", // case-insensitive clash
		Email:    "b@example.com",
		Password: "another password",
	})

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
	assert.Contains(t, derr.Fields, "username")
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	registerTestUser(t, svc, "first", "same@example.com", "")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "second",
		Email:    "SAME@example.com",
		Password: "another password",
	})

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Fields, "email")
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "shorty",
		Email:    "shorty@example.com",
		Password: "short",
	})

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
	assert.Contains(t, derr.Fields, "password")
}

func TestAuthService_Login_Identifiers(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	registered := registerTestUser(t, svc, "thucydides", "thucydides@example.com", "9651254")

	tests := []struct {
		name       string
		identifier string
	}{
		{"email", "thucydides@example.com"},
		{"email uppercased", "THUCYDIDES@EXAMPLE.COM"},
		{"username", "thucydides"},
		{"username with at prefix", "@thucydides"},
		{"phone exact", "9651254"},
		{"phone with at prefix", "@9651254"},
		{"phone with country code", "+49 9651254"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), LoginRequest{
				Identifier: tt.identifier,
				Password:   "correct horse battery",
				Platform:   domain.PlatformWeb,
			})
			require.NoError(t, err)
			assert.Equal(t, registered.ID, resp.User.ID)
			assert.NotEmpty(t, resp.AccessToken)
			assert.NotEmpty(t, resp.RefreshToken)
			assert.Equal(t, "Bearer", resp.TokenType)
		})
	}
}

func TestAuthService_Login_UnknownIdentifier(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)

	_, err := svc.Login(context.Background(), LoginRequest{
		Identifier: "nobody",
		Password:   "whatever password",
		Platform:   domain.PlatformWeb,
	})
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	svc, _, _, s := setupAuthTest(t)
	user := registerTestUser(t, svc, "sleeper", "sleeper@example.com", "")

	stored, err := s.GetLiveUser(context.Background(), user.ID)
	require.NoError(t, err)
	stored.Active = false
	require.NoError(t, s.Users.Update(context.Background(), stored.ID, stored))

	_, err = svc.Login(context.Background(), LoginRequest{
		Identifier: "sleeper",
		Password:   "correct horse battery",
		Platform:   domain.PlatformWeb,
	})

	// A disabled account is indistinguishable from a missing one.
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	registerTestUser(t, svc, "thucydides", "thucydides@example.com", "")

	_, err := svc.Login(context.Background(), LoginRequest{
		Identifier: "thucydides",
		Password:   "not the password",
		Platform:   domain.PlatformWeb,
	})
	assertCode(t, err, domainerrors.CodeInvalidCredentials)
}

func TestAuthService_Login_BadPlatform(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	registerTestUser(t, svc, "thucydides", "thucydides@example.com", "")

	_, err := svc.Login(context.Background(), LoginRequest{
		Identifier: "thucydides",
		Password:   "correct horse battery",
		Platform:   "toaster",
	})
	assertCode(t, err, domainerrors.CodeValidation)
}

func loginTestUser(t *testing.T, svc *AuthService, tokens *auth.TokenService, identifier string) (*AuthResponse, *auth.AccessClaims) {
	t.Helper()

	resp, err := svc.Login(context.Background(), LoginRequest{
		Identifier: identifier,
		Password:   "correct horse battery",
		Platform:   domain.PlatformAndroid,
	})
	require.NoError(t, err)

	claims, err := tokens.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	return resp, claims
}

func TestAuthService_RefreshLogin_RotatesToken(t *testing.T) {
	svc, _, tokens, _ := setupAuthTest(t)
	registerTestUser(t, svc, "thucydides", "thucydides@example.com", "")
	first, claims := loginTestUser(t, svc, tokens, "thucydides")

	second, err := svc.RefreshLogin(context.Background(), claims,
		RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEmpty(t, second.AccessToken)

	// The consumed token cannot be redeemed again.
	_, err = svc.RefreshLogin(context.Background(), claims,
		RefreshRequest{RefreshToken: first.RefreshToken})
	assertCode(t, err, domainerrors.CodeInvalidToken)

	// The rotated token still works and keeps the original platform tag.
	third, err := svc.RefreshLogin(context.Background(), claims,
		RefreshRequest{RefreshToken: second.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, third.RefreshToken)
}

func TestAuthService_RefreshLogin_UnknownToken(t *testing.T) {
	svc, _, tokens, _ := setupAuthTest(t)
	registerTestUser(t, svc, "thucydides", "thucydides@example.com", "")
	_, claims := loginTestUser(t, svc, tokens, "thucydides")

	_, err := svc.RefreshLogin(context.Background(), claims,
		RefreshRequest{RefreshToken: "bm90LWEtcmVhbC10b2tlbg"})
	assertCode(t, err, domainerrors.CodeInvalidToken)
}

func TestAuthService_RefreshLogin_ExpiredTokenIsConsumed(t *testing.T) {
	svc, _, tokens, s := setupAuthTest(t)
	user := registerTestUser(t, svc, "thucydides", "thucydides@example.com", "")
	_, claims := loginTestUser(t, svc, tokens, "thucydides")

	// Plant an already-expired refresh token row for the user.
	rawToken, err := tokens.GenerateRefreshToken()
	require.NoError(t, err)
	row := &domain.RefreshToken{
		Trackable: domain.Trackable{ID: id.MustGenerate(id.PrefixToken)},
		UserID:    user.ID,
		TokenHash: auth.HashRefreshToken(rawToken),
		ExpiresAt: time.Now().Add(-time.Hour),
		Platform:  domain.PlatformAndroid,
		Method:    domain.MethodLogin,
	}
	row.InitTimestamps()
	require.NoError(t, s.Tokens.Create(context.Background(), row.ID, row))

	_, err = svc.RefreshLogin(context.Background(), claims,
		RefreshRequest{RefreshToken: rawToken})
	assertCode(t, err, domainerrors.CodeInvalidToken)

	// The failed refresh still consumed the row.
	_, err = s.FindActiveToken(context.Background(), user.ID, row.TokenHash)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAuthService_RefreshLogin_DisabledOwnerConsumesToken(t *testing.T) {
	svc, _, tokens, s := setupAuthTest(t)
	user := registerTestUser(t, svc, "sleeper", "sleeper@example.com", "")
	resp, claims := loginTestUser(t, svc, tokens, "sleeper")

	stored, err := s.GetLiveUser(context.Background(), user.ID)
	require.NoError(t, err)
	stored.Active = false
	require.NoError(t, s.Users.Update(context.Background(), stored.ID, stored))

	_, err = svc.RefreshLogin(context.Background(), claims,
		RefreshRequest{RefreshToken: resp.RefreshToken})
	assertCode(t, err, domainerrors.CodeDisabledAccount)

	// Consumed despite the failure.
	tokenHash := auth.HashRefreshToken(resp.RefreshToken)
	_, err = s.FindActiveToken(context.Background(), user.ID, tokenHash)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAuthService_ResetPassword(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	registerTestUser(t, svc, "thucydides", "thucydides@example.com", "")

	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Identifier:  "thucydides",
		NewPassword: "a brand new password",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Identifier: "thucydides",
		Password:   "correct horse battery",
		Platform:   domain.PlatformWeb,
	})
	assertCode(t, err, domainerrors.CodeInvalidCredentials)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Identifier: "thucydides",
		Password:   "a brand new password",
		Platform:   domain.PlatformWeb,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuthService_ResetPassword_UnknownIdentifier(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)

	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Identifier:  "nobody",
		NewPassword: "a brand new password",
	})
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, tokens, _ := setupAuthTest(t)
	registerTestUser(t, svc, "thucydides", "thucydides@example.com", "")
	resp, claims := loginTestUser(t, svc, tokens, "thucydides")

	require.NoError(t, svc.Logout(context.Background(), claims,
		RefreshRequest{RefreshToken: resp.RefreshToken}))

	// The revoked token cannot refresh.
	_, err := svc.RefreshLogin(context.Background(), claims,
		RefreshRequest{RefreshToken: resp.RefreshToken})
	assertCode(t, err, domainerrors.CodeInvalidToken)

	// Logging out again with the same token is a no-op.
	require.NoError(t, svc.Logout(context.Background(), claims,
		RefreshRequest{RefreshToken: resp.RefreshToken}))
}

func rootClaims(userID string) *auth.AccessClaims {
	return &auth.AccessClaims{UserID: userID, Roles: []string{domain.RoleRoot}}
}

func TestAuthService_AssignRoles(t *testing.T) {
	svc, _, _, s := setupAuthTest(t)
	root := registerTestUser(t, svc, "root", "root@example.com", "")
	target := registerTestUser(t, svc, "plain", "plain@example.com", "")

	updated, err := svc.AssignRoles(context.Background(), rootClaims(root.ID), AssignRolesRequest{
		UserID: target.ID,
		Roles:  []string{domain.RoleAdmin, domain.RoleUser},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.RoleAdmin, domain.RoleUser}, updated.Roles)

	stored, err := s.GetLiveUser(context.Background(), target.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.RoleAdmin, domain.RoleUser}, stored.Roles)
}

func TestAuthService_AssignRoles_RequiresRoot(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	actor := registerTestUser(t, svc, "admin", "admin@example.com", "")
	target := registerTestUser(t, svc, "plain", "plain@example.com", "")

	claims := &auth.AccessClaims{UserID: actor.ID, Roles: []string{domain.RoleAdmin}}
	_, err := svc.AssignRoles(context.Background(), claims, AssignRolesRequest{
		UserID: target.ID,
		Roles:  []string{domain.RoleUser},
	})
	assertCode(t, err, domainerrors.CodeForbidden)
}

func TestAuthService_AssignRoles_TargetMissing(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	root := registerTestUser(t, svc, "root", "root@example.com", "")

	_, err := svc.AssignRoles(context.Background(), rootClaims(root.ID), AssignRolesRequest{
		UserID: "user-doesnotexist",
		Roles:  []string{domain.RoleUser},
	})
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestAuthService_GetAuthUser(t *testing.T) {
	svc, _, tokens, _ := setupAuthTest(t)
	registered := registerTestUser(t, svc, "thucydides", "thucydides@example.com", "9651254")
	_, claims := loginTestUser(t, svc, tokens, "thucydides")

	user, err := svc.GetAuthUser(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "9651254", user.Phone)
	assert.Empty(t, user.PasswordHash)
}

func TestSessionService_IssueSession(t *testing.T) {
	svc, sessions, _, s := setupAuthTest(t)
	user := registerTestUser(t, svc, "thucydides", "thucydides@example.com", "")

	stored, err := s.GetLiveUser(context.Background(), user.ID)
	require.NoError(t, err)

	resp, err := sessions.IssueSession(context.Background(), stored, domain.PlatformIOS, domain.MethodLogin)
	require.NoError(t, err)

	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int((15 * time.Minute).Seconds()), resp.ExpiresIn)
	assert.True(t, resp.RefreshExpiresAt.After(time.Now()))

	rows, err := s.ListUserTokens(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.PlatformIOS, rows[0].Platform)
	assert.Equal(t, domain.MethodLogin, rows[0].Method)
	assert.Equal(t, auth.HashRefreshToken(resp.RefreshToken), rows[0].TokenHash)
}
