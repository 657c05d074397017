package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/thebooksapp/thebooks-server/internal/domain"
	"github.com/thebooksapp/thebooks-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register",
		Description: "Creates a new user account",
		Tags:        []string{"Auth"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Login",
		Description: "Verifies credentials and issues a token pair",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshLogin",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh session",
		Description: "Redeems a refresh token for a new token pair",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRefreshLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetPassword",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/reset-password",
		Summary:     "Reset password",
		Description: "Replaces an account password",
		Tags:        []string{"Auth"},
	}, s.handleResetPassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the presented refresh token",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAuthUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/user",
		Summary:     "Get authenticated user",
		Description: "Returns the account behind the presented access token",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetAuthUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignRoles",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/roles",
		Summary:     "Assign roles",
		Description: "Replaces a user's role set. Requires the Root role",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAssignRoles)
}

// === DTOs ===

// UserResponse contains account data in API responses.
// The password hash is never included.
type UserResponse struct {
	ID        string    `json:"id" doc:"User ID"`
	Username  string    `json:"username" doc:"Unique username"`
	Email     string    `json:"email" doc:"Unique email address"`
	Phone     string    `json:"phone,omitempty" doc:"Phone number"`
	Roles     []string  `json:"roles" doc:"Assigned roles"`
	Active    bool      `json:"active" doc:"Whether the account may authenticate"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// SessionData contains an issued token pair.
type SessionData struct {
	AccessToken      string    `json:"access_token" doc:"PASETO access token"`
	RefreshToken     string    `json:"refresh_token" doc:"Opaque single-use refresh token"`
	TokenType        string    `json:"token_type" doc:"Always Bearer"`
	ExpiresIn        int       `json:"expires_in" doc:"Access token lifetime in seconds"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at" doc:"Refresh token expiry"`
}

// AuthSessionResponse pairs the authenticated user with a fresh session.
type AuthSessionResponse struct {
	User    UserResponse `json:"user" doc:"Authenticated account"`
	Session SessionData  `json:"session" doc:"Issued token pair"`
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body service.RegisterRequest
}

// UserOutput wraps a single user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body service.LoginRequest
}

// AuthSessionOutput wraps a user-plus-session response for Huma.
type AuthSessionOutput struct {
	Body AuthSessionResponse
}

// RefreshInput carries the refresh token alongside the access token.
type RefreshInput struct {
	Authorization string `header:"Authorization"`
	Body          service.RefreshRequest
}

// ResetPasswordInput wraps the password reset request for Huma.
type ResetPasswordInput struct {
	Body service.ResetPasswordRequest
}

// LogoutInput carries the refresh token to revoke.
type LogoutInput struct {
	Authorization string `header:"Authorization"`
	Body          service.RefreshRequest
}

// GetAuthUserInput contains parameters for fetching the calling account.
type GetAuthUserInput struct {
	Authorization string `header:"Authorization"`
}

// AssignRolesInput wraps the role assignment request for Huma.
type AssignRolesInput struct {
	Authorization string `header:"Authorization"`
	Body          service.AssignRolesRequest
}

// MessageResponse contains a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// MessageOutput wraps a confirmation message for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Roles:     u.Roles,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toAuthSessionResponse(resp *service.AuthResponse) AuthSessionResponse {
	return AuthSessionResponse{
		User: toUserResponse(resp.User),
		Session: SessionData{
			AccessToken:      resp.AccessToken,
			RefreshToken:     resp.RefreshToken,
			TokenType:        resp.TokenType,
			ExpiresIn:        resp.ExpiresIn,
			RefreshExpiresAt: resp.RefreshExpiresAt,
		},
	}
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthSessionOutput, error) {
	resp, err := s.services.Auth.Login(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	return &AuthSessionOutput{Body: toAuthSessionResponse(resp)}, nil
}

func (s *Server) handleRefreshLogin(ctx context.Context, input *RefreshInput) (*AuthSessionOutput, error) {
	claims, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Auth.RefreshLogin(ctx, claims, input.Body)
	if err != nil {
		return nil, err
	}

	return &AuthSessionOutput{Body: toAuthSessionResponse(resp)}, nil
}

func (s *Server) handleResetPassword(ctx context.Context, input *ResetPasswordInput) (*MessageOutput, error) {
	if err := s.services.Auth.ResetPassword(ctx, input.Body); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "password updated"}}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*MessageOutput, error) {
	claims, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.Logout(ctx, claims, input.Body); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "logged out"}}, nil
}

func (s *Server) handleGetAuthUser(ctx context.Context, input *GetAuthUserInput) (*UserOutput, error) {
	claims, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.GetAuthUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleAssignRoles(ctx context.Context, input *AssignRolesInput) (*UserOutput, error) {
	claims, err := s.requireRoles(ctx, input.Authorization, domain.RoleRoot)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.AssignRoles(ctx, claims, input.Body)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}
