package service

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/thebooksapp/thebooks-server/internal/auth"
	"github.com/thebooksapp/thebooks-server/internal/domain"
	domainerrors "github.com/thebooksapp/thebooks-server/internal/errors"
	"github.com/thebooksapp/thebooks-server/internal/id"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// AuthService handles registration, credential verification and the refresh
// token lifecycle. Token pair issuance is delegated to SessionService.
type AuthService struct {
	store          *store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store *store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		logger:         logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=5,max=32"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains credentials and the client platform.
// Identifier may be a phone number fragment, an email address or a username;
// a leading "@" is accepted and ignored.
type LoginRequest struct {
	Identifier string          `json:"identifier" validate:"required"`
	Password   string          `json:"password" validate:"required"`
	Platform   domain.Platform `json:"platform" validate:"required"`
}

// RefreshRequest carries the opaque refresh token being redeemed.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ResetPasswordRequest contains the account identifier and replacement password.
type ResetPasswordRequest struct {
	Identifier  string `json:"identifier" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=1024"`
}

// AssignRolesRequest replaces a user's role set.
type AssignRolesRequest struct {
	UserID string   `json:"user_id" validate:"required"`
	Roles  []string `json:"roles,omitempty" validate:"dive,required"`
}

// AuthResponse contains the session tokens plus the authenticated user.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Register creates a new user account. The account starts active with no
// roles and no session; the caller logs in separately.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Trackable:    domain.Trackable{ID: userID},
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: passwordHash,
		Roles:        nil,
		Active:       true,
	}
	user.InitTimestamps()

	if err := s.store.Users.Create(ctx, userID, user); err != nil {
		if conflict := (*store.IndexConflictError)(nil); domainerrors.As(err, &conflict) {
			return nil, domainerrors.ValidationWithFields("registration failed",
				map[string]string{conflict.Index: conflict.Index + " is already in use"})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user registered", "user_id", userID, "username", user.Username)
	}

	return sanitizeUser(user), nil
}

// Login authenticates a user by identifier and password and issues a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if !domain.ValidPlatform(req.Platform) {
		return nil, domainerrors.Validationf("unknown platform %q", req.Platform)
	}

	user, err := s.resolveAccount(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, domainerrors.InvalidCredentials("invalid credentials")
	}
	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid credentials")
	}

	session, err := s.sessionService.IssueSession(ctx, user, req.Platform, domain.MethodLogin)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user logged in", "user_id", user.ID, "platform", req.Platform)
	}

	return &AuthResponse{
		User:            sanitizeUser(user),
		SessionResponse: *session,
	}, nil
}

// RefreshLogin rotates a refresh token for an authenticated caller.
//
// The presented token is matched against the caller's live token rows by
// hash. A stale token or a disabled owner still consumes the row: the
// soft delete is persisted before the failure is reported, so the token
// cannot be retried.
func (s *AuthService) RefreshLogin(ctx context.Context, claims *auth.AccessClaims, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	tokenHash := auth.HashRefreshToken(req.RefreshToken)
	row, err := s.store.FindActiveToken(ctx, claims.UserID, tokenHash)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidToken("refresh token is not recognized")
		}
		return nil, fmt.Errorf("look up refresh token: %w", err)
	}

	// Work out whether this refresh may succeed before consuming the row.
	var deferred error
	if row.IsExpired() {
		deferred = domainerrors.InvalidToken("refresh token has expired")
	}

	user, err := s.store.GetLiveUser(ctx, claims.UserID)
	switch {
	case domainerrors.Is(err, store.ErrNotFound):
		if deferred == nil {
			deferred = domainerrors.NotFound("account not found")
		}
	case err != nil:
		return nil, fmt.Errorf("get user: %w", err)
	case !user.CanAuthenticate():
		if deferred == nil {
			deferred = domainerrors.DisabledAccount("account is disabled")
		}
	}

	// The row is spent either way. Persist the consumption first so a
	// failed refresh can never be replayed.
	if err := s.store.ConsumeToken(ctx, row); err != nil {
		return nil, err
	}
	if deferred != nil {
		if s.logger != nil {
			s.logger.Info("refresh rejected, token consumed",
				"user_id", claims.UserID, "token_id", row.ID)
		}
		return nil, deferred
	}

	session, err := s.sessionService.IssueSession(ctx, user, row.Platform, domain.MethodRefresh)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &AuthResponse{
		User:            sanitizeUser(user),
		SessionResponse: *session,
	}, nil
}

// ResetPassword replaces an account's password. Resolution and failure rules
// match Login. A one-time code is generated server-side to correlate the
// reset; it is never sent to the client. No session is issued.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	user, err := s.resolveAccount(ctx, req.Identifier)
	if err != nil {
		return err
	}

	resetCode := strings.ReplaceAll(uuid.NewString(), "-", "")

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = passwordHash
	user.Touch()

	if err := s.store.Users.Update(ctx, user.ID, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("password reset", "user_id", user.ID, "reset_code", resetCode)
	}

	return nil
}

// Logout revokes the presented refresh token. Unknown or already-consumed
// tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, claims *auth.AccessClaims, req RefreshRequest) error {
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	tokenHash := auth.HashRefreshToken(req.RefreshToken)
	row, err := s.store.FindActiveToken(ctx, claims.UserID, tokenHash)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("look up refresh token: %w", err)
	}

	if err := s.store.ConsumeToken(ctx, row); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("user logged out", "user_id", claims.UserID, "token_id", row.ID)
	}
	return nil
}

// AssignRoles replaces the target user's role set. Only callers holding the
// Root role may do this.
func (s *AuthService) AssignRoles(ctx context.Context, caller *auth.AccessClaims, req AssignRolesRequest) (*domain.User, error) {
	if !caller.InRoles(domain.RoleRoot) {
		return nil, domainerrors.Forbidden("only Root may assign roles")
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetLiveUser(ctx, req.UserID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("target user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	roles := make([]string, 0, len(req.Roles))
	for _, role := range req.Roles {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	user.Roles = roles
	user.Touch()

	if err := s.store.Users.Update(ctx, user.ID, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("roles assigned",
			"actor_id", caller.UserID,
			"user_id", user.ID,
			"roles", strings.Join(roles, ","),
		)
	}

	return sanitizeUser(user), nil
}

// GetAuthUser returns the authenticated caller's profile.
func (s *AuthService) GetAuthUser(ctx context.Context, claims *auth.AccessClaims) (*domain.User, error) {
	user, err := s.store.GetLiveUser(ctx, claims.UserID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("account not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return sanitizeUser(user), nil
}

// VerifyAccessToken validates a bearer token. Used by the authentication
// middleware; the claims alone identify the caller, no user lookup happens.
func (s *AuthService) VerifyAccessToken(tokenString string) (*auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, domainerrors.InvalidToken("invalid access token").WithCause(err)
	}
	return claims, nil
}

// resolveAccount finds a user by login identifier and checks they may
// authenticate. Both a missing account and a disabled one report NotFound so
// the response does not reveal which it was.
func (s *AuthService) resolveAccount(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.store.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("account not found")
		}
		return nil, fmt.Errorf("resolve identifier: %w", err)
	}
	if !user.CanAuthenticate() {
		return nil, domainerrors.NotFound("account not found")
	}
	return user, nil
}

// sanitizeUser returns a copy safe for API responses.
func sanitizeUser(user *domain.User) *domain.User {
	clean := *user
	clean.PasswordHash = ""
	return &clean
}

// formatValidationError converts validator errors to a field-keyed domain error.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !domainerrors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			fields[field] = field + " is required"
		case "email":
			fields[field] = field + " must be a valid email address"
		case "min":
			fields[field] = field + " must be at least " + e.Param() + " characters"
		case "max":
			fields[field] = field + " exceeds maximum length of " + e.Param() + " characters"
		default:
			fields[field] = field + " is invalid"
		}
	}
	return domainerrors.ValidationWithFields("validation failed", fields)
}
