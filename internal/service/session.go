package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thebooksapp/thebooks-server/internal/auth"
	"github.com/thebooksapp/thebooks-server/internal/domain"
	"github.com/thebooksapp/thebooks-server/internal/id"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

// SessionService issues token pairs and records their refresh-token rows.
// Each issued refresh token is single-use; rotation happens through
// AuthService.RefreshLogin.
type SessionService struct {
	store        *store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	store *store.Store,
	tokenService *auth.TokenService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// SessionResponse contains the issued token pair and metadata.
type SessionResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int       `json:"expires_in"` // Seconds until access token expires
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// IssueSession generates an access/refresh token pair for the user and
// persists the refresh token row tagged with the client platform and the
// issuance method.
func (s *SessionService) IssueSession(
	ctx context.Context,
	user *domain.User,
	platform domain.Platform,
	method string,
) (*SessionResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	tokenID, err := id.Generate(id.PrefixToken)
	if err != nil {
		return nil, fmt.Errorf("generate token ID: %w", err)
	}

	expiresAt := time.Now().Add(s.tokenService.RefreshTokenDuration())
	row := &domain.RefreshToken{
		Trackable: domain.Trackable{ID: tokenID},
		UserID:    user.ID,
		TokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt: expiresAt,
		Platform:  platform,
		Method:    method,
	}
	row.InitTimestamps()

	if err := s.store.Tokens.Create(ctx, row.ID, row); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("session issued",
			"user_id", user.ID,
			"platform", platform,
			"method", method,
		)
	}

	return &SessionResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int(s.tokenService.AccessTokenDuration().Seconds()),
		RefreshExpiresAt: expiresAt,
	}, nil
}
