package providers

import (
	"github.com/samber/do/v2"

	"github.com/thebooksapp/thebooks-server/internal/auth"
	"github.com/thebooksapp/thebooks-server/internal/config"
	"github.com/thebooksapp/thebooks-server/internal/logger"
	"github.com/thebooksapp/thebooks-server/internal/ratelimit"
)

// AuthKey is the hex-encoded PASETO key loaded from disk.
type AuthKey string

// ProvideAuthKey loads or generates the token signing key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return "", err
	}

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)

	return AuthKey(keyHex), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(authKey), cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}

// LoginRateLimiterHandle wraps the login throttle with shutdown capability.
type LoginRateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LoginRateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideLoginRateLimiter provides the per-client login attempt throttle.
func ProvideLoginRateLimiter(i do.Injector) (*LoginRateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := ratelimit.New(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)
	return &LoginRateLimiterHandle{KeyedRateLimiter: limiter}, nil
}
