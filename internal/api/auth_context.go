package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/thebooksapp/thebooks-server/internal/auth"
	"github.com/thebooksapp/thebooks-server/internal/domain"
)

// authenticateRequest validates the Authorization header and returns the
// verified claims. Verification is by token decryption only; the user row is
// not consulted here.
func (s *Server) authenticateRequest(_ context.Context, authHeader string) (*auth.AccessClaims, error) {
	if authHeader == "" {
		return nil, huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	claims, err := s.services.Auth.VerifyAccessToken(parts[1])
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid or expired token")
	}

	return claims, nil
}

// requireRoles authenticates the request and checks the claims against a
// required-roles expression such as "Root" or "Root|Admin".
func (s *Server) requireRoles(ctx context.Context, authHeader, requiredExpr string) (*auth.AccessClaims, error) {
	claims, err := s.authenticateRequest(ctx, authHeader)
	if err != nil {
		return nil, err
	}
	if !domain.IsInRoles(claims.Roles, requiredExpr) {
		return nil, huma.Error403Forbidden("Insufficient role")
	}
	return claims, nil
}
