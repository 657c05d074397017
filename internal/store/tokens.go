package store

import (
	"context"
	"fmt"

	"github.com/thebooksapp/thebooks-server/internal/domain"
)

// initTokens initializes the refresh token entity on the store.
// The token hash index only exists while the row is live: consuming a token
// soft-deletes it, which removes the hash entry, so a second lookup with the
// same token misses.
func (s *Store) initTokens() {
	s.Tokens = NewEntity[domain.RefreshToken](s, "token:").
		WithIndex("hash", func(t *domain.RefreshToken) []string {
			if t.IsDeleted() {
				return nil
			}
			return []string{t.TokenHash}
		})
}

// FindActiveToken looks up a live refresh token row by its hash, scoped to
// the given user. Returns ErrNotFound if no live row matches.
func (s *Store) FindActiveToken(ctx context.Context, userID, tokenHash string) (*domain.RefreshToken, error) {
	token, err := s.Tokens.GetByIndex(ctx, "hash", tokenHash)
	if err != nil {
		return nil, err
	}
	if token.IsDeleted() || token.UserID != userID {
		return nil, ErrNotFound
	}
	return token, nil
}

// ConsumeToken soft-deletes a refresh token row and persists the change.
// Once this returns nil the token can never match a lookup again, whatever
// the caller decides to do next.
func (s *Store) ConsumeToken(ctx context.Context, token *domain.RefreshToken) error {
	token.MarkDeleted()
	if err := s.Tokens.Update(ctx, token.ID, token); err != nil {
		return fmt.Errorf("consume token %s: %w", token.ID, err)
	}
	return nil
}

// ListUserTokens returns all live refresh tokens belonging to a user.
func (s *Store) ListUserTokens(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	var tokens []*domain.RefreshToken
	for token, err := range s.Tokens.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("scan tokens: %w", err)
		}
		if token.IsDeleted() || token.UserID != userID {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}
