package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/thebooksapp/thebooks-server/internal/domain"
)

// initUsers initializes the Users entity on the store.
// Username and email are unique among live users; soft-deleted users drop
// their index entries so the names become reusable.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndexTransform("username",
			func(u *domain.User) []string {
				if u.IsDeleted() {
					return nil
				}
				return []string{normalizeName(u.Username)}
			},
			normalizeName,
		).
		WithIndexTransform("email",
			func(u *domain.User) []string {
				if u.IsDeleted() {
					return nil
				}
				return []string{normalizeEmail(u.Email)}
			},
			normalizeEmail, // Transform lookups to be case-insensitive
		)
}

// normalizeEmail lowercases and trims an email address for index storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeName lowercases and trims a username for index storage.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindUserByIdentifier resolves a login identifier to a live user.
//
// The identifier is trimmed and a leading "@" is dropped, then matched in
// precedence order: a user whose stored phone number appears inside the
// identifier, then email, then username. The first match in that order wins.
// Returns ErrNotFound when nothing matches.
func (s *Store) FindUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	identifier = strings.TrimPrefix(strings.TrimSpace(identifier), "@")
	if identifier == "" {
		return nil, ErrNotFound
	}

	var phoneMatch, emailMatch, nameMatch *domain.User
	normalized := normalizeName(identifier)

	for user, err := range s.Users.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("scan users: %w", err)
		}
		if user.IsDeleted() {
			continue
		}

		if phoneMatch == nil && user.Phone != "" && strings.Contains(identifier, user.Phone) {
			phoneMatch = user
			break // Highest precedence, no point scanning further
		}
		if emailMatch == nil && normalizeEmail(user.Email) == normalizeEmail(identifier) {
			emailMatch = user
		}
		if nameMatch == nil && normalizeName(user.Username) == normalized {
			nameMatch = user
		}
	}

	switch {
	case phoneMatch != nil:
		return phoneMatch, nil
	case emailMatch != nil:
		return emailMatch, nil
	case nameMatch != nil:
		return nameMatch, nil
	}
	return nil, ErrNotFound
}

// GetLiveUser fetches a user by ID, treating soft-deleted rows as missing.
func (s *Store) GetLiveUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.Users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted() {
		return nil, ErrNotFound
	}
	return user, nil
}
