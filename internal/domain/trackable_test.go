package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackable_MarkDeleted(t *testing.T) {
	b := &Book{Title: "The Peloponnesian War"}
	b.InitTimestamps()
	require.False(t, b.IsDeleted())

	before := b.UpdatedAt
	time.Sleep(time.Millisecond)
	b.MarkDeleted()

	assert.True(t, b.IsDeleted())
	require.NotNil(t, b.DeletedAt)
	assert.True(t, b.UpdatedAt.After(before), "deletion should touch UpdatedAt")
}

func TestRefreshToken_IsExpired(t *testing.T) {
	live := &RefreshToken{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, live.IsExpired())

	stale := &RefreshToken{ExpiresAt: time.Now().Add(-time.Second)}
	assert.True(t, stale.IsExpired())
}

func TestValidPlatform(t *testing.T) {
	for _, p := range []Platform{PlatformWeb, PlatformMobile, PlatformDesktop, PlatformAndroid, PlatformIOS} {
		assert.True(t, ValidPlatform(p))
	}
	assert.False(t, ValidPlatform("watch"))
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryFantasy))
	assert.False(t, ValidCategory("cooking"))
}

func TestUser_CanAuthenticate(t *testing.T) {
	u := &User{Active: true}
	assert.True(t, u.CanAuthenticate())

	u.Active = false
	assert.False(t, u.CanAuthenticate())

	u.Active = true
	u.MarkDeleted()
	assert.False(t, u.CanAuthenticate())
}
