package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationParams_Validate(t *testing.T) {
	p := PaginationParams{Limit: 0}
	p.Validate()
	assert.Equal(t, 20, p.Limit)

	p = PaginationParams{Limit: -5}
	p.Validate()
	assert.Equal(t, 20, p.Limit)

	p = PaginationParams{Limit: 500}
	p.Validate()
	assert.Equal(t, 100, p.Limit)

	p = PaginationParams{Limit: 50}
	p.Validate()
	assert.Equal(t, 50, p.Limit)
}

func TestCursor_RoundTrip(t *testing.T) {
	cursor := EncodeCursor("book-123")
	assert.NotEmpty(t, cursor)
	assert.NotEqual(t, "book-123", cursor)

	key, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, "book-123", key)

	// Empty round trip.
	assert.Empty(t, EncodeCursor(""))
	key, err = DecodeCursor("")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	_, err := DecodeCursor("!!!not-base64!!!")
	assert.Error(t, err)
}

type pageItem struct{ ID string }

func makePageItems(n int) []pageItem {
	items := make([]pageItem, n)
	for i := range items {
		items[i] = pageItem{ID: fmt.Sprintf("item-%02d", i)}
	}
	return items
}

func TestPaginate_WalksAllPages(t *testing.T) {
	items := makePageItems(25)
	idOf := func(p pageItem) string { return p.ID }

	var seen []string
	params := PaginationParams{Limit: 10}

	for {
		page, err := Paginate(items, params, idOf)
		require.NoError(t, err)
		assert.Equal(t, 25, page.Total)

		for _, item := range page.Items {
			seen = append(seen, item.ID)
		}

		if !page.HasMore {
			assert.Empty(t, page.NextCursor)
			break
		}
		require.NotEmpty(t, page.NextCursor)
		params.Cursor = page.NextCursor
	}

	require.Len(t, seen, 25)
	for i, id := range seen {
		assert.Equal(t, fmt.Sprintf("item-%02d", i), id, "order must be stable across pages")
	}
}

func TestPaginate_UnknownCursorYieldsEmptyPage(t *testing.T) {
	items := makePageItems(5)
	idOf := func(p pageItem) string { return p.ID }

	page, err := Paginate(items, PaginationParams{Limit: 10, Cursor: EncodeCursor("item-99")}, idOf)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}

func TestPaginate_BadCursor(t *testing.T) {
	items := makePageItems(5)
	idOf := func(p pageItem) string { return p.ID }

	_, err := Paginate(items, PaginationParams{Limit: 10, Cursor: "%%%"}, idOf)
	assert.Error(t, err)
}
