package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string   // User's search text, matched against titles
	Types []string // Document types to include (empty = all)

	// Filters
	OwnerID string // Restrict to one owner's documents

	// Pagination
	Limit  int
	Offset int
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:  100,
		Offset: 0,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID    string  `json:"id"`
	Type  DocType `json:"type"`
	Score float64 `json:"score"`
	Title string  `json:"title"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score"})
	searchRequest.Fields = []string{"id", "type", "title"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if t, ok := hit.Fields["type"].(string); ok {
			searchHit.Type = DocType(t)
		}
		if n, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = n
		}
		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// MatchingIDs returns the set of document IDs whose titles match the search
// text, optionally restricted by type and owner. List endpoints use this to
// filter store scans by free-text search.
func (s *SearchIndex) MatchingIDs(ctx context.Context, searchText string, docType DocType, ownerID string) (map[string]bool, error) {
	params := DefaultSearchParams()
	params.Query = searchText
	params.OwnerID = ownerID
	if docType != "" {
		params.Types = []string{string(docType)}
	}
	// One page is plenty for an in-memory intersection; callers paginate
	// the store side.
	params.Limit = 1000

	result, err := s.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(result.Hits))
	for _, hit := range result.Hits {
		ids[hit.ID] = true
	}
	return ids, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Main text query: word match on the analyzed title, substring match on
	// the lowercased whole title, and a prefix match for autocomplete.
	if params.Query != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		substring := bleve.NewWildcardQuery("*" + strings.ToLower(params.Query) + "*")
		substring.SetField("title_exact")
		substring.SetBoost(2.0)
		textQueries = append(textQueries, substring)

		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		// Combine with OR (match any form)
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Type filter
	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(t)
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	// Owner filter
	if params.OwnerID != "" {
		oq := bleve.NewTermQuery(params.OwnerID)
		oq.SetField("owner_id")
		queries = append(queries, oq)
	}

	// Combine all queries with AND
	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
