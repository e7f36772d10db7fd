// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/pdiddy/bookshelf/internal/httputil"
	"github.com/pdiddy/bookshelf/pkg/types"
)

// openLibrarySearchBase is the Open Library search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openLibrarySearchBase = "https://openlibrary.org/search.json"

var validate = validator.New()

// OpenLibraryBackend queries the Open Library search API.
type OpenLibraryBackend struct {
	Client  *http.Client
	Config  types.SearchConfig
	limiter *rate.Limiter
}

// NewOpenLibraryBackend builds a backend. A positive RatePerSecond installs
// a token-bucket limiter shared by every search issued through it.
func NewOpenLibraryBackend(client *http.Client, cfg types.SearchConfig) *OpenLibraryBackend {
	b := &OpenLibraryBackend{Client: client, Config: cfg}
	if cfg.RatePerSecond > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return b
}

// Search issues one GET for the query and returns the documents as Books
// in response order. Favorite flags are left false; merging is the
// caller's job.
func (b *OpenLibraryBackend) Search(ctx context.Context, query Query) ([]types.Book, error) {
	if !query.Mode.Remote() {
		return nil, fmt.Errorf("mode %q is not served by Open Library", query.Mode)
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.requestURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.Config.UserAgent != "" {
		req.Header.Set("User-Agent", b.Config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Open Library request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("Open Library returned HTTP %d", resp.StatusCode)
	}

	var olr openLibraryResponse
	if err := json.NewDecoder(resp.Body).Decode(&olr); err != nil {
		return nil, fmt.Errorf("parsing Open Library response: %w", err)
	}
	if err := validate.Struct(&olr); err != nil {
		return nil, fmt.Errorf("malformed Open Library response: %w", err)
	}

	books := make([]types.Book, 0, len(olr.Docs))
	for _, d := range olr.Docs {
		books = append(books, types.Book{
			Key:              d.Key,
			CoverID:          d.CoverID,
			Title:            d.Title,
			Authors:          d.AuthorName,
			FirstPublishYear: d.FirstPublishYear,
		})
	}
	return books, nil
}

// requestURL binds the normalized text to the mode's field. The "+"
// separators are kept literal so the index reads them as spaces; each token
// between them is query-escaped.
func (b *OpenLibraryBackend) requestURL(query Query) string {
	endpoint := b.Config.Endpoint
	if endpoint == "" {
		endpoint = openLibrarySearchBase
	}

	tokens := strings.Split(query.Normalized(), "+")
	for i, tok := range tokens {
		tokens[i] = url.QueryEscape(tok)
	}

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	u := endpoint + sep + string(query.Mode) + "=" + strings.Join(tokens, "+")
	if b.Config.MaxResults > 0 {
		u += fmt.Sprintf("&limit=%d", b.Config.MaxResults)
	}
	return u
}

// Open Library search.json structures. Docs must be present (an empty array
// is fine) and every doc must carry a key.
type openLibraryResponse struct {
	NumFound int              `json:"numFound"`
	Docs     []openLibraryDoc `json:"docs" validate:"required,dive"`
}

type openLibraryDoc struct {
	Key              string   `json:"key" validate:"required"`
	Title            string   `json:"title"`
	CoverID          int      `json:"cover_i"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
}
