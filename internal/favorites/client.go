// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package favorites talks to the remote favorites store and holds the
// canonical client-side favorites cache together with the merge that
// annotates search results with favorite and read status.
package favorites

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/bookshelf/internal/httputil"
	"github.com/pdiddy/bookshelf/pkg/types"
)

// Store endpoint paths, relative to the base URL.
const (
	PathList      = "get/all"
	PathCreate    = "create"
	PathDelete    = "delete"
	PathSetActive = "change/active"
)

var validate = validator.New()

// StatusError is returned when the store answers with a non-2xx status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("favorites %s: HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("favorites %s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

// Client is an HTTP client for the favorites store.
type Client struct {
	BaseURL      string
	HTTP         *http.Client
	ListMethod   string
	DeleteMethod string
	Token        string
	UserAgent    string
	MaxRetries   int
}

// NewClient builds a client from configuration. Empty methods default to
// POST; token, when non-empty, is sent as a bearer token.
func NewClient(httpClient *http.Client, cfg types.FavoritesConfig, token string) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("favorites base URL is not configured")
	}
	listMethod, err := method(cfg.ListMethod, http.MethodPost, http.MethodGet)
	if err != nil {
		return nil, fmt.Errorf("list method: %w", err)
	}
	deleteMethod, err := method(cfg.DeleteMethod, http.MethodPost, http.MethodDelete)
	if err != nil {
		return nil, fmt.Errorf("delete method: %w", err)
	}
	return &Client{
		BaseURL:      cfg.BaseURL,
		HTTP:         httpClient,
		ListMethod:   listMethod,
		DeleteMethod: deleteMethod,
		Token:        token,
		UserAgent:    cfg.UserAgent,
		MaxRetries:   cfg.MaxRetries,
	}, nil
}

func method(got string, allowed ...string) (string, error) {
	if got == "" {
		return allowed[0], nil
	}
	up := strings.ToUpper(got)
	for _, m := range allowed {
		if up == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported method %q (want one of %s)", got, strings.Join(allowed, ", "))
}

// List returns every record in the store.
func (c *Client) List(ctx context.Context) ([]types.FavoriteRecord, error) {
	var body any
	if c.ListMethod != http.MethodGet {
		body = struct{}{}
	}
	data, err := c.do(ctx, "list", c.ListMethod, PathList, body)
	if err != nil {
		return nil, err
	}
	var records []types.FavoriteRecord
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("favorites list: parsing response: %w", err)
		}
	}
	for i := range records {
		if err := validate.Struct(&records[i]); err != nil {
			return nil, fmt.Errorf("favorites list: record %d: %w", i, err)
		}
	}
	return records, nil
}

// Create stores a new record. When the store's reply cannot be read as a
// record the sent record is returned: the create itself succeeded.
func (c *Client) Create(ctx context.Context, rec types.FavoriteRecord) (types.FavoriteRecord, error) {
	if err := validate.Struct(&rec); err != nil {
		return types.FavoriteRecord{}, fmt.Errorf("favorites create: %w", err)
	}
	data, err := c.do(ctx, "create", http.MethodPost, PathCreate, rec)
	if err != nil {
		return types.FavoriteRecord{}, err
	}
	var created types.FavoriteRecord
	if json.Unmarshal(data, &created) != nil || created.ID == "" {
		return rec, nil
	}
	return created, nil
}

// Delete removes the record with the given key.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.do(ctx, "delete", c.DeleteMethod, PathDelete, idBody{ID: key})
	return err
}

// SetActive sets the record's active (read) flag.
func (c *Client) SetActive(ctx context.Context, key string, active bool) error {
	_, err := c.do(ctx, "change active", http.MethodPost, PathSetActive, activeBody{ID: key, Active: active})
	return err
}

type idBody struct {
	ID string `json:"_id"`
}

type activeBody struct {
	ID     string `json:"_id"`
	Active bool   `json:"active"`
}

// do sends body as JSON and returns the trimmed body of a 2xx reply.
func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("favorites %s: encoding request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("favorites %s: creating request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("favorites %s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("favorites %s: reading response: %w", op, err)
	}
	data = bytes.TrimSpace(data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Body: snippet(data)}
	}
	return data, nil
}

func (c *Client) url(path string) string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + path
}

// snippet keeps at most 200 runes of a reply body for error messages.
func snippet(data []byte) string {
	r := []rune(strings.TrimSpace(string(data)))
	if len(r) > 200 {
		return string(r[:200]) + "..."
	}
	return string(r)
}
