// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the bookshelf packages:
// search results (Book), the favorites store wire shape (FavoriteRecord),
// search modes, and per-component configuration.
package types

import (
	"fmt"
	"strings"
)

// Book is a single search result card. Books are transient: each search
// response produces a fresh slice that replaces the previous one.
type Book struct {
	// Key uniquely identifies the work across the search index and the
	// favorites store (e.g. "/works/OL45804W").
	Key string `json:"key" yaml:"key"`

	// CoverID is the Open Library cover identifier. Zero means no cover.
	CoverID int `json:"cover_i,omitempty" yaml:"cover_i,omitempty"`

	// Title is the work title as returned by the index.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names in source order. May be empty.
	Authors []string `json:"author_name,omitempty" yaml:"author_name,omitempty"`

	// FirstPublishYear is the year of first publication, zero if unknown.
	FirstPublishYear int `json:"first_publish_year,omitempty" yaml:"first_publish_year,omitempty"`

	// InFavorites is derived at merge time from the cached favorites set.
	InFavorites bool `json:"in_favorites" yaml:"in_favorites"`

	// Read mirrors the favorite record's active flag. Always false when
	// InFavorites is false.
	Read bool `json:"read" yaml:"read"`
}

// AuthorLine joins the authors for display, or returns "Unknown".
func (b Book) AuthorLine() string {
	if len(b.Authors) == 0 {
		return "Unknown"
	}
	return strings.Join(b.Authors, ", ")
}

// FavoriteDetails is the details payload stored alongside a favorite.
type FavoriteDetails struct {
	CoverID int      `json:"cover_i" yaml:"cover_i"`
	Authors []string `json:"author" yaml:"author"`
	Year    int      `json:"year" yaml:"year"`
}

// FavoriteRecord is the favorites store's persisted document. ID and Code
// both carry the book key; Active is repurposed as "marked read" and
// Deleted is a soft-delete flag the client always sends false.
type FavoriteRecord struct {
	ID      string          `json:"_id" validate:"required"`
	Name    string          `json:"name"`
	Code    string          `json:"code"`
	Details FavoriteDetails `json:"details"`
	Active  bool            `json:"active"`
	Deleted bool            `json:"delete"`
}

// SearchMode selects the field a query is bound to, or the local
// favorites filter.
type SearchMode string

const (
	ModeTitle     SearchMode = "title"
	ModeAuthor    SearchMode = "author"
	ModeText      SearchMode = "q"
	ModeFavorites SearchMode = "favorites"
)

// ParseSearchMode validates a user-supplied mode name. "text" is accepted
// as an alias for the free-text field.
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "title":
		return ModeTitle, nil
	case "author":
		return ModeAuthor, nil
	case "q", "text":
		return ModeText, nil
	case "favorites", "favs":
		return ModeFavorites, nil
	}
	return "", fmt.Errorf("unknown search mode %q: want title, author, q, or favorites", s)
}

// Remote reports whether the mode is served by the search API rather than
// the local favorites cache.
func (m SearchMode) Remote() bool {
	return m != ModeFavorites
}
