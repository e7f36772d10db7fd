// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the Open Library search index and renders the
// resulting books as cards, tables or JSON.
package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pdiddy/bookshelf/pkg/types"
)

// Query is one search request: the raw text typed by the user and the
// mode that decides which field it binds to.
type Query struct {
	Mode types.SearchMode
	Text string
}

// Normalized returns the query text in wire form.
func (q Query) Normalized() string {
	return Normalize(q.Text)
}

// Normalize lower-cases text and replaces every run of whitespace with a
// single "+". Leading and trailing runs are replaced too, so " dune " becomes
// "+dune+". Empty input stays empty; nothing is validated.
func Normalize(text string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('+')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// CoverSize selects the cover image variant.
type CoverSize string

const (
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// PlaceholderCoverURL is shown for books without a cover.
const PlaceholderCoverURL = "https://i.pinimg.com/736x/5e/e7/8e/5ee78e0c955b614f3e71f824bfa9f78f.jpg"

var coverBase = "https://covers.openlibrary.org/b/id/"

// CoverURL returns the cover image URL for coverID, or the placeholder
// when coverID is zero.
func CoverURL(coverID int, size CoverSize) string {
	if coverID == 0 {
		return PlaceholderCoverURL
	}
	if size != CoverLarge {
		size = CoverMedium
	}
	return fmt.Sprintf("%s%d-%s.jpg", coverBase, coverID, size)
}

// Card is the rendered form of a Book.
type Card struct {
	Key         string `json:"key" yaml:"key"`
	Title       string `json:"title" yaml:"title"`
	Authors     string `json:"authors" yaml:"authors"`
	Year        int    `json:"year" yaml:"year"`
	CoverURL    string `json:"cover_url" yaml:"cover_url"`
	InFavorites bool   `json:"in_favorites" yaml:"in_favorites"`
	Read        bool   `json:"read" yaml:"read"`
}

// Cards converts books to display cards with medium covers.
func Cards(books []types.Book) []Card {
	cards := make([]Card, len(books))
	for i, b := range books {
		cards[i] = Card{
			Key:         b.Key,
			Title:       b.Title,
			Authors:     b.AuthorLine(),
			Year:        b.FirstPublishYear,
			CoverURL:    CoverURL(b.CoverID, CoverMedium),
			InFavorites: b.InFavorites,
			Read:        b.Read,
		}
	}
	return cards
}

// FormatTable writes books as a numbered table to w. When message is set
// (an empty or failed search) it is written instead.
func FormatTable(books []types.Book, message string, w io.Writer) {
	if message != "" {
		fmt.Fprintln(w, message)
		return
	}
	if len(books) == 0 {
		fmt.Fprintln(w, "No books.")
		return
	}

	fmt.Fprintf(w, "%-3s  %-45s  %-25s  %-4s  %-3s  %-4s  %s\n",
		"#", "Title", "Authors", "Year", "Fav", "Read", "Key")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, c := range Cards(books) {
		year := ""
		if c.Year > 0 {
			year = fmt.Sprintf("%d", c.Year)
		}
		fmt.Fprintf(w, "%-3d  %-45s  %-25s  %-4s  %-3s  %-4s  %s\n",
			i+1, truncate(c.Title, 45), truncate(c.Authors, 25), year,
			mark(c.InFavorites), mark(c.Read), c.Key)
	}
	fmt.Fprintf(w, "\n%d books\n", len(books))
}

// FormatJSON writes books as indented JSON cards to w.
func FormatJSON(books []types.Book, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Cards(books))
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
