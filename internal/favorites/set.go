// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package favorites

import (
	"strings"

	"github.com/pdiddy/bookshelf/pkg/types"
)

// Entry is the cached state of one favorite.
type Entry struct {
	Title   string
	Details types.FavoriteDetails
	Active  bool
}

// Set is the client-side favorites cache: a mapping from book key to
// Entry that remembers insertion order for listing. The zero value is not
// usable; call NewSet or FromRecords. A Set is not safe for concurrent use.
type Set struct {
	entries map[string]Entry
	order   []string
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{entries: make(map[string]Entry)}
}

// FromRecords builds a set from store records in store order. A later
// record with a duplicate key replaces the earlier one in place.
func FromRecords(records []types.FavoriteRecord) *Set {
	s := NewSet()
	for _, r := range records {
		d := r.Details
		d.Authors = copyStrings(d.Authors)
		s.Put(r.ID, Entry{Title: r.Name, Details: d, Active: r.Active})
	}
	return s
}

// EntryFromBook captures the parts of a book the store keeps.
func EntryFromBook(b types.Book) Entry {
	return Entry{
		Title: b.Title,
		Details: types.FavoriteDetails{
			CoverID: b.CoverID,
			Authors: copyStrings(b.Authors),
			Year:    b.FirstPublishYear,
		},
		Active: b.Read,
	}
}

// RecordFromBook builds the create payload for a book. The key doubles as
// _id and code; the soft-delete flag is always false.
func RecordFromBook(b types.Book) types.FavoriteRecord {
	e := EntryFromBook(b)
	return types.FavoriteRecord{
		ID:      b.Key,
		Name:    e.Title,
		Code:    b.Key,
		Details: e.Details,
		Active:  e.Active,
	}
}

// Len returns the number of favorites.
func (s *Set) Len() int { return len(s.order) }

// Has reports whether key is a favorite.
func (s *Set) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Get returns the entry for key.
func (s *Set) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Put inserts or replaces the entry for key.
func (s *Set) Put(key string, e Entry) {
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = e
}

// Remove deletes key. It reports whether the key was present.
func (s *Set) Remove(key string) bool {
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// SetActive updates the read flag of an existing entry. It reports whether
// the key was present.
func (s *Set) SetActive(key string, active bool) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.Active = active
	s.entries[key] = e
	return true
}

// Keys returns the favorite keys in insertion order.
func (s *Set) Keys() []string {
	return append([]string(nil), s.order...)
}

// Book returns the favorite as a Book with InFavorites set. The authors
// slice is a copy.
func (s *Set) Book(key string) (types.Book, bool) {
	e, ok := s.entries[key]
	if !ok {
		return types.Book{}, false
	}
	return types.Book{
		Key:              key,
		CoverID:          e.Details.CoverID,
		Title:            e.Title,
		Authors:          e.Details.Authors,
		FirstPublishYear: e.Details.Year,
		InFavorites:      true,
		Read:             e.Active,
	}, true
}

// Books returns every favorite as a Book, in insertion order.
func (s *Set) Books() []types.Book {
	out := make([]types.Book, 0, len(s.order))
	for _, k := range s.order {
		b, _ := s.Book(k)
		out = append(out, b)
	}
	return out
}

// Merge annotates books in place with favorite and read status and
// returns them. Read is forced false for books that are not favorites.
func (s *Set) Merge(books []types.Book) []types.Book {
	for i := range books {
		e, ok := s.entries[books[i].Key]
		books[i].InFavorites = ok
		books[i].Read = ok && e.Active
	}
	return books
}

// FilterByTitle returns the favorites whose title contains text,
// case-insensitively. Authors and year are not consulted. Empty text
// matches every favorite.
func (s *Set) FilterByTitle(text string) []types.Book {
	needle := strings.ToLower(text)
	out := make([]types.Book, 0)
	for _, k := range s.order {
		e := s.entries[k]
		if strings.Contains(strings.ToLower(e.Title), needle) {
			b, _ := s.Book(k)
			out = append(out, b)
		}
	}
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
