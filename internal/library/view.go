// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library holds the search-and-favorites view: the state a shell
// renders (result books, cached favorites, loading flag, user message) and
// the operations that move it. Remote failures never escape the view; they
// become one of two user-visible messages on the search path or a log line
// on the favorites path.
package library

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/pdiddy/bookshelf/internal/favorites"
	"github.com/pdiddy/bookshelf/internal/search"
	"github.com/pdiddy/bookshelf/pkg/types"
)

// User-visible messages.
const (
	MsgSearchFailed = "search failed"
	MsgNoResults    = "no results"
)

// Searcher runs a remote search. Implemented by search.OpenLibraryBackend.
type Searcher interface {
	Search(ctx context.Context, query search.Query) ([]types.Book, error)
}

// FavoritesStore is the remote favorites store. Implemented by
// favorites.Client.
type FavoritesStore interface {
	List(ctx context.Context) ([]types.FavoriteRecord, error)
	Create(ctx context.Context, rec types.FavoriteRecord) (types.FavoriteRecord, error)
	Delete(ctx context.Context, key string) error
	SetActive(ctx context.Context, key string, active bool) error
}

// Outcome reports how an operation ended.
type Outcome int

const (
	// OutcomeApplied means local state now reflects the operation.
	OutcomeApplied Outcome = iota + 1
	// OutcomeFailed means the remote call failed and local state is as it
	// was before the attempt.
	OutcomeFailed
	// OutcomeDiscarded means the result arrived after a newer request, or
	// collided with local changes, and was dropped.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeFailed:
		return "failed"
	case OutcomeDiscarded:
		return "discarded"
	}
	return "unknown"
}

// State is a point-in-time copy of the view, safe to render.
type State struct {
	Query     search.Query
	Books     []types.Book
	Favorites []types.Book
	Loading   bool
	Message   string
	Pending   []Op
}

// View is the search-and-favorites view. It is safe for concurrent use; no
// lock is held across a remote call.
type View struct {
	searcher Searcher
	store    FavoritesStore
	log      *log.Logger

	mu      sync.Mutex
	query   search.Query
	books   []types.Book
	favs    *favorites.Set
	loading bool
	message string
	latest  uint64
	journal *Journal
}

// New returns a view with an empty favorites cache. A nil logger discards
// log output.
func New(searcher Searcher, store FavoritesStore, logger *log.Logger) *View {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &View{
		searcher: searcher,
		store:    store,
		log:      logger,
		favs:     favorites.NewSet(),
		journal:  NewJournal(),
	}
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		Query:     v.query,
		Books:     cloneBooks(v.books),
		Favorites: v.favs.Books(),
		Loading:   v.loading,
		Message:   v.message,
		Pending:   v.journal.Pending(),
	}
}

// Book returns the i-th displayed book (zero-based).
func (v *View) Book(i int) (types.Book, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i < 0 || i >= len(v.books) {
		return types.Book{}, false
	}
	return cloneBook(v.books[i]), true
}

// Favorite returns the cached favorite for key as a Book.
func (v *View) Favorite(key string) (types.Book, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.favs.Book(key)
}

// History returns recently finished mutations.
func (v *View) History() []Op {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.journal.History()
}

// LoadFavorites reads every record from the store and replaces the cached
// favorites. Displayed books are re-merged. On failure the cache is left
// as it was (empty on first load) and the error is logged.
func (v *View) LoadFavorites(ctx context.Context) Outcome {
	return v.refresh(ctx, "load favorites")
}

// Reconcile re-reads the store so local state converges on the store's
// truth after partial failures. It is dropped when mutations are in
// flight or commit while the read is outstanding.
func (v *View) Reconcile(ctx context.Context) Outcome {
	return v.refresh(ctx, "reconcile")
}

func (v *View) refresh(ctx context.Context, label string) Outcome {
	v.mu.Lock()
	gen := v.journal.Committed()
	busy := len(v.journal.Pending()) > 0
	v.mu.Unlock()
	if busy {
		v.log.Printf("%s: skipped, mutations in flight", label)
		return OutcomeDiscarded
	}

	records, err := v.store.List(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.log.Printf("%s: %v", label, err)
		return OutcomeFailed
	}
	if v.journal.Committed() != gen || len(v.journal.Pending()) > 0 {
		v.log.Printf("%s: dropped, local changes since read", label)
		return OutcomeDiscarded
	}
	v.favs = favorites.FromRecords(records)
	v.favs.Merge(v.books)
	return OutcomeApplied
}

// SearchBooks runs one search and commits its result unless a newer search
// started meanwhile. Remote modes call the searcher once with the
// normalized text; favorites mode filters the cached favorites by title.
// Errors become MsgSearchFailed and empty results MsgNoResults, both with
// zero displayed books. Loading is cleared once the latest search ends.
func (v *View) SearchBooks(ctx context.Context, text string, mode types.SearchMode) Outcome {
	query := search.Query{Mode: mode, Text: text}

	v.mu.Lock()
	v.latest++
	token := v.latest
	v.loading = true
	var local []types.Book
	if !mode.Remote() {
		local = v.favs.FilterByTitle(text)
	}
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		if token == v.latest {
			v.loading = false
		}
		v.mu.Unlock()
	}()

	var books []types.Book
	var err error
	if mode.Remote() {
		books, err = v.searcher.Search(ctx, query)
	} else {
		books = local
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.latest {
		v.log.Printf("search %q (%s): discarded, superseded by a newer search", text, mode)
		return OutcomeDiscarded
	}

	v.query = query
	switch {
	case err != nil:
		v.log.Printf("search %q (%s): %v", text, mode, err)
		v.books = nil
		v.message = MsgSearchFailed
		return OutcomeFailed
	case len(books) == 0:
		v.books = nil
		v.message = MsgNoResults
	default:
		v.books = v.favs.Merge(books)
		v.message = ""
	}
	return OutcomeApplied
}

// HandleFavoriteToggle adds or removes book depending on the InFavorites
// flag it carries, as read at click time.
func (v *View) HandleFavoriteToggle(ctx context.Context, book types.Book) Outcome {
	if book.InFavorites {
		return v.RemoveFavorite(ctx, book)
	}
	return v.AddFavorite(ctx, book)
}

// AddFavorite creates a store record for book and, on success, caches it
// and marks matching displayed books as favorites.
func (v *View) AddFavorite(ctx context.Context, book types.Book) Outcome {
	op := v.begin(OpAdd, book.Key)

	_, err := v.store.Create(ctx, favorites.RecordFromBook(book))

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.journal.Finish(op.ID, false)
		v.log.Printf("add favorite %s: %v", book.Key, err)
		return OutcomeFailed
	}
	v.favs.Put(book.Key, favorites.EntryFromBook(book))
	v.favs.Merge(v.books)
	v.journal.Finish(op.ID, true)
	return OutcomeApplied
}

// RemoveFavorite deletes the store record for book and, on success, drops
// it from the cache and clears the flags on matching displayed books.
func (v *View) RemoveFavorite(ctx context.Context, book types.Book) Outcome {
	op := v.begin(OpRemove, book.Key)

	err := v.store.Delete(ctx, book.Key)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.journal.Finish(op.ID, false)
		v.log.Printf("remove favorite %s: %v", book.Key, err)
		return OutcomeFailed
	}
	v.favs.Remove(book.Key)
	v.favs.Merge(v.books)
	v.journal.Finish(op.ID, true)
	return OutcomeApplied
}

// ToggleRead flips the read flag for book's key. The current value comes
// from the cache when the key is a favorite, else from book. On success
// the cache and displayed books are updated; a book that is not a favorite
// keeps Read false.
func (v *View) ToggleRead(ctx context.Context, book types.Book) Outcome {
	v.mu.Lock()
	current := book.Read
	if e, ok := v.favs.Get(book.Key); ok {
		current = e.Active
	}
	op := v.journal.Begin(OpToggleRead, book.Key)
	v.mu.Unlock()

	target := !current
	err := v.store.SetActive(ctx, book.Key, target)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.journal.Finish(op.ID, false)
		v.log.Printf("mark %s read=%t: %v", book.Key, target, err)
		return OutcomeFailed
	}
	v.favs.SetActive(book.Key, target)
	v.favs.Merge(v.books)
	v.journal.Finish(op.ID, true)
	return OutcomeApplied
}

func (v *View) begin(kind OpKind, key string) Op {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.journal.Begin(kind, key)
}

func cloneBooks(books []types.Book) []types.Book {
	if books == nil {
		return nil
	}
	out := make([]types.Book, len(books))
	for i, b := range books {
		out[i] = cloneBook(b)
	}
	return out
}

func cloneBook(b types.Book) types.Book {
	b.Authors = append([]string(nil), b.Authors...)
	return b
}
