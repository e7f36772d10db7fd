// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookshelf/internal/search"
	"github.com/pdiddy/bookshelf/pkg/types"
)

// --- fakes ---

type fakeSearcher struct {
	mu      sync.Mutex
	queries []search.Query
	books   []types.Book
	err     error
	// block, when set, is waited on before returning; started is signalled
	// once the call is in flight.
	block   chan struct{}
	started chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, q search.Query) ([]types.Book, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	books := append([]types.Book(nil), f.books...)
	err, block, started := f.err, f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return books, err
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeStore struct {
	mu        sync.Mutex
	records   map[string]types.FavoriteRecord
	failList  bool
	failWrite bool
	onList    func()
}

func newFakeStore(recs ...types.FavoriteRecord) *fakeStore {
	s := &fakeStore{records: make(map[string]types.FavoriteRecord)}
	for _, r := range recs {
		s.records[r.ID] = r
	}
	return s
}

var errNetwork = errors.New("dial tcp 192.168.0.246:3000: connect: connection refused")

func (s *fakeStore) List(ctx context.Context) ([]types.FavoriteRecord, error) {
	if s.onList != nil {
		s.onList()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errNetwork
	}
	out := make([]types.FavoriteRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) Create(ctx context.Context, rec types.FavoriteRecord) (types.FavoriteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return types.FavoriteRecord{}, errNetwork
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return errNetwork
	}
	delete(s.records, key)
	return nil
}

func (s *fakeStore) SetActive(ctx context.Context, key string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return errNetwork
	}
	r := s.records[key]
	r.ID = key
	r.Active = active
	s.records[key] = r
	return nil
}

func (s *fakeStore) setFailWrite(v bool) {
	s.mu.Lock()
	s.failWrite = v
	s.mu.Unlock()
}

// --- helpers ---

func newTestView(searcher Searcher, store FavoritesStore) (*View, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(searcher, store, log.New(&buf, "", 0)), &buf
}

func dune() types.Book {
	return types.Book{Key: "OL1", Title: "Dune", CoverID: 258027, FirstPublishYear: 1965}
}

func favKeys(st State) []string {
	var keys []string
	for _, b := range st.Favorites {
		keys = append(keys, b.Key)
	}
	return keys
}

// --- searchBooks ---

func TestSearchBooksDuneScenario(t *testing.T) {
	s := &fakeSearcher{books: []types.Book{dune()}}
	v, _ := newTestView(s, newFakeStore())

	out := v.SearchBooks(context.Background(), "dune", types.ModeTitle)
	require.Equal(t, OutcomeApplied, out)

	st := v.Snapshot()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Message)
	require.Len(t, st.Books, 1)
	b := st.Books[0]
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, 1965, b.FirstPublishYear)
	assert.True(t, strings.HasSuffix(search.CoverURL(b.CoverID, search.CoverMedium), "258027-M.jpg"))
	assert.False(t, b.InFavorites)

	require.Equal(t, 1, s.calls())
	assert.Equal(t, search.Query{Mode: types.ModeTitle, Text: "dune"}, s.queries[0])
}

func TestSearchBooksEmptyResult(t *testing.T) {
	s := &fakeSearcher{books: []types.Book{}}
	v, _ := newTestView(s, newFakeStore())

	assert.Equal(t, OutcomeApplied, v.SearchBooks(context.Background(), "zzzz", types.ModeTitle))

	st := v.Snapshot()
	assert.Equal(t, MsgNoResults, st.Message)
	assert.Empty(t, st.Books)
	assert.False(t, st.Loading)
}

func TestSearchBooksFailure(t *testing.T) {
	s := &fakeSearcher{books: []types.Book{dune()}}
	v, logs := newTestView(s, newFakeStore())
	require.Equal(t, OutcomeApplied, v.SearchBooks(context.Background(), "dune", types.ModeTitle))

	s.err = errors.New("Open Library returned HTTP 502")
	assert.Equal(t, OutcomeFailed, v.SearchBooks(context.Background(), "dune", types.ModeTitle))

	st := v.Snapshot()
	assert.Equal(t, MsgSearchFailed, st.Message)
	assert.Empty(t, st.Books)
	assert.False(t, st.Loading)
	assert.Contains(t, logs.String(), "HTTP 502")
}

func TestSearchBooksRendersNCards(t *testing.T) {
	for _, n := range []int{1, 2, 7, 40} {
		books := make([]types.Book, n)
		for i := range books {
			books[i] = types.Book{Key: "OL" + strings.Repeat("x", i+1), Title: "T"}
		}
		s := &fakeSearcher{books: books}
		v, _ := newTestView(s, newFakeStore())

		v.SearchBooks(context.Background(), "t", types.ModeAuthor)

		st := v.Snapshot()
		assert.Len(t, st.Books, n)
		assert.False(t, st.Loading)
		assert.Equal(t, 1, s.calls())
	}
}

func TestSearchBooksMergesFavorites(t *testing.T) {
	store := newFakeStore(
		types.FavoriteRecord{ID: "OL1", Name: "Dune", Active: true},
		types.FavoriteRecord{ID: "OL2", Name: "Dune Messiah", Active: false},
	)
	s := &fakeSearcher{books: []types.Book{
		{Key: "OL1", Title: "Dune"},
		{Key: "OL2", Title: "Dune Messiah"},
		{Key: "OL3", Title: "Children of Dune"},
	}}
	v, _ := newTestView(s, store)
	require.Equal(t, OutcomeApplied, v.LoadFavorites(context.Background()))

	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	type flags struct{ Fav, Read bool }
	var got []flags
	for _, b := range v.Snapshot().Books {
		got = append(got, flags{b.InFavorites, b.Read})
	}
	want := []flags{{true, true}, {true, false}, {false, false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merged flags mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchBooksFavoritesMode(t *testing.T) {
	store := newFakeStore(
		types.FavoriteRecord{ID: "OL1", Name: "Dune", Active: true, Details: types.FavoriteDetails{Authors: []string{"Frank Herbert"}}},
		types.FavoriteRecord{ID: "OL2", Name: "The Dispossessed"},
	)
	s := &fakeSearcher{}
	v, _ := newTestView(s, store)
	v.LoadFavorites(context.Background())

	assert.Equal(t, OutcomeApplied, v.SearchBooks(context.Background(), "DUNE", types.ModeFavorites))
	st := v.Snapshot()
	require.Len(t, st.Books, 1)
	assert.Equal(t, "OL1", st.Books[0].Key)
	assert.True(t, st.Books[0].InFavorites)
	assert.True(t, st.Books[0].Read)

	// Title only: the author does not match.
	v.SearchBooks(context.Background(), "herbert", types.ModeFavorites)
	st = v.Snapshot()
	assert.Empty(t, st.Books)
	assert.Equal(t, MsgNoResults, st.Message)

	assert.Zero(t, s.calls(), "favorites mode must not call the search API")
}

func TestSearchBooksPassesBlankQueriesThrough(t *testing.T) {
	for _, text := range []string{"", "  "} {
		s := &fakeSearcher{books: []types.Book{}}
		v, _ := newTestView(s, newFakeStore())

		assert.Equal(t, OutcomeApplied, v.SearchBooks(context.Background(), text, types.ModeTitle))
		require.Equal(t, 1, s.calls(), "query %q", text)
		assert.Equal(t, search.Query{Mode: types.ModeTitle, Text: text}, s.queries[0])
		assert.Equal(t, MsgNoResults, v.Snapshot().Message)
	}
}

func TestSearchBooksFavoritesModeBlankListsAll(t *testing.T) {
	store := newFakeStore(
		types.FavoriteRecord{ID: "OL1", Name: "Dune"},
		types.FavoriteRecord{ID: "OL2", Name: "The Dispossessed"},
	)
	s := &fakeSearcher{}
	v, _ := newTestView(s, store)
	require.Equal(t, OutcomeApplied, v.LoadFavorites(context.Background()))

	assert.Equal(t, OutcomeApplied, v.SearchBooks(context.Background(), "", types.ModeFavorites))
	st := v.Snapshot()
	require.Len(t, st.Books, 2)
	assert.Equal(t, "OL1", st.Books[0].Key)
	assert.Equal(t, "OL2", st.Books[1].Key)
	assert.Empty(t, st.Message)

	// Whitespace is matched literally against titles.
	v.SearchBooks(context.Background(), "  ", types.ModeFavorites)
	assert.Equal(t, MsgNoResults, v.Snapshot().Message)
	assert.Zero(t, s.calls())
}

func TestSearchBooksLoadingWhileInFlight(t *testing.T) {
	s := &fakeSearcher{books: []types.Book{dune()}, block: make(chan struct{}), started: make(chan struct{}, 1)}
	v, _ := newTestView(s, newFakeStore())

	done := make(chan Outcome)
	go func() { done <- v.SearchBooks(context.Background(), "dune", types.ModeTitle) }()

	<-s.started
	assert.True(t, v.Snapshot().Loading)

	close(s.block)
	assert.Equal(t, OutcomeApplied, <-done)
	assert.False(t, v.Snapshot().Loading)
}

func TestSearchBooksDiscardsStaleResponse(t *testing.T) {
	slow := &fakeSearcher{books: []types.Book{{Key: "OLslow", Title: "Slow"}}, block: make(chan struct{}), started: make(chan struct{}, 1)}
	fast := &fakeSearcher{books: []types.Book{{Key: "OLfast", Title: "Fast"}}}
	router := &routingSearcher{byText: map[string]Searcher{"slow": slow, "fast": fast}}
	v, logs := newTestView(router, newFakeStore())

	done := make(chan Outcome)
	go func() { done <- v.SearchBooks(context.Background(), "slow", types.ModeTitle) }()
	<-slow.started

	assert.Equal(t, OutcomeApplied, v.SearchBooks(context.Background(), "fast", types.ModeTitle))
	assert.False(t, v.Snapshot().Loading)

	close(slow.block)
	assert.Equal(t, OutcomeDiscarded, <-done)

	st := v.Snapshot()
	require.Len(t, st.Books, 1)
	assert.Equal(t, "OLfast", st.Books[0].Key)
	assert.Equal(t, "fast", st.Query.Text)
	assert.False(t, st.Loading)
	assert.Contains(t, logs.String(), "superseded")
}

func TestSearchBooksStaleDoesNotClearLoading(t *testing.T) {
	first := &fakeSearcher{books: []types.Book{dune()}, block: make(chan struct{}), started: make(chan struct{}, 1)}
	second := &fakeSearcher{books: []types.Book{dune()}, block: make(chan struct{}), started: make(chan struct{}, 1)}
	router := &routingSearcher{byText: map[string]Searcher{"a": first, "b": second}}
	v, _ := newTestView(router, newFakeStore())

	doneA := make(chan Outcome)
	doneB := make(chan Outcome)
	go func() { doneA <- v.SearchBooks(context.Background(), "a", types.ModeTitle) }()
	<-first.started
	go func() { doneB <- v.SearchBooks(context.Background(), "b", types.ModeTitle) }()
	<-second.started

	close(first.block)
	assert.Equal(t, OutcomeDiscarded, <-doneA)
	assert.True(t, v.Snapshot().Loading, "newer search still in flight")

	close(second.block)
	assert.Equal(t, OutcomeApplied, <-doneB)
	assert.False(t, v.Snapshot().Loading)
}

type routingSearcher struct {
	byText map[string]Searcher
}

func (r *routingSearcher) Search(ctx context.Context, q search.Query) ([]types.Book, error) {
	return r.byText[q.Text].Search(ctx, q)
}

// --- loadFavorites ---

func TestLoadFavoritesFailure(t *testing.T) {
	store := newFakeStore(types.FavoriteRecord{ID: "OL1", Name: "Dune"})
	store.failList = true
	v, logs := newTestView(&fakeSearcher{}, store)

	assert.Equal(t, OutcomeFailed, v.LoadFavorites(context.Background()))

	st := v.Snapshot()
	assert.Empty(t, st.Favorites)
	assert.Empty(t, st.Message, "favorites failures are never shown")
	assert.Contains(t, logs.String(), "load favorites")
}

// --- mutations ---

func TestAddFavoriteUpdatesCacheAndCards(t *testing.T) {
	store := newFakeStore()
	v, _ := newTestView(&fakeSearcher{books: []types.Book{dune()}}, store)
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	book, ok := v.Book(0)
	require.True(t, ok)
	assert.Equal(t, OutcomeApplied, v.AddFavorite(context.Background(), book))

	st := v.Snapshot()
	assert.Equal(t, []string{"OL1"}, favKeys(st))
	assert.True(t, st.Books[0].InFavorites)
	assert.Contains(t, store.records, "OL1")
	assert.Equal(t, "Dune", store.records["OL1"].Name)
	assert.Equal(t, "OL1", store.records["OL1"].Code)
}

func TestAddFavoriteCreateFails(t *testing.T) {
	store := newFakeStore()
	store.failWrite = true
	v, logs := newTestView(&fakeSearcher{books: []types.Book{dune()}}, store)
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	book, _ := v.Book(0)
	assert.Equal(t, OutcomeFailed, v.AddFavorite(context.Background(), book))

	st := v.Snapshot()
	assert.Empty(t, st.Favorites)
	for _, b := range st.Books {
		assert.False(t, b.InFavorites)
	}
	assert.Empty(t, st.Message)
	assert.Contains(t, logs.String(), "add favorite OL1")
	assert.Empty(t, st.Pending)

	hist := v.History()
	require.Len(t, hist, 1)
	assert.Equal(t, OpFailed, hist[0].State)
}

func TestAddThenRemoveRestoresKeySet(t *testing.T) {
	store := newFakeStore(types.FavoriteRecord{ID: "OL7", Name: "Solaris"})
	v, _ := newTestView(&fakeSearcher{}, store)
	v.LoadFavorites(context.Background())
	before := favKeys(v.Snapshot())

	book := dune()
	require.Equal(t, OutcomeApplied, v.AddFavorite(context.Background(), book))
	book.InFavorites = true
	require.Equal(t, OutcomeApplied, v.RemoveFavorite(context.Background(), book))

	assert.Equal(t, before, favKeys(v.Snapshot()))
}

func TestAddedFavoriteFoundInFavoritesMode(t *testing.T) {
	v, _ := newTestView(&fakeSearcher{}, newFakeStore())
	require.Equal(t, OutcomeApplied, v.AddFavorite(context.Background(), types.Book{Key: "OL2", Title: "The Left Hand of Darkness"}))

	v.SearchBooks(context.Background(), "hand OF", types.ModeFavorites)

	st := v.Snapshot()
	require.Len(t, st.Books, 1)
	assert.Equal(t, "OL2", st.Books[0].Key)
}

func TestRemoveFavoriteFails(t *testing.T) {
	store := newFakeStore(types.FavoriteRecord{ID: "OL1", Name: "Dune", Active: true})
	v, logs := newTestView(&fakeSearcher{books: []types.Book{dune()}}, store)
	v.LoadFavorites(context.Background())
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	store.setFailWrite(true)
	book, _ := v.Book(0)
	assert.Equal(t, OutcomeFailed, v.RemoveFavorite(context.Background(), book))

	st := v.Snapshot()
	assert.Equal(t, []string{"OL1"}, favKeys(st))
	assert.True(t, st.Books[0].InFavorites)
	assert.True(t, st.Books[0].Read)
	assert.Contains(t, logs.String(), "remove favorite OL1")
}

func TestRemoveFavoriteClearsCardFlags(t *testing.T) {
	store := newFakeStore(types.FavoriteRecord{ID: "OL1", Name: "Dune", Active: true})
	v, _ := newTestView(&fakeSearcher{books: []types.Book{dune()}}, store)
	v.LoadFavorites(context.Background())
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	book, _ := v.Book(0)
	require.Equal(t, OutcomeApplied, v.RemoveFavorite(context.Background(), book))

	st := v.Snapshot()
	assert.Empty(t, st.Favorites)
	assert.False(t, st.Books[0].InFavorites)
	assert.False(t, st.Books[0].Read)
	assert.NotContains(t, store.records, "OL1")
}

func TestHandleFavoriteToggleDispatch(t *testing.T) {
	store := newFakeStore()
	v, _ := newTestView(&fakeSearcher{books: []types.Book{dune()}}, store)
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	book, _ := v.Book(0)
	require.Equal(t, OutcomeApplied, v.HandleFavoriteToggle(context.Background(), book))
	assert.Contains(t, store.records, "OL1")

	book, _ = v.Book(0)
	require.True(t, book.InFavorites)
	require.Equal(t, OutcomeApplied, v.HandleFavoriteToggle(context.Background(), book))
	assert.NotContains(t, store.records, "OL1")

	// A stale card still claiming InFavorites dispatches to remove.
	stale := dune()
	stale.InFavorites = true
	v.HandleFavoriteToggle(context.Background(), stale)
	assert.Empty(t, v.Snapshot().Favorites)
}

func TestToggleRead(t *testing.T) {
	store := newFakeStore(types.FavoriteRecord{ID: "OL1", Name: "Dune"})
	v, _ := newTestView(&fakeSearcher{books: []types.Book{dune()}}, store)
	v.LoadFavorites(context.Background())
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	book, _ := v.Book(0)
	require.Equal(t, OutcomeApplied, v.ToggleRead(context.Background(), book))
	st := v.Snapshot()
	assert.True(t, st.Books[0].Read)
	assert.True(t, st.Favorites[0].Read)
	assert.True(t, store.records["OL1"].Active)

	// The cached value wins over a stale card.
	require.Equal(t, OutcomeApplied, v.ToggleRead(context.Background(), book))
	st = v.Snapshot()
	assert.False(t, st.Books[0].Read)
	assert.False(t, store.records["OL1"].Active)
}

func TestToggleReadFails(t *testing.T) {
	store := newFakeStore(types.FavoriteRecord{ID: "OL1", Name: "Dune"})
	v, logs := newTestView(&fakeSearcher{books: []types.Book{dune()}}, store)
	v.LoadFavorites(context.Background())
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	store.setFailWrite(true)
	book, _ := v.Book(0)
	assert.Equal(t, OutcomeFailed, v.ToggleRead(context.Background(), book))
	assert.False(t, v.Snapshot().Books[0].Read)
	assert.Contains(t, logs.String(), "mark OL1 read=true")
}

func TestToggleReadNonFavoriteKeepsReadFalse(t *testing.T) {
	v, _ := newTestView(&fakeSearcher{books: []types.Book{dune()}}, newFakeStore())
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	book, _ := v.Book(0)
	v.ToggleRead(context.Background(), book)
	assert.False(t, v.Snapshot().Books[0].Read)
}

// --- reconcile ---

func TestReconcilePicksUpRemoteChanges(t *testing.T) {
	store := newFakeStore()
	v, _ := newTestView(&fakeSearcher{books: []types.Book{dune()}}, store)
	v.LoadFavorites(context.Background())
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	// Another client favorites the book behind our back.
	store.records["OL1"] = types.FavoriteRecord{ID: "OL1", Name: "Dune", Active: true}

	assert.Equal(t, OutcomeApplied, v.Reconcile(context.Background()))
	st := v.Snapshot()
	assert.True(t, st.Books[0].InFavorites)
	assert.True(t, st.Books[0].Read)
}

func TestReconcileDroppedWhenMutationCommitsDuringRead(t *testing.T) {
	store := newFakeStore()
	v, logs := newTestView(&fakeSearcher{}, store)

	store.onList = func() {
		store.onList = nil
		// Simulates an add committing while the list request is outstanding.
		v.AddFavorite(context.Background(), dune())
	}

	assert.Equal(t, OutcomeDiscarded, v.Reconcile(context.Background()))
	assert.Equal(t, []string{"OL1"}, favKeys(v.Snapshot()))
	assert.Contains(t, logs.String(), "dropped")
}

func TestReconcileSkippedWithPendingMutation(t *testing.T) {
	v, _ := newTestView(&fakeSearcher{}, newFakeStore())
	op := v.begin(OpAdd, "OL1")
	assert.Len(t, v.Snapshot().Pending, 1)

	assert.Equal(t, OutcomeDiscarded, v.Reconcile(context.Background()))

	v.mu.Lock()
	v.journal.Finish(op.ID, false)
	v.mu.Unlock()
	assert.Equal(t, OutcomeApplied, v.Reconcile(context.Background()))
}

func TestSnapshotIsACopy(t *testing.T) {
	v, _ := newTestView(&fakeSearcher{books: []types.Book{{Key: "OL1", Title: "Dune", Authors: []string{"Frank Herbert"}}}}, newFakeStore())
	v.SearchBooks(context.Background(), "dune", types.ModeTitle)

	st := v.Snapshot()
	st.Books[0].Title = "changed"
	st.Books[0].Authors[0] = "changed"

	again := v.Snapshot()
	assert.Equal(t, "Dune", again.Books[0].Title)
	assert.Equal(t, "Frank Herbert", again.Books[0].Authors[0])
}

func TestSnapshotFavoritesAreACopy(t *testing.T) {
	store := newFakeStore(types.FavoriteRecord{ID: "OL1", Name: "Dune", Details: types.FavoriteDetails{Authors: []string{"Frank Herbert"}}})
	v, _ := newTestView(&fakeSearcher{}, store)
	require.Equal(t, OutcomeApplied, v.LoadFavorites(context.Background()))

	st := v.Snapshot()
	require.Len(t, st.Favorites, 1)
	st.Favorites[0].Authors[0] = "changed"

	fav, ok := v.Favorite("OL1")
	require.True(t, ok)
	assert.Equal(t, []string{"Frank Herbert"}, fav.Authors)

	fav.Authors[0] = "changed"
	assert.Equal(t, []string{"Frank Herbert"}, v.Snapshot().Favorites[0].Authors)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "applied", OutcomeApplied.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "discarded", OutcomeDiscarded.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}
