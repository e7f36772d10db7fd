// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package favstore is a SQLite-backed implementation of the favorites
// store HTTP contract. It lets the CLI run against a local store when the
// network host the favorites client normally talks to is not reachable.
package favstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bookshelf/pkg/types"
)

var (
	// ErrNotFound is returned when no live record has the requested id.
	ErrNotFound = errors.New("favorite not found")
	// ErrConflict is returned when creating a record whose id is live.
	ErrConflict = errors.New("favorite already exists")
)

// Store persists FavoriteRecords in a SQLite database. Deletion is soft:
// the record's delete flag is set and List skips it; creating the same id
// again revives it.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at path and ensures the schema.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS favorites (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			code TEXT NOT NULL DEFAULT '',
			cover_i INTEGER NOT NULL DEFAULT 0,
			authors TEXT NOT NULL DEFAULT '[]',
			year INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 0,
			deleted INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_deleted ON favorites(deleted)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// List returns every live record in creation order.
func (s *Store) List(ctx context.Context) ([]types.FavoriteRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, code, cover_i, authors, year, active
		 FROM favorites WHERE deleted = 0 ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	out := make([]types.FavoriteRecord, 0)
	for rows.Next() {
		var (
			rec     types.FavoriteRecord
			authors string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Code, &rec.Details.CoverID, &authors, &rec.Details.Year, &rec.Active); err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &rec.Details.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns the live record with id.
func (s *Store) Get(ctx context.Context, id string) (types.FavoriteRecord, error) {
	var (
		rec     types.FavoriteRecord
		authors string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, code, cover_i, authors, year, active
		 FROM favorites WHERE id = ? AND deleted = 0`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Code, &rec.Details.CoverID, &authors, &rec.Details.Year, &rec.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FavoriteRecord{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.FavoriteRecord{}, fmt.Errorf("querying favorite %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(authors), &rec.Details.Authors); err != nil {
		return types.FavoriteRecord{}, fmt.Errorf("decoding authors for %s: %w", id, err)
	}
	return rec, nil
}

// Create inserts rec. A soft-deleted record with the same id is replaced;
// a live one yields ErrConflict. The stored record is returned.
func (s *Store) Create(ctx context.Context, rec types.FavoriteRecord) (types.FavoriteRecord, error) {
	if rec.ID == "" {
		return types.FavoriteRecord{}, errors.New("favorite id is required")
	}
	authors := rec.Details.Authors
	if authors == nil {
		authors = []string{}
	}
	authorsJSON, _ := json.Marshal(authors)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.FavoriteRecord{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var deleted bool
	err = tx.QueryRowContext(ctx, `SELECT deleted FROM favorites WHERE id = ?`, rec.ID).Scan(&deleted)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO favorites (id, name, code, cover_i, authors, year, active, deleted)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			rec.ID, rec.Name, rec.Code, rec.Details.CoverID, string(authorsJSON), rec.Details.Year, rec.Active)
	case err != nil:
		return types.FavoriteRecord{}, fmt.Errorf("checking favorite %s: %w", rec.ID, err)
	case !deleted:
		return types.FavoriteRecord{}, fmt.Errorf("%s: %w", rec.ID, ErrConflict)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE favorites SET name = ?, code = ?, cover_i = ?, authors = ?, year = ?, active = ?, deleted = 0
			 WHERE id = ?`,
			rec.Name, rec.Code, rec.Details.CoverID, string(authorsJSON), rec.Details.Year, rec.Active, rec.ID)
	}
	if err != nil {
		return types.FavoriteRecord{}, fmt.Errorf("storing favorite %s: %w", rec.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return types.FavoriteRecord{}, fmt.Errorf("committing favorite %s: %w", rec.ID, err)
	}

	rec.Details.Authors = authors
	rec.Deleted = false
	return rec, nil
}

// Delete soft-deletes the live record with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.update(ctx, id, `UPDATE favorites SET deleted = 1 WHERE id = ? AND deleted = 0`, id)
}

// SetActive sets the read flag of the live record with id.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	return s.update(ctx, id, `UPDATE favorites SET active = ? WHERE id = ? AND deleted = 0`, active, id)
}

func (s *Store) update(ctx context.Context, id, stmt string, args ...any) error {
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("updating favorite %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating favorite %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
