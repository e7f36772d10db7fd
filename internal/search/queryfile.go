// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bookshelf/pkg/types"
)

// QueryFile is the on-disk representation of a search and the books it
// returned, so a result list can be reviewed or acted on later without
// re-querying the index.
type QueryFile struct {
	Query   QueryParams  `yaml:"query"`
	Results []types.Book `yaml:"results"`
	Summary QuerySummary `yaml:"summary"`
}

// QueryParams stores the query in a serializable form.
type QueryParams struct {
	Mode       types.SearchMode `yaml:"mode"`
	Text       string           `yaml:"text"`
	Normalized string           `yaml:"normalized,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total     int       `yaml:"total"`
	Favorites int       `yaml:"favorites"`
	Message   string    `yaml:"message,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a query and its merged results to a YAML file.
func WriteQueryFile(path string, query Query, books []types.Book, message string) error {
	favs := 0
	for _, b := range books {
		if b.InFavorites {
			favs++
		}
	}

	qf := QueryFile{
		Query: QueryParams{
			Mode:       query.Mode,
			Text:       query.Text,
			Normalized: query.Normalized(),
		},
		Results: books,
		Summary: QuerySummary{
			Total:     len(books),
			Favorites: favs,
			Message:   message,
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToQuery converts stored params back into a Query, validating the mode.
func (p QueryParams) ToQuery() (Query, error) {
	mode, err := types.ParseSearchMode(string(p.Mode))
	if err != nil {
		return Query{}, err
	}
	return Query{Mode: mode, Text: p.Text}, nil
}
