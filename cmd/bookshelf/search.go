// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookshelf/internal/library"
	"github.com/pdiddy/bookshelf/internal/search"
	"github.com/pdiddy/bookshelf/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search Open Library or your favorites",
	Long: `Search queries Open Library by title (default), author, or free text and
prints the matching books with their favorite and read flags. The
favorites mode filters your favorites by title instead of calling Open
Library.

--save writes the query and its results to a YAML file; --load re-runs a
saved query.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("mode", "title", "search mode: title, author, q, or favorites")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write the query and results to this YAML file")
	searchCmd.Flags().String("load", "", "re-run the query saved in this YAML file")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results to request (0 = API default)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, err := searchQuery(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}

	view, err := newView(cfg, newLogger())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	view.LoadFavorites(ctx)
	outcome := view.SearchBooks(ctx, query.Text, query.Mode)
	st := view.Snapshot()

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		if err := search.WriteQueryFile(save, query, st.Books, st.Message); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d results to %s\n", len(st.Books), save)
	}

	if outcome == library.OutcomeFailed {
		return errors.New(library.MsgSearchFailed)
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return search.FormatJSON(st.Books, os.Stdout)
	}
	search.FormatTable(st.Books, st.Message, os.Stdout)
	return nil
}

// searchQuery builds the query from --load or from the arguments and
// --mode.
func searchQuery(cmd *cobra.Command, args []string) (search.Query, error) {
	if load, _ := cmd.Flags().GetString("load"); load != "" {
		if len(args) > 0 {
			return search.Query{}, fmt.Errorf("--load cannot be combined with query arguments")
		}
		qf, err := search.ReadQueryFile(load)
		if err != nil {
			return search.Query{}, err
		}
		return qf.Query.ToQuery()
	}

	// Blank text is sent as is; in favorites mode it lists every favorite.
	text := strings.Join(args, " ")
	modeName, _ := cmd.Flags().GetString("mode")
	mode, err := types.ParseSearchMode(modeName)
	if err != nil {
		return search.Query{}, err
	}
	return search.Query{Mode: mode, Text: text}, nil
}
