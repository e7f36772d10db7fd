// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookshelf/internal/library"
	"github.com/pdiddy/bookshelf/internal/search"
	"github.com/pdiddy/bookshelf/pkg/types"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"favs"},
	Short:   "List and edit favorites in the favorites store",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every favorite",
	Args:  cobra.NoArgs,
	RunE:  runFavoritesList,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book to favorites",
	Long: `Add creates a favorites record for a book. The key is the Open Library
work key as printed by "bookshelf search".`,
	Args: cobra.NoArgs,
	RunE: runFavoritesAdd,
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove a book from favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesRemove,
}

var favoritesReadCmd = &cobra.Command{
	Use:   "read <key>",
	Short: "Toggle the read flag of a favorite",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesRead,
}

func init() {
	favoritesListCmd.Flags().Bool("json", false, "output favorites as JSON")

	favoritesAddCmd.Flags().String("key", "", "Open Library work key (required)")
	favoritesAddCmd.Flags().String("title", "", "book title (required)")
	favoritesAddCmd.Flags().StringArray("author", nil, "author name (repeatable)")
	favoritesAddCmd.Flags().Int("year", 0, "first publication year")
	favoritesAddCmd.Flags().Int("cover", 0, "Open Library cover id")
	favoritesAddCmd.Flags().Bool("read", false, "mark the book as read")
	favoritesAddCmd.MarkFlagRequired("key")
	favoritesAddCmd.MarkFlagRequired("title")

	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd, favoritesReadCmd)
	rootCmd.AddCommand(favoritesCmd)
}

func favoritesView() (*library.View, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newView(cfg, newLogger())
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	view, err := favoritesView()
	if err != nil {
		return err
	}
	if view.LoadFavorites(cmd.Context()) != library.OutcomeApplied {
		return fmt.Errorf("favorites could not be loaded")
	}

	favs := view.Snapshot().Favorites
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return search.FormatJSON(favs, os.Stdout)
	}
	search.FormatTable(favs, "", os.Stdout)
	return nil
}

func runFavoritesAdd(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("key")
	title, _ := cmd.Flags().GetString("title")
	authors, _ := cmd.Flags().GetStringArray("author")
	year, _ := cmd.Flags().GetInt("year")
	cover, _ := cmd.Flags().GetInt("cover")
	read, _ := cmd.Flags().GetBool("read")

	view, err := favoritesView()
	if err != nil {
		return err
	}

	book := types.Book{
		Key:              key,
		Title:            title,
		Authors:          authors,
		FirstPublishYear: year,
		CoverID:          cover,
		Read:             read,
	}
	if view.AddFavorite(cmd.Context(), book) != library.OutcomeApplied {
		return fmt.Errorf("could not add %s to favorites", key)
	}
	fmt.Printf("Added %q (%s) to favorites\n", title, key)
	return nil
}

func runFavoritesRemove(cmd *cobra.Command, args []string) error {
	view, err := favoritesView()
	if err != nil {
		return err
	}

	key := args[0]
	if view.RemoveFavorite(cmd.Context(), types.Book{Key: key, InFavorites: true}) != library.OutcomeApplied {
		return fmt.Errorf("could not remove %s from favorites", key)
	}
	fmt.Printf("Removed %s from favorites\n", key)
	return nil
}

func runFavoritesRead(cmd *cobra.Command, args []string) error {
	view, err := favoritesView()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	key := args[0]
	if view.LoadFavorites(ctx) != library.OutcomeApplied {
		return fmt.Errorf("favorites could not be loaded")
	}
	book, ok := view.Favorite(key)
	if !ok {
		return fmt.Errorf("%s is not a favorite", key)
	}
	if view.ToggleRead(ctx, book) != library.OutcomeApplied {
		return fmt.Errorf("could not update the read flag of %s", key)
	}

	state := "unread"
	if fav, _ := view.Favorite(key); fav.Read {
		state = "read"
	}
	fmt.Printf("Marked %q %s\n", book.Title, state)
	return nil
}
