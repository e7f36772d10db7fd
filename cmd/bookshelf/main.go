// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bookshelf CLI: Open Library
// search with a remote favorites list, as one-shot commands, an
// interactive shell, and a local stand-in for the favorites store.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bookshelf/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

const (
	defaultUserAgent    = "bookshelf/0.1"
	defaultFavoritesURL = "http://192.168.0.246:3000/test/"
	defaultSearchURL    = "https://openlibrary.org/search.json"
)

var rootCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "Search Open Library and keep a list of favorite books",
	Long: `bookshelf searches the Open Library catalogue by title, author, or free
text and keeps a favorites list, with a read flag per book, in a remote
favorites store.

Use "bookshelf shell" for an interactive session, the search and favorites
subcommands for one-shot use, and "bookshelf serve" to run a local
favorites store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := s.Keys()
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bookshelf.yaml or ~/.config/bookshelf/bookshelf.yaml)")
	rootCmd.PersistentFlags().String("favorites-url", "", "favorites store base URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout")
	viper.BindPFlag("favorites.base_url", rootCmd.PersistentFlags().Lookup("favorites-url"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func setDefaults() {
	viper.SetDefault("timeout", 15*time.Second)
	viper.SetDefault("user_agent", defaultUserAgent)

	// Zero component values fall back to the top-level ones in loadConfig.
	for _, c := range []string{"search", "favorites"} {
		viper.SetDefault(c+".timeout", time.Duration(0))
		viper.SetDefault(c+".user_agent", "")
	}

	viper.SetDefault("search.endpoint", defaultSearchURL)
	viper.SetDefault("search.max_results", 0)
	viper.SetDefault("search.rate_per_second", 1.0)
	viper.SetDefault("search.max_retries", 0)

	viper.SetDefault("favorites.base_url", defaultFavoritesURL)
	viper.SetDefault("favorites.list_method", "POST")
	viper.SetDefault("favorites.delete_method", "POST")
	viper.SetDefault("favorites.max_retries", 0)
	viper.SetDefault("favorites.reconcile_schedule", "@every 5m")

	viper.SetDefault("server.addr", ":3000")
	viper.SetDefault("server.db_path", "favorites.db")
	viper.SetDefault("server.prefix", "/test/")
}

func initConfig() {
	// A missing .env is the normal case.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bookshelf")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bookshelf"))
		}
	}

	viper.SetEnvPrefix("BOOKSHELF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
