// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/viper"

	"github.com/pdiddy/bookshelf/internal/favorites"
	"github.com/pdiddy/bookshelf/internal/library"
	"github.com/pdiddy/bookshelf/internal/search"
	"github.com/pdiddy/bookshelf/internal/secrets"
	"github.com/pdiddy/bookshelf/pkg/types"
)

// loadConfig unmarshals viper settings. Component timeouts and user agents
// fall back to the top-level values.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("reading configuration: %w", err)
	}

	timeout := viper.GetDuration("timeout")
	userAgent := viper.GetString("user_agent")
	for _, h := range []*types.HTTPConfig{&cfg.Search.HTTPConfig, &cfg.Favorites.HTTPConfig} {
		if h.Timeout == 0 {
			h.Timeout = timeout
		}
		if h.UserAgent == "" {
			h.UserAgent = userAgent
		}
	}

	if contact := loadedSecrets.Get(secrets.OpenLibraryContact, viper.GetString("search.contact")); contact != "" {
		cfg.Search.UserAgent = fmt.Sprintf("%s (%s)", cfg.Search.UserAgent, contact)
	}
	return cfg, nil
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "bookshelf: ", log.LstdFlags)
}

func newSearcher(cfg types.SearchConfig) *search.OpenLibraryBackend {
	return search.NewOpenLibraryBackend(&http.Client{Timeout: cfg.Timeout}, cfg)
}

func newFavoritesClient(cfg types.FavoritesConfig) (*favorites.Client, error) {
	token := loadedSecrets.Get(secrets.FavoritesToken, viper.GetString("favorites.token"))
	return favorites.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg, token)
}

// newView wires a view to Open Library and the configured favorites store.
func newView(cfg types.Config, logger *log.Logger) (*library.View, error) {
	store, err := newFavoritesClient(cfg.Favorites)
	if err != nil {
		return nil, err
	}
	return library.New(newSearcher(cfg.Search), store, logger), nil
}
