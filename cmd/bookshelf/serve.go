// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bookshelf/internal/favstore"
)

const shutdownGrace = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local favorites store",
	Long: `Serve runs an HTTP favorites store backed by a SQLite file. It speaks the
same protocol as the remote store (get/all, create, delete, change/active
under a path prefix), so the other commands can point --favorites-url at
it.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :3000)")
	serveCmd.Flags().String("db", "", "SQLite database file (default favorites.db)")
	serveCmd.Flags().String("prefix", "", "route prefix (default /test/)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.db_path", serveCmd.Flags().Lookup("db"))
	viper.BindPFlag("server.prefix", serveCmd.Flags().Lookup("prefix"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := favstore.NewStore(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	gin.SetMode(gin.ReleaseMode)
	logger := newLogger()
	router := favstore.Router(store, cfg.Server.Prefix, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Serving favorites from %s at %s%s\n",
		cfg.Server.DBPath, cfg.Server.Addr, favstore.NormalizePrefix(cfg.Server.Prefix))
	return favstore.Serve(ctx, cfg.Server.Addr, router, shutdownGrace, logger)
}
