// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package shell is the interactive front end: a line-oriented loop that
// drives one long-lived library.View.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/pdiddy/bookshelf/internal/library"
	"github.com/pdiddy/bookshelf/internal/search"
	"github.com/pdiddy/bookshelf/pkg/types"
)

const helpText = `Commands:
  search [text]     search in the current mode
  mode [m]          show or set the mode (title, author, q, favorites)
  fav <n>           add or remove result n from favorites
  read <n>          toggle the read flag of result n
  list              show the current results
  favorites         show every favorite
  reload            re-read favorites from the store
  history           show recent favorites changes
  help              show this help
  quit              leave the shell`

// Shell reads commands from In and writes results to Out.
type Shell struct {
	View *library.View
	// Reconciler, when set, runs on Schedule for the life of the shell.
	Reconciler *library.Reconciler
	Schedule   string

	In     io.Reader
	Out    io.Writer
	Mode   types.SearchMode
	Prompt bool
}

// New returns a shell over view reading in and writing out. The prompt is
// shown only when in is a terminal.
func New(view *library.View, in io.Reader, out io.Writer, mode types.SearchMode) *Shell {
	if mode == "" {
		mode = types.ModeTitle
	}
	return &Shell{
		View:   view,
		In:     in,
		Out:    out,
		Mode:   mode,
		Prompt: IsTerminal(in),
	}
}

// IsTerminal reports whether r is a file attached to a terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run loads favorites, then executes commands until quit, end of input,
// or ctx is cancelled. A favorites load failure only reaches the view's
// log.
func (s *Shell) Run(ctx context.Context) error {
	if s.Reconciler != nil {
		if err := s.Reconciler.Start(ctx, s.Schedule); err != nil {
			return err
		}
		defer s.Reconciler.Stop()
	}

	s.View.LoadFavorites(ctx)
	if s.Prompt {
		fmt.Fprintln(s.Out, `bookshelf shell. Type "help" for commands.`)
	}

	scanner := bufio.NewScanner(s.In)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.Prompt {
			fmt.Fprintf(s.Out, "[%s]> ", s.Mode)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if quit := s.Exec(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// Exec runs one command line. It reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "search", "s":
		s.search(ctx, arg)
	case "mode", "m":
		s.mode(arg)
	case "fav", "f":
		s.fav(ctx, arg)
	case "read", "r":
		s.read(ctx, arg)
	case "list", "ls":
		st := s.View.Snapshot()
		search.FormatTable(st.Books, st.Message, s.Out)
	case "favorites", "favs":
		search.FormatTable(s.View.Snapshot().Favorites, "", s.Out)
	case "reload":
		s.View.LoadFavorites(ctx)
		fmt.Fprintf(s.Out, "%d favorites\n", len(s.View.Snapshot().Favorites))
	case "history":
		s.history()
	case "help", "?":
		fmt.Fprintln(s.Out, helpText)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(s.Out, "unknown command %q; type help\n", cmd)
	}
	return false
}

func (s *Shell) search(ctx context.Context, text string) {
	s.View.SearchBooks(ctx, text, s.Mode)
	st := s.View.Snapshot()
	search.FormatTable(st.Books, st.Message, s.Out)
}

func (s *Shell) mode(arg string) {
	if arg == "" {
		fmt.Fprintf(s.Out, "mode: %s\n", s.Mode)
		return
	}
	m, err := types.ParseSearchMode(arg)
	if err != nil {
		fmt.Fprintln(s.Out, err)
		return
	}
	s.Mode = m
	fmt.Fprintf(s.Out, "mode: %s\n", s.Mode)
}

func (s *Shell) fav(ctx context.Context, arg string) {
	book, ok := s.result(arg)
	if !ok {
		return
	}
	// Store failures are logged by the view; the card stays as it was.
	if s.View.HandleFavoriteToggle(ctx, book) != library.OutcomeApplied {
		return
	}
	if book.InFavorites {
		fmt.Fprintf(s.Out, "removed %q from favorites\n", book.Title)
	} else {
		fmt.Fprintf(s.Out, "added %q to favorites\n", book.Title)
	}
}

func (s *Shell) read(ctx context.Context, arg string) {
	book, ok := s.result(arg)
	if !ok {
		return
	}
	if s.View.ToggleRead(ctx, book) != library.OutcomeApplied {
		return
	}
	if fav, ok := s.View.Favorite(book.Key); ok && fav.Read {
		fmt.Fprintf(s.Out, "%q marked read\n", book.Title)
	} else {
		fmt.Fprintf(s.Out, "%q marked unread\n", book.Title)
	}
}

// result resolves a one-based result number.
func (s *Shell) result(arg string) (types.Book, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintln(s.Out, "expected a result number")
		return types.Book{}, false
	}
	book, ok := s.View.Book(n - 1)
	if !ok {
		fmt.Fprintf(s.Out, "no result %d\n", n)
		return types.Book{}, false
	}
	return book, true
}

func (s *Shell) history() {
	ops := s.View.History()
	if len(ops) == 0 {
		fmt.Fprintln(s.Out, "No changes yet.")
		return
	}
	for _, op := range ops {
		fmt.Fprintf(s.Out, "%s  %-11s  %-8s  %s\n",
			op.Finished.Format("15:04:05"), op.Kind, op.State, op.Key)
	}
}
