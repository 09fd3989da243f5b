package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pokerunboard/auth"
	"pokerunboard/logger"
	"pokerunboard/pagination"
	"pokerunboard/runs"
	"pokerunboard/search"
)

var errQuit = errors.New("quit")

// browser feeds line commands into a pagination controller and prints every
// page it settles on. Search input goes through the debouncer.
type browser struct {
	ctrl        *pagination.Controller
	search      *search.Debouncer
	currentUser auth.CurrentUserFunc

	mu  sync.Mutex
	out io.Writer
}

func newBrowser(ctx context.Context, lister pagination.Lister, size int, sort string, delay time.Duration,
	currentUser auth.CurrentUserFunc, w io.Writer) *browser {
	b := &browser{
		ctrl:        pagination.NewController(lister, size, sort),
		currentUser: currentUser,
		out:         w,
	}
	b.ctrl.Subscribe(b.render)
	b.search = search.NewDebouncer(delay, func(term string) {
		if err := b.ctrl.CommitSearch(ctx, term); err != nil {
			logger.Debug("Search fetch did not settle", zap.String("term", term), zap.Error(err))
		}
	})
	return b
}

func (b *browser) render(snap pagination.Snapshot) {
	if snap.State == pagination.Loading {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	renderSnapshot(b.out, snap, b.currentUser)
}

func (b *browser) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

// run mounts at the zero-based page and processes commands until :quit or end of input.
// A search still waiting for its quiet period is applied at end of input.
func (b *browser) run(ctx context.Context, in io.Reader, page int) error {
	defer b.search.Stop()

	if err := b.ctrl.MountWith(ctx, pagination.Filter{Page: page, Sort: b.ctrl.Snapshot().Filter.Sort}); err != nil {
		if !renderedByController(err) {
			return err
		}
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		err := b.handle(ctx, strings.TrimSpace(scanner.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil && !renderedByController(err) {
			b.printf("Error: %s\n", err)
		}
	}

	if b.search.Pending() {
		b.search.Flush()
	}
	return scanner.Err()
}

// renderedByController reports whether err already reached the screen
// through the controller's subscription
func renderedByController(err error) bool {
	var re *runs.Error
	return errors.As(err, &re) || errors.Is(err, pagination.ErrSuperseded)
}

func (b *browser) handle(ctx context.Context, line string) error {
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, "/") {
		b.search.Input(line[1:])
		return nil
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	snap := b.ctrl.Snapshot()

	switch name {
	case ":q", ":quit":
		return errQuit
	case ":next":
		if snap.Result != nil && snap.Result.Last {
			b.printf("Already on the last page.\n")
			return nil
		}
		return b.ctrl.SetPage(ctx, snap.Filter.Page+1)
	case ":prev":
		if snap.Filter.Page == 0 {
			b.printf("Already on the first page.\n")
			return nil
		}
		return b.ctrl.SetPage(ctx, snap.Filter.Page-1)
	case ":page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("page must be a number, got %q", arg)
		}
		idx, err := pageIndex(n)
		if err != nil {
			return err
		}
		return b.ctrl.SetPage(ctx, idx)
	case ":game":
		return b.ctrl.SetGameFilter(ctx, arg)
	case ":sort":
		return b.ctrl.SetSort(ctx, arg)
	case ":refresh":
		return b.ctrl.Refresh(ctx)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func runBrowse(cmd *cobra.Command, args []string) error {
	idx, err := pageIndex(pageFlag)
	if err != nil {
		return err
	}
	b := newBrowser(cmd.Context(), cli.client, cli.pageSize(), sortFlag, cli.cfg.SearchDebounce,
		cli.session.CurrentUser, out(cmd))
	return b.run(cmd.Context(), cmd.InOrStdin(), idx)
}
