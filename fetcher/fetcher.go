package fetcher

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pokerunboard/logger"
	"pokerunboard/models"
	"pokerunboard/runs"
)

// Sort keys accepted by MyRunsOptions.SortBy
const (
	SortByRunTime       = "runTime"
	SortByPokedexStatus = "pokedexStatus"
)

// MineLister defines the runs client operation needed by the fetcher
type MineLister interface {
	ListMine(ctx context.Context, page, size int) (*runs.RunPage, error)
}

// MyRunsOptions selects one page of the caller's runs and how to present it
type MyRunsOptions struct {
	Page       int
	Size       int
	Game       string // "" or "all" keeps every game
	SortBy     string // runTime or pokedexStatus; anything else keeps server order
	Descending bool
}

// MyRuns is the caller's runs after client-side filtering and sorting
type MyRuns struct {
	Runs       []models.Run
	Page       int
	TotalPages int
}

// FetchMyRuns fetches one page of the caller's runs, then filters by game and
// sorts within that page only. TotalPages is the server's unfiltered count.
func FetchMyRuns(ctx context.Context, client MineLister, opts MyRunsOptions) (*MyRuns, error) {
	if opts.Size <= 0 {
		opts.Size = 10
	}
	if opts.Page < 0 {
		opts.Page = 0
	}

	page, err := client.ListMine(ctx, opts.Page, opts.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch my runs: %w", err)
	}

	filtered := make([]models.Run, 0, len(page.Content))
	for _, r := range page.Content {
		if opts.Game == "" || opts.Game == "all" || r.Game == opts.Game {
			filtered = append(filtered, r)
		}
	}

	sortRuns(filtered, opts.SortBy, opts.Descending)

	logger.Info("Fetched my runs",
		zap.Int("page", opts.Page),
		zap.Int("fetched", len(page.Content)),
		zap.Int("kept", len(filtered)),
		zap.String("game", opts.Game),
		zap.String("sort_by", opts.SortBy))

	return &MyRuns{Runs: filtered, Page: page.Number, TotalPages: page.TotalPages}, nil
}

func sortRuns(list []models.Run, by string, desc bool) {
	var less func(a, b models.Run) bool
	switch by {
	case SortByRunTime:
		less = func(a, b models.Run) bool { return RunTimeMinutes(a.RunTime) < RunTimeMinutes(b.RunTime) }
	case SortByPokedexStatus:
		less = func(a, b models.Run) bool { return a.PokedexStatus < b.PokedexStatus }
	default:
		return
	}

	sort.SliceStable(list, func(i, j int) bool {
		if desc {
			return less(list[j], list[i])
		}
		return less(list[i], list[j])
	})
}

// RunTimeMinutes converts "HH:MM" into minutes. Unparseable parts count as 0.
func RunTimeMinutes(runTime string) int {
	total := 0
	for _, part := range strings.Split(runTime, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			n = 0
		}
		total = total*60 + n
	}
	return total
}
