// Package stats derives leaderboard-wide metrics from the aggregate endpoints.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pokerunboard/logger"
	"pokerunboard/models"
)

// NoGame is reported as the most popular game when there are no runs
const NoGame = "-"

// Source is the set of aggregate reads the aggregator combines
type Source interface {
	CountByGame(ctx context.Context) ([]models.GameCount, error)
	AvgTimeByGame(ctx context.Context) ([]models.GameAvgTime, error)
	TopPokemon(ctx context.Context) ([]models.PokemonCount, error)
}

// Aggregator fetches the three aggregates together and derives the summary
type Aggregator struct {
	src Source
	now func() time.Time
}

// NewAggregator creates an aggregator over src
func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src, now: time.Now}
}

// Load fires the three reads concurrently and waits for all of them. If any
// read fails the whole load fails; partial metrics are never returned.
func (a *Aggregator) Load(ctx context.Context) (*models.StatsSnapshot, error) {
	var (
		counts []models.GameCount
		avgs   []models.GameAvgTime
		top    []models.PokemonCount
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = a.src.CountByGame(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		avgs, err = a.src.AvgTimeByGame(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = a.src.TopPokemon(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Failed to load statistics", zap.Error(err))
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}

	popular := MostPopular(counts)
	snap := &models.StatsSnapshot{
		TakenAt:           a.now().UTC(),
		TotalRuns:         TotalRuns(counts),
		MostPopularGame:   popular.Game,
		MostPopularCount:  popular.Count,
		OverallAvgMinutes: OverallAverage(avgs),
		CountByGame:       counts,
		AvgTimeByGame:     avgs,
		TopPokemon:        top,
	}

	logger.Info("Statistics loaded",
		zap.Int64("total_runs", snap.TotalRuns),
		zap.String("most_popular_game", snap.MostPopularGame),
		zap.Float64("overall_avg_minutes", snap.OverallAvgMinutes),
		zap.Int("games", len(counts)),
		zap.Int("top_pokemon", len(top)))

	return snap, nil
}

// Games lists the game titles that have runs, in response order
func (a *Aggregator) Games(ctx context.Context) ([]string, error) {
	counts, err := a.src.CountByGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	games := make([]string, 0, len(counts))
	for _, c := range counts {
		games = append(games, c.Game)
	}
	return games, nil
}

// TotalRuns sums the per-game counts
func TotalRuns(counts []models.GameCount) int64 {
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	return total
}

// MostPopular returns the entry with the strictly greatest count. On a tie
// the earliest entry wins. An empty input yields {NoGame, 0}.
func MostPopular(counts []models.GameCount) models.GameCount {
	if len(counts) == 0 {
		return models.GameCount{Game: NoGame}
	}
	best := counts[0]
	for _, c := range counts[1:] {
		if c.Count > best.Count {
			best = c
		}
	}
	return best
}

// OverallAverage is the plain mean of the per-game averages. Each game
// weighs the same no matter how many runs it has.
func OverallAverage(avgs []models.GameAvgTime) float64 {
	if len(avgs) == 0 {
		return 0
	}
	var sum float64
	for _, a := range avgs {
		sum += a.AvgRunTime
	}
	return sum / float64(len(avgs))
}

// FormatMinutes renders minutes as "Hh MMmin", e.g. 125.4 -> "2h 05min"
func FormatMinutes(total float64) string {
	hours := int(math.Floor(total / 60))
	minutes := int(math.Round(math.Mod(total, 60)))
	return fmt.Sprintf("%dh %02dmin", hours, minutes)
}
