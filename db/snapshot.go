package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"pokerunboard/models"
)

const (
	insertSnapshotQuery = `
		INSERT INTO stats_snapshots (
			taken_at, total_runs, most_popular_game,
			most_popular_count, overall_avg_minutes
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	insertGameCountQuery = `
		INSERT INTO snapshot_game_counts (snapshot_id, position, game, run_count)
		VALUES ($1, $2, $3, $4)
	`
	insertGameAvgQuery = `
		INSERT INTO snapshot_game_avgs (snapshot_id, position, game, avg_minutes)
		VALUES ($1, $2, $3, $4)
	`
	insertTopPokemonQuery = `
		INSERT INTO snapshot_top_pokemon (snapshot_id, position, pokemon, appearances)
		VALUES ($1, $2, $3, $4)
	`
	latestSnapshotQuery = `
		SELECT id, taken_at, total_runs, most_popular_game,
			most_popular_count, overall_avg_minutes
		FROM stats_snapshots
		ORDER BY taken_at DESC, id DESC
		LIMIT 1
	`
	listSnapshotsQuery = `
		SELECT id, taken_at, total_runs, most_popular_game,
			most_popular_count, overall_avg_minutes
		FROM stats_snapshots
		ORDER BY taken_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	selectGameCountsQuery = `
		SELECT game, run_count FROM snapshot_game_counts
		WHERE snapshot_id = $1 ORDER BY position
	`
	selectGameAvgsQuery = `
		SELECT game, avg_minutes FROM snapshot_game_avgs
		WHERE snapshot_id = $1 ORDER BY position
	`
	selectTopPokemonQuery = `
		SELECT pokemon, appearances FROM snapshot_top_pokemon
		WHERE snapshot_id = $1 ORDER BY position
	`
)

// StoreSnapshot writes the snapshot header and its per-game and top-pokémon
// rows in one transaction and returns the new snapshot id.
func (db *DB) StoreSnapshot(ctx context.Context, snap *models.StatsSnapshot) (int64, error) {
	if snap == nil {
		return 0, fmt.Errorf("%w: snapshot cannot be nil", ErrInvalidInput)
	}
	if snap.TakenAt.IsZero() {
		return 0, fmt.Errorf("%w: snapshot has no timestamp", ErrInvalidInput)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowxContext(ctx, insertSnapshotQuery,
		snap.TakenAt, snap.TotalRuns, snap.MostPopularGame,
		snap.MostPopularCount, snap.OverallAvgMinutes,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	counts := make([][]any, 0, len(snap.CountByGame))
	for _, c := range snap.CountByGame {
		counts = append(counts, []any{c.Game, c.Count})
	}
	if err := insertRows(ctx, tx, insertGameCountQuery, id, counts); err != nil {
		return 0, fmt.Errorf("failed to insert game counts: %w", err)
	}

	avgs := make([][]any, 0, len(snap.AvgTimeByGame))
	for _, a := range snap.AvgTimeByGame {
		avgs = append(avgs, []any{a.Game, a.AvgRunTime})
	}
	if err := insertRows(ctx, tx, insertGameAvgQuery, id, avgs); err != nil {
		return 0, fmt.Errorf("failed to insert game averages: %w", err)
	}

	top := make([][]any, 0, len(snap.TopPokemon))
	for _, p := range snap.TopPokemon {
		top = append(top, []any{p.Pokemon, p.Count})
	}
	if err := insertRows(ctx, tx, insertTopPokemonQuery, id, top); err != nil {
		return 0, fmt.Errorf("failed to insert top pokemon: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: failed to commit transaction: %v", ErrTransactionFailed, err)
	}

	safeLogInfo("Snapshot stored",
		zap.Int64("id", id),
		zap.Int64("total_runs", snap.TotalRuns),
		zap.Int("games", len(snap.CountByGame)),
		zap.Int("top_pokemon", len(snap.TopPokemon)))
	return id, nil
}

// insertRows runs query once per row with (snapshotID, position, row...)
func insertRows(ctx context.Context, tx *sqlx.Tx, query string, snapshotID int64, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		args := append([]any{snapshotID, i}, row...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot with all of its rows
func (db *DB) LatestSnapshot(ctx context.Context) (*models.StatsSnapshot, error) {
	stmt, err := db.getStmt(ctx, latestSnapshotQuery)
	if err != nil {
		return nil, err
	}

	var snap models.StatsSnapshot
	if err := stmt.GetContext(ctx, &snap); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: archive is empty", ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	if err := db.loadRows(ctx, &snap); err != nil {
		return nil, err
	}

	safeLogInfo("Latest snapshot retrieved", zap.Int64("id", snap.ID), zap.Time("taken_at", snap.TakenAt))
	return &snap, nil
}

func (db *DB) loadRows(ctx context.Context, snap *models.StatsSnapshot) error {
	snap.CountByGame = []models.GameCount{}
	if err := db.conn.SelectContext(ctx, &snap.CountByGame, selectGameCountsQuery, snap.ID); err != nil {
		return fmt.Errorf("failed to load game counts for snapshot %d: %w", snap.ID, err)
	}
	snap.AvgTimeByGame = []models.GameAvgTime{}
	if err := db.conn.SelectContext(ctx, &snap.AvgTimeByGame, selectGameAvgsQuery, snap.ID); err != nil {
		return fmt.Errorf("failed to load game averages for snapshot %d: %w", snap.ID, err)
	}
	snap.TopPokemon = []models.PokemonCount{}
	if err := db.conn.SelectContext(ctx, &snap.TopPokemon, selectTopPokemonQuery, snap.ID); err != nil {
		return fmt.Errorf("failed to load top pokemon for snapshot %d: %w", snap.ID, err)
	}
	return nil
}

// ListSnapshots pages snapshot headers newest first. Per-game and
// top-pokémon rows are not loaded.
func (db *DB) ListSnapshots(ctx context.Context, params models.PaginationParams) ([]models.StatsSnapshot, error) {
	params = models.NewPaginationParams(params.Page, params.PageSize)

	snaps := []models.StatsSnapshot{}
	if err := db.conn.SelectContext(ctx, &snaps, listSnapshotsQuery, params.PageSize, params.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}
