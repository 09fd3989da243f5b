package db

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS stats_snapshots (
	id                  BIGSERIAL PRIMARY KEY,
	taken_at            TIMESTAMPTZ NOT NULL,
	total_runs          BIGINT NOT NULL,
	most_popular_game   TEXT NOT NULL,
	most_popular_count  BIGINT NOT NULL,
	overall_avg_minutes DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS stats_snapshots_taken_at_idx ON stats_snapshots (taken_at DESC);

CREATE TABLE IF NOT EXISTS snapshot_game_counts (
	snapshot_id BIGINT NOT NULL REFERENCES stats_snapshots (id) ON DELETE CASCADE,
	position    INT NOT NULL,
	game        TEXT NOT NULL,
	run_count   BIGINT NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);

CREATE TABLE IF NOT EXISTS snapshot_game_avgs (
	snapshot_id BIGINT NOT NULL REFERENCES stats_snapshots (id) ON DELETE CASCADE,
	position    INT NOT NULL,
	game        TEXT NOT NULL,
	avg_minutes DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);

CREATE TABLE IF NOT EXISTS snapshot_top_pokemon (
	snapshot_id BIGINT NOT NULL REFERENCES stats_snapshots (id) ON DELETE CASCADE,
	position    INT NOT NULL,
	pokemon     TEXT NOT NULL,
	appearances BIGINT NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);
`

// Migrate creates the archive tables when they do not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate snapshot archive: %w", err)
	}
	safeLogInfo("Snapshot archive schema ready")
	return nil
}
