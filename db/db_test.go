package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerunboard/models"
)

// setupTestDB creates a new test database connection with a mock
func setupTestDB(t *testing.T) (*DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	database := wrap(sqlx.NewDb(db, "sqlmock"))

	cleanup := func() {
		database.Close()
	}

	return database, mock, cleanup
}

var takenAt = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

var snapshotColumns = []string{
	"id", "taken_at", "total_runs", "most_popular_game",
	"most_popular_count", "overall_avg_minutes",
}

func sampleSnapshot() *models.StatsSnapshot {
	return &models.StatsSnapshot{
		TakenAt:           takenAt,
		TotalRuns:         13,
		MostPopularGame:   "Platinum",
		MostPopularCount:  9,
		OverallAvgMinutes: 55,
		CountByGame: []models.GameCount{
			{Game: "Emerald", Count: 4},
			{Game: "Platinum", Count: 9},
		},
		AvgTimeByGame: []models.GameAvgTime{
			{Game: "Emerald", AvgRunTime: 10},
			{Game: "Platinum", AvgRunTime: 100},
		},
		TopPokemon: []models.PokemonCount{
			{Pokemon: "Pikachu", Count: 12},
		},
	}
}

func TestStoreSnapshot(t *testing.T) {
	tests := []struct {
		name        string
		snap        *models.StatsSnapshot
		mockSetup   func(sqlmock.Sqlmock)
		expectedID  int64
		expectedErr error
	}{
		{
			name: "successful store",
			snap: sampleSnapshot(),
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("INSERT INTO stats_snapshots").
					WithArgs(takenAt, 13, "Platinum", 9, 55.0).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
				mock.ExpectPrepare("INSERT INTO snapshot_game_counts")
				mock.ExpectExec("INSERT INTO snapshot_game_counts").
					WithArgs(7, 0, "Emerald", 4).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO snapshot_game_counts").
					WithArgs(7, 1, "Platinum", 9).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectPrepare("INSERT INTO snapshot_game_avgs")
				mock.ExpectExec("INSERT INTO snapshot_game_avgs").
					WithArgs(7, 0, "Emerald", 10.0).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO snapshot_game_avgs").
					WithArgs(7, 1, "Platinum", 100.0).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectPrepare("INSERT INTO snapshot_top_pokemon")
				mock.ExpectExec("INSERT INTO snapshot_top_pokemon").
					WithArgs(7, 0, "Pikachu", 12).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedID: 7,
		},
		{
			name: "empty leaderboard stores only the header",
			snap: &models.StatsSnapshot{TakenAt: takenAt, MostPopularGame: "-"},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("INSERT INTO stats_snapshots").
					WithArgs(takenAt, 0, "-", 0, 0.0).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectCommit()
			},
			expectedID: 1,
		},
		{
			name:        "nil snapshot",
			snap:        nil,
			mockSetup:   func(mock sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidInput,
		},
		{
			name:        "missing timestamp",
			snap:        &models.StatsSnapshot{TotalRuns: 1},
			mockSetup:   func(mock sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidInput,
		},
		{
			name: "transaction failure",
			snap: sampleSnapshot(),
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(sql.ErrConnDone)
			},
			expectedErr: ErrTransactionFailed,
		},
		{
			name: "failed row rolls back",
			snap: sampleSnapshot(),
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("INSERT INTO stats_snapshots").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
				mock.ExpectPrepare("INSERT INTO snapshot_game_counts")
				mock.ExpectExec("INSERT INTO snapshot_game_counts").
					WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			expectedErr: errors.New("failed to insert game counts"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			id, err := db.StoreSnapshot(context.Background(), tt.snap)
			switch {
			case tt.expectedErr == nil:
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, id)
			case errors.Is(tt.expectedErr, ErrInvalidInput), errors.Is(tt.expectedErr, ErrTransactionFailed):
				assert.ErrorIs(t, err, tt.expectedErr)
			default:
				assert.ErrorContains(t, err, tt.expectedErr.Error())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLatestSnapshot(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(sqlmock.Sqlmock)
		expected    *models.StatsSnapshot
		expectedErr error
	}{
		{
			name: "successful retrieval",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPrepare("SELECT (.+) FROM stats_snapshots").
					ExpectQuery().
					WillReturnRows(sqlmock.NewRows(snapshotColumns).
						AddRow(7, takenAt, 13, "Platinum", 9, 55.0))
				mock.ExpectQuery("SELECT game, run_count FROM snapshot_game_counts").
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"game", "run_count"}).
						AddRow("Emerald", 4).
						AddRow("Platinum", 9))
				mock.ExpectQuery("SELECT game, avg_minutes FROM snapshot_game_avgs").
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"game", "avg_minutes"}).
						AddRow("Emerald", 10.0).
						AddRow("Platinum", 100.0))
				mock.ExpectQuery("SELECT pokemon, appearances FROM snapshot_top_pokemon").
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"pokemon", "appearances"}).
						AddRow("Pikachu", 12))
			},
			expected: func() *models.StatsSnapshot {
				s := sampleSnapshot()
				s.ID = 7
				return s
			}(),
		},
		{
			name: "empty archive",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPrepare("SELECT (.+) FROM stats_snapshots").
					ExpectQuery().
					WillReturnError(sql.ErrNoRows)
			},
			expectedErr: ErrSnapshotNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			result, err := db.LatestSnapshot(context.Background())
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLatestSnapshotReusesPreparedStatement(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	prep := mock.ExpectPrepare("SELECT (.+) FROM stats_snapshots")
	for i := 0; i < 2; i++ {
		prep.ExpectQuery().WillReturnRows(sqlmock.NewRows(snapshotColumns).
			AddRow(3, takenAt, 0, "-", 0, 0.0))
		mock.ExpectQuery("FROM snapshot_game_counts").WillReturnRows(sqlmock.NewRows([]string{"game", "run_count"}))
		mock.ExpectQuery("FROM snapshot_game_avgs").WillReturnRows(sqlmock.NewRows([]string{"game", "avg_minutes"}))
		mock.ExpectQuery("FROM snapshot_top_pokemon").WillReturnRows(sqlmock.NewRows([]string{"pokemon", "appearances"}))
	}

	for i := 0; i < 2; i++ {
		snap, err := db.LatestSnapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), snap.ID)
		assert.Empty(t, snap.CountByGame)
	}
	assert.Len(t, db.stmtCache.statements, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSnapshots(t *testing.T) {
	tests := []struct {
		name         string
		params       models.PaginationParams
		mockSetup    func(sqlmock.Sqlmock)
		expectedIDs  []int64
		expectedFail bool
	}{
		{
			name:   "second page",
			params: models.NewPaginationParams(1, 2),
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM stats_snapshots").
					WithArgs(2, 2).
					WillReturnRows(sqlmock.NewRows(snapshotColumns).
						AddRow(5, takenAt, 10, "Red", 4, 30.0).
						AddRow(4, takenAt.Add(-time.Hour), 9, "Red", 4, 31.0))
			},
			expectedIDs: []int64{5, 4},
		},
		{
			name:   "invalid params fall back to defaults",
			params: models.PaginationParams{Page: -1, PageSize: 0},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM stats_snapshots").
					WithArgs(10, 0).
					WillReturnRows(sqlmock.NewRows(snapshotColumns))
			},
			expectedIDs: []int64{},
		},
		{
			name:   "query failure",
			params: models.NewPaginationParams(0, 10),
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM stats_snapshots").
					WillReturnError(sql.ErrConnDone)
			},
			expectedFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			snaps, err := db.ListSnapshots(context.Background(), tt.params)
			if tt.expectedFail {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				ids := make([]int64, 0, len(snaps))
				for _, s := range snaps {
					ids = append(ids, s.ID)
				}
				assert.Equal(t, tt.expectedIDs, ids)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrate(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS stats_snapshots").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("POSTGRES_USER", "trainer")
	viper.Set("POSTGRES_PASSWORD", "secret")
	viper.Set("POSTGRES_DB", "runs")
	viper.Set("POSTGRES_PORT", "5432")
	viper.Set("POSTGRES_HOST", "localhost")

	assert.Equal(t, "user=trainer password=secret dbname=runs port=5432 host=localhost sslmode=disable", DSN())

	viper.Set("POSTGRES_SSLMODE", "require")
	assert.Contains(t, DSN(), "sslmode=require")
}
