package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pokerunboard/models"
	"pokerunboard/pagination"
)

func TestRenderSnapshotMarksOwnedRuns(t *testing.T) {
	snap := pagination.Snapshot{
		State:  pagination.Loaded,
		Filter: pagination.Filter{Page: 1, Size: 10, Game: pagination.AllGames},
		Result: leaderboard(1, false),
	}
	me := func() *models.User { return &models.User{ID: 20, Username: "dawn"} }

	var buf bytes.Buffer
	renderSnapshot(&buf, snap, me)

	output := buf.String()
	assert.Contains(t, output, "Page 2 of 3 (25 runs)")
	assert.Contains(t, output, "dawn (you)")
	assert.NotContains(t, output, "may (you)")
	// ranks continue across pages
	assert.Contains(t, output, "11  ")
	assert.Contains(t, output, "12  ")
}

func TestRenderSnapshotIgnoresLoading(t *testing.T) {
	var buf bytes.Buffer
	renderSnapshot(&buf, pagination.Snapshot{State: pagination.Loading}, nil)
	assert.Empty(t, buf.String())
}

func TestRenderStats(t *testing.T) {
	var buf bytes.Buffer
	renderStats(&buf, &models.StatsSnapshot{
		TotalRuns:         22,
		MostPopularGame:   "Platinum",
		MostPopularCount:  9,
		OverallAvgMinutes: 125.4,
		CountByGame:       []models.GameCount{{Game: "Platinum", Count: 9}},
		TopPokemon:        []models.PokemonCount{{Pokemon: "Pikachu", Count: 12}},
	})

	output := buf.String()
	assert.Contains(t, output, "Total runs:        22")
	assert.Contains(t, output, "Most popular game: Platinum (9)")
	assert.Contains(t, output, "Average run time:  2h 05min")
	assert.Contains(t, output, "Pikachu")
	assert.NotContains(t, output, "AVG TIME")
}

func TestRenderSnapshots(t *testing.T) {
	var buf bytes.Buffer
	renderSnapshots(&buf, nil)
	assert.Equal(t, "No snapshots archived yet.\n", buf.String())

	buf.Reset()
	renderSnapshots(&buf, []models.StatsSnapshot{{
		ID:                3,
		TakenAt:           time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC),
		TotalRuns:         5,
		MostPopularGame:   "Red",
		OverallAvgMinutes: 60,
	}})
	assert.Contains(t, buf.String(), "2025-03-01 12:00")
	assert.Contains(t, buf.String(), "1h 00min")
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("0")
	assert.Error(t, err)
	_, err = parseID("abc")
	assert.Error(t, err)
}

func TestPageIndexIsOneBased(t *testing.T) {
	idx, err := pageIndex(1)
	assert.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = pageIndex(3)
	assert.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = pageIndex(0)
	assert.Error(t, err)
}
