package fetcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pokerunboard/models"
	"pokerunboard/runs"
)

// MockRunsClient is a mock implementation of the runs client
type MockRunsClient struct {
	mock.Mock
}

func (m *MockRunsClient) ListMine(ctx context.Context, page, size int) (*runs.RunPage, error) {
	args := m.Called(ctx, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*runs.RunPage), args.Error(1)
}

func mine() *runs.RunPage {
	content := []models.Run{
		{ID: 1, Game: "Emerald", RunTime: "48:30", PokedexStatus: 198},
		{ID: 2, Game: "Platinum", RunTime: "42:10", PokedexStatus: 210},
		{ID: 3, Game: "Emerald", RunTime: "09:05", PokedexStatus: 55},
		{ID: 4, Game: "Emerald", RunTime: "09:05", PokedexStatus: 300},
	}
	return &runs.RunPage{Content: content, Number: 1, TotalPages: 4, NumberOfElements: len(content), Size: 10}
}

func ids(list []models.Run) []int64 {
	out := make([]int64, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func TestFetchMyRuns(t *testing.T) {
	testCases := []struct {
		name        string
		opts        MyRunsOptions
		expectedIDs []int64
	}{
		{
			name:        "server order without options",
			opts:        MyRunsOptions{Page: 1, Size: 10},
			expectedIDs: []int64{1, 2, 3, 4},
		},
		{
			name:        "game filter",
			opts:        MyRunsOptions{Page: 1, Size: 10, Game: "Emerald"},
			expectedIDs: []int64{1, 3, 4},
		},
		{
			name:        "all games keyword",
			opts:        MyRunsOptions{Page: 1, Size: 10, Game: "all", SortBy: SortByRunTime},
			expectedIDs: []int64{3, 4, 2, 1},
		},
		{
			name:        "run time descending keeps ties stable",
			opts:        MyRunsOptions{Page: 1, Size: 10, SortBy: SortByRunTime, Descending: true},
			expectedIDs: []int64{1, 2, 3, 4},
		},
		{
			name:        "pokedex ascending",
			opts:        MyRunsOptions{Page: 1, Size: 10, SortBy: SortByPokedexStatus},
			expectedIDs: []int64{3, 1, 2, 4},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := &MockRunsClient{}
			client.On("ListMine", mock.Anything, 1, 10).Return(mine(), nil).Once()

			got, err := FetchMyRuns(context.Background(), client, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedIDs, ids(got.Runs))
			assert.Equal(t, 4, got.TotalPages)
			assert.Equal(t, 1, got.Page)
			client.AssertExpectations(t)
		})
	}
}

func TestFetchMyRunsDefaultsAndErrors(t *testing.T) {
	client := &MockRunsClient{}
	client.On("ListMine", mock.Anything, 0, 10).
		Return(nil, &runs.Error{Op: "list my runs", Kind: runs.Unauthorized}).Once()

	_, err := FetchMyRuns(context.Background(), client, MyRunsOptions{Page: -3})
	assert.ErrorIs(t, err, runs.ErrUnauthorized)
	client.AssertExpectations(t)
}

func TestRunTimeMinutes(t *testing.T) {
	assert.Equal(t, 0, RunTimeMinutes("00:00"))
	assert.Equal(t, 545, RunTimeMinutes("09:05"))
	assert.Equal(t, 2910, RunTimeMinutes("48:30"))
	assert.Equal(t, 30, RunTimeMinutes("xx:30"))
}
