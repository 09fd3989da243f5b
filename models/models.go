// Package models defines the core data structures used throughout the application.
package models

import "time"

// UserSummary is the owner block embedded in every run
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// User is the signed-in identity as the auth layer knows it
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Run represents one submitted timed playthrough.
// RunTime is zero-padded "HH:MM"; PokemonTeam keeps order and duplicates.
type Run struct {
	ID            int64       `json:"id"`
	Game          string      `json:"game"`
	RunTime       string      `json:"runTime"`
	PokedexStatus int         `json:"pokedexStatus"`
	PokemonTeam   []string    `json:"pokemonTeam"`
	Observation   string      `json:"observation"`
	User          UserSummary `json:"user"`
}

// CreateRunRequest is the body of POST /runs
type CreateRunRequest struct {
	Game          string   `json:"game" validate:"required"`
	RunTime       string   `json:"runTime" validate:"required,runtime"`
	PokedexStatus int      `json:"pokedexStatus" validate:"gte=0"`
	PokemonTeam   []string `json:"pokemonTeam,omitempty"`
	Observation   string   `json:"observation,omitempty"`
}

// UpdateRunRequest is the body of PATCH /runs/{id}
type UpdateRunRequest struct {
	Game          string   `json:"game" validate:"required"`
	RunTime       string   `json:"runTime" validate:"required,runtime"`
	PokedexStatus int      `json:"pokedexStatus" validate:"gte=0"`
	PokemonTeam   []string `json:"pokemonTeam,omitempty"`
	Observation   string   `json:"observation,omitempty"`
}

// SortInfo mirrors the backend's sort descriptor
type SortInfo struct {
	Sorted   bool `json:"sorted"`
	Empty    bool `json:"empty"`
	Unsorted bool `json:"unsorted"`
}

// Pageable mirrors the backend's request echo
type Pageable struct {
	PageNumber int      `json:"pageNumber"`
	PageSize   int      `json:"pageSize"`
	Sort       SortInfo `json:"sort"`
}

// PageResult is one page of entities plus pagination metadata.
// Number is zero-based.
type PageResult[T any] struct {
	Content          []T      `json:"content"`
	Pageable         Pageable `json:"pageable"`
	TotalPages       int      `json:"totalPages"`
	TotalElements    int64    `json:"totalElements"`
	Last             bool     `json:"last"`
	First            bool     `json:"first"`
	Size             int      `json:"size"`
	Number           int      `json:"number"`
	NumberOfElements int      `json:"numberOfElements"`
	Empty            bool     `json:"empty"`
}

// Clone returns a copy whose Content slice is not shared with p
func (p *PageResult[T]) Clone() *PageResult[T] {
	if p == nil {
		return nil
	}
	out := *p
	if p.Content != nil {
		out.Content = make([]T, len(p.Content))
		copy(out.Content, p.Content)
	}
	return &out
}

// GameCount is one row of /runs/stats/count-by-game
type GameCount struct {
	Game  string `json:"game" db:"game"`
	Count int64  `json:"count" db:"run_count"`
}

// GameAvgTime is one row of /runs/stats/avg-time-by-game.
// AvgRunTime is in minutes.
type GameAvgTime struct {
	Game       string  `json:"game" db:"game"`
	AvgRunTime float64 `json:"avgRunTime" db:"avg_minutes"`
}

// PokemonCount is one row of /runs/stats/top-pokemons
type PokemonCount struct {
	Pokemon string `json:"pokemon" db:"pokemon"`
	Count   int64  `json:"count" db:"appearances"`
}

// StatsSnapshot is the leaderboard-wide metrics derived from one aggregate load
type StatsSnapshot struct {
	ID                int64          `db:"id" json:"id"`
	TakenAt           time.Time      `db:"taken_at" json:"taken_at"`
	TotalRuns         int64          `db:"total_runs" json:"total_runs"`
	MostPopularGame   string         `db:"most_popular_game" json:"most_popular_game"`
	MostPopularCount  int64          `db:"most_popular_count" json:"most_popular_count"`
	OverallAvgMinutes float64        `db:"overall_avg_minutes" json:"overall_avg_minutes"`
	CountByGame       []GameCount    `db:"-" json:"count_by_game"`
	AvgTimeByGame     []GameAvgTime  `db:"-" json:"avg_time_by_game"`
	TopPokemon        []PokemonCount `db:"-" json:"top_pokemon"`
}

// PaginationParams represents parameters for paginated queries
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPaginationParams creates a new PaginationParams with validated values.
// Page is zero-based like the backend; a negative page becomes 0 and a
// pageSize below 1 becomes 10.
func NewPaginationParams(page, pageSize int) PaginationParams {
	if page < 0 {
		page = 0
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
	}
}

// Offset returns the number of rows to skip
func (p PaginationParams) Offset() int {
	return p.Page * p.PageSize
}
