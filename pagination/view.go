package pagination

import (
	"strings"

	"pokerunboard/auth"
	"pokerunboard/models"
	"pokerunboard/runs"
)

// degenerateSinglePageView filters one fetched page client-side and wraps
// the survivors in a synthetic single page. The search only ever sees the
// page the server returned; it is not server-side filtered pagination.
func degenerateSinglePageView(page *runs.RunPage, term string) *runs.RunPage {
	filtered := make([]models.Run, 0, len(page.Content))
	for _, run := range page.Content {
		if MatchesSearch(run, term) {
			filtered = append(filtered, run)
		}
	}

	n := len(filtered)
	return &runs.RunPage{
		Content:          filtered,
		Pageable:         page.Pageable,
		TotalPages:       1,
		TotalElements:    int64(n),
		First:            true,
		Last:             true,
		Size:             n,
		Number:           0,
		NumberOfElements: n,
		Empty:            n == 0,
	}
}

// MatchesSearch reports whether the owner's username or any team member
// contains term, ignoring case. An empty term matches everything.
func MatchesSearch(run models.Run, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(run.User.Username), needle) {
		return true
	}
	for _, member := range run.PokemonTeam {
		if strings.Contains(strings.ToLower(member), needle) {
			return true
		}
	}
	return false
}

// Row is a run prepared for rendering
type Row struct {
	Rank int
	Run  models.Run
	Mine bool
}

// Rows pairs each run with whether the current user owns it. Rank is the
// one-based position across pages.
func (s Snapshot) Rows(currentUser auth.CurrentUserFunc) []Row {
	if s.Result == nil {
		return nil
	}

	var me *models.User
	if currentUser != nil {
		me = currentUser()
	}

	offset := s.Result.Number * s.Result.Size
	rows := make([]Row, 0, len(s.Result.Content))
	for i, run := range s.Result.Content {
		rows = append(rows, Row{
			Rank: offset + i + 1,
			Run:  run,
			Mine: me != nil && me.ID == run.User.ID,
		})
	}
	return rows
}
