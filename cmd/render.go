package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"pokerunboard/auth"
	"pokerunboard/models"
	"pokerunboard/pagination"
	"pokerunboard/stats"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func team(members []string) string {
	if len(members) == 0 {
		return "-"
	}
	return strings.Join(members, ", ")
}

// renderSnapshot prints a loaded page, or the error message when the load failed
func renderSnapshot(w io.Writer, snap pagination.Snapshot, currentUser auth.CurrentUserFunc) {
	switch snap.State {
	case pagination.Error:
		fmt.Fprintf(w, "Error: %s\n", snap.Err)
		return
	case pagination.Loaded:
	default:
		return
	}

	res := snap.Result
	if snap.Filter.Search != "" {
		fmt.Fprintf(w, "%d result(s) for %q\n", res.NumberOfElements, snap.Filter.Search)
	} else {
		fmt.Fprintf(w, "Page %d of %d (%d runs)\n", res.Number+1, max(res.TotalPages, 1), res.TotalElements)
	}
	if res.Empty {
		fmt.Fprintln(w, "No runs found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "#\tTRAINER\tGAME\tTIME\tPOKEDEX\tTEAM\t")
	for _, row := range snap.Rows(currentUser) {
		trainer := row.Run.User.Username
		if row.Mine {
			trainer += " (you)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t\n",
			row.Rank, trainer, row.Run.Game, row.Run.RunTime, row.Run.PokedexStatus, team(row.Run.PokemonTeam))
	}
	tw.Flush()
}

// renderRuns prints a flat list of runs with their ids
func renderRuns(w io.Writer, list []models.Run) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTRAINER\tGAME\tTIME\tPOKEDEX\tTEAM\t")
	for _, r := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t\n",
			r.ID, r.User.Username, r.Game, r.RunTime, r.PokedexStatus, team(r.PokemonTeam))
	}
	tw.Flush()
}

func renderRun(w io.Writer, r *models.Run) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%d\n", r.ID)
	fmt.Fprintf(tw, "Trainer:\t%s\n", r.User.Username)
	fmt.Fprintf(tw, "Game:\t%s\n", r.Game)
	fmt.Fprintf(tw, "Run time:\t%s\n", r.RunTime)
	fmt.Fprintf(tw, "Pokédex:\t%d\n", r.PokedexStatus)
	fmt.Fprintf(tw, "Team:\t%s\n", team(r.PokemonTeam))
	if r.Observation != "" {
		fmt.Fprintf(tw, "Notes:\t%s\n", r.Observation)
	}
	tw.Flush()
}

func renderStats(w io.Writer, snap *models.StatsSnapshot) {
	fmt.Fprintf(w, "Total runs:        %d\n", snap.TotalRuns)
	fmt.Fprintf(w, "Most popular game: %s (%d)\n", snap.MostPopularGame, snap.MostPopularCount)
	fmt.Fprintf(w, "Average run time:  %s\n", stats.FormatMinutes(snap.OverallAvgMinutes))

	if len(snap.CountByGame) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w)
		fmt.Fprintln(tw, "GAME\tRUNS\t")
		for _, c := range snap.CountByGame {
			fmt.Fprintf(tw, "%s\t%d\t\n", c.Game, c.Count)
		}
		tw.Flush()
	}

	if len(snap.AvgTimeByGame) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w)
		fmt.Fprintln(tw, "GAME\tAVG TIME\t")
		for _, a := range snap.AvgTimeByGame {
			fmt.Fprintf(tw, "%s\t%s\t\n", a.Game, stats.FormatMinutes(a.AvgRunTime))
		}
		tw.Flush()
	}

	if len(snap.TopPokemon) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w)
		fmt.Fprintln(tw, "POKEMON\tAPPEARANCES\t")
		for _, p := range snap.TopPokemon {
			fmt.Fprintf(tw, "%s\t%d\t\n", p.Pokemon, p.Count)
		}
		tw.Flush()
	}
}

func renderSnapshots(w io.Writer, snaps []models.StatsSnapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(w, "No snapshots archived yet.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTAKEN AT\tRUNS\tMOST POPULAR\tAVG TIME\t")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t\n",
			s.ID, s.TakenAt.Format("2006-01-02 15:04"), s.TotalRuns, s.MostPopularGame,
			stats.FormatMinutes(s.OverallAvgMinutes))
	}
	tw.Flush()
}
