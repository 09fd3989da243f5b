package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pokerunboard/fetcher"
	"pokerunboard/models"
	"pokerunboard/pagination"
	"pokerunboard/runs"
)

func runList(cmd *cobra.Command, args []string) error {
	idx, err := pageIndex(pageFlag)
	if err != nil {
		return err
	}
	ctrl := pagination.NewController(cli.client, cli.pageSize(), sortFlag)
	err = ctrl.MountWith(cmd.Context(), pagination.Filter{
		Page:   idx,
		Sort:   sortFlag,
		Search: searchFlag,
		Game:   gameFlag,
	})
	renderSnapshot(out(cmd), ctrl.Snapshot(), cli.session.CurrentUser)
	return err
}

func runMine(cmd *cobra.Command, args []string) error {
	idx, err := pageIndex(pageFlag)
	if err != nil {
		return err
	}
	mine, err := fetcher.FetchMyRuns(cmd.Context(), cli.client, fetcher.MyRunsOptions{
		Page:       idx,
		Size:       cli.pageSize(),
		Game:       gameFlag,
		SortBy:     sortByFlag,
		Descending: descFlag,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "Page %d of %d\n", mine.Page+1, max(mine.TotalPages, 1))
	renderRuns(out(cmd), mine.Runs)
	return nil
}

func runFastest(cmd *cobra.Command, args []string) error {
	idx, err := pageIndex(pageFlag)
	if err != nil {
		return err
	}
	page, err := cli.client.ListFastest(cmd.Context(), maxTimeFlag, idx, cli.pageSize())
	if err != nil {
		return err
	}
	renderRuns(out(cmd), page.Content)
	return nil
}

func runPokedex(cmd *cobra.Command, args []string) error {
	idx, err := pageIndex(pageFlag)
	if err != nil {
		return err
	}
	page, err := cli.client.ListByPokedex(cmd.Context(), minDexFlag, idx, cli.pageSize())
	if err != nil {
		return err
	}
	renderRuns(out(cmd), page.Content)
	return nil
}

func runTeam(cmd *cobra.Command, args []string) error {
	idx, err := pageIndex(pageFlag)
	if err != nil {
		return err
	}
	page, err := cli.client.ListByPokemon(cmd.Context(), pokemonFlag, idx, cli.pageSize())
	if err != nil {
		return err
	}
	renderRuns(out(cmd), page.Content)
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", arg)
	}
	return id, nil
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	run, err := cli.client.GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}
	renderRun(out(cmd), run)
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	run, err := cli.client.Create(cmd.Context(), models.CreateRunRequest{
		Game:          gameFlag,
		RunTime:       runTimeFlag,
		PokedexStatus: dexFlag,
		PokemonTeam:   teamFlag,
		Observation:   obsFlag,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "Run %d created.\n", run.ID)
	return nil
}

// runUpdate starts from the stored run so unset flags keep their values
func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	current, err := cli.client.GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}

	patch := models.UpdateRunRequest{
		Game:          current.Game,
		RunTime:       current.RunTime,
		PokedexStatus: current.PokedexStatus,
		PokemonTeam:   current.PokemonTeam,
		Observation:   current.Observation,
	}
	flags := cmd.Flags()
	if flags.Changed("game") {
		patch.Game = gameFlag
	}
	if flags.Changed("time") {
		patch.RunTime = runTimeFlag
	}
	if flags.Changed("pokedex") {
		patch.PokedexStatus = dexFlag
	}
	if flags.Changed("team") {
		patch.PokemonTeam = teamFlag
	}
	if flags.Changed("observation") {
		patch.Observation = obsFlag
	}

	run, err := cli.client.Update(cmd.Context(), id, patch)
	if err != nil {
		return err
	}
	renderRun(out(cmd), run)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := cli.client.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "Run %d deleted.\n", id)
	return nil
}

var (
	_ pagination.Lister  = (*runs.Client)(nil)
	_ fetcher.MineLister = (*runs.Client)(nil)
)
