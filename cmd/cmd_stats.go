package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pokerunboard/db"
	"pokerunboard/models"
	"pokerunboard/service"
	"pokerunboard/stats"
)

func runStats(cmd *cobra.Command, args []string) error {
	snap, err := stats.NewAggregator(cli.client).Load(cmd.Context())
	if err != nil {
		return err
	}
	renderStats(out(cmd), snap)
	return nil
}

func runGames(cmd *cobra.Command, args []string) error {
	games, err := stats.NewAggregator(cli.client).Games(cmd.Context())
	if err != nil {
		return err
	}
	for _, g := range games {
		fmt.Fprintln(out(cmd), g)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	path, err := stats.ExportCSV(cmd.Context(), cli.client, exportDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "Saved %s\n", path)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	svc, err := service.NewService(cli.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error during service shutdown: %v\n", err)
		}
	}()

	return svc.Start()
}

func runHistory(cmd *cobra.Command, args []string) error {
	archive, err := db.New()
	if err != nil {
		return err
	}
	defer archive.Close()

	if latestFlag {
		snap, err := archive.LatestSnapshot(cmd.Context())
		if errors.Is(err, db.ErrSnapshotNotFound) {
			fmt.Fprintln(out(cmd), "No snapshots archived yet.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Snapshot %d taken %s\n\n", snap.ID, snap.TakenAt.Format("2006-01-02 15:04"))
		renderStats(out(cmd), snap)
		return nil
	}

	idx, err := pageIndex(pageFlag)
	if err != nil {
		return err
	}
	snaps, err := archive.ListSnapshots(cmd.Context(), models.NewPaginationParams(idx, cli.pageSize()))
	if err != nil {
		return err
	}
	renderSnapshots(out(cmd), snaps)
	return nil
}
