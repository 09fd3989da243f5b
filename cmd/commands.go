package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pokerunboard/auth"
	"pokerunboard/config"
	"pokerunboard/logger"
	"pokerunboard/models"
	"pokerunboard/runs"
)

// app is what every subcommand shares once the root pre-run has finished
type app struct {
	cfg     *config.Config
	session *auth.Session
	client  *runs.Client
}

// --- Global Command Variables ---
var (
	cli app

	envFile string
	userID  int64

	pageFlag    int
	sizeFlag    int
	sortFlag    string
	gameFlag    string
	searchFlag  string
	sortByFlag  string
	descFlag    bool
	maxTimeFlag string
	minDexFlag  int
	pokemonFlag string
	runTimeFlag string
	dexFlag     int
	teamFlag    []string
	obsFlag     string
	latestFlag  bool
	exportDir   string

	rootCmd = &cobra.Command{
		Use:               "pokerunboard",
		Short:             "Browse and manage the Pokémon speedrun leaderboard",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Show one page of the leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	browseCmd = &cobra.Command{
		Use:   "browse",
		Short: "Page through the leaderboard interactively",
		Long: `Reads commands from stdin:
  /text       search trainers and team members (applied after a pause)
  :next :prev :page N :game NAME :sort SPEC :refresh :quit
Pages are numbered from 1 here and in --page, as in the "Page N of M" header.`,
		Args: cobra.NoArgs,
		RunE: runBrowse,
	}
	mineCmd = &cobra.Command{
		Use:   "mine",
		Short: "Show your own runs",
		Args:  cobra.NoArgs,
		RunE:  runMine,
	}
	fastestCmd = &cobra.Command{
		Use:   "fastest",
		Short: "List runs at or under a maximum run time",
		Args:  cobra.NoArgs,
		RunE:  runFastest,
	}
	pokedexCmd = &cobra.Command{
		Use:   "pokedex",
		Short: "List runs with at least a given Pokédex count",
		Args:  cobra.NoArgs,
		RunE:  runPokedex,
	}
	teamCmd = &cobra.Command{
		Use:   "team",
		Short: "List runs whose team includes a Pokémon",
		Args:  cobra.NoArgs,
		RunE:  runTeam,
	}
	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Show a single run",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}
	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Submit a new run",
		Args:  cobra.NoArgs,
		RunE:  runCreate,
	}
	updateCmd = &cobra.Command{
		Use:   "update [id]",
		Short: "Edit one of your runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpdate,
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete one of your runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show leaderboard statistics",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
	gamesCmd = &cobra.Command{
		Use:   "games",
		Short: "List the games that have runs",
		Args:  cobra.NoArgs,
		RunE:  runGames,
	}
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Download every run as pokemon-runs.csv",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Archive a statistics snapshot every poll interval",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show archived statistics snapshots",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional env file with configuration")
	rootCmd.PersistentFlags().Int64Var(&userID, "user-id", 0, "id of the signed-in user, marks owned runs")

	for _, c := range []*cobra.Command{listCmd, browseCmd, mineCmd, fastestCmd, pokedexCmd, teamCmd, historyCmd} {
		c.Flags().IntVar(&pageFlag, "page", 1, "page number, starting at 1")
		c.Flags().IntVar(&sizeFlag, "size", 0, "page size (defaults to PAGE_SIZE)")
	}
	listCmd.Flags().StringVar(&sortFlag, "sort", "", "sort spec, e.g. runTime,asc")
	listCmd.Flags().StringVar(&gameFlag, "game", "", "only runs of this game")
	listCmd.Flags().StringVar(&searchFlag, "search", "", "filter the page by trainer or team member")
	browseCmd.Flags().StringVar(&sortFlag, "sort", "", "sort spec, e.g. runTime,asc")

	mineCmd.Flags().StringVar(&gameFlag, "game", "", "only runs of this game")
	mineCmd.Flags().StringVar(&sortByFlag, "sort-by", "", "runTime or pokedexStatus")
	mineCmd.Flags().BoolVar(&descFlag, "desc", false, "sort descending")

	fastestCmd.Flags().StringVar(&maxTimeFlag, "max-time", "", "maximum run time, HH:MM")
	_ = fastestCmd.MarkFlagRequired("max-time")
	pokedexCmd.Flags().IntVar(&minDexFlag, "min", 0, "minimum Pokédex count")
	teamCmd.Flags().StringVar(&pokemonFlag, "pokemon", "", "Pokémon name")
	_ = teamCmd.MarkFlagRequired("pokemon")

	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVar(&gameFlag, "game", "", "game title")
		c.Flags().StringVar(&runTimeFlag, "time", "", "run time, HH:MM")
		c.Flags().IntVar(&dexFlag, "pokedex", 0, "Pokédex count")
		c.Flags().StringSliceVar(&teamFlag, "team", nil, "team members, comma separated")
		c.Flags().StringVar(&obsFlag, "observation", "", "free-form note")
	}

	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "directory to write the CSV into")
	historyCmd.Flags().BoolVar(&latestFlag, "latest", false, "show the newest snapshot in full")

	rootCmd.AddCommand(listCmd, browseCmd, mineCmd, fastestCmd, pokedexCmd, teamCmd,
		getCmd, createCmd, updateCmd, deleteCmd,
		statsCmd, gamesCmd, exportCmd, watchCmd, historyCmd)
}

// setup loads configuration, starts the logger and builds the runs client
func setup(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := cfg.LoadFrom(envFile); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	session := auth.NewSession(cfg.APIToken)
	if userID != 0 {
		session.Login(cfg.APIToken, &models.User{ID: userID})
	}

	client, err := runs.NewClient(cfg.APIBaseURL, session,
		runs.WithTimeout(cfg.HTTPTimeout),
		runs.WithSessionClearer(session))
	if err != nil {
		return err
	}

	cli = app{cfg: cfg, session: session, client: client}
	return nil
}

// pageIndex converts a page number as shown to users (1, 2, ...) into the
// backend's zero-based index
func pageIndex(n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("page numbers start at 1, got %d", n)
	}
	return n - 1, nil
}

func (a *app) pageSize() int {
	if sizeFlag > 0 {
		return sizeFlag
	}
	return a.cfg.PageSize
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
