package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gamelib/internal/browse"
	"gamelib/internal/builder"
	"gamelib/internal/catalog"
	"gamelib/internal/config"
	"gamelib/internal/cover"
	"gamelib/internal/logging"
	"gamelib/internal/tui"
)

type app struct {
	cfgFile  string
	v        *viper.Viper
	settings *config.Settings
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "gamelib [source]",
		Short: "Browse a game library catalog in the terminal",
		Long: `gamelib browses the games.json catalog of a game library site, either a
local folder or the URL it is published at, and builds that catalog from
the site's index files.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runBrowse,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ~/.gamelib.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "browser log file (default ~/.gamelib/gamelib.log)")

	root.AddCommand(
		a.browseCmd(),
		a.queryCmd(),
		a.buildCmd(),
		a.configCmd(),
	)
	return root
}

// setup loads settings once flags are parsed so flag values win over the
// config file and environment.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.v = config.New(a.cfgFile)
	pf := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{"log.level": "log-level", "log.file": "log-file"} {
		if err := a.v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	s, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.settings = s
	return nil
}

func (a *app) consoleLogger() (zerolog.Logger, error) {
	return logging.Console(a.settings.Log.Level)
}

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [source]",
		Short: "Open the interactive browser",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runBrowse,
	}
}

func (a *app) runBrowse(cmd *cobra.Command, args []string) error {
	log, closer, err := logging.File(a.settings.Log.File, a.settings.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()

	source := ""
	if len(args) == 1 {
		source = args[0]
	} else if s := strings.TrimSpace(a.settings.Source); s != "" && s != "." {
		source = s
	}

	log.Info().Str("source", source).Msg("starting browser")
	m := tui.New(tui.Options{
		Source:   source,
		Settings: a.settings,
		Log:      log,
		Context:  cmd.Context(),
	})
	final, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browser: %w", err)
	}
	if fm, ok := final.(tui.Model); ok && fm.Err() != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Failed to load games.json:", fm.Err())
		return fm.Err()
	}
	return nil
}

type queryFlags struct {
	search, console, sort, view, match string
	limit                              int
}

func (a *app) queryCmd() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query [source]",
		Short: "Print the entries a browser query would show",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := a.settings.Source
			if len(args) == 1 {
				source = args[0]
			}
			return a.runQuery(cmd, source, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.search, "search", "s", "", "search text")
	fl.StringVarP(&f.console, "console", "c", "", "only this console")
	fl.StringVar(&f.sort, "sort", "", "sort order: title, console, random")
	fl.StringVar(&f.view, "view", "list", "view mode: list, grid")
	fl.StringVar(&f.match, "match", "", "match mode: contains, prefix, fuzzy (default from config)")
	fl.IntVarP(&f.limit, "limit", "n", 0, "print at most n entries (0 = all)")
	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, source string, f queryFlags) error {
	log, err := a.consoleLogger()
	if err != nil {
		return err
	}
	view, err := browse.ParseViewMode(f.view)
	if err != nil {
		return err
	}
	match := a.settings.MatchMode()
	if f.match != "" {
		if match, err = browse.ParseMatchMode(f.match); err != nil {
			return err
		}
	}

	src, err := catalog.NewSource(source)
	if err != nil {
		return err
	}
	res, err := catalog.NewLoader(src, log).Load(cmd.Context())
	if err != nil {
		return err
	}

	engine := browse.NewEngine(res.Catalog, cover.NewResolver(res.Covers, a.settings.Policy()), a.settings.EngineOptions())
	q := browse.DefaultQuery()
	q.Match = match
	coord := browse.NewCoordinator(q)
	coord.SetView(view)
	coord.SetConsole(f.console)
	coord.SetSearch(f.search)
	if f.sort != "" {
		s, err := browse.ParseSortMode(f.sort)
		if err != nil {
			return err
		}
		coord.SetSort(s)
	}

	return printView(cmd.OutOrStdout(), engine.Compute(coord.Query()), f.limit)
}

func printView(w io.Writer, v *browse.View, limit int) error {
	items := v.Items()
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	for _, e := range items {
		if _, err := fmt.Fprintln(w, e.Label()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, v.Status.String())
	return err
}

func (a *app) buildCmd() *cobra.Command {
	var opts builder.Options
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the site's games.json and coverIndex.json",
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.Root, "root", ".", "site root")
	pf.StringVar(&opts.Manifest, "manifest", "", "record scanned cover images in this sqlite file (covers only)")
	pf.BoolVar(&opts.Hash, "hash", false, "store sha256 of each cover in the manifest")

	games := &cobra.Command{
		Use:   "games",
		Short: "Build games.json from lists/Indexs/*_Index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd, "Building games.json", opts, builder.Games)
		},
	}
	games.Flags().StringVarP(&opts.GamesOut, "out", "o", "", "output file (default <root>/games.json)")

	lists := &cobra.Command{
		Use:   "lists",
		Short: "Build games.json from legacy <Console>.txt lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd, "Building games.json from lists", opts, builder.Lists)
		},
	}
	lists.Flags().StringVarP(&opts.GamesOut, "out", "o", "", "output file (default <root>/games.json)")
	lists.Flags().StringVar(&opts.ListsDir, "lists", "", "folder of .txt lists (default <root>/lists)")

	covers := &cobra.Command{
		Use:   "covers",
		Short: "Build docs/coverIndex.json from index files or the Covers folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd, "Building coverIndex.json", opts, builder.Covers)
		},
	}
	covers.Flags().StringVarP(&opts.CoversOut, "out", "o", "", "output file (default <root>/docs/coverIndex.json)")
	covers.Flags().StringVar(&opts.CoversDir, "covers", "", "covers folder (default <root>/Covers)")

	cmd.AddCommand(games, lists, covers)
	return cmd
}

// stdoutIsTerminal decides between the progress screen and log lines.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type buildFunc func(context.Context, builder.Options, zerolog.Logger, func(builder.Progress)) (*builder.Summary, error)

// runBuild shows the progress screen on a terminal and plain log lines
// otherwise.
func (a *app) runBuild(cmd *cobra.Command, title string, opts builder.Options, build buildFunc) error {
	if stdoutIsTerminal() {
		log, closer, err := logging.File(a.settings.Log.File, a.settings.Log.Level)
		if err != nil {
			return err
		}
		defer closer.Close()
		_, err = tui.RunTask(cmd.Context(), title, func(ctx context.Context, progress func(builder.Progress)) (*builder.Summary, error) {
			return build(ctx, opts, log, progress)
		})
		return err
	}

	log, err := a.consoleLogger()
	if err != nil {
		return err
	}
	sum, err := build(cmd.Context(), opts, log, func(p builder.Progress) {
		log.Debug().Str("stage", p.Stage).Int64("done", p.Done).Int64("total", p.Total).Msg("progress")
	})
	if err != nil {
		log.Error().Err(err).Msg(title + " failed")
		return err
	}
	ev := log.Info().Str("kind", sum.Kind)
	for _, row := range sum.Rows() {
		ev = ev.Str(strings.ToLower(strings.ReplaceAll(row[0], " ", "_")), row[1])
	}
	ev.Msg("build complete")
	return nil
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.settings.YAML()
			if err != nil {
				return err
			}
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	return cmd
}
