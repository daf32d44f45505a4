// Package main provides the CLI entrypoint for shotdrill.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/shotdrill/internal/config"
	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/export"
	"github.com/verte-zerg/shotdrill/internal/historyui"
	"github.com/verte-zerg/shotdrill/internal/model"
	"github.com/verte-zerg/shotdrill/internal/stats"
	"github.com/verte-zerg/shotdrill/internal/store"
	"github.com/verte-zerg/shotdrill/internal/tui"
)

const (
	defaultDrill       = "level"
	defaultRefreshMs   = 50
	defaultCurveWindow = 20
	defaultWeakTop     = 5
)

var (
	dbPath     string
	configPath string

	runShooter     string
	runDrill       string
	runReloadAfter string
	runVest        bool
	runWithRun     bool
	runRefreshMs   int

	configShow bool

	exportSession int64
	exportShooter []string
	exportOut     string

	statsShooter     []string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsWeakTop     int
	statsColor       bool

	historyShooter []string
	historySince   string
	historyLast    int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shotdrill",
		Short:         "Terminal shooting drill trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrainerCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: $XDG_DATA_HOME/shotdrill/shotdrill.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/shotdrill/config.toml)")

	rootCmd.Flags().StringVar(&runShooter, "shooter", "", "shooter name to prefill")
	rootCmd.Flags().StringVar(&runDrill, "drill", defaultDrill, "drill to run: level, short, custom or a saved drill id")
	rootCmd.Flags().StringVar(&runReloadAfter, "reload-after", "", "reload after this shot (blank disables)")
	rootCmd.Flags().BoolVar(&runVest, "vest", false, "run is shot wearing a vest")
	rootCmd.Flags().BoolVar(&runWithRun, "with-run", false, "run includes a sprint to the firing line")
	rootCmd.Flags().IntVar(&runRefreshMs, "refresh-ms", defaultRefreshMs, "timer redraw interval in milliseconds")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDrillsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runTrainerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "shooter", &runShooter, fileCfg.Run.Shooter)
	applyStringConfig(cmd, "drill", &runDrill, fileCfg.Run.Drill)
	if fileCfg.Run.ReloadAfter != nil && !cmd.Flags().Changed("reload-after") {
		runReloadAfter = strconv.Itoa(*fileCfg.Run.ReloadAfter)
	}
	applyBoolConfig(cmd, "vest", &runVest, fileCfg.Run.Vest)
	applyBoolConfig(cmd, "with-run", &runWithRun, fileCfg.Run.WithRun)
	applyIntConfig(cmd, "refresh-ms", &runRefreshMs, fileCfg.Run.RefreshMs)
	if runRefreshMs <= 0 {
		return fmt.Errorf("--refresh-ms must be > 0")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	cfg, err := resolveDrill(context.Background(), st, runDrill)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("reload-after") || fileCfg.Run.ReloadAfter != nil {
		cfg, err = applyReloadAfter(cfg, runReloadAfter)
		if err != nil {
			return err
		}
	}
	if cfg.Meta == nil {
		cfg.Meta = &model.DrillMeta{DrillName: drill.ModeName(cfg.Mode)}
	}
	cfg.Meta.WithVest = runVest
	cfg.Meta.WithRun = runWithRun
	if err := drill.ValidateConfig(cfg); err != nil {
		return err
	}

	m := tui.NewModel(cfg, st, tui.Options{
		Shooter:   runShooter,
		ExportDir: exportDir(fileCfg),
		Refresh:   time.Duration(runRefreshMs) * time.Millisecond,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveDrill maps a --drill value to a runnable configuration. Built-in ids
// win over saved drill ids.
func resolveDrill(ctx context.Context, st *store.Store, id string) (model.DrillConfig, error) {
	id = strings.TrimSpace(id)
	if cfg, ok := drill.Preset(id); ok {
		return cfg, nil
	}
	if model.Mode(id) == model.ModeCustom {
		return drill.SetMode(model.DrillConfig{}, model.ModeCustom), nil
	}
	saved, err := st.GetDrill(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.DrillConfig{}, fmt.Errorf("unknown drill %q (use level, short, custom or an id from 'shotdrill drills list')", id)
	}
	if err != nil {
		return model.DrillConfig{}, fmt.Errorf("failed to load drill: %w", err)
	}
	cfg := drill.ConfigFromDrill(saved)
	if drill.NeedsExpand(cfg.Seq) {
		cfg.Seq = drill.Expand(cfg.Seq)
	}
	return cfg, nil
}

func applyReloadAfter(cfg model.DrillConfig, raw string) (model.DrillConfig, error) {
	next := drill.SetReloadAfter(cfg, raw)
	if strings.TrimSpace(raw) == "" {
		return next, nil
	}
	if next.ReloadAfter == nil || strconv.Itoa(*next.ReloadAfter) != strings.TrimSpace(raw) {
		return cfg, fmt.Errorf("--reload-after must be between 1 and %d", len(cfg.Seq)-1)
	}
	return next, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configShow, "show", false, "print paths and effective values instead of opening an editor")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := resolvedConfigPath()
	if configShow {
		return showConfig(cmd, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func showConfig(cmd *cobra.Command, path string) error {
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	reload := "none"
	if fileCfg.Run.ReloadAfter != nil {
		reload = strconv.Itoa(*fileCfg.Run.ReloadAfter)
	}
	lines := []string{
		"config:       " + path,
		"database:     " + resolvedDBPath(),
		"export dir:   " + exportDir(fileCfg),
		"shooter:      " + stringOr(fileCfg.Run.Shooter, "(none)"),
		"drill:        " + stringOr(fileCfg.Run.Drill, defaultDrill),
		"reload-after: " + reload,
		"vest:         " + strconv.FormatBool(boolOr(fileCfg.Run.Vest, false)),
		"with-run:     " + strconv.FormatBool(boolOr(fileCfg.Run.WithRun, false)),
		"refresh-ms:   " + strconv.Itoa(intOr(fileCfg.Run.RefreshMs, defaultRefreshMs)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions as CSV",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().Int64Var(&exportSession, "session", 0, "export a single session by id")
	cmd.Flags().StringSliceVar(&exportShooter, "shooter", nil, "shooters for the summary export (default: all)")
	cmd.Flags().StringVar(&exportOut, "out", "", "output directory (default: config export dir)")
	return cmd
}

func runExportCmd(_ *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	dir := exportOut
	if dir == "" {
		dir = exportDir(fileCfg)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := context.Background()

	if exportSession > 0 {
		snap, err := st.GetSession(ctx, exportSession)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		path, err := export.WriteSessionFile(dir, snap)
		if err != nil {
			return err
		}
		logErrf("Wrote %s\n", path)
		return nil
	}

	if err := checkShooters(ctx, st, exportShooter); err != nil {
		return err
	}
	snaps, err := st.ListSnapshots(ctx, model.SessionFilter{Shooters: exportShooter})
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	if len(snaps) == 0 {
		return fmt.Errorf("no sessions to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, export.SummaryFileName(time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, werr := export.WriteSummaryCSV(f, snaps, exportShooter)
	if cerr := f.Close(); cerr != nil && werr == nil {
		werr = fmt.Errorf("failed to close %s: %w", path, cerr)
	}
	if werr != nil {
		return werr
	}
	logErrf("Wrote %d shooters to %s\n", n, path)
	return nil
}

// checkShooters fails when a requested shooter has no stored sessions.
func checkShooters(ctx context.Context, st *store.Store, names []string) error {
	if len(names) == 0 {
		return nil
	}
	known, err := st.ListShooters(ctx)
	if err != nil {
		return fmt.Errorf("failed to list shooters: %w", err)
	}
	missing := lo.Without(names, known...)
	if len(missing) == 0 {
		return nil
	}
	available := strings.Join(known, ", ")
	if available == "" {
		available = "none"
	}
	return fmt.Errorf("no sessions for shooter %q (available: %s)", missing[0], available)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringSliceVar(&statsShooter, "shooter", nil, "shooter filter (repeatable)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().IntVar(&statsWeakTop, "weak-top", defaultWeakTop, "number of weakest stages to list")
	cmd.Flags().BoolVar(&statsColor, "color", false, "force colored curves")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(statsSince)
	if err != nil {
		return err
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	opts := stats.Options{
		Filter: model.SessionFilter{
			Shooters: statsShooter,
			Since:    since,
			Last:     statsLast,
		},
		CurveWindow: statsCurveWindow,
		WeakTop:     statsWeakTop,
		Color:       statsColor,
	}
	report, err := stats.BuildReport(context.Background(), st, opts)
	if err != nil {
		return err
	}
	if err := report.Render(cmd.OutOrStdout(), opts); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringSliceVar(&historyShooter, "shooter", nil, "shooter filter (repeatable)")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	return cmd
}

func runHistoryCmd(_ *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	since, err := parseSince(historySince)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	filter := model.SessionFilter{Shooters: historyShooter, Since: since, Last: historyLast}
	m := historyui.NewModel(st, filter, exportDir(fileCfg))
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func parseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(resolvedConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func resolvedDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return config.DefaultDBPath()
}

func exportDir(fileCfg config.FileConfig) string {
	return stringOr(fileCfg.Export.Dir, config.DefaultExportDir())
}

func openStore() (*store.Store, error) {
	st, err := store.Open(resolvedDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# shotdrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[run]
# shooter = ""            # Name prefilled on the run screen
# drill = %q          # level, short, custom or a saved drill id
# reload-after = 5        # Reload after this shot
# vest = false            # Run is shot wearing a vest
# with-run = false        # Run includes a sprint to the firing line
# refresh-ms = %d         # Timer redraw interval

[export]
# dir = %q
`,
		defaultDrill,
		defaultRefreshMs,
		config.DefaultExportDir(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
