// Package cli implements the k12listen command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/llehouerou/k12listen/internal/config"
	"github.com/llehouerou/k12listen/internal/errmsg"
	"github.com/llehouerou/k12listen/internal/logger"
	"github.com/llehouerou/k12listen/internal/state"
	"github.com/llehouerou/k12listen/internal/ui/styles"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// app carries what every subcommand shares once the root pre-run has loaded it.
type app struct {
	configFiles []string
	logLevel    string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "k12listen",
		Short:         "Listen to K12 lessons with synchronized subtitles",
		Long:          "K12 Listen plays lesson audio with an A-B repeat loop, adjustable speed and a subtitle view that follows the audio.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringArrayVarP(&a.configFiles, "config", "c", nil, "Config file to read instead of the default locations (repeatable, last wins)")
	lo.Must0(cmd.MarkPersistentFlagFilename("config", "toml"))

	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level ("+strings.Join(logLevels, ", ")+")")
	lo.Must0(cmd.RegisterFlagCompletionFunc("log-level", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return logLevels, cobra.ShellCompDirectiveNoFileComp
	}))

	cmd.AddCommand(
		newPlayCmd(a),
		newPrefsCmd(a),
		newHistoryCmd(a),
		newCuesCmd(a),
	)
	return cmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		handleErr(err)
	}
}

func handleErr(err error) {
	mark := styles.T().S().Error.Render("✗")
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", mark, strings.TrimSpace(errmsg.Describe(err)))
	os.Exit(1)
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if len(a.configFiles) > 0 {
		a.cfg, err = config.LoadFrom(a.configFiles...)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		if !lo.Contains(logLevels, strings.ToLower(a.logLevel)) {
			return fmt.Errorf("unknown log level %q", a.logLevel)
		}
		a.cfg.Log.Level = a.logLevel
	}

	lc := a.cfg.GetLogConfig()
	w := cmd.ErrOrStderr()
	a.logger = logger.New(logger.Config{
		Writer: w,
		Format: lc.Format,
		Level:  logger.ParseLevel(lc.Level),
		Color:  w == os.Stderr && isatty.IsTerminal(os.Stderr.Fd()),
	})
	return nil
}

// openStore opens the preferences and history database with the configured defaults.
func (a *app) openStore() (*state.Manager, error) {
	pc := a.cfg.GetPlaybackConfig()
	sc := a.cfg.GetSubtitleConfig()
	store, err := state.Open(a.cfg.Database, state.Preferences{
		Rate:     pc.DefaultRate,
		FontSize: sc.DefaultFontSize,
		Volume:   pc.DefaultVolume,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errmsg.OpPrefsLoad, err)
	}
	store.SetLogger(a.logger)
	return store, nil
}
