// Package cli wires the orchestrator's components behind the whisperflow
// command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yujirofunabashi/whisper-workflow/internal/config"
	"github.com/yujirofunabashi/whisper-workflow/internal/diagnostics"
	"github.com/yujirofunabashi/whisper-workflow/internal/logging"
	"github.com/yujirofunabashi/whisper-workflow/internal/preflight"
	"github.com/yujirofunabashi/whisper-workflow/internal/recovery"
	"github.com/yujirofunabashi/whisper-workflow/internal/runlog"
	"github.com/yujirofunabashi/whisper-workflow/internal/state"
	"github.com/yujirofunabashi/whisper-workflow/internal/supervisor"
	"github.com/yujirofunabashi/whisper-workflow/internal/version"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool
	configPath string
	pollEvery  time.Duration

	logger *zap.Logger
	out    io.Writer

	cfg     config.Config
	store   *state.Store
	checker *diagnostics.Checker
	sup     *supervisor.Supervisor
	coord   *recovery.Coordinator
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		out:       os.Stdout,
		pollEvery: 500 * time.Millisecond,
	}

	cmd := &cobra.Command{
		Use:           "whisperflow",
		Short:         "Plan, run, and recover whisper transcription jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app.out = cmd.OutOrStdout()
			return app.init()
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
	cmd.PersistentFlags().StringVar(&app.configPath, "config", app.configPath, "Path to a YAML config file")

	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newRetryCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (a *appState) init() error {
	logger, err := logging.New(logging.Options{Verbose: a.verbose, JSON: a.jsonLogs})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.logger = logger

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	a.cfg = cfg

	// Age out leftovers from earlier sessions; nothing is live yet.
	runlog.Sweep(cfg.UploadsDir(), runlog.UploadRetention, nil)
	runlog.Sweep(cfg.LogsDir(), runlog.LogRetention, nil)

	a.store = state.NewStore(logger)
	a.checker = diagnostics.NewChecker(cfg)
	a.store.SetDependencyProber(a.checker)

	pf := preflight.NewRunner(cfg.PreflightExe, logger)
	a.sup = supervisor.New(a.store, cfg, a.checker, pf, logger)
	a.coord = recovery.NewCoordinator(a.store, cfg, a.checker, logger)
	return nil
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}
