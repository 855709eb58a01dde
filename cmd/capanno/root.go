package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/app"
	"github.com/truwl/capanno-utils/internal/domain"
)

type cliOptions struct {
	configPath string
	jsonOutput bool
	logLevel   string

	app     *app.Application
	cleanup func()
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{logLevel: "warn"}

	root := &cobra.Command{
		Use:           "capanno",
		Short:         "Manage identifiers and metadata of a tools, scripts and workflows repository",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.open(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			opts.close()
		},
	}

	flags := root.PersistentFlags()
	flags.String(app.FlagRepo, ".", "repository root")
	flags.StringVar(&opts.configPath, app.FlagConfig, "", "config file (default <repo>/.capanno.yaml)")
	flags.String(app.FlagIndex, string(domain.DefaultIndexBackend), "content index backend (file or bolt)")
	flags.String(app.FlagIndexPath, "", "content index path, relative to the repository root")
	flags.Int(app.FlagMaxWindowShift, domain.DefaultMaxWindowShift, "largest hash window offset tried before giving up")
	flags.String(app.FlagMetricsListen, domain.DefaultMetricsAddress, "listen address for /metrics and /healthz in watch mode")
	flags.BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	flags.StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newMakeIDCmd(opts),
		newAddCmd(opts),
		newMapCmd(opts),
		newIndexCmd(opts),
		newReleaseAllCmd(opts),
		newValidateCmd(opts),
		newWatchCmd(opts),
		newMetricsCmd(opts),
	)

	return root
}

// open loads settings and wires the application for the running command.
func (o *cliOptions) open(cmd *cobra.Command) error {
	logging, err := app.NewLogging(app.LoggingConfig{Level: o.logLevel})
	if err != nil {
		return exitError{code: exitInvalidArgument, message: err.Error()}
	}
	settings, err := app.LoadSettings(cmd.Context(), app.ConfigOptions{
		Flags:      cmd.Flags(),
		ConfigPath: o.configPath,
	}, logging.Logger)
	if err != nil {
		return err
	}
	application, cleanup, err := app.InitializeApplication(settings, app.LoggingConfig{Logger: logging.Logger, RunID: logging.RunID})
	if err != nil {
		return err
	}
	o.app = application
	o.cleanup = func() {
		cleanup()
		_ = logging.Logger.Sync()
	}
	logging.Logger.Debug("command started", zap.String("command", cmd.CommandPath()))
	return nil
}

func (o *cliOptions) close() {
	if o.cleanup != nil {
		o.cleanup()
		o.cleanup = nil
	}
}
