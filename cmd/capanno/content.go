package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/truwl/capanno-utils/internal/app"
	"github.com/truwl/capanno-utils/internal/infra/contentmap"
)

func newMapCmd(opts *cliOptions) *cobra.Command {
	var (
		checkExists bool
		format      string
		out         string
	)
	cmd := &cobra.Command{
		Use:       "map [tools|scripts|workflows|all]",
		Short:     "Write the content map of the repository",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{contentmap.ScopeTools, contentmap.ScopeScripts, contentmap.ScopeWorkflows, contentmap.ScopeAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := contentmap.ScopeAll
			if len(args) == 1 {
				scope = args[0]
			}
			mapFormat, err := app.ParseMapFormat(format)
			if err != nil {
				return err
			}
			m, err := opts.app.BuildMap(cmd.Context(), scope, checkExists)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return app.ExportMap(os.Stdout, m, mapFormat)
			}
			var buf bytes.Buffer
			if err := app.ExportMap(&buf, m, mapFormat); err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write content map: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkExists, "check-exists", false, "record whether each workflow-language source exists")
	cmd.Flags().StringVar(&format, "format", string(app.MapFormatYAML), "output format (json, yaml or toml)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newIndexCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Maintain the content index of allocated identifiers",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "refresh",
			Short: "Rebuild the content index from the repository",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				result, err := opts.app.RefreshIndex(cmd.Context())
				if err != nil {
					return err
				}
				return printRefresh(result, opts.jsonOutput)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List indexed identifiers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ids, err := opts.app.ListIndex(cmd.Context())
				if err != nil {
					return err
				}
				return printIdentifiers(ids, opts.jsonOutput)
			},
		},
	)
	return cmd
}

func newReleaseAllCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "release-all",
		Short: "Mark every subtool source that exists as Released",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := opts.app.ReleaseAll(cmd.Context())
			if printErr := printPromotion(result, opts.jsonOutput); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

func newValidateCmd(opts *cliOptions) *cobra.Command {
	var checkIndex bool
	cmd := &cobra.Command{
		Use:   "validate [glob]",
		Short: "Validate metadata documents",
		Long:  "Validate metadata documents. Without a glob the whole repository is checked, including identifier uniqueness.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pattern string
			if len(args) == 1 {
				pattern = args[0]
			}
			report, err := opts.app.Validate(cmd.Context(), app.ValidateOptions{Pattern: pattern, VerifyIndex: checkIndex})
			if err != nil {
				return err
			}
			if err := printValidation(report, opts.jsonOutput); err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				return exitSilent(exitCodeFor(report.Err()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkIndex, "check-index", false, "require every identifier to be in the content index")
	return cmd
}

func newWatchCmd(opts *cliOptions) *cobra.Command {
	var noServe bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the content index current while metadata changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !noServe {
				fmt.Fprintf(os.Stderr, "serving /metrics, /healthz and /index on %s\n", opts.app.Settings().MetricsAddress)
			}
			return opts.app.Watch(cmd.Context(), app.WatchOptions{Serve: !noServe})
		},
	}
	cmd.Flags().BoolVar(&noServe, "no-serve", false, "do not serve /metrics, /healthz and /index")
	return cmd
}

func newMetricsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Run the content map build and print the collected metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := opts.app.BuildMap(cmd.Context(), contentmap.ScopeAll, true); err != nil {
				return err
			}
			return opts.app.DumpMetrics(os.Stdout)
		},
	}
}
