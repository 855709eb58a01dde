package main

import (
	"github.com/spf13/cobra"

	"github.com/truwl/capanno-utils/internal/app"
)

func newAddCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create metadata for new content with fresh identifiers",
	}
	cmd.AddCommand(
		newAddToolCmd(opts),
		newAddSubtoolCmd(opts),
		newAddToolInstanceCmd(opts),
		newAddScriptCmd(opts),
		newAddWorkflowCmd(opts),
	)
	return cmd
}

func newAddToolCmd(opts *cliOptions) *cobra.Command {
	var (
		main      bool
		noClobber bool
		noRefresh bool
	)
	cmd := &cobra.Command{
		Use:   "tool <name> <version> [subtool...]",
		Short: "Add a tool version with its common metadata and subtools",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.app.AddTool(cmd.Context(), app.AddToolRequest{
				Name:         args[0],
				Version:      args[1],
				Subtools:     args[2:],
				Main:         main,
				NoClobber:    noClobber,
				RefreshIndex: !noRefresh,
			})
			if err != nil {
				return err
			}
			return printAddResult(result, opts.jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&main, "main", false, "add a subtool for the tool itself")
	cmd.Flags().BoolVar(&noClobber, "no-clobber", false, "skip quietly when the tool version exists")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "do not rebuild the content index first")
	return cmd
}

func newAddSubtoolCmd(opts *cliOptions) *cobra.Command {
	var (
		updateFeatureList bool
		noClobber         bool
		noRefresh         bool
	)
	cmd := &cobra.Command{
		Use:   "subtool <tool> <version> <subtool>",
		Short: "Add a subtool to an existing tool version",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.app.AddSubtool(cmd.Context(), app.AddSubtoolRequest{
				Tool:              args[0],
				Version:           args[1],
				Subtool:           args[2],
				UpdateFeatureList: updateFeatureList,
				NoClobber:         noClobber,
				RefreshIndex:      !noRefresh,
			})
			if err != nil {
				return err
			}
			return printAddResult(result, opts.jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&updateFeatureList, "update-featurelist", false, "add the subtool to the parent featureList when missing")
	cmd.Flags().BoolVar(&noClobber, "no-clobber", false, "skip quietly when the subtool exists")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "do not rebuild the content index first")
	return cmd
}

func newAddToolInstanceCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tool-instance <tool> <version> <subtool>",
		Short: "Add instance metadata for a subtool",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.app.AddToolInstance(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printAddResult(result, opts.jsonOutput)
		},
	}
}

func newAddScriptCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "script <group> <project> <version> <name>",
		Short: "Add a script to a project version",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.app.AddScript(cmd.Context(), args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}
			return printAddResult(result, opts.jsonOutput)
		},
	}
}

func newAddWorkflowCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "workflow <group> <project> <version>",
		Short: "Add a workflow version",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.app.AddWorkflow(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printAddResult(result, opts.jsonOutput)
		},
	}
}
