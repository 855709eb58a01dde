package main

import (
	"github.com/spf13/cobra"

	"github.com/truwl/capanno-utils/internal/app"
	"github.com/truwl/capanno-utils/internal/domain"
)

func newMakeIDCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "make-id",
		Short: "Allocate a new identifier and record it in the content index",
	}
	cmd.AddCommand(
		newMakeRootIDCmd(opts, "parent", domain.KindParentTool, "Allocate a parent tool identifier"),
		newMakeRootIDCmd(opts, "script", domain.KindScript, "Allocate a script identifier"),
		newMakeRootIDCmd(opts, "workflow", domain.KindWorkflow, "Allocate a workflow identifier"),
		newMakeSubtoolIDCmd(opts),
		newMakeInstanceIDCmd(opts),
		newClaimIDCmd(opts),
	)
	return cmd
}

func newMakeRootIDCmd(opts *cliOptions, use string, kind domain.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name> <version>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.app.MakeID(cmd.Context(), app.MakeIDRequest{
				Kind:    kind,
				Name:    args[0],
				Version: args[1],
			})
			if err != nil {
				return err
			}
			return printIdentifier(id, opts.jsonOutput)
		},
	}
}

func newMakeSubtoolIDCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subtool <parent-identifier> <subtool>",
		Short: "Allocate a subtool identifier under an indexed parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.app.MakeID(cmd.Context(), app.MakeIDRequest{
				Kind:     domain.KindSubtool,
				ParentID: args[0],
				Subtool:  args[1],
			})
			if err != nil {
				return err
			}
			return printIdentifier(id, opts.jsonOutput)
		},
	}
}

func newMakeInstanceIDCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "instance <base-identifier>",
		Short: "Generate an instance identifier for a subtool, script or workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.KindOf(args[0])
			if err != nil {
				return err
			}
			instanceKind, ok := kind.InstanceKind()
			if !ok {
				return exitError{code: exitInvalidArgument, message: args[0] + " cannot have instances"}
			}
			id, err := opts.app.MakeID(cmd.Context(), app.MakeIDRequest{
				Kind:   instanceKind,
				BaseID: args[0],
			})
			if err != nil {
				return err
			}
			return printIdentifier(id, opts.jsonOutput)
		},
	}
}

func newClaimIDCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <identifier>",
		Short: "Record an existing parent, subtool, script or workflow identifier",
		Long:  "Record an identifier chosen elsewhere in the content index. Fails when it is already indexed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.app.MakeID(cmd.Context(), app.MakeIDRequest{Identifier: args[0]})
			if err != nil {
				return err
			}
			return printIdentifier(id, opts.jsonOutput)
		},
	}
}
