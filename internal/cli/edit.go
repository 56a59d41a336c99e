package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modelsync/internal/engine"
	"github.com/roach88/modelsync/internal/ir"
)

// EditResult is the JSON payload of an editing command.
type EditResult struct {
	Op       ir.OpKind   `json:"op"`
	Name     string      `json:"name"`
	Seq      int64       `json:"seq"`
	Digest   string      `json:"digest"`
	Snapshot ir.Snapshot `json:"snapshot"`
}

// NewCreateNodeCommand creates the create-node command.
func NewCreateNodeCommand(rootOpts *RootOptions) *cobra.Command {
	var pos ir.Position

	cmd := &cobra.Command{
		Use:   "create-node <classifier>",
		Short: "Create a node object",
		Long: `Create an object of a ClassNode class at a canvas position.

The classifier is a class name or a full classifier reference.

Examples:
  modelsync create-node Class --x 10 --y 20
  modelsync create-node 'urn:modelsync:uml#/classifiers/1' --x 0 --y 0`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pos
			return runEdit(rootOpts, cmd, ir.Operation{Kind: ir.OpCreateNode, Classifier: args[0], Position: &p})
		},
	}

	cmd.Flags().Float64Var(&pos.X, "x", 0, "x coordinate")
	cmd.Flags().Float64Var(&pos.Y, "y", 0, "y coordinate")

	return cmd
}

// NewCreateEdgeCommand creates the create-edge command.
func NewCreateEdgeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-edge <classifier> <source> <target>",
		Short: "Connect two objects with an edge object",
		Long: `Create an object of a ClassEdge class linking two existing objects.
The class constraints must hold for the endpoints.

Example:
  modelsync create-edge Association Class1 Class2`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(rootOpts, cmd, ir.Operation{Kind: ir.OpCreateEdge, Classifier: args[0], Source: args[1], Target: args[2]})
		},
	}
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var pos ir.Position

	cmd := &cobra.Command{
		Use:   "move <name>",
		Short: "Move a node object",
		Long: `Set the canvas position of a node object. A coordinate that is not a
finite number keeps its previous value.

Example:
  modelsync move Class1 --x 100 --y 40`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pos
			return runEdit(rootOpts, cmd, ir.Operation{Kind: ir.OpMoveNode, Name: args[0], Position: &p})
		},
	}

	cmd.Flags().Float64Var(&pos.X, "x", 0, "x coordinate")
	cmd.Flags().Float64Var(&pos.Y, "y", 0, "y coordinate")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an object and the edges attached to it",
		Long: `Delete an object. Edge objects whose source or target is removed are
deleted as well, and references to moved objects are rewritten.

Example:
  modelsync delete Class2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(rootOpts, cmd, ir.Operation{Kind: ir.OpDeleteNode, Name: args[0]})
		},
	}
}

// runEdit applies op to the stored session and waits until it is persisted.
func runEdit(opts *RootOptions, cmd *cobra.Command, op ir.Operation) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	ws, err := openWorkspace(opts, true)
	if err != nil {
		return err
	}
	defer ws.Close()

	s, err := ws.restore(ctx, opts.Session)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Session %s at seq %d", s.Key(), s.Seq())

	snap, err := s.Apply(op)
	if err != nil {
		return outputOpError(formatter, op, err)
	}
	if err := ws.confirmPersisted(ctx, s); err != nil {
		return err
	}

	name := op.Name
	if op.Kind == ir.OpCreateNode || op.Kind == ir.OpCreateEdge {
		objs := snap.InstanceModel.Objects
		name = objs[len(objs)-1].Name
	}

	if opts.Format == "json" {
		return formatter.Success(EditResult{
			Op:       op.Kind,
			Name:     name,
			Seq:      s.Seq(),
			Digest:   ir.MustSnapshotDigest(snap),
			Snapshot: snap,
		})
	}
	fmt.Fprintf(formatter.Writer, "%s %s %s (seq %d, %d objects)\n",
		passMark(), op.Kind, name, s.Seq(), len(snap.InstanceModel.Objects))
	return nil
}

// outputOpError reports a rejected operation. The engine error code is the
// CLI error code.
func outputOpError(formatter *OutputFormatter, op ir.Operation, err error) error {
	code := "ERROR"
	var opErr *engine.OpError
	if errors.As(err, &opErr) {
		code = string(opErr.Code)
	}
	_ = formatter.Error(code, err.Error(), op)
	return WrapExitError(ExitFailure, fmt.Sprintf("%s rejected", op.Kind), err)
}
