package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modelsync/internal/constraint"
	"github.com/roach88/modelsync/internal/ir"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Source string // object bound to source
	Target string // object bound to target
}

// EvalResult is the JSON payload of eval.
type EvalResult struct {
	Expression string `json:"expression"`
	Kind       string `json:"kind"`
	Value      string `json:"value"`
}

// Constraint error codes reported by eval.
const (
	ErrCodeConstraintSyntax      = "CONSTRAINT_SYNTAX"
	ErrCodeConstraintUnsupported = "CONSTRAINT_UNSUPPORTED"
	ErrCodeConstraintType        = "CONSTRAINT_TYPE"
)

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a constraint expression",
		Long: `Evaluate a constraint expression against objects of a session.

source and target (or self.source and self.target) are bound to the objects
named by --source and --target; unbound endpoints evaluate to null.

Examples:
  modelsync eval 'source.kindOf("Class")' --source Class1
  modelsync eval 'self.source.kindOf("State") && self.target.kindOf("State")' --source State1 --target State2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "object bound to source")
	cmd.Flags().StringVar(&opts.Target, "target", "", "object bound to target")

	return cmd
}

func runEval(opts *EvalOptions, src string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	expr, err := constraint.Parse(src)
	if err == nil {
		err = constraint.Check(expr)
	}
	if err != nil {
		return outputEvalError(formatter, err)
	}
	formatter.VerboseLog("Parsed: %s", expr)

	n, err := loadNotation(opts.Notation)
	if err != nil {
		return err
	}

	var bind constraint.Context
	if opts.Source != "" || opts.Target != "" {
		ws, err := openWorkspace(opts.RootOptions, false)
		if err != nil {
			return err
		}
		defer ws.Close()

		state, err := ws.store.LoadSession(ctx, opts.Session)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load session", err)
		}
		inst := &state.Snapshot.InstanceModel
		if bind.Source, err = lookupObject(inst, opts.Source); err != nil {
			return err
		}
		if bind.Target, err = lookupObject(inst, opts.Target); err != nil {
			return err
		}
	}

	v, err := constraint.NewEvaluator(n.MetaModel).Eval(expr, bind)
	if err != nil {
		return outputEvalError(formatter, err)
	}

	if opts.Format == "json" {
		return formatter.Success(EvalResult{Expression: src, Kind: v.Kind.String(), Value: v.String()})
	}
	fmt.Fprintln(formatter.Writer, v.String())
	return nil
}

func lookupObject(inst *ir.InstanceModel, name string) (*ir.InstanceObject, error) {
	if name == "" {
		return nil, nil
	}
	i := inst.IndexOf(name)
	if i < 0 {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("no object named %s", name))
	}
	return &inst.Objects[i], nil
}

func outputEvalError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	switch {
	case errors.Is(err, constraint.ErrSyntax):
		code = ErrCodeConstraintSyntax
	case errors.Is(err, constraint.ErrUnsupported):
		code = ErrCodeConstraintUnsupported
	case errors.Is(err, constraint.ErrType):
		code = ErrCodeConstraintType
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitFailure, "evaluation failed", err)
}
