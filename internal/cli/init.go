package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modelsync/internal/engine"
	"github.com/roach88/modelsync/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Force bool // replace an existing session
}

// InitResult is the JSON payload of init.
type InitResult struct {
	Session                 string `json:"session"`
	MetaModel               string `json:"meta_model"`
	RepresentationMetaModel string `json:"representation_meta_model"`
	Digest                  string `json:"digest"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty editing session",
		Long: `Create an empty editing session bound to the notation's meta-model and
representation meta-model.

Examples:
  modelsync init --notation uml.yaml
  modelsync init --session draft --notation ./notations/statechart
  modelsync init --session draft --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "replace the session and its operation log if it exists")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	ws, err := openWorkspace(opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer ws.Close()

	key := opts.Session
	_, err = ws.store.LoadSession(ctx, key)
	switch {
	case err == nil && !opts.Force:
		return NewExitError(ExitCommandError, fmt.Sprintf("session %s already exists (use --force to replace it)", key))
	case err == nil:
		formatter.VerboseLog("Replacing session %s", key)
		if err := ws.store.DeleteSession(ctx, key); err != nil {
			return WrapExitError(ExitCommandError, "failed to delete session", err)
		}
	case !errors.Is(err, store.ErrSessionNotFound):
		return WrapExitError(ExitCommandError, "failed to load session", err)
	}

	s, err := engine.NewSession(key, ws.notation.MetaModel, ws.notation.Representation, engine.WithLogger(opts.logger()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create session", err)
	}
	state, err := s.State()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to snapshot session", err)
	}
	if _, err := ws.store.SaveSession(ctx, state); err != nil {
		return WrapExitError(ExitCommandError, "failed to save session", err)
	}

	if opts.Format == "json" {
		return formatter.Success(InitResult{
			Session:                 key,
			MetaModel:               state.MetaModel,
			RepresentationMetaModel: state.RepresentationMetaModel,
			Digest:                  state.Digest,
		})
	}
	fmt.Fprintf(formatter.Writer, "%s Initialized session %s (%s)\n", passMark(), key, state.MetaModel)
	return nil
}
