package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modelsync/internal/engine"
	"github.com/roach88/modelsync/internal/ir"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	All bool // replay every stored session
}

// SessionReplayResult holds the replay result for a single session.
type SessionReplayResult struct {
	Session       string `json:"session"`
	Operations    int    `json:"operations"`
	Seq           int64  `json:"seq"`
	Digest        string `json:"digest"`
	Deterministic bool   `json:"deterministic"`
	Error         string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []SessionReplayResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay operation logs and verify stored state",
		Long: `Replay the operation log of a session from an empty session and check
that it reproduces the stored models digest for digest.

Each log is replayed twice so nondeterminism in the engine itself is
reported as well.

Exit codes:
  0 - All sessions reproduce their stored state
  1 - A replay diverged
  2 - Command error (database not found, etc.)

Examples:
  modelsync replay --session draft
  modelsync replay --all --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "replay every session in the database")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	ws, err := openWorkspace(opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer ws.Close()

	// Get session keys to process
	keys := []string{opts.Session}
	if opts.All {
		sessions, err := ws.store.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		keys = keys[:0]
		for _, s := range sessions {
			keys = append(keys, s.Key)
		}
	}

	if len(keys) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(formatter, ReplayResult{
				Sessions:         []SessionReplayResult{},
				AllDeterministic: true,
			})
		}
		fmt.Fprintln(formatter.Writer, "No sessions found in database.")
		return nil
	}

	result := ReplayResult{
		Sessions:         make([]SessionReplayResult, 0, len(keys)),
		TotalSessions:    len(keys),
		AllDeterministic: true,
	}

	for _, key := range keys {
		formatter.VerboseLog("Replaying session %s", key)
		r, err := replayAndVerifySession(ctx, ws, key)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", key), err)
		}
		result.Sessions = append(result.Sessions, r)
		if !r.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replayAndVerifySession replays one stored log twice. Store failures are
// returned; divergence is recorded on the result.
func replayAndVerifySession(ctx context.Context, ws *workspace, key string) (SessionReplayResult, error) {
	state, err := ws.store.LoadSession(ctx, key)
	if err != nil {
		return SessionReplayResult{}, err
	}
	ops, err := ws.store.ReadOperations(ctx, key)
	if err != nil {
		return SessionReplayResult{}, err
	}

	r := SessionReplayResult{
		Session:    key,
		Operations: len(ops),
		Seq:        state.Seq,
		Digest:     state.Digest,
	}
	if err := verifyReplay(ws, state, ops); err != nil {
		r.Error = err.Error()
		return r, nil
	}
	r.Deterministic = true
	return r, nil
}

func verifyReplay(ws *workspace, state ir.SessionState, ops []ir.Operation) error {
	meta, rep := ws.notation.MetaModel, ws.notation.Representation
	if state.MetaModel != meta.URI {
		return fmt.Errorf("session uses meta-model %s, notation is %s", state.MetaModel, meta.URI)
	}

	var digests [2]string
	for i := range digests {
		s, err := engine.Replay(state.Key, meta, rep, ops, engine.WithLogger(ws.opts.logger()))
		if err != nil {
			return err
		}
		if err := engine.Verify(state, s); err != nil {
			return err
		}
		replayed, err := s.State()
		if err != nil {
			return err
		}
		digests[i] = replayed.Digest
	}
	if digests[0] != digests[1] {
		return fmt.Errorf("replays disagree: %s vs %s", digests[0], digests[1])
	}
	return nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    string(engine.ErrCodeReplayDiverged),
			Message: "replay verification failed",
		}
	}

	if err := encodeJSON(formatter.Writer, response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Divergence = exit code 1
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, r := range result.Sessions {
		status := passMark()
		if !r.Deterministic {
			status = failMark()
		}

		fmt.Fprintf(w, "%s Session: %s\n", status, r.Session)
		fmt.Fprintf(w, "  Operations: %d, seq %d\n", r.Operations, r.Seq)
		if formatter.Verbose {
			fmt.Fprintf(w, "  Digest: %s\n", r.Digest)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "  %s\n", r.Error)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintf(w, "%s All sessions reproduce their stored state\n", passMark())
		return nil
	}

	fmt.Fprintf(w, "%s Replay verification failed\n", failMark())
	// Divergence = exit code 1
	return NewExitError(ExitFailure, "replay verification failed")
}
