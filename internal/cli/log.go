package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/modelsync/internal/ir"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Kind   string // optional - filter to one operation kind
	Object string // optional - filter to operations touching an object
}

// LogEntry is one committed operation in the timeline.
type LogEntry struct {
	Seq        int64        `json:"seq"`
	Kind       ir.OpKind    `json:"kind"`
	Name       string       `json:"name,omitempty"`
	Classifier string       `json:"classifier,omitempty"`
	Source     string       `json:"source,omitempty"`
	Target     string       `json:"target,omitempty"`
	Position   *ir.Position `json:"position,omitempty"`
	ObjectID   string       `json:"object_id,omitempty"`
}

// LogStats counts operations per kind over the whole log.
type LogStats struct {
	Total   int `json:"total"`
	Creates int `json:"creates"`
	Moves   int `json:"moves"`
	Deletes int `json:"deletes"`
}

// LogResult is the JSON payload of log.
type LogResult struct {
	Session  string     `json:"session"`
	Timeline []LogEntry `json:"timeline"`
	Stats    LogStats   `json:"stats"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the operation log of a session",
		Long: `Show the committed operations of a session in seq order.

Rejected operations are never logged. Positions are the effective
positions after invalid coordinates were replaced.

Examples:
  modelsync log --session draft
  modelsync log --kind deleteNode
  modelsync log --object Class1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to an operation kind (createNode|createEdge|moveNode|deleteNode)")
	cmd.Flags().StringVar(&opts.Object, "object", "", "filter to operations naming an object")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	if opts.Kind != "" && !ir.ValidOpKinds[ir.OpKind(opts.Kind)] {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown operation kind %q", opts.Kind))
	}

	ws, err := openWorkspace(opts.RootOptions, false)
	if err != nil {
		return err
	}
	defer ws.Close()

	if _, err := ws.store.LoadSession(ctx, opts.Session); err != nil {
		return WrapExitError(ExitCommandError, "failed to load session", err)
	}
	ops, err := ws.store.ReadOperations(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read operations", err)
	}

	result := LogResult{
		Session:  opts.Session,
		Timeline: buildTimeline(ops, ir.OpKind(opts.Kind), opts.Object),
		Stats:    logStats(ops),
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputLogText(formatter.Writer, result, opts.Verbose)
}

// buildTimeline converts logged operations to timeline entries, keeping
// those matching kind and object when set.
func buildTimeline(ops []ir.Operation, kind ir.OpKind, object string) []LogEntry {
	timeline := []LogEntry{}
	for _, op := range ops {
		if kind != "" && op.Kind != kind {
			continue
		}
		if object != "" && op.Name != object && op.Source != object && op.Target != object {
			continue
		}
		timeline = append(timeline, LogEntry{
			Seq:        op.Seq,
			Kind:       op.Kind,
			Name:       op.Name,
			Classifier: op.Classifier,
			Source:     op.Source,
			Target:     op.Target,
			Position:   op.Position,
			ObjectID:   op.ObjectID,
		})
	}
	return timeline
}

func logStats(ops []ir.Operation) LogStats {
	stats := LogStats{Total: len(ops)}
	for _, op := range ops {
		switch op.Kind {
		case ir.OpCreateNode, ir.OpCreateEdge:
			stats.Creates++
		case ir.OpMoveNode:
			stats.Moves++
		case ir.OpDeleteNode:
			stats.Deletes++
		}
	}
	return stats
}

func outputLogText(w io.Writer, result LogResult, verbose bool) error {
	fmt.Fprintf(w, "Operation log for session: %s\n", result.Session)
	fmt.Fprintln(w)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no operations)")
	}
	for _, e := range result.Timeline {
		formatLogEntry(w, e, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total: %d (%d created, %d moved, %d deleted)\n",
		result.Stats.Total, result.Stats.Creates, result.Stats.Moves, result.Stats.Deletes)
	return nil
}

func formatLogEntry(w io.Writer, e LogEntry, verbose bool) {
	switch e.Kind {
	case ir.OpCreateNode:
		fmt.Fprintf(w, "  [%d] %s %s at %s\n", e.Seq, e.Kind, e.Name, formatPosition(e.Position))
	case ir.OpCreateEdge:
		fmt.Fprintf(w, "  [%d] %s %s %s -> %s\n", e.Seq, e.Kind, e.Name, e.Source, e.Target)
	case ir.OpMoveNode:
		fmt.Fprintf(w, "  [%d] %s %s to %s\n", e.Seq, e.Kind, e.Name, formatPosition(e.Position))
	default:
		fmt.Fprintf(w, "  [%d] %s %s\n", e.Seq, e.Kind, e.Name)
	}
	if verbose && e.Classifier != "" {
		fmt.Fprintf(w, "       Classifier: %s\n", e.Classifier)
	}
	if verbose && e.ObjectID != "" {
		fmt.Fprintf(w, "       ID: %s\n", e.ObjectID)
	}
}

func formatPosition(p *ir.Position) string {
	if p == nil {
		return "(?)"
	}
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}
