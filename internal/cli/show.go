package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/notation"
	"github.com/roach88/modelsync/internal/ref"
	"github.com/roach88/modelsync/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	List bool // list sessions instead of showing one
}

// ObjectView is one row of the show output.
type ObjectView struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Position   *ir.Position      `json:"position,omitempty"`
	Links      map[string]string `json:"links,omitempty"`
	Attributes map[string]any    `json:"attributes,omitempty"`
}

// ShowResult is the JSON payload of show.
type ShowResult struct {
	Session string       `json:"session"`
	Seq     int64        `json:"seq"`
	Digest  string       `json:"digest"`
	Objects []ObjectView `json:"objects"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the objects of a session",
		Long: `Show the objects of a stored session with their positions and links.

Class names are shown when a notation is configured, raw references
otherwise.

Examples:
  modelsync show --session draft
  modelsync show --list
  modelsync show --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.List, "list", false, "list all sessions")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	ws, err := openWorkspace(opts.RootOptions, false)
	if err != nil {
		return err
	}
	defer ws.Close()

	if opts.List {
		sessions, err := ws.store.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		return outputSessionList(formatter, sessions)
	}

	state, err := ws.store.LoadSession(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load session", err)
	}

	// The notation is optional here; it only turns type refs into names.
	var n *notation.Notation
	if opts.Notation != "" {
		if n, err = loadNotation(opts.Notation); err != nil {
			return err
		}
	}

	result := ShowResult{
		Session: state.Key,
		Seq:     state.Seq,
		Digest:  state.Digest,
		Objects: objectViews(state.Snapshot, n),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputShowText(formatter, result)
}

func objectViews(snap ir.Snapshot, n *notation.Notation) []ObjectView {
	inst := &snap.InstanceModel
	views := make([]ObjectView, 0, len(inst.Objects))
	for i, obj := range inst.Objects {
		v := ObjectView{Name: obj.Name, Type: typeName(n, obj.Type.Ref)}
		if i < len(snap.RepresentationInstanceModel.Objects) {
			v.Position = snap.RepresentationInstanceModel.Objects[i].Position
		}
		for _, l := range obj.Links {
			if v.Links == nil {
				v.Links = make(map[string]string)
			}
			target, err := ref.ResolveAs[*ir.InstanceObject](inst, l.Target.Ref)
			if err != nil {
				v.Links[l.Name] = l.Target.Ref
				continue
			}
			v.Links[l.Name] = target.Name
		}
		for _, a := range obj.Attributes {
			if v.Attributes == nil {
				v.Attributes = make(map[string]any)
			}
			v.Attributes[a.Name] = a.Value
		}
		views = append(views, v)
	}
	return views
}

func typeName(n *notation.Notation, raw string) string {
	if n == nil {
		return raw
	}
	cls, err := ref.ResolveAs[*ir.Classifier](n.MetaModel, raw)
	if err != nil {
		return raw
	}
	return cls.Name
}

func outputShowText(formatter *OutputFormatter, result ShowResult) error {
	w := formatter.Writer
	fmt.Fprintf(w, "Session %s (seq %d, %d objects)\n", result.Session, result.Seq, len(result.Objects))
	if len(result.Objects) == 0 {
		return nil
	}
	fmt.Fprintln(w)

	for _, v := range result.Objects {
		fmt.Fprintf(w, "  %-16s %s", v.Name, v.Type)
		if v.Position != nil {
			fmt.Fprintf(w, " at %s", formatPosition(v.Position))
		}
		if len(v.Links) > 0 {
			fmt.Fprintf(w, " %s", formatLinks(v.Links))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// formatLinks renders source and target first, then other links by name.
func formatLinks(links map[string]string) string {
	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return linkRank(names[i]) < linkRank(names[j]) ||
			(linkRank(names[i]) == linkRank(names[j]) && names[i] < names[j])
	})

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + links[name]
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func linkRank(name string) int {
	switch name {
	case ir.LinkSource:
		return 0
	case ir.LinkTarget:
		return 1
	default:
		return 2
	}
}

func outputSessionList(formatter *OutputFormatter, sessions []store.SessionSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(sessions)
	}

	w := formatter.Writer
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%-20s seq %-6d %d operations  %s\n", s.Key, s.Seq, s.Operations, s.MetaURI)
	}
	return nil
}
