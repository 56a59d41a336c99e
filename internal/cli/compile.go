package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/notation"
	"github.com/roach88/modelsync/internal/ref"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output    string // output file path
	Canonical bool   // write canonical JSON instead of indented JSON
}

// ClassifierSummary describes one classifier of a compiled notation.
type ClassifierSummary struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Representation string `json:"representation,omitempty"`
	Constraints    int    `json:"constraints,omitempty"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	Classes         int `json:"classes"`
	DataTypes       int `json:"data_types"`
	Representations int `json:"representations"`
	Constraints     int `json:"constraints"`
}

// CompilationResult is the JSON payload of compile.
type CompilationResult struct {
	MetaModel   string              `json:"meta_model"`
	Classifiers []ClassifierSummary `json:"classifiers"`
	Stats       CompilationStats    `json:"stats"`
	Output      string              `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <notation>",
		Short: "Compile a notation document to JSON",
		Long: `Compile a notation document (.json, .yaml, .cue or a CUE directory) to
the JSON form the engine consumes.

The document is validated first; warnings are reported but do not stop
compilation.

Examples:
  modelsync compile ./notations/statechart -o statechart.json
  modelsync compile uml.yaml --canonical -o uml.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "write canonical (RFC 8785) JSON")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	n, err := notation.Load(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded notation %s from %s", n.MetaModel.URI, n.Source)

	all := notation.Validate(n)
	if errs := notation.Errors(all); len(errs) > 0 {
		return outputValidationErrors(formatter, errs, nil)
	}
	for _, w := range all {
		formatter.VerboseLog("warning %s %s: %s", w.Code, w.Field, w.Message)
	}

	result := summarize(n)
	if opts.Output != "" {
		if err := writeNotation(n, opts.Output, opts.Canonical); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		result.Output = opts.Output
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputCompileText(formatter, result)
}

// summarize lists the classifiers of n with their representation names.
func summarize(n *notation.Notation) CompilationResult {
	result := CompilationResult{
		MetaModel:   n.MetaModel.URI,
		Classifiers: make([]ClassifierSummary, 0, len(n.MetaModel.Classifiers)),
	}
	result.Stats.Representations = len(n.Representation.Representations)

	for _, c := range n.MetaModel.Classifiers {
		s := ClassifierSummary{Name: c.Name, Kind: string(c.Kind), Constraints: len(c.Constraints)}
		if c.IsClass() {
			result.Stats.Classes++
		} else {
			result.Stats.DataTypes++
		}
		result.Stats.Constraints += len(c.Constraints)
		if c.Representation != nil {
			if r, err := ref.ResolveAs[*ir.Representation](n.Representation, c.Representation.Ref); err == nil {
				s.Representation = string(r.Type)
				if r.Name != "" {
					s.Representation = r.Name + " (" + string(r.Type) + ")"
				}
			}
		}
		result.Classifiers = append(result.Classifiers, s)
	}
	return result
}

// writeNotation writes the compiled document to a file.
func writeNotation(n *notation.Notation, filename string, canonical bool) error {
	var data []byte
	var err error
	if canonical {
		data, err = ir.MarshalCanonical(n)
	} else {
		// Canonical JSON without indentation is used only for hashing
		data, err = json.MarshalIndent(n, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling notation: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func outputCompileText(formatter *OutputFormatter, result CompilationResult) error {
	w := formatter.Writer
	fmt.Fprintf(w, "%s Compiled %s: %d class(es), %d data type(s), %d representation(s)\n\n",
		passMark(), result.MetaModel, result.Stats.Classes, result.Stats.DataTypes, result.Stats.Representations)

	fmt.Fprintln(w, "Classifiers:")
	for _, c := range result.Classifiers {
		fmt.Fprintf(w, "  %s: %s", c.Name, c.Kind)
		if c.Representation != "" {
			fmt.Fprintf(w, ", drawn as %s", c.Representation)
		}
		if c.Constraints > 0 {
			fmt.Fprintf(w, ", %d constraint(s)", c.Constraints)
		}
		fmt.Fprintln(w)
	}

	if result.Output != "" {
		fmt.Fprintf(w, "\nWrote notation to %s\n", result.Output)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputLoadError reports a notation that could not be loaded, with its
// position when known.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *notation.LoadError
	if !errors.As(err, &loadErr) {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}

	var details any
	switch {
	case loadErr.Pos.IsValid():
		details = fmt.Sprintf("%s:%d:%d", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
	case loadErr.Line > 0:
		details = fmt.Sprintf("line %d", loadErr.Line)
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
}
