package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-test/deep"

	"github.com/roach88/modelsync/internal/engine"
	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/notation"
	"github.com/roach88/modelsync/internal/ref"
	"github.com/roach88/modelsync/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			status := "ok"
			if ev.Error != "" {
				status = ev.Error
			}
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s %v\n", ev.Step, ev.Op, ev.Name, status, ev.Objects)
		}
	}

	return buf.String()
}

// AssertionContext provides what assertions inspect besides the result.
type AssertionContext struct {
	Ctx      context.Context
	Store    *store.Store
	Session  *engine.Session
	Notation *notation.Notation
	Logger   *slog.Logger
}

// EvaluateAssertions runs all assertions and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	snap := result.Snapshot
	switch a.Type {
	case AssertObjectNames:
		return assertObjectNames(result, a)
	case AssertObjectCount:
		if got := len(snap.InstanceModel.Objects); got != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d objects", a.Count),
				Actual:   fmt.Sprintf("%d objects", got),
				Trace:    result.Trace,
			}
		}
		return nil
	case AssertLink:
		return assertLink(result, a)
	case AssertNoLink:
		obj, err := findObject(snap, a.Object)
		if err != nil {
			return err
		}
		if l, ok := obj.Link(a.Link); ok {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s has no %s link", a.Object, a.Link),
				Actual:   fmt.Sprintf("link to %s", l.Target.Ref),
				Trace:    result.Trace,
			}
		}
		return nil
	case AssertPosition:
		return assertPosition(result, a)
	case AssertAttribute:
		return assertAttribute(result, a)
	case AssertConsistent:
		return assertConsistent(snap)
	case AssertStored:
		return assertStored(actx, a)
	case AssertReplay:
		return assertReplay(actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertObjectNames(result *Result, a Assertion) error {
	got := objectNames(result.Snapshot)
	if diff := deep.Equal(a.Names, got); diff != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%v", a.Names),
			Actual:   fmt.Sprintf("%v (%s)", got, strings.Join(diff, "; ")),
			Trace:    result.Trace,
		}
	}
	return nil
}

func findObject(snap ir.Snapshot, name string) (*ir.InstanceObject, error) {
	i := snap.InstanceModel.IndexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("no object named %s", name)
	}
	return &snap.InstanceModel.Objects[i], nil
}

func assertLink(result *Result, a Assertion) error {
	snap := result.Snapshot
	obj, err := findObject(snap, a.Object)
	if err != nil {
		return err
	}
	l, ok := obj.Link(a.Link)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s.%s -> %s", a.Object, a.Link, a.Target),
			Actual:   "no such link",
			Trace:    result.Trace,
		}
	}
	target, err := ref.ResolveAs[*ir.InstanceObject](&snap.InstanceModel, l.Target.Ref)
	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s.%s -> %s", a.Object, a.Link, a.Target),
			Actual:   err.Error(),
			Trace:    result.Trace,
		}
	}
	if target.Name != a.Target {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s.%s -> %s", a.Object, a.Link, a.Target),
			Actual:   fmt.Sprintf("%s.%s -> %s", a.Object, a.Link, target.Name),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertPosition(result *Result, a Assertion) error {
	snap := result.Snapshot
	i := snap.InstanceModel.IndexOf(a.Object)
	if i < 0 {
		return fmt.Errorf("no object named %s", a.Object)
	}
	got := snap.RepresentationInstanceModel.Objects[i].Position
	if diff := deep.Equal(a.Position, got); diff != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s at %+v", a.Object, *a.Position),
			Actual:   strings.Join(diff, "; "),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertAttribute(result *Result, a Assertion) error {
	obj, err := findObject(result.Snapshot, a.Object)
	if err != nil {
		return err
	}
	got, ok := obj.Attribute(a.Attribute)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s.%s = %v", a.Object, a.Attribute, a.Value),
			Actual:   "attribute not set",
			Trace:    result.Trace,
		}
	}
	if fmt.Sprint(got) != fmt.Sprint(a.Value) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s.%s = %v", a.Object, a.Attribute, a.Value),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertConsistent checks positional correspondence and link resolution.
func assertConsistent(snap ir.Snapshot) error {
	inst := &snap.InstanceModel
	rep := &snap.RepresentationInstanceModel
	if len(inst.Objects) != len(rep.Objects) {
		return fmt.Errorf("%d instance objects but %d representation objects", len(inst.Objects), len(rep.Objects))
	}
	for i := range inst.Objects {
		obj := &inst.Objects[i]
		if obj.Representation == nil {
			return fmt.Errorf("%s has no representation", obj.Name)
		}
		idx, err := ref.ObjectIndex(obj.Representation.Ref, rep.URI, len(rep.Objects))
		if err != nil {
			return fmt.Errorf("%s: %w", obj.Name, err)
		}
		if idx != i {
			return fmt.Errorf("%s at index %d is drawn by representation object %d", obj.Name, i, idx)
		}
		for _, l := range obj.Links {
			if _, err := ref.ResolveAs[*ir.InstanceObject](inst, l.Target.Ref); err != nil {
				return fmt.Errorf("%s.%s: %w", obj.Name, l.Name, err)
			}
		}
	}
	return nil
}

func assertStored(actx *AssertionContext, a Assertion) error {
	state, err := actx.Store.LoadSession(actx.Ctx, actx.Session.Key())
	if err != nil {
		return err
	}
	if a.Seq != 0 && state.Seq != a.Seq {
		return fmt.Errorf("stored seq = %d, want %d", state.Seq, a.Seq)
	}
	ops, err := actx.Store.ReadOperations(actx.Ctx, actx.Session.Key())
	if err != nil {
		return err
	}
	if a.Count != 0 && len(ops) != a.Count {
		return fmt.Errorf("stored %d operations, want %d", len(ops), a.Count)
	}
	return nil
}

// assertReplay rebuilds the session from the stored op log and compares it
// with the stored state.
func assertReplay(actx *AssertionContext) error {
	key := actx.Session.Key()
	state, err := actx.Store.LoadSession(actx.Ctx, key)
	if err != nil {
		return err
	}
	ops, err := actx.Store.ReadOperations(actx.Ctx, key)
	if err != nil {
		return err
	}
	replayed, err := engine.Replay(key, actx.Notation.MetaModel, actx.Notation.Representation, ops,
		engine.WithLogger(actx.Logger))
	if err != nil {
		return err
	}
	return engine.Verify(state, replayed)
}
