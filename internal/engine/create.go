package engine

import (
	"strconv"
	"strings"

	"github.com/roach88/modelsync/internal/constraint"
	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/ref"
)

// resolved is an instantiable classifier and its representation.
type resolved struct {
	ref        string
	classifier *ir.Classifier
	rep        *ir.Representation
}

// classifierRef accepts a classifier ref or a bare classifier name and
// returns the canonical ref.
func (s *Session) classifierRef(nameOrRef string) string {
	if strings.Contains(nameOrRef, "#") {
		return nameOrRef
	}
	if i, _, ok := s.meta.ClassifierByName(nameOrRef); ok {
		return ref.ClassifierRef(s.meta.URI, i)
	}
	return nameOrRef
}

// resolveClassifier checks that raw names a Class with a representation of
// type want.
func (s *Session) resolveClassifier(op ir.OpKind, raw string, want ir.RepresentationType) (resolved, error) {
	raw = s.classifierRef(raw)
	cls, err := ref.ResolveAs[*ir.Classifier](s.meta, raw)
	if err != nil {
		return resolved{}, opErr(op, ErrCodeClassifierNotFound, err, "classifier %s", raw)
	}
	if !cls.IsClass() {
		return resolved{}, opErr(op, ErrCodeClassifierNotFound, nil, "%s is a %s, not a Class", cls.Name, cls.Kind)
	}
	if cls.IsAbstract {
		return resolved{}, opErr(op, ErrCodeClassifierNotFound, nil, "%s is abstract", cls.Name)
	}
	if cls.Representation == nil {
		return resolved{}, opErr(op, ErrCodeWrongRepresentation, nil, "%s has no representation", cls.Name)
	}
	rep, err := ref.ResolveAs[*ir.Representation](s.rep, cls.Representation.Ref)
	if err != nil {
		return resolved{}, opErr(op, ErrCodeDanglingReference, err, "representation of %s", cls.Name)
	}
	if rep.Type != want {
		return resolved{}, opErr(op, ErrCodeWrongRepresentation, nil, "%s is drawn as %s, want %s", cls.Name, rep.Type, want)
	}
	return resolved{ref: raw, classifier: cls, rep: rep}, nil
}

// nextName issues "<ClassName><n>" from the running per-classifier counter,
// skipping names already taken.
func (t *txn) nextName(class string) string {
	n := t.counters[class]
	for {
		n++
		name := class + strconv.Itoa(n)
		if !t.inst.HasName(name) {
			t.counters[class] = n
			return name
		}
	}
}

// appendPair appends an instance object and its representation object at
// the same index and links them. Returns the new index.
func (t *txn) appendPair(r resolved, name string, pos *ir.Position) int {
	k := len(t.inst.Objects)

	attrs := []ir.AttributeValue{}
	for _, a := range r.classifier.Attributes {
		if a.Default != "" {
			attrs = append(attrs, ir.AttributeValue{Name: a.Name, Value: a.Default})
		}
	}

	items := ir.CloneGraphicalItems(r.rep.GraphicalItems)
	if items == nil {
		items = []ir.GraphicalItem{}
	}

	t.inst.Objects = append(t.inst.Objects, ir.InstanceObject{
		ID:             objectID(t.inst.URI, name),
		Name:           name,
		Type:           ir.Ref{Ref: r.ref},
		Attributes:     attrs,
		Links:          []ir.ReferenceValue{},
		Representation: ir.NewRef(ref.ObjectRef(t.rep.URI, k)),
	})
	t.rep.Objects = append(t.rep.Objects, ir.RepresentationInstanceObject{
		ID:             objectID(t.rep.URI, name),
		Type:           r.rep.Type,
		Position:       pos,
		GraphicalItems: items,
	})
	return k
}

// CreateNode appends a node of the given class at position. classifier is
// a classifier ref or a bare class name.
func (s *Session) CreateNode(classifier string, position ir.Position) (ir.Snapshot, error) {
	const op = ir.OpCreateNode

	r, err := s.resolveClassifier(op, classifier, ir.ClassNode)
	if err != nil {
		return ir.Snapshot{}, err
	}
	if !position.Finite() {
		return ir.Snapshot{}, opErr(op, ErrCodeInvalidPosition, nil, "non-finite position (%v, %v)", position.X, position.Y)
	}

	t := s.begin()
	name := t.nextName(r.classifier.Name)
	pos := position
	k := t.appendPair(r, name, &pos)

	snap, err := s.commit(t, ir.Operation{
		Kind:       op,
		Classifier: r.ref,
		Name:       name,
		Position:   &pos,
		ObjectID:   t.inst.Objects[k].ID,
	})
	if err != nil {
		return ir.Snapshot{}, err
	}

	s.logger.Info("node created",
		"session", s.key,
		"name", name,
		"class", r.classifier.Name,
		"index", k,
		"seq", s.Seq(),
	)
	return snap, nil
}

// CreateEdge appends an edge of the given class between two existing
// nodes. The class's constraints must hold for (source, target).
func (s *Session) CreateEdge(classifier, source, target string) (ir.Snapshot, error) {
	const op = ir.OpCreateEdge

	r, err := s.resolveClassifier(op, classifier, ir.ClassEdge)
	if err != nil {
		return ir.Snapshot{}, err
	}

	t := s.begin()
	si, err := t.endpoint(op, source)
	if err != nil {
		return ir.Snapshot{}, err
	}
	ti, err := t.endpoint(op, target)
	if err != nil {
		return ir.Snapshot{}, err
	}

	if err := s.checkConstraints(r.classifier, &t.inst.Objects[si], &t.inst.Objects[ti]); err != nil {
		return ir.Snapshot{}, err
	}

	name := t.nextName(r.classifier.Name)
	k := t.appendPair(r, name, nil)
	t.inst.Objects[k].Links = []ir.ReferenceValue{
		{Name: ir.LinkSource, Target: ir.Ref{Ref: ref.ObjectRef(t.inst.URI, si)}},
		{Name: ir.LinkTarget, Target: ir.Ref{Ref: ref.ObjectRef(t.inst.URI, ti)}},
	}

	snap, err := s.commit(t, ir.Operation{
		Kind:       op,
		Classifier: r.ref,
		Name:       name,
		Source:     source,
		Target:     target,
		ObjectID:   t.inst.Objects[k].ID,
	})
	if err != nil {
		return ir.Snapshot{}, err
	}

	s.logger.Info("edge created",
		"session", s.key,
		"name", name,
		"class", r.classifier.Name,
		"source", source,
		"target", target,
		"index", k,
		"seq", s.Seq(),
	)
	return snap, nil
}

// endpoint finds a node object by name for use as an edge endpoint.
func (t *txn) endpoint(op ir.OpKind, name string) (int, error) {
	i := t.inst.IndexOf(name)
	if i < 0 {
		return -1, opErr(op, ErrCodeObjectNotFound, nil, "no object named %q", name)
	}
	if t.rep.Objects[i].Type != ir.ClassNode {
		return -1, opErr(op, ErrCodeInvalidEndpoint, nil, "%s is drawn as %s, want %s", name, t.rep.Objects[i].Type, ir.ClassNode)
	}
	return i, nil
}

// checkConstraints evaluates the class constraints and the constraints on
// its source/target references.
func (s *Session) checkConstraints(cls *ir.Classifier, src, dst *ir.InstanceObject) error {
	type named struct{ name, expr string }
	var all []named
	for _, c := range cls.Constraints {
		all = append(all, named{c.Name, c.Expression})
	}
	for _, r := range cls.References {
		if r.Constraint != "" && (r.Name == ir.LinkSource || r.Name == ir.LinkTarget) {
			all = append(all, named{r.Name, r.Constraint})
		}
	}

	ctx := constraint.Context{Source: src, Target: dst}
	for _, c := range all {
		ok, err := s.evaluator.Check(c.expr, ctx)
		if err != nil {
			return opErr(ir.OpCreateEdge, ErrCodeConstraintViolated, err, "%s.%s could not be evaluated", cls.Name, c.name)
		}
		if !ok {
			return opErr(ir.OpCreateEdge, ErrCodeConstraintViolated, nil,
				"%s.%s does not hold for %s -> %s", cls.Name, c.name, src.Name, dst.Name)
		}
		s.logger.Debug("constraint satisfied", "class", cls.Name, "constraint", c.name)
	}
	return nil
}
