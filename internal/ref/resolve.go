package ref

import (
	"fmt"
	"strconv"

	"github.com/roach88/modelsync/internal/ir"
)

// Resolve resolves raw against root.
//
// Returns:
//   - (node, nil) when the pointer resolves
//   - *MismatchError when the URI is not root's URI (routing signal)
//   - *DanglingError when the pointer does not resolve
//   - *MalformedError when raw is not a reference
func Resolve(root ir.Tree, raw string) (ir.Node, error) {
	r, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return ResolveParsed(root, r)
}

// ResolveParsed is Resolve for an already parsed reference.
func ResolveParsed(root ir.Tree, r Ref) (ir.Node, error) {
	if r.URI != root.PackageURI() {
		return nil, &MismatchError{Ref: r.Raw, URI: r.URI, PackageURI: root.PackageURI()}
	}

	var cur step = nodeStep{root}
	for i, seg := range r.Segments {
		next, cause, detail := cur.child(seg)
		if cause != "" {
			return nil, &DanglingError{Ref: r.Raw, Segment: seg, Position: i, Cause: cause, Detail: detail}
		}
		cur = next
	}
	return cur.node(), nil
}

// ResolveAs resolves raw and checks the node's concrete type.
func ResolveAs[T ir.Node](root ir.Tree, raw string) (T, error) {
	var zero T
	n, err := Resolve(root, raw)
	if err != nil {
		return zero, err
	}
	t, ok := n.(T)
	if !ok {
		return zero, &DanglingError{
			Ref:    raw,
			Cause:  CauseWrongKind,
			Detail: fmt.Sprintf("resolved to %s, want %T", n.NodeKind(), zero),
		}
	}
	return t, nil
}

// ResolveAny resolves raw against the first tree whose URI matches.
// Returns the owning tree alongside the node. When no tree matches the
// error is a MismatchError against the last tree tried.
func ResolveAny(raw string, trees ...ir.Tree) (ir.Node, ir.Tree, error) {
	r, err := Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	var lastErr error = &MismatchError{Ref: raw, URI: r.URI}
	for _, t := range trees {
		if t == nil {
			continue
		}
		n, err := ResolveParsed(t, r)
		if IsMismatch(err) {
			lastErr = err
			continue
		}
		return n, t, err
	}
	return nil, nil, lastErr
}

// step is one position of a pointer walk: either a node or a sequence
// waiting for an index.
type step interface {
	child(seg string) (step, Cause, string)
	node() ir.Node
}

type nodeStep struct {
	n ir.Node
}

// seqStep is a sequence field; only an index can follow.
type seqStep struct {
	n   int
	at  func(int) ir.Node
	raw any
}

func (s seqStep) node() ir.Node { return &ir.Leaf{Value: s.raw} }

func (s seqStep) child(seg string) (step, Cause, string) {
	idx, ok := parseIndex(seg)
	if !ok {
		return nil, CauseNotAnIndex, ""
	}
	if idx >= s.n {
		return nil, CauseIndexOutOfRange, "length " + strconv.Itoa(s.n)
	}
	return nodeStep{s.at(idx)}, "", ""
}

func (s nodeStep) node() ir.Node { return s.n }

func leaf(v any) (step, Cause, string)   { return nodeStep{&ir.Leaf{Value: v}}, "", "" }
func to(n ir.Node) (step, Cause, string) { return nodeStep{n}, "", "" }

func optional[T ir.Node](n T, present bool) (step, Cause, string) {
	if !present {
		return nil, CauseAbsent, ""
	}
	return nodeStep{n}, "", ""
}

func seq[E any, P interface {
	*E
	ir.Node
}](items []E) (step, Cause, string) {
	return seqStep{
		n:   len(items),
		at:  func(i int) ir.Node { return P(&items[i]) },
		raw: items,
	}, "", ""
}

func unknown(seg string, n ir.Node) (step, Cause, string) {
	return nil, CauseUnknownField, fmt.Sprintf("%s has no field %q", n.NodeKind(), seg)
}

// child follows one segment from a node. The switch is exhaustive over
// ir node kinds; adding a kind without a case here falls into the
// default branch and reports NOT_TRAVERSABLE.
func (s nodeStep) child(seg string) (step, Cause, string) {
	switch n := s.n.(type) {
	case *ir.MetaModel:
		switch seg {
		case "uri":
			return leaf(n.URI)
		case "name":
			return leaf(n.Name)
		case "classifiers":
			return seq(n.Classifiers)
		}

	case *ir.Classifier:
		switch seg {
		case "kind":
			return leaf(string(n.Kind))
		case "name":
			return leaf(n.Name)
		case "isAbstract":
			return leaf(n.IsAbstract)
		case "isInterface":
			return leaf(n.IsInterface)
		case "instanceType":
			return leaf(n.InstanceType)
		case "attributes":
			return seq(n.Attributes)
		case "references":
			return seq(n.References)
		case "constraints":
			return seq(n.Constraints)
		case "representation":
			return optional(n.Representation, n.Representation != nil)
		}

	case *ir.Attribute:
		switch seg {
		case "name":
			return leaf(n.Name)
		case "type":
			return leaf(n.Type)
		case "default":
			return leaf(n.Default)
		}

	case *ir.Reference:
		switch seg {
		case "name":
			return leaf(n.Name)
		case "containment":
			return leaf(n.Containment)
		case "constraint":
			return leaf(n.Constraint)
		case "type":
			return optional(n.Type, n.Type != nil)
		}

	case *ir.Constraint:
		switch seg {
		case "name":
			return leaf(n.Name)
		case "expression":
			return leaf(n.Expression)
		}

	case *ir.RepresentationMetaModel:
		switch seg {
		case "uri":
			return leaf(n.URI)
		case "representations":
			return seq(n.Representations)
		}

	case *ir.Representation:
		switch seg {
		case "name":
			return leaf(n.Name)
		case "type":
			return leaf(string(n.Type))
		case "graphicalItems":
			return seq(n.GraphicalItems)
		}

	case *ir.GraphicalItem:
		switch seg {
		case "shape":
			return leaf(n.Shape)
		case "generator":
			return leaf(n.Generator)
		case "style":
			if n.Style == nil {
				return nil, CauseAbsent, ""
			}
			return leaf(n.Style)
		case "position":
			return optional(n.Position, n.Position != nil)
		case "size":
			return optional(n.Size, n.Size != nil)
		}

	case *ir.InstanceModel:
		switch seg {
		case "uri":
			return leaf(n.URI)
		case "objects":
			return seq(n.Objects)
		}

	case *ir.InstanceObject:
		switch seg {
		case "id":
			return leaf(n.ID)
		case "name":
			return leaf(n.Name)
		case "type":
			return to(&n.Type)
		case "attributes":
			return seq(n.Attributes)
		case "links":
			return seq(n.Links)
		case "representation":
			return optional(n.Representation, n.Representation != nil)
		}

	case *ir.AttributeValue:
		switch seg {
		case "name":
			return leaf(n.Name)
		case "value":
			return leaf(n.Value)
		}

	case *ir.ReferenceValue:
		switch seg {
		case "name":
			return leaf(n.Name)
		case "target":
			return to(&n.Target)
		}

	case *ir.RepresentationInstanceModel:
		switch seg {
		case "uri":
			return leaf(n.URI)
		case "objects":
			return seq(n.Objects)
		}

	case *ir.RepresentationInstanceObject:
		switch seg {
		case "id":
			return leaf(n.ID)
		case "type":
			return leaf(string(n.Type))
		case "position":
			return optional(n.Position, n.Position != nil)
		case "graphicalItems":
			return seq(n.GraphicalItems)
		}

	case *ir.Position:
		switch seg {
		case "x":
			return leaf(n.X)
		case "y":
			return leaf(n.Y)
		}

	case *ir.Size:
		switch seg {
		case "width":
			return leaf(n.Width)
		case "height":
			return leaf(n.Height)
		}

	case *ir.Ref:
		if seg == "$ref" {
			return leaf(n.Ref)
		}

	case *ir.Leaf:
		return leafChild(n.Value, seg)

	default:
		return nil, CauseNotTraversable, fmt.Sprintf("%T", s.n)
	}
	return unknown(seg, s.n)
}

// leafChild walks decoded JSON held in a Leaf (attribute values, styles).
func leafChild(v any, seg string) (step, Cause, string) {
	switch val := v.(type) {
	case map[string]any:
		e, ok := val[seg]
		if !ok {
			return nil, CauseUnknownField, ""
		}
		return leaf(e)
	case map[string]string:
		e, ok := val[seg]
		if !ok {
			return nil, CauseUnknownField, ""
		}
		return leaf(e)
	case []any:
		idx, ok := parseIndex(seg)
		if !ok {
			return nil, CauseNotAnIndex, ""
		}
		if idx >= len(val) {
			return nil, CauseIndexOutOfRange, "length " + strconv.Itoa(len(val))
		}
		return leaf(val[idx])
	default:
		return nil, CauseNotTraversable, fmt.Sprintf("scalar %T", v)
	}
}
