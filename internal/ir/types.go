package ir

import "math"

// RepresentationType tags how a classifier or object is drawn.
type RepresentationType string

const (
	// ClassNode is a box-like element that may combine several shapes.
	ClassNode RepresentationType = "ClassNode"
	// ClassEdge is a connector drawn as exactly one line.
	ClassEdge RepresentationType = "ClassEdge"
)

// ValidRepresentationTypes defines allowed representation types.
var ValidRepresentationTypes = map[RepresentationType]bool{
	ClassNode: true,
	ClassEdge: true,
}

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Position) Finite() bool {
	return IsFinite(p.X) && IsFinite(p.Y)
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Size is a width/height pair for a graphical item.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// GraphicalItem is one drawable part of a representation.
type GraphicalItem struct {
	Shape     string            `json:"shape"`
	Style     map[string]string `json:"style,omitempty"`
	Position  *Position         `json:"position,omitempty"`
	Size      *Size             `json:"size,omitempty"`
	Generator string            `json:"generator,omitempty"` // e.g. "attributesForNotation"
}

// NodeKind identifies the concrete type behind a Node.
type NodeKind string

const (
	KindMetaModel                    NodeKind = "MetaModel"
	KindClassifier                   NodeKind = "Classifier"
	KindAttribute                    NodeKind = "Attribute"
	KindReference                    NodeKind = "Reference"
	KindConstraint                   NodeKind = "Constraint"
	KindRepresentationMetaModel      NodeKind = "RepresentationMetaModel"
	KindRepresentation               NodeKind = "Representation"
	KindGraphicalItem                NodeKind = "GraphicalItem"
	KindInstanceModel                NodeKind = "InstanceModel"
	KindInstanceObject               NodeKind = "InstanceObject"
	KindAttributeValue               NodeKind = "AttributeValue"
	KindReferenceValue               NodeKind = "ReferenceValue"
	KindRepresentationInstanceModel  NodeKind = "RepresentationInstanceModel"
	KindRepresentationInstanceObject NodeKind = "RepresentationInstanceObject"
	KindPosition                     NodeKind = "Position"
	KindSize                         NodeKind = "Size"
	KindRef                          NodeKind = "Ref"
	KindLeaf                         NodeKind = "Leaf"
)

// Node is any element addressable by a JSON pointer.
//
// This is a sealed interface - only types in this package implement it.
// The marker method lets the resolver switch exhaustively over node kinds.
type Node interface {
	NodeKind() NodeKind
	node()
}

// Tree is the root of a pointer walk: one of the four package types.
type Tree interface {
	Node
	PackageURI() string
}

// Leaf wraps a scalar or map value reached by a pointer (a name, a style
// entry, an attribute value).
type Leaf struct {
	Value any
}

func (*Leaf) NodeKind() NodeKind { return KindLeaf }
func (*Leaf) node()              {}

func (*Position) NodeKind() NodeKind      { return KindPosition }
func (*Position) node()                   {}
func (*Size) NodeKind() NodeKind          { return KindSize }
func (*Size) node()                       {}
func (*GraphicalItem) NodeKind() NodeKind { return KindGraphicalItem }
func (*GraphicalItem) node()              {}
func (*Ref) NodeKind() NodeKind           { return KindRef }
func (*Ref) node()                        {}

func clonePosition(p *Position) *Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneRef(r *Ref) *Ref {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Clone returns a deep copy of the item.
func (g GraphicalItem) Clone() GraphicalItem {
	c := g
	c.Position = clonePosition(g.Position)
	if g.Size != nil {
		s := *g.Size
		c.Size = &s
	}
	if g.Style != nil {
		c.Style = make(map[string]string, len(g.Style))
		for k, v := range g.Style {
			c.Style[k] = v
		}
	}
	return c
}

// CloneGraphicalItems deep-copies a slice of items (nil stays nil).
func CloneGraphicalItems(items []GraphicalItem) []GraphicalItem {
	if items == nil {
		return nil
	}
	out := make([]GraphicalItem, len(items))
	for i, g := range items {
		out[i] = g.Clone()
	}
	return out
}
