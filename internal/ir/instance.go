package ir

// Link names used by edge objects.
const (
	LinkSource = "source"
	LinkTarget = "target"
)

// InstanceModel is the concrete diagram data of one editing session.
type InstanceModel struct {
	URI     string           `json:"uri"`
	Objects []InstanceObject `json:"objects"`
}

// InstanceObject is one diagram element conforming to a meta-model class.
//
// Representation points at the RepresentationInstanceObject with the same
// index in the paired RepresentationInstanceModel.
type InstanceObject struct {
	ID             string           `json:"id,omitempty"`
	Name           string           `json:"name"`
	Type           Ref              `json:"type"`
	Attributes     []AttributeValue `json:"attributes"`
	Links          []ReferenceValue `json:"links"`
	Representation *Ref             `json:"representation,omitempty"`
}

// AttributeValue is a name/value pair. Value holds any JSON scalar or
// structure.
type AttributeValue struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ReferenceValue is a named pointer to another InstanceObject.
type ReferenceValue struct {
	Name   string `json:"name"`
	Target Ref    `json:"target"`
}

// RepresentationInstanceModel holds per-object visual state, index-aligned
// with an InstanceModel.
type RepresentationInstanceModel struct {
	URI     string                         `json:"uri"`
	Objects []RepresentationInstanceObject `json:"objects"`
}

// RepresentationInstanceObject is the visual state of one diagram element.
type RepresentationInstanceObject struct {
	ID             string             `json:"id,omitempty"`
	Type           RepresentationType `json:"type"`
	Position       *Position          `json:"position,omitempty"`
	GraphicalItems []GraphicalItem    `json:"graphicalItems"`
}

func (*InstanceModel) NodeKind() NodeKind                 { return KindInstanceModel }
func (*InstanceModel) node()                              {}
func (m *InstanceModel) PackageURI() string               { return m.URI }
func (*InstanceObject) NodeKind() NodeKind                { return KindInstanceObject }
func (*InstanceObject) node()                             {}
func (*AttributeValue) NodeKind() NodeKind                { return KindAttributeValue }
func (*AttributeValue) node()                             {}
func (*ReferenceValue) NodeKind() NodeKind                { return KindReferenceValue }
func (*ReferenceValue) node()                             {}
func (*RepresentationInstanceModel) NodeKind() NodeKind   { return KindRepresentationInstanceModel }
func (*RepresentationInstanceModel) node()                {}
func (m *RepresentationInstanceModel) PackageURI() string { return m.URI }
func (*RepresentationInstanceObject) NodeKind() NodeKind  { return KindRepresentationInstanceObject }
func (*RepresentationInstanceObject) node()               {}

// IndexOf returns the index of the object with the given name, or -1.
func (m *InstanceModel) IndexOf(name string) int {
	for i := range m.Objects {
		if m.Objects[i].Name == name {
			return i
		}
	}
	return -1
}

// HasName reports whether an object with the given name exists.
func (m *InstanceModel) HasName(name string) bool {
	return m.IndexOf(name) >= 0
}

// Link returns the first link with the given name.
func (o *InstanceObject) Link(name string) (*ReferenceValue, bool) {
	for i := range o.Links {
		if o.Links[i].Name == name {
			return &o.Links[i], true
		}
	}
	return nil, false
}

// Attribute returns the value of the named attribute.
func (o *InstanceObject) Attribute(name string) (any, bool) {
	for _, a := range o.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the package.
func (m *InstanceModel) Clone() *InstanceModel {
	c := &InstanceModel{URI: m.URI, Objects: make([]InstanceObject, len(m.Objects))}
	for i := range m.Objects {
		c.Objects[i] = m.Objects[i].Clone()
	}
	return c
}

// Clone returns a deep copy of the object.
func (o InstanceObject) Clone() InstanceObject {
	c := o
	c.Representation = cloneRef(o.Representation)
	c.Attributes = make([]AttributeValue, len(o.Attributes))
	for i, a := range o.Attributes {
		c.Attributes[i] = AttributeValue{Name: a.Name, Value: cloneValue(a.Value)}
	}
	c.Links = make([]ReferenceValue, len(o.Links))
	copy(c.Links, o.Links)
	return c
}

// Clone returns a deep copy of the package.
func (m *RepresentationInstanceModel) Clone() *RepresentationInstanceModel {
	c := &RepresentationInstanceModel{URI: m.URI, Objects: make([]RepresentationInstanceObject, len(m.Objects))}
	for i := range m.Objects {
		c.Objects[i] = m.Objects[i].Clone()
	}
	return c
}

// Clone returns a deep copy of the object.
func (o RepresentationInstanceObject) Clone() RepresentationInstanceObject {
	c := o
	c.Position = clonePosition(o.Position)
	c.GraphicalItems = CloneGraphicalItems(o.GraphicalItems)
	if c.GraphicalItems == nil {
		c.GraphicalItems = []GraphicalItem{}
	}
	return c
}

// cloneValue deep-copies decoded JSON values.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, e := range val {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return val
	}
}
