package ir

// RepresentationMetaModel describes how the classes of a meta-model are drawn.
type RepresentationMetaModel struct {
	URI             string           `json:"uri"`
	Representations []Representation `json:"representations"`
}

// Representation is the visual definition referenced by Classifier.Representation.
// A ClassEdge representation holds exactly one graphical item.
type Representation struct {
	Name           string             `json:"name,omitempty"`
	Type           RepresentationType `json:"type"`
	GraphicalItems []GraphicalItem    `json:"graphicalItems"`
}

func (*RepresentationMetaModel) NodeKind() NodeKind   { return KindRepresentationMetaModel }
func (*RepresentationMetaModel) node()                {}
func (m *RepresentationMetaModel) PackageURI() string { return m.URI }
func (*Representation) NodeKind() NodeKind            { return KindRepresentation }
func (*Representation) node()                         {}
