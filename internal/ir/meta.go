package ir

// ClassifierKind distinguishes the classifier variants.
type ClassifierKind string

const (
	ClassifierClass    ClassifierKind = "Class"
	ClassifierDataType ClassifierKind = "DataType"
)

// MetaModel is a domain meta-model package.
type MetaModel struct {
	URI         string       `json:"uri"`
	Name        string       `json:"name,omitempty"`
	Classifiers []Classifier `json:"classifiers"`
}

// Classifier is either a Class or a DataType, tagged by Kind.
// Class-only fields are empty on data types.
type Classifier struct {
	Kind           ClassifierKind `json:"kind"`
	Name           string         `json:"name"`
	Attributes     []Attribute    `json:"attributes,omitempty"`
	References     []Reference    `json:"references,omitempty"`
	IsAbstract     bool           `json:"isAbstract,omitempty"`
	IsInterface    bool           `json:"isInterface,omitempty"`
	Representation *Ref           `json:"representation,omitempty"`
	Constraints    []Constraint   `json:"constraints,omitempty"`
	InstanceType   string         `json:"instanceType,omitempty"` // DataType only
}

// IsClass reports whether the classifier is a Class.
func (c *Classifier) IsClass() bool {
	return c.Kind == ClassifierClass
}

// Attribute is a typed slot on a class.
type Attribute struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default string `json:"default,omitempty"`
}

// Reference is a typed pointer from one class to another.
type Reference struct {
	Name        string `json:"name"`
	Type        *Ref   `json:"type,omitempty"`
	Containment bool   `json:"containment,omitempty"`
	Constraint  string `json:"constraint,omitempty"`
}

// Constraint is a named boolean expression over an edge's source and target.
type Constraint struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

func (*MetaModel) NodeKind() NodeKind   { return KindMetaModel }
func (*MetaModel) node()                {}
func (m *MetaModel) PackageURI() string { return m.URI }
func (*Classifier) NodeKind() NodeKind  { return KindClassifier }
func (*Classifier) node()               {}
func (*Attribute) NodeKind() NodeKind   { return KindAttribute }
func (*Attribute) node()                {}
func (*Reference) NodeKind() NodeKind   { return KindReference }
func (*Reference) node()                {}
func (*Constraint) NodeKind() NodeKind  { return KindConstraint }
func (*Constraint) node()               {}

// ClassifierByName returns the index and classifier with the given name.
func (m *MetaModel) ClassifierByName(name string) (int, *Classifier, bool) {
	for i := range m.Classifiers {
		if m.Classifiers[i].Name == name {
			return i, &m.Classifiers[i], true
		}
	}
	return -1, nil, false
}
