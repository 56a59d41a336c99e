package ir

// Ref is a cross-model reference of the form "<uri>#<json-pointer>".
// Parsing and resolution live in internal/ref.
type Ref struct {
	Ref string `json:"$ref"`
}

// NewRef wraps a reference string.
func NewRef(s string) *Ref {
	return &Ref{Ref: s}
}

// String returns the raw reference string ("" for a nil ref).
func (r *Ref) String() string {
	if r == nil {
		return ""
	}
	return r.Ref
}
