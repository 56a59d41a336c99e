package notation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/modelsync/internal/constraint"
	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/ref"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported document type for validation

	// MetaModel errors (E101-E119)
	ErrMissingURI            = "E101" // package uri is required
	ErrEmptyName             = "E102" // classifier/attribute/reference name is empty
	ErrDuplicateName         = "E103" // duplicate classifier/attribute/reference name
	ErrInvalidClassifierKind = "E104" // kind must be Class or DataType
	ErrDataTypeClassField    = "E105" // DataType carries Class-only fields
	ErrUnknownAttributeType  = "E106" // attribute type names no classifier
	ErrInvalidReferenceType  = "E107" // reference type does not resolve to a classifier
	ErrRepresentationRef     = "E108" // representation ref does not resolve
	ErrEdgeMissingEndpoint   = "E109" // edge class lacks a source or target reference
	ErrInvalidConstraint     = "E110" // constraint does not parse or is unsupported
	ErrUnknownConstraintKind = "E111" // kindOf names no classifier
	ErrReservedName          = "E112" // classifier name collides with a generated object name

	// RepresentationMetaModel errors (E120-E129)
	ErrInvalidRepresentationType = "E120" // type must be ClassNode or ClassEdge
	ErrEdgeItemCount             = "E121" // ClassEdge needs exactly one graphical item
	ErrEmptyShape                = "E122" // graphical item shape is empty
	ErrUnusedRepresentation      = "E123" // representation no class refers to (warning)
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Warning bool   `json:"warning,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Errors returns the entries that are not warnings.
func Errors(errs []ValidationError) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if !e.Warning {
			out = append(out, e)
		}
	}
	return out
}

// Validate validates a loaded document against the notation rules.
// Returns all errors found (does not fail-fast).
// Supports *Notation, *ir.MetaModel and *ir.RepresentationMetaModel.
// A MetaModel on its own cannot have its representation refs checked.
func Validate(v any) []ValidationError {
	switch doc := v.(type) {
	case *Notation:
		errs := validateMetaModel(doc.MetaModel, doc.Representation)
		return append(errs, validateRepresentation(doc.Representation, doc.MetaModel)...)
	case *ir.MetaModel:
		return validateMetaModel(doc, nil)
	case *ir.RepresentationMetaModel:
		return validateRepresentation(doc, nil)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported document type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateMetaModel(m *ir.MetaModel, rep *ir.RepresentationMetaModel) []ValidationError {
	var errs []ValidationError

	// E101: uri is required
	if strings.TrimSpace(m.URI) == "" {
		errs = append(errs, ValidationError{
			Field:   "metaModel.uri",
			Message: "uri is required and must be non-empty",
			Code:    ErrMissingURI,
		})
	}

	names := make(map[string]bool)
	for i := range m.Classifiers {
		c := &m.Classifiers[i]
		field := fmt.Sprintf("metaModel.classifiers[%d]", i)

		// E102/E103: classifier names
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "classifier name is required",
				Code:    ErrEmptyName,
			})
		} else if names[c.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate classifier name: %q", c.Name),
				Code:    ErrDuplicateName,
			})
		}
		names[c.Name] = true

		// E112: generated names are <Class><n>; a class named "Class1"
		// next to "Class" could collide with them.
		if base, ok := generatedBase(c.Name); ok {
			if _, _, exists := m.ClassifierByName(base); exists {
				errs = append(errs, ValidationError{
					Field:   field + ".name",
					Message: fmt.Sprintf("classifier %q collides with generated names of %q", c.Name, base),
					Code:    ErrReservedName,
					Warning: true,
				})
			}
		}

		switch c.Kind {
		case ir.ClassifierClass:
			errs = append(errs, validateClass(m, rep, c, field)...)
		case ir.ClassifierDataType:
			errs = append(errs, validateDataType(c, field)...)
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("invalid classifier kind %q (must be Class or DataType)", c.Kind),
				Code:    ErrInvalidClassifierKind,
			})
		}
	}

	return errs
}

func validateDataType(c *ir.Classifier, field string) []ValidationError {
	var errs []ValidationError

	// E105: class-only fields on a data type
	var extra []string
	if len(c.Attributes) > 0 {
		extra = append(extra, "attributes")
	}
	if len(c.References) > 0 {
		extra = append(extra, "references")
	}
	if c.Representation != nil {
		extra = append(extra, "representation")
	}
	if len(c.Constraints) > 0 {
		extra = append(extra, "constraints")
	}
	if c.IsAbstract || c.IsInterface {
		extra = append(extra, "isAbstract/isInterface")
	}
	if len(extra) > 0 {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("data type %q must not declare %s", c.Name, strings.Join(extra, ", ")),
			Code:    ErrDataTypeClassField,
		})
	}
	return errs
}

func validateClass(m *ir.MetaModel, rep *ir.RepresentationMetaModel, c *ir.Classifier, field string) []ValidationError {
	var errs []ValidationError

	attrNames := make(map[string]bool)
	for j, a := range c.Attributes {
		f := fmt.Sprintf("%s.attributes[%d]", field, j)
		errs = append(errs, checkMemberName(a.Name, f, "attribute", attrNames)...)

		// E106: attribute type names a classifier
		if a.Type != "" {
			if _, _, ok := m.ClassifierByName(a.Type); !ok {
				errs = append(errs, ValidationError{
					Field:   f + ".type",
					Message: fmt.Sprintf("attribute %q has unknown type %q", a.Name, a.Type),
					Code:    ErrUnknownAttributeType,
				})
			}
		}
	}

	refNames := make(map[string]bool)
	for j, r := range c.References {
		f := fmt.Sprintf("%s.references[%d]", field, j)
		errs = append(errs, checkMemberName(r.Name, f, "reference", refNames)...)

		// E107: reference type resolves to a classifier of this package
		if r.Type == nil {
			errs = append(errs, ValidationError{
				Field:   f + ".type",
				Message: fmt.Sprintf("reference %q has no type", r.Name),
				Code:    ErrInvalidReferenceType,
			})
		} else if _, err := ref.ResolveAs[*ir.Classifier](m, r.Type.Ref); err != nil {
			errs = append(errs, ValidationError{
				Field:   f + ".type",
				Message: fmt.Sprintf("reference %q: %v", r.Name, err),
				Code:    ErrInvalidReferenceType,
			})
		}

		if r.Constraint != "" {
			errs = append(errs, validateExpression(m, r.Constraint, f+".constraint")...)
		}
	}

	for j, k := range c.Constraints {
		errs = append(errs, validateExpression(m, k.Expression, fmt.Sprintf("%s.constraints[%d].expression", field, j))...)
	}

	if c.Representation == nil || rep == nil {
		return errs
	}

	// E108: representation resolves inside the representation package
	r, err := ref.ResolveAs[*ir.Representation](rep, c.Representation.Ref)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".representation",
			Message: fmt.Sprintf("class %q: %v", c.Name, err),
			Code:    ErrRepresentationRef,
		})
		return errs
	}

	// E109: edges need both endpoints declared
	if r.Type == ir.ClassEdge {
		for _, end := range []string{ir.LinkSource, ir.LinkTarget} {
			if !refNames[end] {
				errs = append(errs, ValidationError{
					Field:   field + ".references",
					Message: fmt.Sprintf("edge class %q must declare a %q reference", c.Name, end),
					Code:    ErrEdgeMissingEndpoint,
				})
			}
		}
	}
	return errs
}

func checkMemberName(name, field, what string, seen map[string]bool) []ValidationError {
	if strings.TrimSpace(name) == "" {
		return []ValidationError{{
			Field:   field + ".name",
			Message: what + " name is required",
			Code:    ErrEmptyName,
		}}
	}
	if seen[name] {
		return []ValidationError{{
			Field:   field + ".name",
			Message: fmt.Sprintf("duplicate %s name: %q", what, name),
			Code:    ErrDuplicateName,
		}}
	}
	seen[name] = true
	return nil
}

// validateExpression parses a constraint and checks that every kindOf
// argument names a classifier.
func validateExpression(m *ir.MetaModel, src, field string) []ValidationError {
	expr, err := constraint.Parse(src)
	if err == nil {
		err = constraint.Check(expr)
	}
	if err != nil {
		return []ValidationError{{
			Field:   field,
			Message: err.Error(),
			Code:    ErrInvalidConstraint,
		}}
	}

	var errs []ValidationError
	for _, name := range constraint.KindNames(expr) {
		if _, _, ok := m.ClassifierByName(name); !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("kindOf(%q) names no classifier", name),
				Code:    ErrUnknownConstraintKind,
			})
		}
	}
	return errs
}

func validateRepresentation(rep *ir.RepresentationMetaModel, m *ir.MetaModel) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(rep.URI) == "" {
		errs = append(errs, ValidationError{
			Field:   "representation.uri",
			Message: "uri is required and must be non-empty",
			Code:    ErrMissingURI,
		})
	}

	used := make(map[int]bool)
	if m != nil {
		for i := range m.Classifiers {
			c := &m.Classifiers[i]
			if c.Representation == nil {
				continue
			}
			r, err := ref.Parse(c.Representation.Ref)
			if err != nil || r.URI != rep.URI || len(r.Segments) != 2 || r.Segments[0] != "representations" {
				continue
			}
			if idx, err := strconv.Atoi(r.Segments[1]); err == nil {
				used[idx] = true
			}
		}
	}

	for i, r := range rep.Representations {
		field := fmt.Sprintf("representation.representations[%d]", i)

		// E120: representation type
		if !ir.ValidRepresentationTypes[r.Type] {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("invalid representation type %q (must be ClassNode or ClassEdge)", r.Type),
				Code:    ErrInvalidRepresentationType,
			})
		}

		// E121: a ClassEdge is drawn as exactly one line
		if r.Type == ir.ClassEdge && len(r.GraphicalItems) != 1 {
			errs = append(errs, ValidationError{
				Field:   field + ".graphicalItems",
				Message: fmt.Sprintf("ClassEdge representation must have exactly one graphical item, got %d", len(r.GraphicalItems)),
				Code:    ErrEdgeItemCount,
			})
		}

		// E122: shapes are required
		for j, g := range r.GraphicalItems {
			if strings.TrimSpace(g.Shape) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.graphicalItems[%d].shape", field, j),
					Message: "shape is required",
					Code:    ErrEmptyShape,
				})
			}
		}

		// E123: unreferenced representations are allowed but suspicious
		if m != nil && !used[i] {
			name := r.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("representation %s is not used by any class", name),
				Code:    ErrUnusedRepresentation,
				Warning: true,
			})
		}
	}

	return errs
}

// generatedBase reports whether name has the <Class><n> shape the engine
// uses for object names, returning <Class>.
func generatedBase(name string) (string, bool) {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) || i == 0 {
		return "", false
	}
	return name[:i], true
}
