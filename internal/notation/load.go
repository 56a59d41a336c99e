package notation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/modelsync/internal/ir"
)

// Notation is a loaded notation document.
type Notation struct {
	MetaModel      *ir.MetaModel               `json:"metaModel"`
	Representation *ir.RepresentationMetaModel `json:"representation"`

	// Source is the file or directory the document was loaded from.
	Source string `json:"-"`
}

// Load error codes (E001-E009).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Path not found
	ErrCodeNoFiles     = "E003" // No CUE files in directory
	ErrCodeFormat      = "E004" // Unknown file extension
	ErrCodeParseFailed = "E005" // Syntax error in the document
	ErrCodeBuildFailed = "E006" // CUE evaluation failed
	ErrCodeDecode      = "E007" // Document does not match the notation schema
	ErrCodeMissingPart = "E008" // metaModel or representation missing
)

// LoadError represents an error that occurred while loading a document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Line    int       // YAML line if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a notation document from a file or a directory of CUE files.
func Load(path string) (*Notation, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("notation not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing notation: %v", err)}
	}

	var doc []byte
	if info.IsDir() {
		doc, err = cueDirToJSON(path)
	} else {
		doc, err = fileToJSON(path)
	}
	if err != nil {
		return nil, err
	}

	n, err := decode(doc)
	if err != nil {
		return nil, err
	}
	n.Source = path
	return n, nil
}

// Parse decodes a notation document held in memory. format is a file
// extension: "json", "yaml", "yml" or "cue".
func Parse(data []byte, format string) (*Notation, error) {
	doc, err := toJSON(data, strings.TrimPrefix(format, "."), "<input>")
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func fileToJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return toJSON(data, strings.TrimPrefix(filepath.Ext(path), "."), path)
}

func toJSON(data []byte, format, filename string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return data, nil
	case "yaml", "yml":
		return yamlToJSON(data)
	case "cue":
		v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
		return cueToJSON(v)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported notation format %q (want json, yaml or cue)", format)}
	}
}

// yamlToJSON converts through a generic value so the ir json tags apply
// to YAML documents too.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), Line: yamlErrorLine(err.Error())}
	}
	v, err := stringKeys(v)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	return out, nil
}

// stringKeys rejects mappings with non-string keys, which have no JSON
// equivalent.
func stringKeys(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			conv, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			t[k] = conv
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("mapping key %v is not a string", k)
			}
			conv, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			out[ks] = conv
		}
		return out, nil
	case []any:
		for i, e := range t {
			conv, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			t[i] = conv
		}
		return t, nil
	default:
		return v, nil
	}
}

// yamlErrorLine extracts N from "yaml: line N: ..." messages.
func yamlErrorLine(msg string) int {
	var line int
	if _, err := fmt.Sscanf(msg, "yaml: line %d:", &line); err != nil {
		return 0
	}
	return line
}

// cueDirToJSON loads all .cue files of a directory as one CUE package.
func cueDirToJSON(dir string) ([]byte, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueLoadError(ErrCodeParseFailed, inst.Err)
	}
	return cueToJSON(cuecontext.New().BuildInstance(inst))
}

func cueToJSON(v cue.Value) ([]byte, error) {
	if err := v.Err(); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, err)
	}
	return out, nil
}

// cueLoadError keeps the position of the first CUE error.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: cueerrors.Details(err, nil)}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		le.Pos = errs[0].Position()
	}
	return le
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func decode(doc []byte) (*Notation, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()

	var n Notation
	if err := dec.Decode(&n); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	if n.MetaModel == nil {
		return nil, &LoadError{Code: ErrCodeMissingPart, Message: "metaModel is required"}
	}
	if n.Representation == nil {
		return nil, &LoadError{Code: ErrCodeMissingPart, Message: "representation is required"}
	}
	n.normalize()
	return &n, nil
}

// normalize replaces nil sequences with empty ones and NFC-normalizes
// names so later name lookups match the canonical form.
func (n *Notation) normalize() {
	if n.MetaModel.Classifiers == nil {
		n.MetaModel.Classifiers = []ir.Classifier{}
	}
	for i := range n.MetaModel.Classifiers {
		c := &n.MetaModel.Classifiers[i]
		c.Name = ir.NormalizeName(c.Name)
		for j := range c.Attributes {
			c.Attributes[j].Name = ir.NormalizeName(c.Attributes[j].Name)
		}
		for j := range c.References {
			c.References[j].Name = ir.NormalizeName(c.References[j].Name)
		}
	}
	if n.Representation.Representations == nil {
		n.Representation.Representations = []ir.Representation{}
	}
	for i := range n.Representation.Representations {
		r := &n.Representation.Representations[i]
		if r.GraphicalItems == nil {
			r.GraphicalItems = []ir.GraphicalItem{}
		}
	}
}
