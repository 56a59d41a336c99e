package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modelsync/internal/ir"
)

// Scenario defines an editing scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Notation is the path of the notation document to load.
	// Relative paths are resolved against the scenario file location.
	Notation string `yaml:"notation"`

	// Session is the session key. Defaults to Name.
	Session string `yaml:"session,omitempty"`

	// Steps are the UI operations, executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final models.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one engine operation.
type Step struct {
	// Op is createNode, createEdge, moveNode or deleteNode.
	Op ir.OpKind `yaml:"op"`

	// Classifier is a classifier ref or bare class name (create ops).
	Classifier string `yaml:"classifier,omitempty"`

	// Name is the object to move or delete.
	Name string `yaml:"name,omitempty"`

	// Source and Target are endpoint object names (createEdge).
	Source string `yaml:"source,omitempty"`
	Target string `yaml:"target,omitempty"`

	// Position is required by createNode and moveNode. YAML .nan and
	// .inf values are accepted to exercise position recovery.
	Position *ir.Position `yaml:"position,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Name is the expected name of the created object.
	Name string `yaml:"name,omitempty"`

	// Error is the expected engine error code (e.g. CONSTRAINT_VIOLATED).
	// Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final models.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Names is the expected object name list (object_names).
	Names []string `yaml:"names,omitempty"`

	// Count is the expected object count (object_count) or op count (stored).
	Count int `yaml:"count,omitempty"`

	// Object is the object under test (link, no_link, position, attribute).
	Object string `yaml:"object,omitempty"`

	// Link is the link name (link, no_link).
	Link string `yaml:"link,omitempty"`

	// Target is the expected link target object name (link).
	Target string `yaml:"target,omitempty"`

	// Position is the expected representation position (position).
	Position *ir.Position `yaml:"position,omitempty"`

	// Attribute and Value check an attribute (attribute).
	Attribute string `yaml:"attribute,omitempty"`
	Value     any    `yaml:"value,omitempty"`

	// Seq is the expected stored seq (stored).
	Seq int64 `yaml:"seq,omitempty"`
}

// Assertion type constants.
const (
	AssertObjectNames = "object_names"
	AssertObjectCount = "object_count"
	AssertLink        = "link"
	AssertNoLink      = "no_link"
	AssertPosition    = "position"
	AssertAttribute   = "attribute"
	AssertConsistent  = "consistent"
	AssertStored      = "stored"
	AssertReplay      = "replay"
)

// LoadScenario reads and parses a scenario YAML file.
// The notation path is resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the notation path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Notation != "" && !filepath.IsAbs(scenario.Notation) && basePath != "" {
		scenario.Notation = filepath.Join(basePath, scenario.Notation)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.Session == "" {
		scenario.Session = scenario.Name
	}
	return &scenario, nil
}

// validateScenario checks required fields and step/assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Notation == "" {
		return fmt.Errorf("notation is required")
	}
	for i, step := range s.Steps {
		if err := validateStep(step, i); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a, i); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step, index int) error {
	switch step.Op {
	case ir.OpCreateNode:
		if step.Classifier == "" {
			return fmt.Errorf("steps[%d]: classifier is required for createNode", index)
		}
		if step.Position == nil {
			return fmt.Errorf("steps[%d]: position is required for createNode", index)
		}
	case ir.OpCreateEdge:
		if step.Classifier == "" || step.Source == "" || step.Target == "" {
			return fmt.Errorf("steps[%d]: classifier, source and target are required for createEdge", index)
		}
	case ir.OpMoveNode:
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for moveNode", index)
		}
		if step.Position == nil {
			return fmt.Errorf("steps[%d]: position is required for moveNode", index)
		}
	case ir.OpDeleteNode:
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for deleteNode", index)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	return nil
}

func validateAssertion(a Assertion, index int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertObjectNames:
		if a.Names == nil {
			return fmt.Errorf("assertions[%d]: names is required for object_names", index)
		}
	case AssertObjectCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for object_count", index)
		}
	case AssertLink:
		if a.Object == "" || a.Link == "" || a.Target == "" {
			return fmt.Errorf("assertions[%d]: object, link and target are required for link", index)
		}
	case AssertNoLink:
		if a.Object == "" || a.Link == "" {
			return fmt.Errorf("assertions[%d]: object and link are required for no_link", index)
		}
	case AssertPosition:
		if a.Object == "" || a.Position == nil {
			return fmt.Errorf("assertions[%d]: object and position are required for position", index)
		}
	case AssertAttribute:
		if a.Object == "" || a.Attribute == "" {
			return fmt.Errorf("assertions[%d]: object and attribute are required for attribute", index)
		}
	case AssertConsistent, AssertStored, AssertReplay:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// Operation converts the step into an engine operation.
func (s Step) Operation() ir.Operation {
	op := ir.Operation{
		Kind:       s.Op,
		Classifier: s.Classifier,
		Name:       s.Name,
		Source:     s.Source,
		Target:     s.Target,
	}
	if s.Position != nil {
		p := *s.Position
		op.Position = &p
	}
	return op
}
