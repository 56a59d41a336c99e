package harness

import "github.com/roach88/modelsync/internal/ir"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int       `json:"step"`
	Seq     int64     `json:"seq,omitempty"` // 0 for failed steps
	Op      ir.OpKind `json:"op"`
	Name    string    `json:"name,omitempty"`  // object created, moved or deleted
	Error   string    `json:"error,omitempty"` // engine error code
	Objects []string  `json:"objects"`         // instance object names after the step
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Snapshot is the final instance/representation pair.
	Snapshot ir.Snapshot `json:"snapshot"`

	// Digest is the final snapshot digest.
	Digest string `json:"digest"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
