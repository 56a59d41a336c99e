package ir

// Snapshot is the instance/representation pair returned by every engine
// operation. Snapshots are deep copies; holders may keep them indefinitely.
type Snapshot struct {
	InstanceModel               InstanceModel               `json:"instanceModel"`
	RepresentationInstanceModel RepresentationInstanceModel `json:"representationInstanceModel"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		InstanceModel:               *s.InstanceModel.Clone(),
		RepresentationInstanceModel: *s.RepresentationInstanceModel.Clone(),
	}
}

// OpKind names a UI-facing engine operation.
type OpKind string

const (
	OpCreateNode OpKind = "createNode"
	OpCreateEdge OpKind = "createEdge"
	OpMoveNode   OpKind = "moveNode"
	OpDeleteNode OpKind = "deleteNode"
)

// ValidOpKinds defines the recognised operation kinds.
var ValidOpKinds = map[OpKind]bool{
	OpCreateNode: true,
	OpCreateEdge: true,
	OpMoveNode:   true,
	OpDeleteNode: true,
}

// Operation is one committed entry of a session's operation log.
// Position is the effective position after fallback, so replay is exact.
type Operation struct {
	Seq        int64     `json:"seq"` // Logical clock
	Kind       OpKind    `json:"kind"`
	Classifier string    `json:"classifier,omitempty"` // Classifier ref (create ops)
	Name       string    `json:"name,omitempty"`       // Created, moved or deleted object
	Source     string    `json:"source,omitempty"`     // Edge source object name
	Target     string    `json:"target,omitempty"`     // Edge target object name
	Position   *Position `json:"position,omitempty"`
	ObjectID   string    `json:"objectId,omitempty"`
}

// SessionState is the persisted form of an editing session.
type SessionState struct {
	Key                     string         `json:"key"`
	Seq                     int64          `json:"seq"`
	MetaModel               string         `json:"metaModel"`               // Meta-model URI
	RepresentationMetaModel string         `json:"representationMetaModel"` // Representation meta-model URI
	Snapshot                Snapshot       `json:"snapshot"`
	Counters                map[string]int `json:"counters"` // Classifier name -> last issued suffix
	Digest                  string         `json:"digest"`
}
