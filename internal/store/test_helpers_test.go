package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/modelsync/internal/engine"
	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/testutil"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession creates an engine session persisting into s.
func createTestSession(t *testing.T, s *Store, key string) *engine.Session {
	t.Helper()
	sess, err := engine.NewSession(key, testutil.UMLMetaModel(), testutil.UMLRepresentation(),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithPersister(s),
	)
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	return sess
}

// populate runs a small edit script: two classes, an association, a move.
func populate(t *testing.T, sess *engine.Session) {
	t.Helper()
	if _, err := sess.CreateNode(testutil.ClassName, ir.Position{X: 10, Y: 10}); err != nil {
		t.Fatalf("CreateNode() failed: %v", err)
	}
	if _, err := sess.CreateNode(testutil.ClassName, ir.Position{X: 200, Y: 10}); err != nil {
		t.Fatalf("CreateNode() failed: %v", err)
	}
	if _, err := sess.CreateEdge(testutil.AssociationName, "Class1", "Class2"); err != nil {
		t.Fatalf("CreateEdge() failed: %v", err)
	}
	if _, err := sess.MoveNode("Class1", ir.Position{X: 50, Y: 60}); err != nil {
		t.Fatalf("MoveNode() failed: %v", err)
	}
	sess.Flush()
}

func objectNames(m ir.InstanceModel) []string {
	out := make([]string, len(m.Objects))
	for i, o := range m.Objects {
		out[i] = o.Name
	}
	return out
}
