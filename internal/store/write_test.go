package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/modelsync/internal/ir"
)

func TestSaveSession_SeqGuard(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess := createTestSession(t, s, "guard")
	populate(t, sess)

	latest, err := sess.State()
	if err != nil {
		t.Fatalf("State() failed: %v", err)
	}

	stale := latest
	stale.Seq = latest.Seq - 1
	stale.Snapshot = ir.Snapshot{
		InstanceModel:               ir.InstanceModel{URI: latest.Snapshot.InstanceModel.URI, Objects: []ir.InstanceObject{}},
		RepresentationInstanceModel: ir.RepresentationInstanceModel{URI: latest.Snapshot.RepresentationInstanceModel.URI, Objects: []ir.RepresentationInstanceObject{}},
	}
	stale.Digest = ir.MustSnapshotDigest(stale.Snapshot)

	written, err := s.SaveSession(ctx, stale)
	if err != nil {
		t.Fatalf("SaveSession() failed: %v", err)
	}
	if written {
		t.Error("stale state should not overwrite a newer one")
	}

	loaded, err := s.LoadSession(ctx, "guard")
	if err != nil {
		t.Fatalf("LoadSession() failed: %v", err)
	}
	if loaded.Seq != latest.Seq {
		t.Errorf("Seq = %d, want %d", loaded.Seq, latest.Seq)
	}
	if loaded.Digest != latest.Digest {
		t.Errorf("Digest = %s, want %s", loaded.Digest, latest.Digest)
	}
}

func TestSaveSession_NewSessionWritten(t *testing.T) {
	s := createTestStore(t)
	snap := ir.Snapshot{
		InstanceModel:               ir.InstanceModel{URI: "urn:session:empty/instance", Objects: []ir.InstanceObject{}},
		RepresentationInstanceModel: ir.RepresentationInstanceModel{URI: "urn:session:empty/representation", Objects: []ir.RepresentationInstanceObject{}},
	}
	state := ir.SessionState{Key: "empty", Snapshot: snap, Digest: ir.MustSnapshotDigest(snap)}

	written, err := s.SaveSession(context.Background(), state)
	if err != nil {
		t.Fatalf("SaveSession() failed: %v", err)
	}
	if !written {
		t.Error("first save should be written")
	}

	loaded, err := s.LoadSession(context.Background(), "empty")
	if err != nil {
		t.Fatalf("LoadSession() failed: %v", err)
	}
	if loaded.Counters == nil {
		t.Error("Counters should load as an empty map")
	}
	if len(loaded.Snapshot.InstanceModel.Objects) != 0 {
		t.Errorf("Objects = %d, want 0", len(loaded.Snapshot.InstanceModel.Objects))
	}
}

func TestAppendOperation_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess := createTestSession(t, s, "idem")
	populate(t, sess)

	ops := sess.Operations()
	if err := s.AppendOperation(ctx, "idem", ops[0]); err != nil {
		t.Fatalf("AppendOperation() failed: %v", err)
	}

	stored, err := s.ReadOperations(ctx, "idem")
	if err != nil {
		t.Fatalf("ReadOperations() failed: %v", err)
	}
	if len(stored) != len(ops) {
		t.Errorf("ReadOperations() returned %d ops, want %d", len(stored), len(ops))
	}
}

func TestAppendOperation_RequiresSession(t *testing.T) {
	s := createTestStore(t)
	pos := ir.Position{X: 1, Y: 1}
	op := ir.Operation{Seq: 1, Kind: ir.OpCreateNode, Classifier: "Class", Name: "Class1", Position: &pos}

	if err := s.AppendOperation(context.Background(), "missing", op); err == nil {
		t.Fatal("AppendOperation() should fail without a session row")
	}
}

func TestPersist_ThroughSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess := createTestSession(t, s, "persist")
	populate(t, sess)

	state, err := s.LoadSession(ctx, "persist")
	if err != nil {
		t.Fatalf("LoadSession() failed: %v", err)
	}
	want, _ := sess.State()
	if state.Seq != want.Seq {
		t.Errorf("Seq = %d, want %d", state.Seq, want.Seq)
	}
	if state.Digest != want.Digest {
		t.Errorf("Digest mismatch: %s vs %s", state.Digest, want.Digest)
	}
	if got := objectNames(state.Snapshot.InstanceModel); len(got) != 3 {
		t.Errorf("objects = %v, want 3", got)
	}
	if state.Counters["Class"] != 2 {
		t.Errorf("Counters[Class] = %d, want 2", state.Counters["Class"])
	}
	if state.MetaModel != sess.MetaModel().URI {
		t.Errorf("MetaModel = %s, want %s", state.MetaModel, sess.MetaModel().URI)
	}
}

func TestDeleteSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess := createTestSession(t, s, "gone")
	populate(t, sess)

	if err := s.DeleteSession(ctx, "gone"); err != nil {
		t.Fatalf("DeleteSession() failed: %v", err)
	}
	if _, err := s.LoadSession(ctx, "gone"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("LoadSession() after delete = %v, want ErrSessionNotFound", err)
	}

	ops, err := s.ReadOperations(ctx, "gone")
	if err != nil {
		t.Fatalf("ReadOperations() failed: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("operations should cascade, got %d", len(ops))
	}

	if err := s.DeleteSession(ctx, "gone"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second DeleteSession() = %v, want ErrSessionNotFound", err)
	}
}
