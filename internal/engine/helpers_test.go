package engine

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/ref"
	"github.com/roach88/modelsync/internal/testutil"
)

const testKey = "test"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(testKey, testutil.UMLMetaModel(), testutil.UMLRepresentation(),
		append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return s
}

func pos(x, y float64) ir.Position { return ir.Position{X: x, Y: y} }

func mustCreateNode(t *testing.T, s *Session, class string, p ir.Position) string {
	t.Helper()
	snap, err := s.CreateNode(class, p)
	require.NoError(t, err)
	objs := snap.InstanceModel.Objects
	return objs[len(objs)-1].Name
}

func mustCreateEdge(t *testing.T, s *Session, class, source, target string) string {
	t.Helper()
	snap, err := s.CreateEdge(class, source, target)
	require.NoError(t, err)
	objs := snap.InstanceModel.Objects
	return objs[len(objs)-1].Name
}

func names(snap ir.Snapshot) []string {
	out := make([]string, len(snap.InstanceModel.Objects))
	for i, o := range snap.InstanceModel.Objects {
		out[i] = o.Name
	}
	return out
}

// assertConsistent checks positional correspondence and that every link
// resolves to an object of the instance package.
func assertConsistent(t *testing.T, snap ir.Snapshot) {
	t.Helper()
	inst := &snap.InstanceModel
	rep := &snap.RepresentationInstanceModel
	require.Len(t, rep.Objects, len(inst.Objects))

	for i := range inst.Objects {
		obj := &inst.Objects[i]
		require.NotNil(t, obj.Representation, obj.Name)
		n, err := ref.Resolve(rep, obj.Representation.Ref)
		require.NoError(t, err, obj.Name)
		assert.Same(t, &rep.Objects[i], n, "%s is drawn by index %d", obj.Name, i)

		for _, l := range obj.Links {
			_, err := ref.ResolveAs[*ir.InstanceObject](inst, l.Target.Ref)
			assert.NoError(t, err, "%s.%s", obj.Name, l.Name)
		}
	}
}

func linkTarget(t *testing.T, snap ir.Snapshot, name, link string) string {
	t.Helper()
	k := snap.InstanceModel.IndexOf(name)
	require.GreaterOrEqual(t, k, 0, name)
	l, ok := snap.InstanceModel.Objects[k].Link(link)
	require.True(t, ok, "%s has no %s link", name, link)
	target, err := ref.ResolveAs[*ir.InstanceObject](&snap.InstanceModel, l.Target.Ref)
	require.NoError(t, err)
	return target.Name
}
