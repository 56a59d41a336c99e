package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelsync/internal/constraint"
	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/ref"
	"github.com/roach88/modelsync/internal/testutil"
)

func TestCreateNode(t *testing.T) {
	s := newTestSession(t)

	snap, err := s.CreateNode(testutil.ClassifierRef(testutil.ClassName), pos(10, 20))
	require.NoError(t, err)

	require.Len(t, snap.InstanceModel.Objects, 1)
	obj := snap.InstanceModel.Objects[0]
	assert.Equal(t, "Class1", obj.Name)
	assert.Equal(t, testutil.ClassifierRef(testutil.ClassName), obj.Type.Ref)
	assert.Equal(t, ref.ObjectRef(RepresentationInstanceURI(testKey), 0), obj.Representation.Ref)
	assert.NotEmpty(t, obj.ID)
	assert.Empty(t, obj.Links)

	rep := snap.RepresentationInstanceModel.Objects[0]
	assert.Equal(t, ir.ClassNode, rep.Type)
	assert.Equal(t, &ir.Position{X: 10, Y: 20}, rep.Position)
	assert.Equal(t, testutil.UMLRepresentation().Representations[0].GraphicalItems, rep.GraphicalItems)

	assert.Equal(t, int64(1), s.Seq())
	assertConsistent(t, snap)
}

func TestCreateNode_NamesPerClassifier(t *testing.T) {
	s := newTestSession(t)

	mustCreateNode(t, s, testutil.ClassName, pos(0, 0))
	mustCreateNode(t, s, testutil.InterfaceName, pos(0, 0))
	mustCreateNode(t, s, testutil.ClassName, pos(0, 0))

	assert.Equal(t, []string{"Class1", "Interface1", "Class2"}, names(s.Snapshot()))
	assert.Equal(t, []Counter{{Classifier: "Class", Last: 2}, {Classifier: "Interface", Last: 1}}, s.Counters())
}

func TestCreateNode_SkipsTakenNames(t *testing.T) {
	s := newTestSession(t)
	mustCreateNode(t, s, testutil.ClassName, pos(0, 0))

	state, err := s.State()
	require.NoError(t, err)
	state.Counters = nil // lost counters must not reissue Class1

	restored, err := Restore(state, s.MetaModel(), s.RepresentationMetaModel(), WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, "Class2", mustCreateNode(t, restored, testutil.ClassName, pos(0, 0)))
}

func TestCreateNode_GraphicalItemsAreCopies(t *testing.T) {
	s := newTestSession(t)
	mustCreateNode(t, s, testutil.ClassName, pos(0, 0))

	s.repInst.Objects[0].GraphicalItems[0].Style["fill"] = "#000000"

	assert.Equal(t, "#ffffff", s.RepresentationMetaModel().Representations[0].GraphicalItems[0].Style["fill"])
}

func TestCreateNode_Errors(t *testing.T) {
	tests := []struct {
		name       string
		classifier string
		position   ir.Position
		code       ErrorCode
	}{
		{"unknown name", "Nope", pos(0, 0), ErrCodeClassifierNotFound},
		{"dangling ref", testutil.MetaURI + "#/classifiers/42", pos(0, 0), ErrCodeClassifierNotFound},
		{"foreign ref", "urn:other#/classifiers/0", pos(0, 0), ErrCodeClassifierNotFound},
		{"data type", testutil.StringName, pos(0, 0), ErrCodeClassifierNotFound},
		{"no representation", testutil.CommentName, pos(0, 0), ErrCodeWrongRepresentation},
		{"edge class", testutil.AssociationName, pos(0, 0), ErrCodeWrongRepresentation},
		{"nan", testutil.ClassName, pos(math.NaN(), 0), ErrCodeInvalidPosition},
		{"inf", testutil.ClassName, pos(0, math.Inf(-1)), ErrCodeInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			before := ir.MustSnapshotDigest(s.Snapshot())

			_, err := s.CreateNode(tt.classifier, tt.position)
			require.Error(t, err)
			assert.True(t, IsCode(err, tt.code), "got %v", err)

			assert.Equal(t, before, ir.MustSnapshotDigest(s.Snapshot()))
			assert.Equal(t, int64(0), s.Seq())
			assert.Empty(t, s.Operations())
		})
	}
}

func TestCreateNode_AbstractClass(t *testing.T) {
	meta := testutil.UMLMetaModel()
	meta.Classifiers[0].IsAbstract = true
	s, err := NewSession(testKey, meta, testutil.UMLRepresentation(), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = s.CreateNode(testutil.ClassName, pos(0, 0))
	assert.True(t, IsCode(err, ErrCodeClassifierNotFound))
}

func TestCreateNode_DanglingRepresentation(t *testing.T) {
	meta := testutil.UMLMetaModel()
	meta.Classifiers[0].Representation = ir.NewRef(testutil.RepresentationURI + "#/representations/9")
	s, err := NewSession(testKey, meta, testutil.UMLRepresentation(), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = s.CreateNode(testutil.ClassName, pos(0, 0))
	assert.True(t, IsCode(err, ErrCodeDanglingReference))
	assert.True(t, ref.IsDangling(err))
}

func TestCreateNode_DefaultAttributes(t *testing.T) {
	meta := testutil.UMLMetaModel()
	meta.Classifiers[0].Attributes = append(meta.Classifiers[0].Attributes,
		ir.Attribute{Name: "visibility", Type: testutil.StringName, Default: "public"})
	s, err := NewSession(testKey, meta, testutil.UMLRepresentation(), WithLogger(quietLogger()))
	require.NoError(t, err)

	snap, err := s.CreateNode(testutil.ClassName, pos(0, 0))
	require.NoError(t, err)

	v, ok := snap.InstanceModel.Objects[0].Attribute("visibility")
	require.True(t, ok)
	assert.Equal(t, "public", v)
	_, ok = snap.InstanceModel.Objects[0].Attribute("name")
	assert.False(t, ok, "attributes without default stay unset")
}

func TestCreateEdge(t *testing.T) {
	s := newTestSession(t)
	a := mustCreateNode(t, s, testutil.ClassName, pos(0, 0))
	b := mustCreateNode(t, s, testutil.ClassName, pos(100, 0))

	snap, err := s.CreateEdge(testutil.AssociationName, a, b)
	require.NoError(t, err)

	require.Len(t, snap.InstanceModel.Objects, 3)
	edge := snap.InstanceModel.Objects[2]
	assert.Equal(t, "Association1", edge.Name)
	assert.Equal(t, []ir.ReferenceValue{
		{Name: ir.LinkSource, Target: ir.Ref{Ref: ref.ObjectRef(InstanceURI(testKey), 0)}},
		{Name: ir.LinkTarget, Target: ir.Ref{Ref: ref.ObjectRef(InstanceURI(testKey), 1)}},
	}, edge.Links)

	rep := snap.RepresentationInstanceModel.Objects[2]
	assert.Equal(t, ir.ClassEdge, rep.Type)
	assert.Nil(t, rep.Position)
	assert.Len(t, rep.GraphicalItems, 1)

	assertConsistent(t, snap)
}

func TestCreateEdge_Errors(t *testing.T) {
	s := newTestSession(t)
	a := mustCreateNode(t, s, testutil.ClassName, pos(0, 0))
	b := mustCreateNode(t, s, testutil.ClassName, pos(0, 0))
	e := mustCreateEdge(t, s, testutil.AssociationName, a, b)

	tests := []struct {
		name       string
		classifier string
		source     string
		target     string
		code       ErrorCode
	}{
		{"missing source", testutil.AssociationName, "Ghost", b, ErrCodeObjectNotFound},
		{"missing target", testutil.AssociationName, a, "Ghost", ErrCodeObjectNotFound},
		{"edge endpoint", testutil.AssociationName, a, e, ErrCodeInvalidEndpoint},
		{"node class", testutil.ClassName, a, b, ErrCodeWrongRepresentation},
		{"unknown class", "Nope", a, b, ErrCodeClassifierNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ir.MustSnapshotDigest(s.Snapshot())
			_, err := s.CreateEdge(tt.classifier, tt.source, tt.target)
			assert.True(t, IsCode(err, tt.code), "got %v", err)
			assert.Equal(t, before, ir.MustSnapshotDigest(s.Snapshot()))
		})
	}
}

func TestCreateEdge_Constraints(t *testing.T) {
	s := newTestSession(t)
	class := mustCreateNode(t, s, testutil.ClassName, pos(0, 0))
	iface := mustCreateNode(t, s, testutil.InterfaceName, pos(0, 0))

	_, err := s.CreateEdge(testutil.RealizationName, iface, class)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))
	assert.Equal(t, 0, s.counters[testutil.RealizationName], "failed create issues no name")

	name := mustCreateEdge(t, s, testutil.RealizationName, class, iface)
	assert.Equal(t, "Realization1", name)
	assert.Equal(t, iface, linkTarget(t, s.Snapshot(), name, ir.LinkTarget))
}

func TestCreateEdge_ReferenceConstraint(t *testing.T) {
	meta := testutil.UMLMetaModel()
	meta.Classifiers[2].References[1].Constraint = `target.kindOf("Interface")`
	s, err := NewSession(testKey, meta, testutil.UMLRepresentation(), WithLogger(quietLogger()))
	require.NoError(t, err)

	a := mustCreateNode(t, s, testutil.ClassName, pos(0, 0))
	b := mustCreateNode(t, s, testutil.ClassName, pos(0, 0))
	i := mustCreateNode(t, s, testutil.InterfaceName, pos(0, 0))

	_, err = s.CreateEdge(testutil.AssociationName, a, b)
	assert.True(t, IsConstraintViolation(err))

	_, err = s.CreateEdge(testutil.AssociationName, a, i)
	assert.NoError(t, err)
}

func TestCreateEdge_UnsupportedConstraint(t *testing.T) {
	meta := testutil.UMLMetaModel()
	meta.Classifiers[2].Constraints = []ir.Constraint{{Name: "negated", Expression: `!source.kindOf("Class")`}}
	s, err := NewSession(testKey, meta, testutil.UMLRepresentation(), WithLogger(quietLogger()))
	require.NoError(t, err)

	a := mustCreateNode(t, s, testutil.ClassName, pos(0, 0))
	b := mustCreateNode(t, s, testutil.ClassName, pos(0, 0))

	_, err = s.CreateEdge(testutil.AssociationName, a, b)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))
	assert.True(t, errors.Is(err, constraint.ErrUnsupported))
	assert.Len(t, s.Snapshot().InstanceModel.Objects, 2)
}
