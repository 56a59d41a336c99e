package ref

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/testutil"
)

const (
	instURI = "urn:session:test/instance"
	repURI  = "urn:session:test/representation"
)

func sampleInstance() *ir.InstanceModel {
	return &ir.InstanceModel{
		URI: instURI,
		Objects: []ir.InstanceObject{
			{
				Name:           "Class1",
				Type:           ir.Ref{Ref: testutil.ClassifierRef(testutil.ClassName)},
				Attributes:     []ir.AttributeValue{{Name: "name", Value: "Order"}, {Name: "meta", Value: map[string]any{"tags": []any{"a", "b"}}}},
				Links:          []ir.ReferenceValue{},
				Representation: ir.NewRef(ObjectRef(repURI, 0)),
			},
			{
				Name:           "Association1",
				Type:           ir.Ref{Ref: testutil.ClassifierRef(testutil.AssociationName)},
				Attributes:     []ir.AttributeValue{},
				Links:          []ir.ReferenceValue{{Name: ir.LinkSource, Target: ir.Ref{Ref: ObjectRef(instURI, 0)}}},
				Representation: ir.NewRef(ObjectRef(repURI, 1)),
			},
		},
	}
}

func TestResolve_InstanceNodes(t *testing.T) {
	m := sampleInstance()

	n, err := Resolve(m, instURI+"#/objects/0")
	require.NoError(t, err)
	obj, ok := n.(*ir.InstanceObject)
	require.True(t, ok)
	assert.Equal(t, "Class1", obj.Name)
	assert.Same(t, &m.Objects[0], obj, "resolution returns the node in place")

	n, err = Resolve(m, instURI+"#/objects/0/attributes/0")
	require.NoError(t, err)
	assert.Equal(t, ir.KindAttributeValue, n.NodeKind())

	n, err = Resolve(m, instURI+"#/objects/0/attributes/0/value")
	require.NoError(t, err)
	assert.Equal(t, "Order", n.(*ir.Leaf).Value)

	n, err = Resolve(m, instURI+"#/objects/0/attributes/1/value/tags/1")
	require.NoError(t, err)
	assert.Equal(t, "b", n.(*ir.Leaf).Value)

	n, err = Resolve(m, instURI+"#/objects/1/links/0/target/$ref")
	require.NoError(t, err)
	assert.Equal(t, ObjectRef(instURI, 0), n.(*ir.Leaf).Value)

	n, err = Resolve(m, instURI)
	require.NoError(t, err)
	assert.Same(t, m, n)
}

func TestResolve_MetaModelNodes(t *testing.T) {
	meta := testutil.UMLMetaModel()
	rep := testutil.UMLRepresentation()

	cls, err := ResolveAs[*ir.Classifier](meta, testutil.ClassifierRef(testutil.RealizationName))
	require.NoError(t, err)
	assert.Equal(t, testutil.RealizationName, cls.Name)

	c, err := ResolveAs[*ir.Constraint](meta, testutil.MetaURI+"#/classifiers/3/constraints/0")
	require.NoError(t, err)
	assert.Equal(t, testutil.RealizationConstraint, c.Expression)

	r, err := ResolveAs[*ir.Representation](rep, cls.Representation.Ref)
	require.NoError(t, err)
	assert.Equal(t, ir.ClassEdge, r.Type)

	n, err := Resolve(rep, testutil.RepresentationURI+"#/representations/0/graphicalItems/0/style/fill")
	require.NoError(t, err)
	assert.Equal(t, "#ffffff", n.(*ir.Leaf).Value)

	n, err = Resolve(rep, testutil.RepresentationURI+"#/representations/0/graphicalItems/1/position/y")
	require.NoError(t, err)
	assert.Equal(t, 16.0, n.(*ir.Leaf).Value)
}

func TestResolve_Mismatch(t *testing.T) {
	m := sampleInstance()

	_, err := Resolve(m, "urn:elsewhere#/objects/0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReferenceMismatch))
	assert.False(t, IsDangling(err))

	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "urn:elsewhere", me.URI)
	assert.Equal(t, instURI, me.PackageURI)
}

func TestResolve_DanglingCauses(t *testing.T) {
	m := sampleInstance()
	m.Objects[1].Representation = nil

	tests := []struct {
		pointer  string
		position int
		cause    Cause
	}{
		{"/objects/7", 1, CauseIndexOutOfRange},
		{"/objects/x", 1, CauseNotAnIndex},
		{"/objects/0/colour", 2, CauseUnknownField},
		{"/objects/1/representation", 2, CauseAbsent},
		{"/objects/0/name/first", 3, CauseNotTraversable},
		{"/nothing", 0, CauseUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.pointer, func(t *testing.T) {
			_, err := Resolve(m, instURI+"#"+tt.pointer)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDanglingReference))

			var de *DanglingError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.cause, de.Cause)
			assert.Equal(t, tt.position, de.Position)
		})
	}
}

func TestResolveAs_WrongKind(t *testing.T) {
	m := sampleInstance()

	_, err := ResolveAs[*ir.Classifier](m, instURI+"#/objects/0")
	var de *DanglingError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CauseWrongKind, de.Cause)
}

func TestResolveAny_RoutesToOwner(t *testing.T) {
	meta := testutil.UMLMetaModel()
	rep := testutil.UMLRepresentation()
	inst := sampleInstance()

	n, owner, err := ResolveAny(testutil.RepresentationURI+"#/representations/1", meta, inst, rep)
	require.NoError(t, err)
	assert.Same(t, rep, owner)
	assert.Equal(t, "InterfaceBox", n.(*ir.Representation).Name)

	_, _, err = ResolveAny("urn:nowhere#/x", meta, rep)
	assert.True(t, IsMismatch(err))

	_, owner, err = ResolveAny(testutil.MetaURI+"#/classifiers/99", meta, rep)
	assert.True(t, IsDangling(err))
	assert.Same(t, meta, owner)
}

func TestResolve_Idempotent(t *testing.T) {
	m := sampleInstance()
	raw := instURI + "#/objects/1/links/0"

	first, err1 := Resolve(m, raw)
	second, err2 := Resolve(m, raw)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Same(t, first, second)

	_, err1 = Resolve(m, instURI+"#/objects/9")
	_, err2 = Resolve(m, instURI+"#/objects/9")
	assert.Equal(t, err1, err2)
}

func TestResolve_ConcurrentReaders(t *testing.T) {
	meta := testutil.UMLMetaModel()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cls, err := ResolveAs[*ir.Classifier](meta, testutil.ClassifierRef(testutil.InterfaceName))
			if assert.NoError(t, err) {
				assert.True(t, cls.IsInterface)
			}
		}()
	}
	wg.Wait()
}
