package constraint

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/ref"
	"github.com/roach88/modelsync/internal/testutil"
)

func object(name, classifier string) *ir.InstanceObject {
	return &ir.InstanceObject{Name: name, Type: ir.Ref{Ref: testutil.ClassifierRef(classifier)}}
}

func TestEvaluate_KindOf(t *testing.T) {
	meta := testutil.UMLMetaModel()
	class := object("Class1", testutil.ClassName)
	iface := object("Interface1", testutil.InterfaceName)
	expr := MustParse(testutil.RealizationConstraint)

	v, err := Evaluate(expr, Context{Source: class, Target: iface}, meta)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = Evaluate(expr, Context{Source: iface, Target: class}, meta)
	require.NoError(t, err)
	assert.Equal(t, Bool(false), v)
}

func TestEvaluate_SelfAliases(t *testing.T) {
	ev := NewEvaluator(testutil.UMLMetaModel())
	ctx := Context{Source: object("A", testutil.ClassName), Target: object("B", testutil.InterfaceName)}

	ok, err := ev.Check(`self.source.kindOf("Class") and self.target.kindOf("Interface")`, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Check(`self.source == source and source != target`, ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	ev := NewEvaluator(testutil.UMLMetaModel())
	ctx := Context{Source: object("A", testutil.ClassName)}

	// the right operands would fail with an unsupported method
	ok, err := ev.Check(`false and source.typeName("x")`, ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ev.Check(`true or source.typeName("x")`, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = ev.Check(`true and source.typeName("x")`, ctx)
	assert.True(t, IsUnsupported(err))
}

func TestEvaluate_Comparisons(t *testing.T) {
	ev := NewEvaluator()
	tests := []struct {
		src  string
		want bool
	}{
		{`1 < 2`, true},
		{`2 <= 2`, true},
		{`3 > 4`, false},
		{`"b" >= "a"`, true},
		{`1 == 1`, true},
		{`1 == "1"`, false},
		{`1 !== "1"`, true},
		{`true === true`, true},
		{`source == target`, true},
		{`false, 1 < 2`, true},
		{`(1 > 2, true) and 1 == 1`, true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ev.Check(tt.src, Context{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_TypeErrors(t *testing.T) {
	ev := NewEvaluator(testutil.UMLMetaModel())
	ctx := Context{Source: object("A", testutil.ClassName)}

	for _, src := range []string{
		`1 and true`,
		`false or "x"`,
		`true and 2`,
		`1 < "a"`,
		`source < source`,
		`source.kindOf(1)`,
		`source.kindOf()`,
		`"x"`,
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ev.Check(src, ctx)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrType), "got %v", err)
		})
	}
}

func TestEvaluate_Unsupported(t *testing.T) {
	ev := NewEvaluator(testutil.UMLMetaModel())
	ctx := Context{Source: object("A", testutil.ClassName)}

	for _, src := range []string{
		`self.kindOf("Class")`,
		`other.kindOf("Class")`,
		`source.name == "A"`,
		`source.typeName() == "Class"`,
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ev.Check(src, ctx)
			assert.True(t, IsUnsupported(err), "got %v", err)
		})
	}
}

func TestEvaluate_UnboundEndpoint(t *testing.T) {
	ev := NewEvaluator(testutil.UMLMetaModel())

	ok, err := ev.Check(`target.kindOf("Interface")`, Context{Source: object("A", testutil.ClassName)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_UnresolvableType(t *testing.T) {
	ev := NewEvaluator(testutil.UMLMetaModel())

	broken := &ir.InstanceObject{Name: "X", Type: ir.Ref{Ref: testutil.MetaURI + "#/classifiers/42"}}
	_, err := ev.Check(`source.kindOf("Class")`, Context{Source: broken})
	require.Error(t, err)
	assert.True(t, ref.IsDangling(err))

	foreign := &ir.InstanceObject{Name: "Y", Type: ir.Ref{Ref: "urn:other#/classifiers/0"}}
	_, err = ev.Check(`source.kindOf("Class")`, Context{Source: foreign})
	assert.True(t, ref.IsMismatch(err))
}

func TestEvaluate_Concurrent(t *testing.T) {
	ev := NewEvaluator(testutil.UMLMetaModel())
	expr := MustParse(testutil.RealizationConstraint)
	ctx := Context{Source: object("A", testutil.ClassName), Target: object("B", testutil.InterfaceName)}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ev.EvalBool(expr, ctx)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}
