package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceModel_CloneIsDeep(t *testing.T) {
	m := &InstanceModel{
		URI: "u",
		Objects: []InstanceObject{{
			Name:       "A",
			Attributes: []AttributeValue{{Name: "tags", Value: []any{"x"}}},
			Links:      []ReferenceValue{{Name: LinkSource, Target: Ref{Ref: "u#/objects/1"}}},
		}},
	}

	c := m.Clone()
	c.Objects[0].Name = "B"
	c.Objects[0].Links[0].Target.Ref = "u#/objects/9"
	c.Objects[0].Attributes[0].Value.([]any)[0] = "y"

	assert.Equal(t, "A", m.Objects[0].Name)
	assert.Equal(t, "u#/objects/1", m.Objects[0].Links[0].Target.Ref)
	assert.Equal(t, "x", m.Objects[0].Attributes[0].Value.([]any)[0])
}

func TestRepresentationInstanceModel_CloneIsDeep(t *testing.T) {
	m := &RepresentationInstanceModel{
		URI: "r",
		Objects: []RepresentationInstanceObject{{
			Type:           ClassNode,
			Position:       &Position{X: 1, Y: 1},
			GraphicalItems: []GraphicalItem{{Shape: "rect", Style: map[string]string{"fill": "red"}}},
		}},
	}

	c := m.Clone()
	c.Objects[0].Position.X = 99
	c.Objects[0].GraphicalItems[0].Style["fill"] = "blue"

	assert.Equal(t, 1.0, m.Objects[0].Position.X)
	assert.Equal(t, "red", m.Objects[0].GraphicalItems[0].Style["fill"])
}

func TestInstanceObject_Lookup(t *testing.T) {
	o := InstanceObject{
		Name:       "E1",
		Attributes: []AttributeValue{{Name: "label", Value: "owns"}},
		Links: []ReferenceValue{
			{Name: LinkSource, Target: Ref{Ref: "u#/objects/0"}},
			{Name: LinkTarget, Target: Ref{Ref: "u#/objects/1"}},
		},
	}

	link, ok := o.Link(LinkTarget)
	require.True(t, ok)
	assert.Equal(t, "u#/objects/1", link.Target.Ref)

	_, ok = o.Link("owner")
	assert.False(t, ok)

	v, ok := o.Attribute("label")
	require.True(t, ok)
	assert.Equal(t, "owns", v)
}

func TestInstanceModel_IndexOf(t *testing.T) {
	m := &InstanceModel{Objects: []InstanceObject{{Name: "A"}, {Name: "B"}}}
	assert.Equal(t, 1, m.IndexOf("B"))
	assert.Equal(t, -1, m.IndexOf("C"))
	assert.True(t, m.HasName("A"))
}

func TestPosition_Finite(t *testing.T) {
	assert.True(t, Position{X: 1, Y: -2}.Finite())
	assert.False(t, Position{X: nan(), Y: 0}.Finite())
	assert.False(t, Position{X: 0, Y: inf()}.Finite())
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(0))
	assert.True(t, IsFinite(-1e300))
	assert.False(t, IsFinite(nan()))
	assert.False(t, IsFinite(inf()))
	assert.False(t, IsFinite(-inf()))
}

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }
