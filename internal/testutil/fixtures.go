package testutil

import (
	"fmt"

	"github.com/roach88/modelsync/internal/ir"
)

// URIs of the UML-like fixture notation.
const (
	MetaURI           = "urn:modelsync:uml"
	RepresentationURI = "urn:modelsync:uml-representation"
)

// Fixture classifier names.
const (
	ClassName       = "Class"
	InterfaceName   = "Interface"
	AssociationName = "Association"
	RealizationName = "Realization"
	StringName      = "String"
	CommentName     = "Comment"
)

// RealizationConstraint guards Realization edges.
const RealizationConstraint = `source.kindOf("Class") and target.kindOf("Interface")`

// UMLMetaModel returns a small class-diagram meta-model:
//
//	0 Class        ClassNode
//	1 Interface    ClassNode
//	2 Association  ClassEdge
//	3 Realization  ClassEdge, constrained Class -> Interface
//	4 String       DataType
//	5 Comment      Class without representation
func UMLMetaModel() *ir.MetaModel {
	return &ir.MetaModel{
		URI:  MetaURI,
		Name: "uml",
		Classifiers: []ir.Classifier{
			{
				Kind:           ir.ClassifierClass,
				Name:           ClassName,
				Attributes:     []ir.Attribute{{Name: "name", Type: StringName}},
				Representation: ir.NewRef(representationRef(0)),
			},
			{
				Kind:           ir.ClassifierClass,
				Name:           InterfaceName,
				IsInterface:    true,
				Attributes:     []ir.Attribute{{Name: "name", Type: StringName}},
				Representation: ir.NewRef(representationRef(1)),
			},
			{
				Kind: ir.ClassifierClass,
				Name: AssociationName,
				References: []ir.Reference{
					{Name: ir.LinkSource, Type: ir.NewRef(ClassifierRef(ClassName))},
					{Name: ir.LinkTarget, Type: ir.NewRef(ClassifierRef(ClassName))},
				},
				Representation: ir.NewRef(representationRef(2)),
			},
			{
				Kind: ir.ClassifierClass,
				Name: RealizationName,
				References: []ir.Reference{
					{Name: ir.LinkSource, Type: ir.NewRef(ClassifierRef(ClassName))},
					{Name: ir.LinkTarget, Type: ir.NewRef(ClassifierRef(InterfaceName))},
				},
				Constraints:    []ir.Constraint{{Name: "classRealizesInterface", Expression: RealizationConstraint}},
				Representation: ir.NewRef(representationRef(3)),
			},
			{
				Kind:         ir.ClassifierDataType,
				Name:         StringName,
				InstanceType: "string",
			},
			{
				Kind: ir.ClassifierClass,
				Name: CommentName,
			},
		},
	}
}

// UMLRepresentation returns the representation package paired with
// UMLMetaModel.
func UMLRepresentation() *ir.RepresentationMetaModel {
	return &ir.RepresentationMetaModel{
		URI: RepresentationURI,
		Representations: []ir.Representation{
			{
				Name: "ClassBox",
				Type: ir.ClassNode,
				GraphicalItems: []ir.GraphicalItem{
					{Shape: "rect", Style: map[string]string{"fill": "#ffffff"}, Size: &ir.Size{Width: 120, Height: 60}},
					{Shape: "text", Generator: "attributesForNotation", Position: &ir.Position{X: 4, Y: 16}},
				},
			},
			{
				Name: "InterfaceBox",
				Type: ir.ClassNode,
				GraphicalItems: []ir.GraphicalItem{
					{Shape: "rect", Style: map[string]string{"fill": "#eef"}, Size: &ir.Size{Width: 120, Height: 60}},
				},
			},
			{
				Name:           "AssociationLine",
				Type:           ir.ClassEdge,
				GraphicalItems: []ir.GraphicalItem{{Shape: "line"}},
			},
			{
				Name:           "RealizationLine",
				Type:           ir.ClassEdge,
				GraphicalItems: []ir.GraphicalItem{{Shape: "line", Style: map[string]string{"dash": "4 2"}}},
			},
		},
	}
}

// ClassifierRef returns the ref of the named fixture classifier.
// Panics on unknown names (fixture misuse).
func ClassifierRef(name string) string {
	order := []string{ClassName, InterfaceName, AssociationName, RealizationName, StringName, CommentName}
	for i, n := range order {
		if n == name {
			return fmt.Sprintf("%s#/classifiers/%d", MetaURI, i)
		}
	}
	panic("testutil: unknown fixture classifier " + name)
}

func representationRef(i int) string {
	return fmt.Sprintf("%s#/representations/%d", RepresentationURI, i)
}
