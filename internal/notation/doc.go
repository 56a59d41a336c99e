// Package notation loads and validates notation documents.
//
// A notation document pairs a MetaModel package with the
// RepresentationMetaModel package that draws its classes:
//
//	{
//	  "metaModel":      { "uri": "...", "classifiers": [...] },
//	  "representation": { "uri": "...", "representations": [...] }
//	}
//
// Documents may be written as JSON (.json), YAML (.yaml, .yml) or CUE
// (.cue, or a directory of .cue files forming one package). Every format
// is normalized to JSON and decoded into the ir types, so field names are
// the same everywhere.
//
// Validate reports all problems found (it does not fail fast). A document
// that validates cleanly is safe to hand to engine.NewSession.
package notation
