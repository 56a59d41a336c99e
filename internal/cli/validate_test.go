package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelsync/internal/notation"
)

func TestValidateValidNotation(t *testing.T) {
	for _, path := range []string{umlNotation, "../notation/testdata/uml.json", "../notation/testdata/uml.cue", statechartNotation} {
		t.Run(path, func(t *testing.T) {
			out, err := execute(t, "validate", path)
			require.NoError(t, err)
			assert.Contains(t, out, "✓ Notation valid")
		})
	}
}

func TestValidateConfiguredNotation(t *testing.T) {
	out, err := execute(t, "validate", "--notation", umlNotation)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Notation valid")

	_, err = execute(t, "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateValidNotationJSON(t *testing.T) {
	out, err := execute(t, "validate", umlNotation, "--format", "json")
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
}

func TestValidateInvalidNotation(t *testing.T) {
	out, err := execute(t, "validate", invalidNotation)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 9 error(s)")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "✗ E103 metaModel.classifiers[1].name")
	assert.Contains(t, out, "✗ E122 representation.representations[2].graphicalItems[0].shape")
	assert.Contains(t, out, "! E123 representation.representations[2]")
}

func TestValidateInvalidNotationJSON(t *testing.T) {
	out, err := execute(t, "validate", invalidNotation, "--format", "json")
	require.Error(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, notation.ErrDuplicateName, resp.Error.Code)
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 9)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, notation.ErrUnusedRepresentation, result.Warnings[0].Code)
}

func TestValidateLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing file", "../notation/testdata/absent.yaml", notation.ErrCodeNotFound},
		{"syntax", "../notation/testdata/syntax.yaml", notation.ErrCodeParseFailed},
		{"unknown field", "../notation/testdata/unknown_field.json", notation.ErrCodeDecode},
		{"missing representation", "../notation/testdata/meta_only.json", notation.ErrCodeMissingPart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "validate", tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}
