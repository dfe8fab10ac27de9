package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwork/internal/doc"
)

func codes(result ValidationResult) []string {
	out := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		out[i] = e.Code
	}
	return out
}

func TestValidateAcceptsWellFormedPatch(t *testing.T) {
	ops, err := ParsePatch([]byte(`[
		{"op":"test","path":"/status","value":"draft"},
		{"op":"replace","path":"/status","value":"published"},
		{"op":"add","path":"/tags/-","value":"new"},
		{"op":"move","from":"/old","path":"/new"},
		{"op":"copy","from":"/a","path":"/b"},
		{"op":"remove","path":"/obsolete"}
	]`))
	require.NoError(t, err)

	result := NewValidator(0).Validate(ops)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	ops := []Operation{
		{Op: "frobnicate", Path: "/x"},                      // unknown kind
		{Op: OpReplace, Path: "no-leading-slash"},           // bad pointer AND missing value
		{Op: OpMove, Path: "/dst"},                          // missing from
		{Op: OpAdd, Path: "/ok", Value: doc.Int(1)},         // fine
	}

	result := NewValidator(0).Validate(ops)
	assert.False(t, result.Valid)
	assert.ElementsMatch(t,
		[]string{CodeUnknownOp, CodeBadPointer, CodeMissingValue, CodeMissingFrom},
		codes(result))

	// Error indices point at the offending operations
	for _, e := range result.Errors {
		assert.NotEqual(t, 3, e.OpIndex, "the well-formed op must not be flagged")
	}
}

func TestValidateMissingLeadingSlash(t *testing.T) {
	ops := []Operation{{Op: OpReplace, Path: "field", Value: doc.Int(1)}}
	result := NewValidator(0).Validate(ops)
	require.False(t, result.Valid)
	assert.Equal(t, CodeBadPointer, result.Errors[0].Code)
	assert.Equal(t, "path", result.Errors[0].Field)
}

func TestValidateReservedAuditPath(t *testing.T) {
	ops := []Operation{
		{Op: OpRemove, Path: "/_audit"},
		{Op: OpReplace, Path: "/_audit/0/actor", Value: doc.String("eve")},
		{Op: OpMove, From: "/_audit", Path: "/stolen"},
		{Op: OpAdd, Path: "/_auditorium", Value: doc.Int(1)}, // similar prefix, not reserved
	}
	result := NewValidator(0).Validate(ops)
	require.False(t, result.Valid)

	reserved := 0
	for _, e := range result.Errors {
		if e.Code == CodeReservedPath {
			reserved++
			assert.NotEqual(t, 3, e.OpIndex)
		}
	}
	assert.Equal(t, 3, reserved)
}

func TestValidateOperationCeiling(t *testing.T) {
	ops := make([]Operation, 4)
	for i := range ops {
		ops[i] = Operation{Op: OpRemove, Path: "/x"}
	}

	result := NewValidator(3).Validate(ops)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1, "ceiling breach short-circuits per-op checks")
	assert.Equal(t, CodeTooManyOps, result.Errors[0].Code)
	assert.Equal(t, -1, result.Errors[0].OpIndex)

	assert.True(t, NewValidator(4).Validate(ops).Valid)
}

func TestValidateDefaultCeiling(t *testing.T) {
	assert.Equal(t, DefaultMaxOperations, NewValidator(0).MaxOperations())
	assert.Equal(t, DefaultMaxOperations, NewValidator(-5).MaxOperations())
	assert.Equal(t, 7, NewValidator(7).MaxOperations())
}

func TestValidateMoveIntoOwnChild(t *testing.T) {
	ops := []Operation{{Op: OpMove, From: "/a", Path: "/a/b"}}
	result := NewValidator(0).Validate(ops)
	require.False(t, result.Valid)
	assert.Equal(t, CodeBadMove, result.Errors[0].Code)

	// Moving to itself is legal (a no-op), as is moving to a sibling
	assert.True(t, NewValidator(0).Validate([]Operation{
		{Op: OpMove, From: "/a", Path: "/a"},
		{Op: OpMove, From: "/ab", Path: "/ab2"},
	}).Valid)
}

func TestValidateRootTargets(t *testing.T) {
	result := NewValidator(0).Validate([]Operation{
		{Op: OpRemove, Path: ""},
		{Op: OpMove, From: "/a", Path: ""},
	})
	require.False(t, result.Valid)
	for _, e := range result.Errors {
		assert.Equal(t, CodeBadTarget, e.Code)
	}

	// Replacing or testing the root is fine
	assert.True(t, NewValidator(0).Validate([]Operation{
		{Op: OpReplace, Path: "", Value: doc.Object{}},
		{Op: OpTest, Path: "", Value: doc.Object{}},
	}).Valid)
}

func TestValidateAppendTokenOnlyForAdd(t *testing.T) {
	result := NewValidator(0).Validate([]Operation{
		{Op: OpRemove, Path: "/list/-"},
		{Op: OpReplace, Path: "/list/-", Value: doc.Int(1)},
	})
	require.False(t, result.Valid)
	assert.Len(t, result.Errors, 2)
	for _, e := range result.Errors {
		assert.Equal(t, CodeBadPointer, e.Code)
	}

	assert.True(t, NewValidator(0).Validate([]Operation{
		{Op: OpAdd, Path: "/list/-", Value: doc.Int(1)},
	}).Valid)
}

func TestValidateExplicitNullValueIsPresent(t *testing.T) {
	ops, err := ParsePatch([]byte(`[{"op":"replace","path":"/x","value":null}]`))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, doc.Null{}, ops[0].Value, "explicit null decodes to Null, not absent")
	assert.True(t, NewValidator(0).Validate(ops).Valid)

	// Whereas a genuinely absent value is rejected
	ops, err = ParsePatch([]byte(`[{"op":"replace","path":"/x"}]`))
	require.NoError(t, err)
	result := NewValidator(0).Validate(ops)
	require.False(t, result.Valid)
	assert.Equal(t, CodeMissingValue, result.Errors[0].Code)
}
