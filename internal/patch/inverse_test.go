package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwork/internal/doc"
)

// roundTrip asserts that applying ops and then their inverse restores the
// pre-image exactly.
func roundTrip(t *testing.T, startJSON, patchJSON string) {
	t.Helper()
	start := mustVal(t, startJSON)
	ops := mustOps(t, patchJSON)

	inverse, err := Inverse(ops, start)
	require.NoError(t, err)

	after, err := Apply(ops, start)
	require.NoError(t, err)

	restored, err := Apply(inverse, after)
	require.NoError(t, err)

	assert.True(t, doc.Equal(start, restored),
		"inverse must restore the pre-image exactly")
}

func TestInverseReplace(t *testing.T) {
	start := mustVal(t, `{"field":1}`)
	ops := mustOps(t, `[{"op":"replace","path":"/field","value":2}]`)

	inverse, err := Inverse(ops, start)
	require.NoError(t, err)
	require.Len(t, inverse, 1)
	assert.Equal(t, OpReplace, inverse[0].Op)
	assert.Equal(t, "/field", inverse[0].Path)
	assert.True(t, doc.Equal(doc.Int(1), inverse[0].Value))
}

func TestInverseRemoveRestoresValue(t *testing.T) {
	start := mustVal(t, `{"a":{"nested":[1,2]},"b":2}`)
	ops := mustOps(t, `[{"op":"remove","path":"/a"}]`)

	inverse, err := Inverse(ops, start)
	require.NoError(t, err)
	require.Len(t, inverse, 1)
	assert.Equal(t, OpAdd, inverse[0].Op)
	assert.Equal(t, "/a", inverse[0].Path)
	assert.True(t, doc.Equal(mustVal(t, `{"nested":[1,2]}`), inverse[0].Value))
}

func TestInverseAddNewMemberIsRemove(t *testing.T) {
	inverse, err := Inverse(mustOps(t, `[{"op":"add","path":"/b","value":2}]`),
		mustVal(t, `{"a":1}`))
	require.NoError(t, err)
	require.Len(t, inverse, 1)
	assert.Equal(t, OpRemove, inverse[0].Op)
	assert.Equal(t, "/b", inverse[0].Path)
}

func TestInverseAddOverwriteIsReplace(t *testing.T) {
	// add onto an existing member destroys the old value; the inverse must
	// restore it, not remove the member
	inverse, err := Inverse(mustOps(t, `[{"op":"add","path":"/a","value":9}]`),
		mustVal(t, `{"a":1}`))
	require.NoError(t, err)
	require.Len(t, inverse, 1)
	assert.Equal(t, OpReplace, inverse[0].Op)
	assert.True(t, doc.Equal(doc.Int(1), inverse[0].Value))
}

func TestInverseAppendTokenConcretized(t *testing.T) {
	inverse, err := Inverse(mustOps(t, `[{"op":"add","path":"/list/-","value":3}]`),
		mustVal(t, `{"list":[1,2]}`))
	require.NoError(t, err)
	require.Len(t, inverse, 1)
	assert.Equal(t, OpRemove, inverse[0].Op)
	assert.Equal(t, "/list/2", inverse[0].Path, "'-' must concretize to the landing index")
}

func TestInverseReverseOrder(t *testing.T) {
	start := mustVal(t, `{"a":1,"b":2}`)
	ops := mustOps(t, `[
		{"op":"replace","path":"/a","value":10},
		{"op":"remove","path":"/b"},
		{"op":"add","path":"/c","value":3}
	]`)

	inverse, err := Inverse(ops, start)
	require.NoError(t, err)
	require.Len(t, inverse, 3)

	// Inverse of the last forward op comes first
	assert.Equal(t, OpRemove, inverse[0].Op)
	assert.Equal(t, "/c", inverse[0].Path)
	assert.Equal(t, OpAdd, inverse[1].Op)
	assert.Equal(t, "/b", inverse[1].Path)
	assert.Equal(t, OpReplace, inverse[2].Op)
	assert.Equal(t, "/a", inverse[2].Path)
}

func TestInverseTestOmitted(t *testing.T) {
	inverse, err := Inverse(mustOps(t, `[
		{"op":"test","path":"/a","value":1},
		{"op":"replace","path":"/a","value":2}
	]`), mustVal(t, `{"a":1}`))
	require.NoError(t, err)
	require.Len(t, inverse, 1, "test contributes nothing to the inverse")
	assert.Equal(t, OpReplace, inverse[0].Op)
}

func TestInverseMoveBack(t *testing.T) {
	inverse, err := Inverse(mustOps(t, `[{"op":"move","from":"/a","path":"/b"}]`),
		mustVal(t, `{"a":1}`))
	require.NoError(t, err)
	require.Len(t, inverse, 1)
	assert.Equal(t, OpMove, inverse[0].Op)
	assert.Equal(t, "/b", inverse[0].From)
	assert.Equal(t, "/a", inverse[0].Path)
}

func TestInverseMoveOverwriteRestoresTarget(t *testing.T) {
	start := mustVal(t, `{"a":1,"b":2}`)
	ops := mustOps(t, `[{"op":"move","from":"/a","path":"/b"}]`)

	inverse, err := Inverse(ops, start)
	require.NoError(t, err)
	require.Len(t, inverse, 2, "moving back alone loses the destroyed target value")
	assert.Equal(t, OpMove, inverse[0].Op)
	assert.Equal(t, OpAdd, inverse[1].Op)
	assert.Equal(t, "/b", inverse[1].Path)
	assert.True(t, doc.Equal(doc.Int(2), inverse[1].Value))

	roundTrip(t, `{"a":1,"b":2}`, `[{"op":"move","from":"/a","path":"/b"}]`)
}

func TestInverseCopyNewSlotIsRemove(t *testing.T) {
	inverse, err := Inverse(mustOps(t, `[{"op":"copy","from":"/a","path":"/b"}]`),
		mustVal(t, `{"a":1}`))
	require.NoError(t, err)
	require.Len(t, inverse, 1)
	assert.Equal(t, OpRemove, inverse[0].Op)
	assert.Equal(t, "/b", inverse[0].Path)
}

func TestInverseDependentOperations(t *testing.T) {
	// The second op's inverse must be computed against the intermediate
	// state, not the pre-image
	roundTrip(t, `{"list":[1,2,3]}`, `[
		{"op":"remove","path":"/list/0"},
		{"op":"remove","path":"/list/0"}
	]`)

	roundTrip(t, `{}`, `[
		{"op":"add","path":"/x","value":{}},
		{"op":"add","path":"/x/y","value":1},
		{"op":"replace","path":"/x/y","value":2}
	]`)
}

func TestInverseRoundTripProperty(t *testing.T) {
	cases := []struct {
		name  string
		start string
		patch string
	}{
		{"replace", `{"field":1}`, `[{"op":"replace","path":"/field","value":2}]`},
		{"add and remove", `{"a":1,"b":2}`,
			`[{"op":"add","path":"/c","value":3},{"op":"remove","path":"/a"}]`},
		{"array churn", `{"list":[1,2,3]}`, `[
			{"op":"add","path":"/list/1","value":99},
			{"op":"remove","path":"/list/3"},
			{"op":"add","path":"/list/-","value":100}
		]`},
		{"move within array", `{"list":["a","b","c"]}`,
			`[{"op":"move","from":"/list/0","path":"/list/2"}]`},
		{"move to array append", `{"src":{"x":1},"list":[1]}`,
			`[{"op":"move","from":"/src/x","path":"/list/-"}]`},
		{"copy overwrite", `{"a":{"k":1},"b":"old"}`,
			`[{"op":"copy","from":"/a","path":"/b"}]`},
		{"root replace", `{"old":1}`,
			`[{"op":"replace","path":"","value":{"new":2}}]`},
		{"root add", `{"old":1}`,
			`[{"op":"add","path":"","value":[1,2,3]}]`},
		{"nested rewrite", `{"doc":{"title":"v1","meta":{"tags":["x"]}}}`, `[
			{"op":"replace","path":"/doc/title","value":"v2"},
			{"op":"add","path":"/doc/meta/tags/-","value":"y"},
			{"op":"remove","path":"/doc/meta/tags/0"}
		]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			roundTrip(t, tc.start, tc.patch)
		})
	}
}

func TestInverseDoesNotMutateOperations(t *testing.T) {
	// The second op edits inside the value the first op added. The
	// simulation must work on a copy of that value, or the deletion reaches
	// the caller's operation list through an alias.
	ops := mustOps(t, `[
		{"op":"add","path":"/a","value":{"x":1}},
		{"op":"remove","path":"/a/x"}
	]`)

	inverse, err := Inverse(ops, mustVal(t, `{}`))
	require.NoError(t, err)
	assert.True(t, doc.Equal(mustVal(t, `{"x":1}`), ops[0].Value),
		"operation values must survive inverse computation unchanged")

	// And the forward list still applies cleanly afterwards
	after, err := Apply(ops, mustVal(t, `{}`))
	require.NoError(t, err)
	assert.True(t, doc.Equal(mustVal(t, `{"a":{}}`), after))

	restored, err := Apply(inverse, after)
	require.NoError(t, err)
	assert.True(t, doc.Equal(mustVal(t, `{}`), restored))
}

func TestInverseDoesNotMutatePreImage(t *testing.T) {
	start := mustVal(t, `{"a":1}`)
	_, err := Inverse(mustOps(t, `[{"op":"replace","path":"/a","value":2}]`), start)
	require.NoError(t, err)
	assert.True(t, doc.Equal(mustVal(t, `{"a":1}`), start))
}

func TestInverseFailsWhenPreImageDoesNotAdmit(t *testing.T) {
	_, err := Inverse(mustOps(t, `[{"op":"replace","path":"/missing","value":1}]`),
		mustVal(t, `{"a":1}`))
	require.Error(t, err)
	assert.True(t, IsInverseError(err))

	var invErr *InverseError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, 0, invErr.OpIndex)
}

func TestInverseEmptyPatch(t *testing.T) {
	inverse, err := Inverse(nil, mustVal(t, `{"a":1}`))
	require.NoError(t, err)
	assert.Empty(t, inverse)
}
