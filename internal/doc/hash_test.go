package doc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterminism(t *testing.T) {
	a, err := FromJSON([]byte(`{"name":"alpha","tags":["x","y"],"n":3}`))
	require.NoError(t, err)
	b, err := FromJSON([]byte(`{"n":3,"tags":["x","y"],"name":"alpha"}`))
	require.NoError(t, err)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb, "structurally equal trees must hash identically")
	assert.True(t, ValidHash(ha))
}

func TestHashSensitivity(t *testing.T) {
	base := MustHash(Object{"field": Int(1)})

	assert.NotEqual(t, base, MustHash(Object{"field": Int(2)}), "value change")
	assert.NotEqual(t, base, MustHash(Object{"other": Int(1)}), "key change")
	assert.NotEqual(t, base, MustHash(Object{"field": String("1")}), "kind change")
	assert.NotEqual(t, base, MustHash(Object{}), "member removal")
}

func TestHashDomainSeparation(t *testing.T) {
	// The domain prefix means a content hash never collides with a plain
	// SHA-256 of the same canonical bytes
	h := MustHash(String("x"))
	assert.True(t, strings.HasPrefix(h, HashPrefix))
	assert.Len(t, h, len(HashPrefix)+64)
}

func TestContentHashExcludesAuditLog(t *testing.T) {
	content := Object{"field": Int(1)}
	withAudit := Object{
		"field":  Int(1),
		AuditKey: Array{Object{"actor": String("alice")}},
	}

	plain, err := ContentHash(content)
	require.NoError(t, err)
	audited, err := ContentHash(withAudit)
	require.NoError(t, err)

	assert.Equal(t, plain, audited, "audit entries must not perturb the content hash")

	// But a real content change still does
	changed, err := ContentHash(Object{"field": Int(2), AuditKey: Array{}})
	require.NoError(t, err)
	assert.NotEqual(t, plain, changed)
}

func TestContentHashNonObjectRoot(t *testing.T) {
	h, err := ContentHash(Array{Int(1), Int(2)})
	require.NoError(t, err)
	assert.Equal(t, MustHash(Array{Int(1), Int(2)}), h)
}

func TestValidHash(t *testing.T) {
	assert.True(t, ValidHash(MustHash(Null{})))
	assert.False(t, ValidHash(""))
	assert.False(t, ValidHash("sha256:short"))
	assert.False(t, ValidHash("md5:"+strings.Repeat("a", 64)))
	assert.False(t, ValidHash(HashPrefix+strings.Repeat("A", 64)), "uppercase hex is rejected")
	assert.False(t, ValidHash(HashPrefix+strings.Repeat("g", 64)))
}
