package doc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashPrefix identifies the digest algorithm in every content hash string.
const HashPrefix = "sha256:"

// DomainContent is the domain prefix for document content hashes.
// Version suffix enables future algorithm migration.
const DomainContent = "patchwork/content/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: "sha256:" + hex(SHA256(domain + 0x00 + data))
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00}) // Null separator
	h.Write(data)
	return HashPrefix + hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content hash of an arbitrary value.
// The hash is deterministic: two structurally equal trees hash identically
// regardless of object key insertion order.
func Hash(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hashWithDomain(DomainContent, canonical), nil
}

// ContentHash computes the hash of document content.
//
// The embedded audit log (top-level AuditKey member) is excluded so that
// appending an audit entry after hashing does not invalidate the stored
// content_hash. See the audit recorder in internal/engine.
func ContentHash(content Value) (string, error) {
	obj, ok := content.(Object)
	if !ok {
		return Hash(content)
	}
	if _, present := obj[AuditKey]; !present {
		return Hash(content)
	}

	stripped := make(Object, len(obj))
	for k, v := range obj {
		if k == AuditKey {
			continue
		}
		stripped[k] = v
	}
	return Hash(stripped)
}

// ValidHash reports whether s has the expected "sha256:" + 64 lowercase hex
// shape.
func ValidHash(s string) bool {
	if !strings.HasPrefix(s, HashPrefix) {
		return false
	}
	hexPart := s[len(HashPrefix):]
	if len(hexPart) != sha256.Size*2 {
		return false
	}
	for _, c := range hexPart {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// MustHash is like Hash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustHash(v Value) string {
	h, err := Hash(v)
	if err != nil {
		panic(err)
	}
	return h
}
