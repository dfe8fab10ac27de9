// Package doc provides the canonical document representation for patchwork.
//
// This package contains the value tree, canonical serialization, and content
// hashing. All other internal packages import doc; doc imports nothing
// internal. This keeps the tree the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Value is a sealed interface: Null, Bool, Int, Float, String, Array,
//     Object and nothing else
//   - Canonical serialization follows RFC 8785 (UTF-16 key order, NFC
//     normalized strings, no HTML escaping, shortest-form numbers)
//   - Content hashes are domain-separated SHA-256 with a "sha256:" prefix
//   - All JSON tags use snake_case
package doc
