// Package patch implements RFC 6902 JSON Patch over the document value tree:
// structural validation, atomic application, and inverse-patch computation.
//
// The three phases are deliberately separate. Validation is read-only and
// collects every structural problem before any mutation. Inverse computation
// runs against the pre-image, because once a forward operation is applied the
// information needed to invert it is gone. Application works on a deep copy
// and either succeeds completely or leaves the caller's tree untouched.
package patch
