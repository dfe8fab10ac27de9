// Package pointer implements RFC 6901 JSON Pointers over the document value
// tree. Parsing and read-only resolution live here; mutation is the patch
// applier's job.
package pointer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/patchwork/internal/doc"
)

// Sentinel error kinds. Callers match with errors.Is; messages carry the
// failing path and segment.
var (
	// ErrBadPointer indicates a syntactically malformed pointer string.
	ErrBadPointer = errors.New("malformed JSON pointer")

	// ErrPathNotFound indicates a segment addressed a missing member or a
	// missing/out-of-range array element.
	ErrPathNotFound = errors.New("path not found")

	// ErrTypeMismatch indicates a segment indexed into a non-container or
	// used an array segment against an object (or vice versa).
	ErrTypeMismatch = errors.New("type mismatch")
)

// Pointer is a parsed JSON Pointer: a sequence of decoded reference tokens.
// The empty pointer addresses the whole document.
type Pointer []string

// Parse parses a JSON Pointer string. The empty string is the root pointer;
// any other pointer must start with "/". Escape sequences ~0 and ~1 decode to
// "~" and "/"; a "~" followed by anything else is rejected.
func Parse(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if s[0] != '/' {
		return nil, fmt.Errorf("%w: %q must start with '/'", ErrBadPointer, s)
	}

	raw := strings.Split(s[1:], "/")
	tokens := make(Pointer, len(raw))
	for i, tok := range raw {
		decoded, err := decodeToken(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadPointer, s, err)
		}
		tokens[i] = decoded
	}
	return tokens, nil
}

func decodeToken(tok string) (string, error) {
	if !strings.ContainsRune(tok, '~') {
		return tok, nil
	}
	var b strings.Builder
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c != '~' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(tok) {
			return "", fmt.Errorf("dangling '~' escape")
		}
		i++
		switch tok[i] {
		case '0':
			b.WriteByte('~')
		case '1':
			b.WriteByte('/')
		default:
			return "", fmt.Errorf("invalid escape '~%c'", tok[i])
		}
	}
	return b.String(), nil
}

// String re-encodes the pointer, escaping "~" and "/" in each token.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range p {
		b.WriteByte('/')
		tok = strings.ReplaceAll(tok, "~", "~0")
		tok = strings.ReplaceAll(tok, "/", "~1")
		b.WriteString(tok)
	}
	return b.String()
}

// IsRoot reports whether the pointer addresses the whole document.
func (p Pointer) IsRoot() bool {
	return len(p) == 0
}

// Parent returns the pointer minus its final token. Calling Parent on the
// root pointer returns the root pointer.
func (p Pointer) Parent() Pointer {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Last returns the final reference token. Only valid on non-root pointers.
func (p Pointer) Last() string {
	return p[len(p)-1]
}

// HasPrefix reports whether p is prefix or a descendant of prefix.
// Used to fence off reserved subtrees such as the embedded audit log.
func (p Pointer) HasPrefix(prefix Pointer) bool {
	if len(p) < len(prefix) {
		return false
	}
	for i, tok := range prefix {
		if p[i] != tok {
			return false
		}
	}
	return true
}

// AppendToken is the array token denoting "insert after the last element".
// Legal only as the final token of an add target.
const AppendToken = "-"

// ArrayIndex parses an array reference token against an array of the given
// length. With allowAppend set, "-" and the index equal to length are legal
// (insert positions); otherwise the index must address an existing element.
// Leading zeros and signs are rejected per RFC 6901.
func ArrayIndex(tok string, length int, allowAppend bool) (int, error) {
	if tok == AppendToken {
		if !allowAppend {
			return 0, fmt.Errorf("%w: '-' is only legal for add", ErrBadPointer)
		}
		return length, nil
	}

	if tok == "" {
		return 0, fmt.Errorf("%w: empty array index", ErrBadPointer)
	}
	if len(tok) > 1 && tok[0] == '0' {
		return 0, fmt.Errorf("%w: array index %q has a leading zero", ErrBadPointer, tok)
	}

	idx := 0
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: array index %q is not a number", ErrBadPointer, tok)
		}
		idx = idx*10 + int(c-'0')
		if idx > 1<<30 {
			return 0, fmt.Errorf("%w: array index %q out of range", ErrBadPointer, tok)
		}
	}

	limit := length - 1
	if allowAppend {
		limit = length
	}
	if idx > limit {
		return 0, fmt.Errorf("%w: array index %d out of range [0,%d]", ErrPathNotFound, idx, limit)
	}
	return idx, nil
}

// Resolve walks the tree and returns the value the pointer addresses.
// Fails with ErrPathNotFound when a segment is missing and ErrTypeMismatch
// when a segment indexes into a non-container.
func (p Pointer) Resolve(root doc.Value) (doc.Value, error) {
	current := root
	for i, tok := range p {
		switch container := current.(type) {
		case doc.Object:
			child, present := container[tok]
			if !present {
				return nil, fmt.Errorf("%w: %q (missing member %q)", ErrPathNotFound, p[:i+1].String(), tok)
			}
			current = child
		case doc.Array:
			idx, err := ArrayIndex(tok, len(container), false)
			if err != nil {
				return nil, fmt.Errorf("%w at %q", err, p[:i+1].String())
			}
			current = container[idx]
		default:
			return nil, fmt.Errorf("%w: segment %q indexes into %s at %q",
				ErrTypeMismatch, tok, doc.Kind(current), p[:i].String())
		}
	}
	return current, nil
}

// Exists reports whether the pointer resolves within root.
func (p Pointer) Exists(root doc.Value) bool {
	_, err := p.Resolve(root)
	return err == nil
}
