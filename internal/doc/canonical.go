package doc

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing.
// This is the ONLY serialization that should be used for content-hash
// computation.
//
// Differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Floats use ECMAScript Number-to-string serialization; NaN/Inf are
//     rejected
//  5. No extraneous whitespace
func MarshalCanonical(v Value) ([]byte, error) {
	return appendCanonical(nil, v)
}

func appendCanonical(buf []byte, v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil Value cannot be canonicalized")
	case Null:
		return append(buf, "null"...), nil
	case Bool:
		if val {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case Int:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case Float:
		return appendCanonicalFloat(buf, float64(val))
	case String:
		return appendCanonicalString(buf, string(val)), nil
	case Array:
		return appendCanonicalArray(buf, val)
	case Object:
		return appendCanonicalObject(buf, val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// appendCanonicalFloat serializes a float the way ECMAScript Number-to-string
// does, as RFC 8785 requires: shortest-form fixed notation for magnitudes in
// [1e-6, 1e21), exponential with an unpadded exponent outside that range.
// Negative zero normalizes to "0"; NaN and infinities have no JSON
// representation and are rejected.
func appendCanonicalFloat(buf []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float cannot be canonicalized: %v", f)
	}
	if f == 0 {
		return append(buf, '0'), nil
	}

	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.AppendFloat(buf, f, 'f', -1, 64), nil
	}

	// strconv zero-pads the exponent to two digits; ECMAScript does not
	mant := strconv.AppendFloat(nil, f, 'e', -1, 64)
	i := bytes.IndexByte(mant, 'e')
	buf = append(buf, mant[:i+2]...) // mantissa, 'e', exponent sign
	return append(buf, bytes.TrimLeft(mant[i+2:], "0")...), nil
}

// appendCanonicalString produces a canonical JSON string with NFC
// normalization. Per RFC 8785 only the quote, backslash, and control
// characters below U+0020 are escaped; everything else (including < > & and
// U+2028/U+2029) is emitted literally as UTF-8.
func appendCanonicalString(buf []byte, s string) []byte {
	normalized := norm.NFC.String(s)

	buf = append(buf, '"')
	for _, r := range normalized {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if r < 0x20 {
				buf = append(buf, fmt.Sprintf(`\u%04x`, r)...)
			} else {
				buf = utf8.AppendRune(buf, r)
			}
		}
	}
	return append(buf, '"')
}

func appendCanonicalArray(buf []byte, arr Array) ([]byte, error) {
	var err error
	buf = append(buf, '[')
	for i, elem := range arr {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf, err = appendCanonical(buf, elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	return append(buf, ']'), nil
}

func appendCanonicalObject(buf []byte, obj Object) ([]byte, error) {
	var err error
	buf = append(buf, '{')

	// RFC 8785 UTF-16 code unit ordering
	keys := obj.SortedKeys()

	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendCanonicalString(buf, k)
		buf = append(buf, ':')
		buf, err = appendCanonical(buf, obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	return append(buf, '}'), nil
}
