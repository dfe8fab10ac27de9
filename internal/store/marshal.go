package store

import (
	"fmt"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/patch"
)

// marshalContent serializes document content to canonical JSON for storage,
// so byte-identical rows imply identical content.
func marshalContent(v doc.Value) (string, error) {
	data, err := doc.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal content: %w", err)
	}
	return string(data), nil
}

// unmarshalContent parses stored content back into a value tree.
func unmarshalContent(data string) (doc.Value, error) {
	v, err := doc.FromJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}
	return v, nil
}

// marshalOps serializes an operation list for storage.
func marshalOps(ops []patch.Operation) (string, error) {
	data, err := patch.MarshalPatch(ops)
	if err != nil {
		return "", fmt.Errorf("marshal patch: %w", err)
	}
	return string(data), nil
}

// unmarshalOps parses a stored operation list.
func unmarshalOps(data string) ([]patch.Operation, error) {
	ops, err := patch.ParsePatch([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal patch: %w", err)
	}
	return ops, nil
}
