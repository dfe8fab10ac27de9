package patch

import (
	"fmt"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/pointer"
)

// Apply applies a validated operation list to a tree, strictly in list order,
// and returns the new tree. Neither the input tree nor the operations are
// mutated: all work happens on a deep working copy, operation values are
// cloned on insertion so the result never aliases the caller's operation
// list, and on any failure the copy is discarded so the caller's tree is
// untouched (atomic, all-or-nothing).
//
// Failures return *ApplicationError carrying the failing operation's index.
func Apply(ops []Operation, root doc.Value) (doc.Value, error) {
	working := doc.Clone(root)

	for i, op := range ops {
		next, err := applyOne(working, op)
		if err != nil {
			return nil, &ApplicationError{OpIndex: i, Op: op.Op, Reason: "operation failed", Err: err}
		}
		working = next
	}
	return working, nil
}

// applyOne applies a single operation to root and returns the new root.
// Dispatch is an exhaustive switch over the closed op set.
func applyOne(root doc.Value, op Operation) (doc.Value, error) {
	switch op.Op {
	case OpAdd:
		path, err := pointer.Parse(op.Path)
		if err != nil {
			return nil, err
		}
		// Insert a copy: a later op editing inside this value must not
		// reach the caller's operation list through an alias
		return addAt(root, path, doc.Clone(op.Value))

	case OpRemove:
		path, err := pointer.Parse(op.Path)
		if err != nil {
			return nil, err
		}
		next, _, err := removeAt(root, path)
		return next, err

	case OpReplace:
		path, err := pointer.Parse(op.Path)
		if err != nil {
			return nil, err
		}
		next, _, err := replaceAt(root, path, doc.Clone(op.Value))
		return next, err

	case OpMove:
		return applyMove(root, op)

	case OpCopy:
		return applyCopy(root, op)

	case OpTest:
		path, err := pointer.Parse(op.Path)
		if err != nil {
			return nil, err
		}
		actual, err := path.Resolve(root)
		if err != nil {
			return nil, err
		}
		if !doc.Equal(actual, op.Value) {
			return nil, fmt.Errorf("test failed at %q: document value does not match", op.Path)
		}
		return root, nil

	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Op)
	}
}

// applyMove resolves the source before mutating anything, so the removal and
// the insertion cannot alias each other through a shared path.
func applyMove(root doc.Value, op Operation) (doc.Value, error) {
	from, err := pointer.Parse(op.From)
	if err != nil {
		return nil, err
	}
	path, err := pointer.Parse(op.Path)
	if err != nil {
		return nil, err
	}
	if _, err := from.Resolve(root); err != nil {
		return nil, fmt.Errorf("move source: %w", err)
	}

	next, moved, err := removeAt(root, from)
	if err != nil {
		return nil, fmt.Errorf("move source: %w", err)
	}
	return addAt(next, path, moved)
}

// applyCopy clones the source value so the copy and the original never share
// mutable state.
func applyCopy(root doc.Value, op Operation) (doc.Value, error) {
	from, err := pointer.Parse(op.From)
	if err != nil {
		return nil, err
	}
	path, err := pointer.Parse(op.Path)
	if err != nil {
		return nil, err
	}
	val, err := from.Resolve(root)
	if err != nil {
		return nil, fmt.Errorf("copy source: %w", err)
	}
	return addAt(root, path, doc.Clone(val))
}

// addAt inserts v at p and returns the new root.
//
// Semantics per RFC 6902 add: the root pointer replaces the whole document;
// an object target sets the member whether or not it exists; an array target
// inserts at [0, len], with "-" meaning append.
func addAt(root doc.Value, p pointer.Pointer, v doc.Value) (doc.Value, error) {
	if p.IsRoot() {
		return v, nil
	}

	tok := p[0]
	switch container := root.(type) {
	case doc.Object:
		if len(p) == 1 {
			container[tok] = v
			return container, nil
		}
		child, present := container[tok]
		if !present {
			return nil, fmt.Errorf("%w: missing member %q", pointer.ErrPathNotFound, tok)
		}
		next, err := addAt(child, p[1:], v)
		if err != nil {
			return nil, err
		}
		container[tok] = next
		return container, nil

	case doc.Array:
		if len(p) == 1 {
			idx, err := pointer.ArrayIndex(tok, len(container), true)
			if err != nil {
				return nil, err
			}
			out := make(doc.Array, 0, len(container)+1)
			out = append(out, container[:idx]...)
			out = append(out, v)
			out = append(out, container[idx:]...)
			return out, nil
		}
		idx, err := pointer.ArrayIndex(tok, len(container), false)
		if err != nil {
			return nil, err
		}
		next, err := addAt(container[idx], p[1:], v)
		if err != nil {
			return nil, err
		}
		container[idx] = next
		return container, nil

	default:
		return nil, fmt.Errorf("%w: segment %q indexes into %s",
			pointer.ErrTypeMismatch, tok, doc.Kind(root))
	}
}

// removeAt deletes the value at p, returning the new root and the removed
// value. The target must exist.
func removeAt(root doc.Value, p pointer.Pointer) (doc.Value, doc.Value, error) {
	if p.IsRoot() {
		return nil, nil, fmt.Errorf("cannot remove the document root")
	}

	tok := p[0]
	switch container := root.(type) {
	case doc.Object:
		child, present := container[tok]
		if !present {
			return nil, nil, fmt.Errorf("%w: missing member %q", pointer.ErrPathNotFound, tok)
		}
		if len(p) == 1 {
			delete(container, tok)
			return container, child, nil
		}
		next, removed, err := removeAt(child, p[1:])
		if err != nil {
			return nil, nil, err
		}
		container[tok] = next
		return container, removed, nil

	case doc.Array:
		idx, err := pointer.ArrayIndex(tok, len(container), false)
		if err != nil {
			return nil, nil, err
		}
		if len(p) == 1 {
			removed := container[idx]
			out := make(doc.Array, 0, len(container)-1)
			out = append(out, container[:idx]...)
			out = append(out, container[idx+1:]...)
			return out, removed, nil
		}
		next, removed, err := removeAt(container[idx], p[1:])
		if err != nil {
			return nil, nil, err
		}
		container[idx] = next
		return container, removed, nil

	default:
		return nil, nil, fmt.Errorf("%w: segment %q indexes into %s",
			pointer.ErrTypeMismatch, tok, doc.Kind(root))
	}
}

// replaceAt swaps the value at p for v, returning the new root and the old
// value. Unlike add, the target MUST exist.
func replaceAt(root doc.Value, p pointer.Pointer, v doc.Value) (doc.Value, doc.Value, error) {
	if p.IsRoot() {
		return v, root, nil
	}

	tok := p[0]
	switch container := root.(type) {
	case doc.Object:
		child, present := container[tok]
		if !present {
			return nil, nil, fmt.Errorf("%w: missing member %q", pointer.ErrPathNotFound, tok)
		}
		if len(p) == 1 {
			container[tok] = v
			return container, child, nil
		}
		next, old, err := replaceAt(child, p[1:], v)
		if err != nil {
			return nil, nil, err
		}
		container[tok] = next
		return container, old, nil

	case doc.Array:
		idx, err := pointer.ArrayIndex(tok, len(container), false)
		if err != nil {
			return nil, nil, err
		}
		if len(p) == 1 {
			old := container[idx]
			container[idx] = v
			return container, old, nil
		}
		next, old, err := replaceAt(container[idx], p[1:], v)
		if err != nil {
			return nil, nil, err
		}
		container[idx] = next
		return container, old, nil

	default:
		return nil, nil, fmt.Errorf("%w: segment %q indexes into %s",
			pointer.ErrTypeMismatch, tok, doc.Kind(root))
	}
}
