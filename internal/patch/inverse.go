package patch

import (
	"fmt"
	"strconv"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/pointer"
)

// Inverse computes the operation list that restores the pre-image exactly
// after the forward list has been applied.
//
// Later forward operations may depend on earlier ones, so each operation is
// inverted against the intermediate state produced by its predecessors: the
// pre-image is cloned, and the forward list is simulated on the clone while
// inverses are collected. The result is accumulated in reverse order of the
// forward list so replaying it unwinds the dependency order. Neither the
// caller's pre-image nor its operation list is mutated.
//
// Per-operation rules:
//
//	add (new slot or array insert)  -> remove
//	add (existing object member)    -> replace with the old value
//	remove                          -> add the old value back
//	replace                         -> replace with the old value
//	move                            -> move back (plus an add restoring a
//	                                   destroyed target member, if any)
//	copy (new slot or array insert) -> remove
//	copy (existing object member)   -> replace with the old value
//	test                            -> omitted (no mutation to undo)
//
// Array targets written with the "-" append token are concretized to the
// numeric index they landed at, so the inverse addresses a real element.
func Inverse(ops []Operation, preImage doc.Value) ([]Operation, error) {
	working := doc.Clone(preImage)
	groups := make([][]Operation, 0, len(ops))

	for i, op := range ops {
		group, next, err := invertOne(working, op)
		if err != nil {
			return nil, &InverseError{OpIndex: i, Op: op.Op, Reason: "pre-image does not admit an inverse", Err: err}
		}
		working = next
		groups = append(groups, group)
	}

	inverse := make([]Operation, 0, len(ops))
	for i := len(groups) - 1; i >= 0; i-- {
		inverse = append(inverse, groups[i]...)
	}
	return inverse, nil
}

// invertOne computes the inverse group for one operation against the current
// working tree, then applies the operation so the next inversion sees the
// correct intermediate state. Returns the group, the advanced tree, and any
// error.
func invertOne(working doc.Value, op Operation) ([]Operation, doc.Value, error) {
	switch op.Op {
	case OpTest:
		// No mutation to undo; a mismatch is the applier's concern
		return nil, working, nil

	case OpAdd:
		return invertAdd(working, op)

	case OpRemove:
		path, err := pointer.Parse(op.Path)
		if err != nil {
			return nil, nil, err
		}
		old, err := path.Resolve(working)
		if err != nil {
			return nil, nil, fmt.Errorf("remove target: %w", err)
		}
		group := []Operation{{Op: OpAdd, Path: op.Path, Value: doc.Clone(old)}}
		next, _, err := removeAt(working, path)
		if err != nil {
			return nil, nil, err
		}
		return group, next, nil

	case OpReplace:
		path, err := pointer.Parse(op.Path)
		if err != nil {
			return nil, nil, err
		}
		next, old, err := replaceAt(working, path, doc.Clone(op.Value))
		if err != nil {
			return nil, nil, fmt.Errorf("replace target: %w", err)
		}
		group := []Operation{{Op: OpReplace, Path: op.Path, Value: doc.Clone(old)}}
		return group, next, nil

	case OpMove:
		return invertMove(working, op)

	case OpCopy:
		return invertCopy(working, op)

	default:
		return nil, nil, fmt.Errorf("unknown operation kind %q", op.Op)
	}
}

func invertAdd(working doc.Value, op Operation) ([]Operation, doc.Value, error) {
	path, err := pointer.Parse(op.Path)
	if err != nil {
		return nil, nil, err
	}

	group, err := undoForWrite(working, path, op.Path, working)
	if err != nil {
		return nil, nil, fmt.Errorf("add target: %w", err)
	}

	// The simulation must never write the caller's value into the working
	// tree: a later op editing inside it would corrupt the operation list
	next, err := addAt(working, path, doc.Clone(op.Value))
	if err != nil {
		return nil, nil, err
	}
	return group, next, nil
}

func invertCopy(working doc.Value, op Operation) ([]Operation, doc.Value, error) {
	from, err := pointer.Parse(op.From)
	if err != nil {
		return nil, nil, err
	}
	path, err := pointer.Parse(op.Path)
	if err != nil {
		return nil, nil, err
	}

	val, err := from.Resolve(working)
	if err != nil {
		return nil, nil, fmt.Errorf("copy source: %w", err)
	}

	group, err := undoForWrite(working, path, op.Path, working)
	if err != nil {
		return nil, nil, fmt.Errorf("copy target: %w", err)
	}

	next, err := addAt(working, path, doc.Clone(val))
	if err != nil {
		return nil, nil, err
	}
	return group, next, nil
}

func invertMove(working doc.Value, op Operation) ([]Operation, doc.Value, error) {
	from, err := pointer.Parse(op.From)
	if err != nil {
		return nil, nil, err
	}
	path, err := pointer.Parse(op.Path)
	if err != nil {
		return nil, nil, err
	}
	if path.IsRoot() {
		return nil, nil, fmt.Errorf("move cannot target the document root")
	}

	// Remove first; the landing slot is judged against the intermediate
	// tree, because removing from the same array shifts indices.
	intermediate, moved, err := removeAt(working, from)
	if err != nil {
		return nil, nil, fmt.Errorf("move source: %w", err)
	}

	parent := path.Parent()
	parentVal, err := parent.Resolve(intermediate)
	if err != nil {
		return nil, nil, fmt.Errorf("move target parent: %w", err)
	}

	var group []Operation
	switch container := parentVal.(type) {
	case doc.Object:
		tok := path.Last()
		if destroyed, present := container[tok]; present {
			// The move overwrites an existing member: moving back is not
			// enough, the destroyed value must be restored too.
			group = []Operation{
				{Op: OpMove, From: op.Path, Path: op.From},
				{Op: OpAdd, Path: op.Path, Value: doc.Clone(destroyed)},
			}
		} else {
			group = []Operation{{Op: OpMove, From: op.Path, Path: op.From}}
		}
	case doc.Array:
		idx, err := pointer.ArrayIndex(path.Last(), len(container), true)
		if err != nil {
			return nil, nil, fmt.Errorf("move target: %w", err)
		}
		concrete := joinIndex(parent, idx)
		group = []Operation{{Op: OpMove, From: concrete, Path: op.From}}
	default:
		return nil, nil, fmt.Errorf("%w: move target parent is %s",
			pointer.ErrTypeMismatch, doc.Kind(parentVal))
	}

	next, err := addAt(intermediate, path, moved)
	if err != nil {
		return nil, nil, err
	}
	return group, next, nil
}

// undoForWrite computes the inverse group for a value landing at path
// (add or copy): replace for an overwritten object member, remove (with a
// concretized index) otherwise.
func undoForWrite(tree doc.Value, path pointer.Pointer, rawPath string, root doc.Value) ([]Operation, error) {
	if path.IsRoot() {
		// Writing the root replaces the whole document
		return []Operation{{Op: OpReplace, Path: "", Value: doc.Clone(root)}}, nil
	}

	parent := path.Parent()
	parentVal, err := parent.Resolve(tree)
	if err != nil {
		return nil, err
	}

	switch container := parentVal.(type) {
	case doc.Object:
		tok := path.Last()
		if old, present := container[tok]; present {
			return []Operation{{Op: OpReplace, Path: rawPath, Value: doc.Clone(old)}}, nil
		}
		return []Operation{{Op: OpRemove, Path: rawPath}}, nil

	case doc.Array:
		idx, err := pointer.ArrayIndex(path.Last(), len(container), true)
		if err != nil {
			return nil, err
		}
		return []Operation{{Op: OpRemove, Path: joinIndex(parent, idx)}}, nil

	default:
		return nil, fmt.Errorf("%w: target parent is %s", pointer.ErrTypeMismatch, doc.Kind(parentVal))
	}
}

// joinIndex renders parent plus a concrete array index as a pointer string.
func joinIndex(parent pointer.Pointer, idx int) string {
	concrete := make(pointer.Pointer, len(parent)+1)
	copy(concrete, parent)
	concrete[len(parent)] = strconv.Itoa(idx)
	return concrete.String()
}
