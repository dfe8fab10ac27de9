package patch

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/patchwork/internal/doc"
)

// Op identifies a patch operation kind. The set is closed: both the applier
// and the inverse computer switch over it exhaustively, so no kind can be
// silently ignored.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
	OpMove    Op = "move"
	OpCopy    Op = "copy"
	OpTest    Op = "test"
)

// KnownOps lists the legal operation kinds.
var KnownOps = []Op{OpAdd, OpRemove, OpReplace, OpMove, OpCopy, OpTest}

// Known reports whether the op kind is one of the six legal kinds.
func (o Op) Known() bool {
	switch o {
	case OpAdd, OpRemove, OpReplace, OpMove, OpCopy, OpTest:
		return true
	}
	return false
}

// NeedsValue reports whether the kind requires a "value" member.
func (o Op) NeedsValue() bool {
	return o == OpAdd || o == OpReplace || o == OpTest
}

// NeedsFrom reports whether the kind requires a "from" member.
func (o Op) NeedsFrom() bool {
	return o == OpMove || o == OpCopy
}

// Operation is a single JSON Patch operation.
//
// Value is nil when the wire object carried no "value" member; an explicit
// JSON null decodes to doc.Null{}, keeping the two distinguishable.
type Operation struct {
	Op    Op
	Path  string
	From  string
	Value doc.Value
}

// Kinds summarizes an operation list as its ordered kind names,
// as recorded in audit entries.
func Kinds(ops []Operation) []string {
	kinds := make([]string, len(ops))
	for i, op := range ops {
		kinds[i] = string(op.Op)
	}
	return kinds
}

// wireOp is the JSON wire shape of one operation.
type wireOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler for Operation.
func (o Operation) MarshalJSON() ([]byte, error) {
	w := wireOp{
		Op:   string(o.Op),
		Path: o.Path,
		From: o.From,
	}
	if o.Value != nil {
		raw, err := doc.MarshalValue(o.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s value: %w", o.Op, err)
		}
		w.Value = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler for Operation.
// Structural legality (known kind, pointer syntax, required members per kind)
// is NOT checked here; that is the validator's job so a caller gets every
// problem reported at once.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var w wireOp
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	o.Op = Op(w.Op)
	o.Path = w.Path
	o.From = w.From
	o.Value = nil

	if len(w.Value) > 0 {
		v, err := doc.FromJSON(w.Value)
		if err != nil {
			return fmt.Errorf("operation value: %w", err)
		}
		o.Value = v
	}
	return nil
}

// ParsePatch decodes a JSON array of operations.
func ParsePatch(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}
	return ops, nil
}

// MarshalPatch encodes an operation list as a JSON array.
func MarshalPatch(ops []Operation) ([]byte, error) {
	if ops == nil {
		ops = []Operation{}
	}
	return json.Marshal(ops)
}
