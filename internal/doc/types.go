package doc

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuditKey is the reserved top-level content member holding the embedded
// audit log. Patch operations may not address it; the audit recorder is the
// only writer.
const AuditKey = "_audit"

// Document is one versioned snapshot of content plus its integrity metadata.
//
// Invariants:
//   - ContentHash always equals ContentHash(Content)
//   - Version starts at 1 and increments by exactly 1 per successful
//     non-dry-run patch; it never decrements
type Document struct {
	Content     Value  `json:"content"`
	Version     int64  `json:"version"`
	ContentHash string `json:"content_hash"`
}

// New creates a version-1 document from content.
func New(content Value) (Document, error) {
	hash, err := ContentHash(content)
	if err != nil {
		return Document{}, fmt.Errorf("new document: %w", err)
	}
	return Document{
		Content:     content,
		Version:     1,
		ContentHash: hash,
	}, nil
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (d Document) Clone() Document {
	out := d
	if d.Content != nil {
		out.Content = Clone(d.Content)
	}
	return out
}

// MarshalJSON implements json.Marshaler for Document.
func (d Document) MarshalJSON() ([]byte, error) {
	content := []byte("null")
	if d.Content != nil {
		var err error
		content, err = MarshalValue(d.Content)
		if err != nil {
			return nil, fmt.Errorf("marshal document content: %w", err)
		}
	}
	return json.Marshal(struct {
		Content     json.RawMessage `json:"content"`
		Version     int64           `json:"version"`
		ContentHash string          `json:"content_hash"`
	}{
		Content:     content,
		Version:     d.Version,
		ContentHash: d.ContentHash,
	})
}

// UnmarshalJSON implements json.Unmarshaler for Document.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content     json.RawMessage `json:"content"`
		Version     int64           `json:"version"`
		ContentHash string          `json:"content_hash"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := FromJSON(raw.Content)
	if err != nil {
		return fmt.Errorf("unmarshal document content: %w", err)
	}
	d.Content = content
	d.Version = raw.Version
	d.ContentHash = raw.ContentHash
	return nil
}

// AuditEntry records one applied patch inside the document's own content.
// Entries are appended, never mutated or removed, so the trail travels with
// the document across exports and copies.
type AuditEntry struct {
	Actor          string    `json:"actor"`
	Timestamp      time.Time `json:"timestamp"`
	OperationCount int       `json:"operation_count"`
	OperationKinds []string  `json:"operation_kinds"`
	Evidence       []string  `json:"evidence"`
}

// ToValue converts the entry to its in-tree representation.
// The timestamp is stored as an RFC 3339 UTC string; a missing actor is
// stored as null.
func (e AuditEntry) ToValue() Object {
	var actor Value = Null{}
	if e.Actor != "" {
		actor = String(e.Actor)
	}

	kinds := make(Array, len(e.OperationKinds))
	for i, k := range e.OperationKinds {
		kinds[i] = String(k)
	}
	evidence := make(Array, len(e.Evidence))
	for i, ref := range e.Evidence {
		evidence[i] = String(ref)
	}

	return Object{
		"actor":           actor,
		"timestamp":       String(e.Timestamp.UTC().Format(time.RFC3339Nano)),
		"operation_count": Int(e.OperationCount),
		"operation_kinds": kinds,
		"evidence":        evidence,
	}
}

// AuditEntryFromValue parses an in-tree audit entry back into an AuditEntry.
func AuditEntryFromValue(v Value) (AuditEntry, error) {
	obj, ok := v.(Object)
	if !ok {
		return AuditEntry{}, fmt.Errorf("audit entry: expected object, got %s", Kind(v))
	}

	var entry AuditEntry
	if actor, ok := obj["actor"].(String); ok {
		entry.Actor = string(actor)
	}
	if ts, ok := obj["timestamp"].(String); ok {
		parsed, err := time.Parse(time.RFC3339Nano, string(ts))
		if err != nil {
			return AuditEntry{}, fmt.Errorf("audit entry: bad timestamp %q: %w", ts, err)
		}
		entry.Timestamp = parsed
	}
	if count, ok := obj["operation_count"].(Int); ok {
		entry.OperationCount = int(count)
	}
	if kinds, ok := obj["operation_kinds"].(Array); ok {
		for _, k := range kinds {
			if s, ok := k.(String); ok {
				entry.OperationKinds = append(entry.OperationKinds, string(s))
			}
		}
	}
	if evidence, ok := obj["evidence"].(Array); ok {
		for _, ref := range evidence {
			if s, ok := ref.(String); ok {
				entry.Evidence = append(entry.Evidence, string(s))
			}
		}
	}
	return entry, nil
}

// AuditLog extracts the embedded audit trail from document content.
// Returns an empty slice when the content carries no audit log.
func (d Document) AuditLog() ([]AuditEntry, error) {
	obj, ok := d.Content.(Object)
	if !ok {
		return nil, nil
	}
	raw, present := obj[AuditKey]
	if !present {
		return nil, nil
	}
	arr, ok := raw.(Array)
	if !ok {
		return nil, fmt.Errorf("audit log: expected array, got %s", Kind(raw))
	}

	entries := make([]AuditEntry, 0, len(arr))
	for i, elem := range arr {
		entry, err := AuditEntryFromValue(elem)
		if err != nil {
			return nil, fmt.Errorf("audit log[%d]: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
