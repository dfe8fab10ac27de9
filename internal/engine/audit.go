package engine

import (
	"log/slog"

	"github.com/roach88/patchwork/internal/doc"
)

// recordAudit appends an audit entry to the log embedded in the document
// content itself (under doc.AuditKey), so the trail travels with the
// document across exports and copies. Entries are appended, never mutated.
//
// The content hash deliberately excludes the audit log (see doc.ContentHash),
// so appending here does not invalidate the hash computed a step earlier.
//
// Only object-rooted content can embed a log; scalar- or array-rooted
// documents have nowhere to put one, and the entry is skipped with a warning
// rather than corrupting the content shape.
func recordAudit(content doc.Value, entry doc.AuditEntry) doc.Value {
	obj, ok := content.(doc.Object)
	if !ok {
		slog.Warn("audit entry skipped: content root is not an object",
			"content_kind", doc.Kind(content),
		)
		return content
	}

	var log doc.Array
	if existing, present := obj[doc.AuditKey]; present {
		if arr, ok := existing.(doc.Array); ok {
			log = arr
		} else {
			slog.Warn("audit log member is not an array, resetting",
				"found_kind", doc.Kind(existing),
			)
		}
	}

	obj[doc.AuditKey] = append(log, entry.ToValue())
	return obj
}
