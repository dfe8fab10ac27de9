// Package engine orchestrates one patch request against one document:
// version guard, static validation, inverse computation against the
// pre-image, atomic application, canonical hashing, and audit recording.
//
// The engine is stateless and holds no shared mutable state between
// invocations. Every call operates on document data passed in and returned
// out, so it is safe to invoke concurrently with no internal locking.
// Serializing concurrent writers per stored document is the persistence
// layer's job (see internal/store).
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/patch"
)

// Clock supplies audit timestamps. Implemented by SystemClock (production)
// and testutil.FixedClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Engine applies patch requests to documents.
type Engine struct {
	validator *patch.Validator
	clock     Clock
}

// Option configures engine parameters.
type Option func(*Engine)

// WithMaxOperations sets the per-patch operation-count ceiling.
// Default: patch.DefaultMaxOperations.
func WithMaxOperations(n int) Option {
	return func(e *Engine) {
		e.validator = patch.NewValidator(n)
	}
}

// WithClock sets the audit timestamp source. Tests use a fixed clock for
// deterministic audit entries.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		validator: patch.NewValidator(0),
		clock:     SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request is one patch request. ExpectedVersion is the version the caller
// believes it is modifying; a mismatch rejects the request before any
// mutation work begins.
type Request struct {
	ExpectedVersion int64             `json:"document_version"`
	Patch           []patch.Operation `json:"patch"`
	Evidence        []string          `json:"evidence,omitempty"`
	DryRun          bool              `json:"dry_run,omitempty"`
	Actor           string            `json:"actor,omitempty"`
}

// Result is the outcome of a successful patch request.
//
// For a dry run, NewVersion and NewContentHash are the would-be values and
// Document is the input document unchanged; otherwise Document is the fully
// updated snapshot including its appended audit entry.
type Result struct {
	Success        bool              `json:"success"`
	NewVersion     int64             `json:"new_version"`
	NewContentHash string            `json:"content_hash"`
	InversePatch   []patch.Operation `json:"inverse_patch"`
	AppliedAt      time.Time         `json:"applied_at"`
	Document       doc.Document      `json:"-"`
}

// Apply runs the full per-request state machine:
//
//	Start -> VersionChecked -> Validated -> InverseComputed -> Applied
//	      -> Hashed -> Audited -> Done
//
// with a short-circuit to rejection from any state on failure. No partial
// state is observable on rejection: the caller sees either its prior
// document unchanged, or the fully updated document in the result.
func (e *Engine) Apply(d doc.Document, req Request) (Result, error) {
	// Fail fast on stale writes, before any mutation work
	if err := CheckVersion(d.Version, req.ExpectedVersion); err != nil {
		return Result{}, err
	}

	validation := e.validator.Validate(req.Patch)
	if !validation.Valid {
		return Result{}, &patch.ValidationFailedError{Result: validation}
	}

	// The inverse must be computed against the pre-image: once a forward op
	// is applied the old values it destroyed are gone.
	inverse, err := patch.Inverse(req.Patch, d.Content)
	if err != nil {
		return Result{}, err
	}

	newContent, err := patch.Apply(req.Patch, d.Content)
	if err != nil {
		return Result{}, err
	}

	newHash, err := doc.ContentHash(newContent)
	if err != nil {
		// A content tree that cannot be canonicalized is a defect, not a
		// recoverable patch failure
		return Result{}, fmt.Errorf("hash patched content: %w", err)
	}

	now := e.clock.Now()
	newVersion := d.Version + 1

	if req.DryRun {
		slog.Debug("dry-run patch evaluated",
			"version", d.Version,
			"would_be_version", newVersion,
			"would_be_hash", newHash,
			"op_count", len(req.Patch),
		)
		return Result{
			Success:        true,
			NewVersion:     newVersion,
			NewContentHash: newHash,
			InversePatch:   inverse,
			AppliedAt:      now,
			Document:       d,
		}, nil
	}

	entry := doc.AuditEntry{
		Actor:          req.Actor,
		Timestamp:      now,
		OperationCount: len(req.Patch),
		OperationKinds: patch.Kinds(req.Patch),
		Evidence:       req.Evidence,
	}
	newContent = recordAudit(newContent, entry)

	updated := doc.Document{
		Content:     newContent,
		Version:     newVersion,
		ContentHash: newHash,
	}

	slog.Info("patch applied",
		"old_version", d.Version,
		"new_version", newVersion,
		"content_hash", newHash,
		"op_count", len(req.Patch),
		"actor", req.Actor,
	)

	return Result{
		Success:        true,
		NewVersion:     newVersion,
		NewContentHash: newHash,
		InversePatch:   inverse,
		AppliedAt:      now,
		Document:       updated,
	}, nil
}

// MaxOperations returns the configured per-patch ceiling.
func (e *Engine) MaxOperations() int {
	return e.validator.MaxOperations()
}
