package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/patch"
)

// Revision records one successful patch application: the forward operations,
// the inverse that restores the previous version, and the resulting content
// hash. Rows are appended, never updated, forming the document's
// tamper-evident history.
type Revision struct {
	DocumentID   string            `json:"document_id"`
	Version      int64             `json:"version"`
	Patch        []patch.Operation `json:"patch"`
	InversePatch []patch.Operation `json:"inverse_patch"`
	ContentHash  string            `json:"content_hash"`
	Actor        string            `json:"actor,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// CreateDocument inserts a new version-1 document and returns its generated
// ID.
func (s *Store) CreateDocument(ctx context.Context, d doc.Document) (string, error) {
	if d.Version != 1 {
		return "", fmt.Errorf("create document: new documents start at version 1, got %d", d.Version)
	}

	content, err := marshalContent(d.Content)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, content, version, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, content, d.Version, d.ContentHash, now, now)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	return id, nil
}

// CommitRevision atomically advances a stored document from prevVersion to
// updated.Version and appends the revision row.
//
// The whole read-check-write cycle runs inside one immediate transaction:
// the version guard executes while the write lock is held, so a concurrent
// writer that got there first surfaces as an OptimisticLockError rather than
// a silent clobber.
func (s *Store) CommitRevision(ctx context.Context, id string, prevVersion int64, updated doc.Document, rev Revision) error {
	content, err := marshalContent(updated.Content)
	if err != nil {
		return fmt.Errorf("commit revision: %w", err)
	}
	forward, err := marshalOps(rev.Patch)
	if err != nil {
		return fmt.Errorf("commit revision: %w", err)
	}
	inverse, err := marshalOps(rev.InversePatch)
	if err != nil {
		return fmt.Errorf("commit revision: %w", err)
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("commit revision: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = ?`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("commit revision: document %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("commit revision: read version: %w", err)
	}

	// Version guard, held under the write lock
	if err := engine.CheckVersion(current, prevVersion); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
		UPDATE documents
		SET content = ?, version = ?, content_hash = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`, content, updated.Version, updated.ContentHash, now, id, prevVersion)
	if err != nil {
		return fmt.Errorf("commit revision: update document: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO revisions
		(document_id, version, patch, inverse_patch, content_hash, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, updated.Version, forward, inverse, updated.ContentHash, rev.Actor,
		rev.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("commit revision: insert revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit revision: commit tx: %w", err)
	}
	return nil
}
