package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/patchwork/internal/doc"
)

// GetDocument loads the current snapshot of a document.
func (s *Store) GetDocument(ctx context.Context, id string) (doc.Document, error) {
	var (
		content string
		version int64
		hash    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT content, version, content_hash FROM documents WHERE id = ?
	`, id).Scan(&content, &version, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return doc.Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}
		return doc.Document{}, fmt.Errorf("get document: %w", err)
	}

	tree, err := unmarshalContent(content)
	if err != nil {
		return doc.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}

	return doc.Document{Content: tree, Version: version, ContentHash: hash}, nil
}

// Revisions returns a document's revision history, oldest first.
func (s *Store) Revisions(ctx context.Context, id string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, version, patch, inverse_patch, content_hash, actor, created_at
		FROM revisions WHERE document_id = ? ORDER BY version ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return revs, nil
}

// GetRevision loads the revision that produced the given version.
func (s *Store) GetRevision(ctx context.Context, id string, version int64) (Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, version, patch, inverse_patch, content_hash, actor, created_at
		FROM revisions WHERE document_id = ? AND version = ?
	`, id, version)

	rev, err := scanRevision(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Revision{}, fmt.Errorf("revision %s@%d: %w", id, version, ErrNotFound)
		}
		return Revision{}, err
	}
	return rev, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRevision.
type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(row scanner) (Revision, error) {
	var (
		rev       Revision
		forward   string
		inverse   string
		createdAt string
	)
	err := row.Scan(&rev.DocumentID, &rev.Version, &forward, &inverse,
		&rev.ContentHash, &rev.Actor, &createdAt)
	if err != nil {
		return Revision{}, err
	}

	if rev.Patch, err = unmarshalOps(forward); err != nil {
		return Revision{}, fmt.Errorf("revision %s@%d: %w", rev.DocumentID, rev.Version, err)
	}
	if rev.InversePatch, err = unmarshalOps(inverse); err != nil {
		return Revision{}, fmt.Errorf("revision %s@%d: %w", rev.DocumentID, rev.Version, err)
	}
	if rev.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Revision{}, fmt.Errorf("revision %s@%d: bad timestamp: %w", rev.DocumentID, rev.Version, err)
	}
	return rev, nil
}
