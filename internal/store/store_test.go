package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/patch"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestDoc(t *testing.T, contentJSON string) doc.Document {
	t.Helper()
	content, err := doc.FromJSON([]byte(contentJSON))
	require.NoError(t, err)
	d, err := doc.New(content)
	require.NoError(t, err)
	return d
}

func TestCreateAndGetDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := newTestDoc(t, `{"field":1,"tags":["a"]}`)
	id, err := s.CreateDocument(ctx, d)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, d.ContentHash, got.ContentHash)
	assert.True(t, doc.Equal(d.Content, got.Content))
}

func TestCreateDocumentRejectsWrongVersion(t *testing.T) {
	s := openTestStore(t)
	d := newTestDoc(t, `{}`)
	d.Version = 2

	_, err := s.CreateDocument(context.Background(), d)
	assert.Error(t, err)
}

func TestGetDocumentNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetDocument(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

// applyAndCommit pushes one patch through the engine and the store, returning
// the committed document.
func applyAndCommit(t *testing.T, s *Store, id string, d doc.Document, patchJSON, actor string) doc.Document {
	t.Helper()
	ctx := context.Background()

	ops, err := patch.ParsePatch([]byte(patchJSON))
	require.NoError(t, err)

	result, err := engine.New().Apply(d, engine.Request{
		ExpectedVersion: d.Version,
		Patch:           ops,
		Actor:           actor,
	})
	require.NoError(t, err)

	err = s.CommitRevision(ctx, id, d.Version, result.Document, Revision{
		DocumentID:   id,
		Version:      result.NewVersion,
		Patch:        ops,
		InversePatch: result.InversePatch,
		ContentHash:  result.NewContentHash,
		Actor:        actor,
		CreatedAt:    result.AppliedAt,
	})
	require.NoError(t, err)
	return result.Document
}

func TestCommitRevisionAdvancesDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := newTestDoc(t, `{"field":1}`)
	id, err := s.CreateDocument(ctx, d)
	require.NoError(t, err)

	updated := applyAndCommit(t, s, id, d,
		`[{"op":"replace","path":"/field","value":2}]`, "alice")

	got, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, updated.ContentHash, got.ContentHash)
	assert.True(t, doc.Equal(updated.Content, got.Content))

	// The stored content carries the embedded audit entry
	log, err := got.AuditLog()
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "alice", log[0].Actor)
}

func TestCommitRevisionVersionGuard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := newTestDoc(t, `{"field":1}`)
	id, err := s.CreateDocument(ctx, d)
	require.NoError(t, err)

	applyAndCommit(t, s, id, d, `[{"op":"replace","path":"/field","value":2}]`, "")

	// A second writer still holding version 1 must be rejected
	stale := newTestDoc(t, `{"field":99}`)
	stale.Version = 2
	err = s.CommitRevision(ctx, id, 1, stale, Revision{
		DocumentID: id, Version: 2, ContentHash: stale.ContentHash,
		CreatedAt: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, engine.IsOptimisticLock(err))

	var lockErr *engine.OptimisticLockError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, int64(1), lockErr.Expected)
	assert.Equal(t, int64(2), lockErr.Actual)

	// And the stored document is untouched by the rejected write
	got, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	v, err := doc.FromJSON([]byte(`2`))
	require.NoError(t, err)
	assert.True(t, doc.Equal(v, got.Content.(doc.Object)["field"]))
}

func TestCommitRevisionUnknownDocument(t *testing.T) {
	s := openTestStore(t)
	d := newTestDoc(t, `{}`)
	d.Version = 2

	err := s.CommitRevision(context.Background(), "ghost", 1, d, Revision{
		DocumentID: "ghost", Version: 2, CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevisionsHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := newTestDoc(t, `{"n":0}`)
	id, err := s.CreateDocument(ctx, d)
	require.NoError(t, err)

	d = applyAndCommit(t, s, id, d, `[{"op":"replace","path":"/n","value":1}]`, "alice")
	d = applyAndCommit(t, s, id, d, `[{"op":"replace","path":"/n","value":2}]`, "bob")

	revs, err := s.Revisions(ctx, id)
	require.NoError(t, err)
	require.Len(t, revs, 2)

	// Oldest first
	assert.Equal(t, int64(2), revs[0].Version)
	assert.Equal(t, "alice", revs[0].Actor)
	assert.Equal(t, int64(3), revs[1].Version)
	assert.Equal(t, "bob", revs[1].Actor)

	// Each row round-trips its forward and inverse patches
	require.Len(t, revs[0].Patch, 1)
	assert.Equal(t, patch.OpReplace, revs[0].Patch[0].Op)
	require.Len(t, revs[0].InversePatch, 1)
	assert.True(t, doc.Equal(doc.Int(0), revs[0].InversePatch[0].Value))
}

func TestGetRevision(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := newTestDoc(t, `{"n":0}`)
	id, err := s.CreateDocument(ctx, d)
	require.NoError(t, err)
	applyAndCommit(t, s, id, d, `[{"op":"replace","path":"/n","value":1}]`, "")

	rev, err := s.GetRevision(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev.Version)
	assert.Equal(t, id, rev.DocumentID)

	_, err = s.GetRevision(ctx, id, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoredInverseRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := newTestDoc(t, `{"field":1}`)
	originalHash := d.ContentHash
	id, err := s.CreateDocument(ctx, d)
	require.NoError(t, err)

	d = applyAndCommit(t, s, id, d, `[{"op":"replace","path":"/field","value":2}]`, "")

	rev, err := s.GetRevision(ctx, id, d.Version)
	require.NoError(t, err)

	// Rolling back applies the stored inverse as a new forward revision
	result, err := engine.New().Apply(d, engine.Request{
		ExpectedVersion: d.Version,
		Patch:           rev.InversePatch,
	})
	require.NoError(t, err)
	require.NoError(t, s.CommitRevision(ctx, id, d.Version, result.Document, Revision{
		DocumentID: id, Version: result.NewVersion,
		Patch: rev.InversePatch, InversePatch: result.InversePatch,
		ContentHash: result.NewContentHash, CreatedAt: result.AppliedAt,
	}))

	got, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version, "rollback increments, never decrements")
	assert.Equal(t, originalHash, got.ContentHash, "content is back to the original")
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)

	d := newTestDoc(t, `{"x":1}`)
	id, err := s1.CreateDocument(context.Background(), d)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Reopening applies pragmas and migrations again without harm
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetDocument(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}
