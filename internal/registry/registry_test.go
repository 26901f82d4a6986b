package registry_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fyrsmithlabs/documind/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestRegistry_PutGet(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	uploaded := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	doc := registry.Document{
		ID:          "doc-1",
		Filename:    "penalty_notice.pdf",
		ContentType: "application/pdf",
		Method:      "pdf-text",
		Pages:       4,
		ChunkCount:  12,
		SizeBytes:   204800,
		UploadedAt:  uploaded,
	}
	require.NoError(t, reg.Put(ctx, doc))

	got, err := reg.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestRegistry_GetMissing(t *testing.T) {
	reg := openTestRegistry(t)

	_, err := reg.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRegistry_PutOverwrites(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, registry.Document{ID: "doc-1", Filename: "a.pdf", ChunkCount: 3}))
	require.NoError(t, reg.Put(ctx, registry.Document{ID: "doc-1", Filename: "a.pdf", ChunkCount: 7}))

	got, err := reg.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.ChunkCount)

	count, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegistry_ListNewestFirst(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, reg.Put(ctx, registry.Document{
			ID:         id,
			Filename:   id + ".pdf",
			UploadedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	docs, err := reg.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "old", docs[2].ID)

	limited, err := reg.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "new", limited[0].ID)
}

func TestRegistry_Delete(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, registry.Document{ID: "doc-1", Filename: "a.pdf"}))
	require.NoError(t, reg.Delete(ctx, "doc-1"))

	_, err := reg.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, registry.ErrNotFound)

	assert.ErrorIs(t, reg.Delete(ctx, "doc-1"), registry.ErrNotFound)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := registry.Open("  ")
	assert.Error(t, err)
}
