package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanna95/trevilleroofing/pkg/affinity"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_Checkpoint_PutAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	cp := &Checkpoint{
		CompletedTerms: []string{"roofing", "gutters"},
		Organizations: []affinity.Organization{
			{Name: "Apex Roofing", Domain: "apexroofing.com", SearchTerm: "roofing", AffinityID: 101},
		},
	}
	require.NoError(t, st.PutCheckpoint(ctx, "affinity_fetch", cp))
	assert.NotEmpty(t, cp.RunID)
	assert.False(t, cp.UpdatedAt.IsZero())

	got, err := st.GetCheckpoint(ctx, "affinity_fetch")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cp.RunID, got.RunID)
	assert.Equal(t, []string{"roofing", "gutters"}, got.CompletedTerms)
	require.Len(t, got.Organizations, 1)
	assert.Equal(t, int64(101), got.Organizations[0].AffinityID)
}

func TestSQLite_Checkpoint_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetCheckpoint(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Checkpoint_OverwriteKeepsRunID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	cp := &Checkpoint{CompletedTerms: []string{"roofing"}}
	require.NoError(t, st.PutCheckpoint(ctx, "affinity_fetch", cp))
	first := cp.RunID

	cp.CompletedTerms = append(cp.CompletedTerms, "siding")
	require.NoError(t, st.PutCheckpoint(ctx, "affinity_fetch", cp))
	assert.Equal(t, first, cp.RunID)

	got, err := st.GetCheckpoint(ctx, "affinity_fetch")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first, got.RunID)
	assert.Equal(t, []string{"roofing", "siding"}, got.CompletedTerms)
}

func TestSQLite_Checkpoint_SeparateNames(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutCheckpoint(ctx, "run_a", &Checkpoint{CompletedTerms: []string{"a"}}))
	require.NoError(t, st.PutCheckpoint(ctx, "run_b", &Checkpoint{CompletedTerms: []string{"b"}}))

	a, err := st.GetCheckpoint(ctx, "run_a")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, []string{"a"}, a.CompletedTerms)
}
