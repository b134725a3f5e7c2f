package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codanna-go/codanna/internal/core"
)

func mustVectorId(t *testing.T, v uint32) core.VectorId {
	t.Helper()
	id, err := core.NewVectorId(v)
	require.NoError(t, err)
	return id
}

func TestSegment_WriteBatchThenReadVector_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	seg, err := Open(dir, 1, 4)
	require.NoError(t, err)
	defer seg.Close()

	id := mustVectorId(t, 1)
	vec := []float32{1, 2, 3, 4}
	require.NoError(t, seg.WriteBatch([]Entry{{ID: id, Vector: vec}}))

	got, ok, err := seg.ReadVector(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vec, got)
}

func TestSegment_ReadVector_UnwrittenID_ReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	seg, err := Open(dir, 1, 4)
	require.NoError(t, err)
	defer seg.Close()

	_, ok, err := seg.ReadVector(mustVectorId(t, 7))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSegment_WriteBatch_GrowsPastInitialCapacity(t *testing.T) {
	dir := t.TempDir()
	seg, err := Open(dir, 1, 2)
	require.NoError(t, err)
	defer seg.Close()

	id := mustVectorId(t, initialCapacity+10)
	require.NoError(t, seg.WriteBatch([]Entry{{ID: id, Vector: []float32{0.5, 0.25}}}))

	got, ok, err := seg.ReadVector(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.25}, got)
	assert.Greater(t, seg.Stats().Capacity, initialCapacity)
}

func TestSegment_Tombstone_ExcludesFromReadVector(t *testing.T) {
	dir := t.TempDir()
	seg, err := Open(dir, 1, 3)
	require.NoError(t, err)
	defer seg.Close()

	id := mustVectorId(t, 2)
	require.NoError(t, seg.WriteBatch([]Entry{{ID: id, Vector: []float32{1, 1, 1}}}))
	require.NoError(t, seg.Tombstone(id))

	_, ok, err := seg.ReadVector(id)
	require.NoError(t, err)
	assert.False(t, ok, "a tombstoned id must not be readable")
	assert.Equal(t, 1, seg.Stats().Tombstoned)
}

func TestSegment_Open_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	id := mustVectorId(t, 3)

	seg, err := Open(dir, 5, 4)
	require.NoError(t, err)
	require.NoError(t, seg.WriteBatch([]Entry{{ID: id, Vector: []float32{9, 8, 7, 6}}}))
	require.NoError(t, seg.Close())

	reopened, err := Open(dir, 5, 4)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.ReadVector(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{9, 8, 7, 6}, got)
}

func TestSegment_Open_DimensionMismatch_IsFatal(t *testing.T) {
	dir := t.TempDir()
	seg, err := Open(dir, 9, 4)
	require.NoError(t, err)
	require.NoError(t, seg.Close())

	_, err = Open(dir, 9, 8)
	assert.Error(t, err)
}

func TestSegment_WriteBatch_RejectsWrongDimension(t *testing.T) {
	dir := t.TempDir()
	seg, err := Open(dir, 1, 4)
	require.NoError(t, err)
	defer seg.Close()

	err = seg.WriteBatch([]Entry{{ID: mustVectorId(t, 1), Vector: []float32{1, 2}}})
	assert.Error(t, err)
}

func TestStore_Segment_OpensLazilyAndCaches(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 4)
	defer store.Close()

	a, err := store.Segment(1)
	require.NoError(t, err)
	b, err := store.Segment(1)
	require.NoError(t, err)
	assert.Same(t, a, b, "repeated lookups of the same ordinal return the same segment")
}
