// Package core holds the identifier types and entity model shared by every
// indexing and search component: symbols, relationships, file state,
// chunks, and the vector/cluster records that back semantic search.
package core

import "fmt"

// SymbolId identifies a Symbol. Zero is reserved as "null" — NewSymbolId
// rejects it so a SymbolId value is never accidentally left unset.
type SymbolId uint32

// FileId identifies a tracked file.
type FileId uint32

// VectorId identifies a vector record. It shares its numeric space with
// whichever entity it embeds (a SymbolId or a ChunkId) — a given vector
// store is never mixed between the two.
type VectorId uint32

// ChunkId identifies a document Chunk.
type ChunkId uint32

// CollectionId identifies a named document collection.
type CollectionId uint32

// ClusterId identifies a k-means cluster produced by the clustering pass.
type ClusterId uint32

// SegmentOrdinal identifies one segment of a multi-segment vector store.
type SegmentOrdinal uint32

// ErrZeroId is returned by the NewXxx constructors when asked to wrap 0.
type ErrZeroId struct {
	Kind string
}

func (e ErrZeroId) Error() string {
	return fmt.Sprintf("%s: zero is reserved as null, not a valid id", e.Kind)
}

// NewSymbolId wraps a non-zero value as a SymbolId.
func NewSymbolId(v uint32) (SymbolId, error) {
	if v == 0 {
		return 0, ErrZeroId{Kind: "SymbolId"}
	}
	return SymbolId(v), nil
}

// NewFileId wraps a non-zero value as a FileId.
func NewFileId(v uint32) (FileId, error) {
	if v == 0 {
		return 0, ErrZeroId{Kind: "FileId"}
	}
	return FileId(v), nil
}

// NewVectorId wraps a non-zero value as a VectorId.
func NewVectorId(v uint32) (VectorId, error) {
	if v == 0 {
		return 0, ErrZeroId{Kind: "VectorId"}
	}
	return VectorId(v), nil
}

// NewChunkId wraps a non-zero value as a ChunkId.
func NewChunkId(v uint32) (ChunkId, error) {
	if v == 0 {
		return 0, ErrZeroId{Kind: "ChunkId"}
	}
	return ChunkId(v), nil
}

// NewCollectionId wraps a non-zero value as a CollectionId.
func NewCollectionId(v uint32) (CollectionId, error) {
	if v == 0 {
		return 0, ErrZeroId{Kind: "CollectionId"}
	}
	return CollectionId(v), nil
}

// NewClusterId wraps a non-zero value as a ClusterId.
func NewClusterId(v uint32) (ClusterId, error) {
	if v == 0 {
		return 0, ErrZeroId{Kind: "ClusterId"}
	}
	return ClusterId(v), nil
}

// Value returns the underlying u32, mainly so stores can address slots.
func (id SymbolId) Value() uint32  { return uint32(id) }
func (id FileId) Value() uint32    { return uint32(id) }
func (id VectorId) Value() uint32  { return uint32(id) }
func (id ChunkId) Value() uint32   { return uint32(id) }
func (id CollectionId) Value() uint32 { return uint32(id) }
func (id ClusterId) Value() uint32 { return uint32(id) }

// IsNull reports whether the id is the reserved zero value.
func (id SymbolId) IsNull() bool  { return id == 0 }
func (id FileId) IsNull() bool    { return id == 0 }
func (id VectorId) IsNull() bool  { return id == 0 }
func (id ChunkId) IsNull() bool   { return id == 0 }

// IdAllocator is a monotonic counter with a tombstone freelist, so that
// incremental re-indexing can recycle slot numbers instead of growing the
// store without bound. It backs SymbolId/ChunkId assignment in COLLECT.
type IdAllocator struct {
	next uint32
	free []uint32
}

// NewIdAllocator returns an allocator that starts handing out id 1.
func NewIdAllocator() *IdAllocator {
	return &IdAllocator{next: 1}
}

// Alloc returns the next available id, reusing a tombstoned one if present.
func (a *IdAllocator) Alloc() uint32 {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

// Release tombstones an id so a future Alloc can reuse it.
func (a *IdAllocator) Release(id uint32) {
	if id == 0 {
		return
	}
	a.free = append(a.free, id)
}
