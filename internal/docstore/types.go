// Package docstore implements the Document Store (component §4.10):
// binding the chunker, vector store, full-text index, and clusterer
// behind named collections with content-hash change detection.
package docstore

import "github.com/codanna-go/codanna/internal/core"

// Stats summarizes one index_collection_with_progress call.
type Stats struct {
	FilesScanned  int
	FilesChanged  int
	FilesRemoved  int
	ChunksAdded   int
	ChunksDeleted int
	Embedded      int
	Dropped       int
}

// ProgressPhase names the step a ProgressEvent reports on.
type ProgressPhase string

const (
	PhaseEnumerate ProgressPhase = "enumerate"
	PhaseDiff      ProgressPhase = "diff"
	PhaseChunk     ProgressPhase = "chunk"
	PhaseEmbed     ProgressPhase = "embed"
	PhaseCluster   ProgressPhase = "cluster"
)

// ProgressEvent reports on_progress callbacks during ingestion.
type ProgressEvent struct {
	Phase   ProgressPhase
	Current int
	Total   int
}

// fileDiff partitions a collection's enumerated files against state.json.
type fileDiff struct {
	changed []string
	removed []string
}

// stateFile is state.json's shape: every tracked file plus the
// collection-name-to-id table and the next ChunkId to allocate.
type stateFile struct {
	Files         map[string]core.FileState    `json:"files"`
	CollectionIDs map[string]core.CollectionId `json:"collection_ids"`
	NextChunkID   uint32                       `json:"next_chunk_id"`
}

func newStateFile() *stateFile {
	return &stateFile{
		Files:         make(map[string]core.FileState),
		CollectionIDs: make(map[string]core.CollectionId),
	}
}
