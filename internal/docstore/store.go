package docstore

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/codanna-go/codanna/internal/chunk"
	"github.com/codanna-go/codanna/internal/cluster"
	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/embedstage"
	"github.com/codanna-go/codanna/internal/errors"
	"github.com/codanna-go/codanna/internal/fulltext"
	"github.com/codanna-go/codanna/internal/vectorstore"
)

// Store binds the full-text index, vector store, clusterer, and
// state.json behind named document collections (component §4.10).
type Store struct {
	dir       string
	dimension int

	FullText  *fulltext.Index
	Vectors   *vectorstore.Store
	Generator embedstage.EmbeddingGenerator

	mu    sync.Mutex
	state *stateFile
}

// Open opens or creates a document store rooted at dir.
func Open(dir string, dimension int, generator embedstage.EmbeddingGenerator) (*Store, error) {
	idx, err := fulltext.Open(filepath.Join(dir, "fulltext"))
	if err != nil {
		return nil, err
	}
	state, err := loadState(dir)
	if err != nil {
		idx.Close()
		return nil, err
	}
	return &Store{
		dir:       dir,
		dimension: dimension,
		FullText:  idx,
		Vectors:   vectorstore.NewStore(filepath.Join(dir, "vectors"), dimension),
		Generator: generator,
		state:     state,
	}, nil
}

// Close releases the full-text index's and vector store's file handles.
func (s *Store) Close() error {
	var firstErr error
	if err := s.FullText.Close(); err != nil {
		firstErr = err
	}
	if err := s.Vectors.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func collectionDir(dir string, id core.CollectionId) string {
	return filepath.Join(dir, "collections", strconv.FormatUint(uint64(id.Value()), 10))
}

func collectionOrdinal(id core.CollectionId) core.SegmentOrdinal {
	return core.SegmentOrdinal(id.Value())
}

// ensureCollection resolves name's CollectionId, registering a new id if
// this is the first time name is seen. The Absent -> Registered
// transition of the documented collection state machine.
func (s *Store) ensureCollection(name string) core.CollectionId {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureCollectionLocked(name)
}

func (s *Store) ensureCollectionLocked(name string) core.CollectionId {
	if id, ok := s.state.CollectionIDs[name]; ok {
		return id
	}
	var maxID uint32
	for _, id := range s.state.CollectionIDs {
		if id.Value() > maxID {
			maxID = id.Value()
		}
	}
	id, _ := core.NewCollectionId(maxID + 1)
	s.state.CollectionIDs[name] = id
	return id
}

func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IndexCollectionWithProgress runs the full ingest algorithm for a named
// collection: enumerate, diff against state.json, delete stale chunks,
// chunk+embed changed files, commit, re-cluster, and persist state.
func (s *Store) IndexCollectionWithProgress(name string, cfg *config.Config, onProgress func(ProgressEvent)) (Stats, error) {
	collCfg, ok := cfg.Documents.Collections[name]
	if !ok {
		return Stats{}, errors.New("docstore", errors.CodeDocumentCollection, "unknown collection: "+name, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collectionID := s.ensureCollectionLocked(name)

	report := func(phase ProgressPhase, current, total int) {
		if onProgress != nil {
			onProgress(ProgressEvent{Phase: phase, Current: current, Total: total})
		}
	}

	discovered, err := enumerateFiles(collCfg.Paths, collCfg.Patterns)
	if err != nil {
		return Stats{}, errors.Wrap("docstore", errors.CodeDocumentStateIO, err)
	}
	report(PhaseEnumerate, len(discovered), len(discovered))

	var stats Stats
	stats.FilesScanned = len(discovered)

	diff := s.diffFiles(name, discovered)
	report(PhaseDiff, len(diff.changed)+len(diff.removed), len(discovered))
	stats.FilesChanged = len(diff.changed)
	stats.FilesRemoved = len(diff.removed)

	for _, path := range diff.removed {
		stats.ChunksDeleted += s.tombstoneFile(path)
	}

	minChars, maxChars, overlapChars := cfg.ChunkBoundsFor(name)
	chunker, err := chunk.New(chunk.Options{MinChunkChars: minChars, MaxChunkChars: maxChars, OverlapChars: overlapChars})
	if err != nil {
		return stats, err
	}

	var pairs []embedstage.Pair
	for i, path := range diff.changed {
		report(PhaseChunk, i+1, len(diff.changed))
		stats.ChunksDeleted += s.tombstoneFile(path)

		added, filePairs, err := s.chunkFile(path, name, chunker)
		if err != nil {
			continue
		}
		stats.ChunksAdded += added
		pairs = append(pairs, filePairs...)
	}

	if err := s.FullText.Commit(); err != nil {
		return stats, err
	}
	s.FullText.Reload()

	if len(pairs) > 0 {
		report(PhaseEmbed, 0, len(pairs))
		seg, err := s.Vectors.Segment(collectionOrdinal(collectionID))
		if err != nil {
			return stats, err
		}
		embedStats, err := embedstage.EmbedAndStore(pairs, s.Generator, seg, embedstage.DocumentBatchSize)
		if err != nil {
			return stats, err
		}
		stats.Embedded = embedStats.Embedded
		stats.Dropped = embedStats.Dropped
	}

	if stats.ChunksAdded > 0 || stats.ChunksDeleted > 0 {
		report(PhaseCluster, 0, 1)
		if err := s.recluster(name, collectionID); err != nil {
			return stats, err
		}
	}

	if err := s.state.save(s.dir); err != nil {
		return stats, err
	}
	return stats, nil
}

// ReindexFile repeats the ingest steps for a single file, locating its
// collection from the existing FileState entry.
func (s *Store) ReindexFile(path string, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.state.Files[path]
	if !ok {
		return errors.New("docstore", errors.CodeDocumentCollection, "no tracked file state for "+path, nil)
	}
	name := existing.CollectionOrLang
	collectionID := s.ensureCollectionLocked(name)

	minChars, maxChars, overlapChars := cfg.ChunkBoundsFor(name)
	chunker, err := chunk.New(chunk.Options{MinChunkChars: minChars, MaxChunkChars: maxChars, OverlapChars: overlapChars})
	if err != nil {
		return err
	}

	s.tombstoneFile(path)
	added, pairs, err := s.chunkFile(path, name, chunker)
	if err != nil {
		return err
	}

	if err := s.FullText.Commit(); err != nil {
		return err
	}
	s.FullText.Reload()

	if len(pairs) > 0 {
		seg, err := s.Vectors.Segment(collectionOrdinal(collectionID))
		if err != nil {
			return err
		}
		if _, err := embedstage.EmbedAndStore(pairs, s.Generator, seg, embedstage.DocumentBatchSize); err != nil {
			return err
		}
	}

	if added > 0 {
		if err := s.recluster(name, collectionID); err != nil {
			return err
		}
	}

	return s.state.save(s.dir)
}

// RemoveFile deletes a tracked file's chunks and its FileState entry.
func (s *Store) RemoveFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tombstoneFile(path)
	if err := s.FullText.Commit(); err != nil {
		return err
	}
	s.FullText.Reload()
	return s.state.save(s.dir)
}

// DeleteCollection tombstones every full-text chunk belonging to name.
// Its vector segment and cluster file are left on disk untouched. The
// collection's id is never reused. Files tracked under this collection are also untracked from
// state.json, matching the decision recorded in DESIGN.md's Open
// Question list: delete_collection cascades to its files rather than
// leaving orphaned FileState entries behind.
func (s *Store) DeleteCollection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FullText.DeleteByTerm("collection_name", name); err != nil {
		return err
	}
	if err := s.FullText.Commit(); err != nil {
		return err
	}
	s.FullText.Reload()

	for path, fs := range s.state.Files {
		if fs.CollectionOrLang == name {
			delete(s.state.Files, path)
		}
	}
	return s.state.save(s.dir)
}

// diffFiles partitions discovered against state.json: changed (hash
// differs or unseen) versus removed (tracked under this collection but no
// longer discovered).
func (s *Store) diffFiles(name string, discovered []string) fileDiff {
	seen := make(map[string]bool, len(discovered))
	var diff fileDiff

	for _, path := range discovered {
		seen[path] = true
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		existing, tracked := s.state.Files[path]
		if tracked && existing.Mtime == uint64(info.ModTime().Unix()) && existing.Size == info.Size() {
			continue
		}
		if tracked {
			if data, err := os.ReadFile(path); err == nil && hashContent(data) == existing.ContentHash {
				continue
			}
		}
		diff.changed = append(diff.changed, path)
	}

	for path, fs := range s.state.Files {
		if fs.CollectionOrLang == name && !seen[path] {
			diff.removed = append(diff.removed, path)
		}
	}
	return diff
}

// tombstoneFile deletes a tracked file's chunks from the full-text index
// (staged, not yet committed) and its FileState entry, returning how many
// chunks were deleted.
func (s *Store) tombstoneFile(path string) int {
	existing, ok := s.state.Files[path]
	if !ok {
		return 0
	}
	if err := s.FullText.DeleteByTerm("source_path", path); err != nil {
		return 0
	}
	delete(s.state.Files, path)
	return len(existing.OwnedChunkIDs)
}

// previewChars bounds content_preview the way the original documents
// implementation's DocumentChunk::preview did: a fixed character budget,
// truncated on a rune boundary rather than a byte offset.
const previewChars = 160

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewChars {
		return content
	}
	return string(runes[:previewChars]) + "..."
}

// chunkFile reads, chunks, and registers one file's chunks, returning how
// many were added and the embed pairs queued for the Embed Stage.
func (s *Store) chunkFile(path, collection string, chunker *chunk.Chunker) (int, []embedstage.Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, nil, err
	}

	rawChunks := chunker.Chunk(string(data))
	ownedIDs := make([]core.ChunkId, 0, len(rawChunks))
	var pairs []embedstage.Pair

	for _, raw := range rawChunks {
		s.state.NextChunkID++
		chunkID, err := core.NewChunkId(s.state.NextChunkID)
		if err != nil {
			continue
		}

		doc := fulltext.Document{
			DocType:        fulltext.DocTypeChunk,
			ChunkID:        uint64(chunkID),
			CollectionName: collection,
			SourcePath:     path,
			HeadingContext: raw.HeadingContext,
			Content:        raw.Content,
			ContentPreview: preview(raw.Content),
			ByteStart:      uint64(raw.ByteStart),
			ByteEnd:        uint64(raw.ByteEnd),
			CharCount:      uint64(charLen(raw.Content)),
			IndexedAt:      uint64(time.Now().Unix()),
		}
		if err := s.FullText.AddDocument(fulltext.ChunkAddress(uint64(chunkID)), doc); err != nil {
			continue
		}

		ownedIDs = append(ownedIDs, chunkID)
		pairs = append(pairs, embedstage.Pair{RawID: uint32(chunkID), Text: raw.Content})
	}

	s.state.Files[path] = core.FileState{
		Path:             path,
		CollectionOrLang: collection,
		ContentHash:      hashContent(data),
		OwnedChunkIDs:    ownedIDs,
		LastIndexed:      uint64(time.Now().Unix()),
		Mtime:            uint64(info.ModTime().Unix()),
		Size:             info.Size(),
	}

	return len(ownedIDs), pairs, nil
}

// recluster runs k-means from scratch over every chunk currently owned by
// name's tracked files ("simple re-clustering": no incremental update,
// matching the documented behavior), persisting the result to that
// collection's clusters.json.
func (s *Store) recluster(name string, collectionID core.CollectionId) error {
	seg, err := s.Vectors.Segment(collectionOrdinal(collectionID))
	if err != nil {
		return err
	}

	var ids []core.VectorId
	var vectors [][]float32
	for _, fs := range s.state.Files {
		if fs.CollectionOrLang != name {
			continue
		}
		for _, chunkID := range fs.OwnedChunkIDs {
			vid, err := core.NewVectorId(uint32(chunkID))
			if err != nil {
				continue
			}
			vec, ok, err := seg.ReadVector(vid)
			if err != nil || !ok {
				continue
			}
			ids = append(ids, vid)
			vectors = append(vectors, vec)
		}
	}

	result := cluster.Run(ids, vectors, cluster.Options{})
	dir := collectionDir(s.dir, collectionID)
	return cluster.Save(dir, result)
}

// Clusters loads name's persisted cluster assignments, or an empty
// Result if clustering has never run for it.
func (s *Store) Clusters(name string) (cluster.Result, error) {
	s.mu.Lock()
	collectionID, ok := s.state.CollectionIDs[name]
	s.mu.Unlock()
	if !ok {
		return cluster.Result{Assignments: map[core.VectorId]core.ClusterId{}}, nil
	}
	return cluster.Load(collectionDir(s.dir, collectionID))
}

// VectorReader returns name's vector segment, usable directly as
// search.VectorReader.
func (s *Store) VectorReader(name string) (*vectorstore.Segment, error) {
	s.mu.Lock()
	collectionID := s.ensureCollectionLocked(name)
	s.mu.Unlock()
	return s.Vectors.Segment(collectionOrdinal(collectionID))
}

func charLen(s string) int {
	count := 0
	for range s {
		count++
	}
	return count
}
