package vectorstore

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/exp/mmap"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/errors"
)

// Entry is one (id, vector) pair in a WriteBatch call.
type Entry struct {
	ID     core.VectorId
	Vector []float32
}

// Stats reports a segment's occupancy for compaction/rebuild decisions,
// mirroring the teacher's HNSWStats shape.
type Stats struct {
	Count      int // highest VectorId.Value() written
	Capacity   int // slots currently allocated on disk
	Tombstoned int // ids marked deleted but still occupying a slot
}

// Segment is one fixed-dimension vector file: a writer-exclusive os.File
// for WriteAt/growth, and a read-only mmap snapshot readers share until
// the next write batch replaces it. Single writer, many readers, exactly
// as spec.md's concurrency contract requires.
type Segment struct {
	mu sync.Mutex

	path       string
	dimension  int
	file       *os.File
	count      uint64
	capacity   uint64
	tombstones map[uint32]bool

	reader *mmap.ReaderAt
}

// segmentPath returns the on-disk path for one segment within dir.
func segmentPath(dir string, ordinal core.SegmentOrdinal) string {
	return filepath.Join(dir, "segment-"+strconv.FormatUint(uint64(ordinal), 10)+".cdvs")
}

func tombstonePath(path string) string { return path + ".tombstones" }

// Open creates or opens a segment at (dir, ordinal) for the given
// dimension. Per spec.md §4.4: a fresh file is created empty at that
// dimension; an existing file has its dimension verified, and a mismatch
// is fatal.
func Open(dir string, ordinal core.SegmentOrdinal, dimension int) (*Segment, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	path := segmentPath(dir, ordinal)

	seg := &Segment{path: path, dimension: dimension, tombstones: make(map[uint32]bool)}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := seg.create(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	} else {
		if err := seg.open(); err != nil {
			return nil, err
		}
	}

	seg.loadTombstones()
	return seg, nil
}

func (s *Segment) create() error {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	s.file = f
	s.capacity = initialCapacity
	s.count = 0

	body := make([]byte, int64(s.capacity)*int64(s.dimension)*4)
	if _, err := f.Write(s.header().encode()); err != nil {
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	if _, err := f.Write(body); err != nil {
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	return s.remap()
}

func (s *Segment) open() error {
	f, err := os.OpenFile(s.path, os.O_RDWR, 0o644)
	if err != nil {
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}

	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		f.Close()
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	h, err := decodeHeader(buf)
	if err != nil {
		f.Close()
		return err
	}
	if int(h.Dimension) != s.dimension {
		f.Close()
		return errors.New("vectorstore", errors.CodeDimensionMismatch,
			"segment dimension does not match the requested dimension", nil).
			WithPath(s.path)
	}

	s.file = f
	s.count = h.Count
	s.capacity = h.Capacity
	return s.remap()
}

func (s *Segment) header() fileHeader {
	return fileHeader{Magic: magic, Version: formatVersion, Dimension: uint32(s.dimension), Count: s.count, Capacity: s.capacity}
}

// remap closes the previous mmap snapshot (if any) and opens a fresh one
// over the current file contents, so readers never see a torn write.
func (s *Segment) remap() error {
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
	r, err := mmap.Open(s.path)
	if err != nil {
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	s.reader = r
	return nil
}

// WriteBatch writes every entry's slot in order and syncs once, growing
// the segment's capacity first if any id falls past the current slots.
func (s *Segment) WriteBatch(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if len(e.Vector) != s.dimension {
			return errors.New("vectorstore", errors.CodeDimensionMismatch, "vector dimension mismatch", nil).WithPath(s.path)
		}
	}

	maxID := uint64(0)
	for _, e := range entries {
		if v := uint64(e.ID.Value()); v > maxID {
			maxID = v
		}
	}
	if maxID > s.capacity {
		if err := s.grow(maxID); err != nil {
			return err
		}
	}

	for _, e := range entries {
		off := slotOffset(e.ID.Value(), uint32(s.dimension))
		if _, err := s.file.WriteAt(encodeVector(e.Vector), off); err != nil {
			return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
		}
		delete(s.tombstones, e.ID.Value())
		if uint64(e.ID.Value()) > s.count {
			s.count = uint64(e.ID.Value())
		}
	}

	if err := s.file.Sync(); err != nil {
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	if err := s.writeHeader(); err != nil {
		return err
	}
	if err := s.saveTombstones(); err != nil {
		return err
	}
	return s.remap()
}

// grow doubles capacity until it covers minCapacity, extending the file
// with zeroed slots.
func (s *Segment) grow(minCapacity uint64) error {
	newCapacity := s.capacity
	if newCapacity == 0 {
		newCapacity = initialCapacity
	}
	for newCapacity < minCapacity {
		newCapacity *= 2
	}

	newSize := int64(headerSize) + int64(newCapacity)*int64(s.dimension)*4
	if err := s.file.Truncate(newSize); err != nil {
		return errors.Wrap("vectorstore", errors.CodeOutOfCapacity, err)
	}
	s.capacity = newCapacity
	return nil
}

func (s *Segment) writeHeader() error {
	if _, err := s.file.WriteAt(s.header().encode(), 0); err != nil {
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	return s.file.Sync()
}

// ReadVector returns a copy of the vector stored at id, or false if the id
// is zero, is past the highest id written, or has been tombstoned. A slot
// below the highest id that was never written reads back as a zero vector.
// Accessed through the mmap snapshot, so a read never issues a read(2)
// syscall beyond what the page cache already serves.
func (s *Segment) ReadVector(id core.VectorId) ([]float32, bool, error) {
	s.mu.Lock()
	reader := s.reader
	count := s.count
	tombstoned := s.tombstones[id.Value()]
	dimension := s.dimension
	s.mu.Unlock()

	if id.Value() == 0 || uint64(id.Value()) > count || tombstoned {
		return nil, false, nil
	}

	off := slotOffset(id.Value(), uint32(dimension))
	buf := make([]byte, dimension*4)
	if _, err := reader.ReadAt(buf, off); err != nil {
		return nil, false, errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	return decodeVector(buf, dimension), true, nil
}

// Tombstone marks id as logically deleted. The slot's bytes are left in
// place; the segment never shrinks.
func (s *Segment) Tombstone(id core.VectorId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tombstones[id.Value()] = true
	return s.saveTombstones()
}

// Stats reports the segment's current occupancy.
func (s *Segment) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Count: int(s.count), Capacity: int(s.capacity), Tombstoned: len(s.tombstones)}
}

// Close releases the segment's file handles.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
	return s.file.Close()
}

type tombstoneSet struct {
	IDs map[uint32]bool
}

func (s *Segment) saveTombstones() error {
	path := tombstonePath(s.path)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	if err := gob.NewEncoder(f).Encode(tombstoneSet{IDs: s.tombstones}); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap("vectorstore", errors.CodeVectorIO, err)
	}
	return os.Rename(tmp, path)
}

func (s *Segment) loadTombstones() {
	f, err := os.Open(tombstonePath(s.path))
	if err != nil {
		return
	}
	defer f.Close()

	var set tombstoneSet
	if err := gob.NewDecoder(f).Decode(&set); err == nil && set.IDs != nil {
		s.tombstones = set.IDs
	}
}
