package vectorstore

import (
	"sync"

	"github.com/codanna-go/codanna/internal/core"
)

// Store manages the segments of one fixed-dimension vector collection,
// opening each segment lazily on first access.
type Store struct {
	mu        sync.Mutex
	dir       string
	dimension int
	segments  map[core.SegmentOrdinal]*Segment
}

// NewStore returns a Store rooted at dir for vectors of the given
// dimension. No segment file is created until Segment is first called.
func NewStore(dir string, dimension int) *Store {
	return &Store{dir: dir, dimension: dimension, segments: make(map[core.SegmentOrdinal]*Segment)}
}

// Segment returns the segment for ordinal, opening or creating it on
// first use.
func (s *Store) Segment(ordinal core.SegmentOrdinal) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seg, ok := s.segments[ordinal]; ok {
		return seg, nil
	}
	seg, err := Open(s.dir, ordinal, s.dimension)
	if err != nil {
		return nil, err
	}
	s.segments[ordinal] = seg
	return seg, nil
}

// Close releases every opened segment's file handles.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, seg := range s.segments {
		if err := seg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
