// Package vectorstore implements the fixed-dimension f32 vector segment
// store (component E): a custom mmap-backed binary format, append/overwrite
// writes addressed by VectorId, zero-copy-by-page-cache reads, and logical
// tombstoning that never shrinks a segment.
package vectorstore

import (
	"encoding/binary"
	"math"

	"github.com/codanna-go/codanna/internal/errors"
)

// magic identifies a codanna vector segment file.
const magic uint32 = 0x43445653 // "CDVS"

// formatVersion is bumped whenever the on-disk layout changes incompatibly.
const formatVersion uint32 = 1

// headerSize is the fixed byte size of fileHeader on disk:
// magic(4) + version(4) + dimension(4) + count(8) + capacity(8).
const headerSize = 4 + 4 + 4 + 8 + 8

// initialCapacity is the slot count a freshly created segment starts with.
const initialCapacity = 1024

// fileHeader is the fixed-size header at the start of every segment file.
type fileHeader struct {
	Magic     uint32
	Version   uint32
	Dimension uint32
	Count     uint64 // highest VectorId.Value() ever written into this segment
	Capacity  uint64 // number of slots currently allocated on disk
}

func (h fileHeader) encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Dimension)
	binary.LittleEndian.PutUint64(buf[12:20], h.Count)
	binary.LittleEndian.PutUint64(buf[20:28], h.Capacity)
	return buf
}

func decodeHeader(buf []byte) (fileHeader, error) {
	if len(buf) < headerSize {
		return fileHeader{}, errors.New("vectorstore", errors.CodeVectorIO, "segment file is shorter than its header", nil)
	}
	h := fileHeader{
		Magic:     binary.LittleEndian.Uint32(buf[0:4]),
		Version:   binary.LittleEndian.Uint32(buf[4:8]),
		Dimension: binary.LittleEndian.Uint32(buf[8:12]),
		Count:     binary.LittleEndian.Uint64(buf[12:20]),
		Capacity:  binary.LittleEndian.Uint64(buf[20:28]),
	}
	if h.Magic != magic {
		return fileHeader{}, errors.New("vectorstore", errors.CodeVectorIO, "not a codanna vector segment file", nil)
	}
	return h, nil
}

// slotOffset returns the byte offset of the slot for a 1-based dense id.
func slotOffset(id, dimension uint32) int64 {
	return int64(headerSize) + int64(id-1)*int64(dimension)*4
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte, dimension int) []float32 {
	v := make([]float32, dimension)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
	}
	return v
}
