// Package chunk splits a document's text into retrievable slices: the
// hybrid heading+paragraph chunker (component D). It scans Markdown-style
// ATX headings to build a breadcrumb context, splits the remaining body on
// blank-line boundaries, merges runs of small paragraphs up to a floor, and
// slides a fixed window with overlap over anything past a ceiling.
package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/errors"
)

// headingPattern matches ATX headings: 1-6 '#' followed by a space.
var headingPattern = regexp.MustCompile(`(?m)^(#{1,6}) (.+)$`)

// blankLineSeparator matches one or more blank lines between paragraphs.
var blankLineSeparator = regexp.MustCompile(`\n[ \t]*\n[ \t\n]*`)

// Options configures the chunker's size constraints, resolved per
// collection via config.ChunkBoundsFor.
type Options struct {
	MinChunkChars int
	MaxChunkChars int
	OverlapChars  int
}

// Validate enforces the constraints documents.defaults (and any
// per-collection override) must already satisfy: 0 < min < max and
// overlap < min. Checked again here so Chunker never runs with bounds
// that could put it in an infinite split loop.
func (o Options) Validate() error {
	if o.MinChunkChars <= 0 {
		return errors.New("chunk", errors.CodeConfigInvalid, "min_chunk_chars must be positive", nil)
	}
	if o.MaxChunkChars <= o.MinChunkChars {
		return errors.New("chunk", errors.CodeConfigInvalid, "max_chunk_chars must exceed min_chunk_chars", nil)
	}
	if o.OverlapChars >= o.MinChunkChars {
		return errors.New("chunk", errors.CodeConfigInvalid, "overlap_chars must be less than min_chunk_chars", nil)
	}
	return nil
}

// Chunker implements the hybrid heading+paragraph splitting strategy.
type Chunker struct {
	opts Options
}

// New returns a Chunker for the given bounds, rejecting bounds that
// violate the documented invariant.
func New(opts Options) (*Chunker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{opts: opts}, nil
}

// segment is the body text following zero or more headings, paired with
// the heading breadcrumb that is active across its whole span.
type segment struct {
	start, end int // byte offsets into the original content
	context    []string
}

// Chunk splits content into RawChunks. Byte ranges always index directly
// into content, so every invariant about UTF-8 boundaries and byte-range
// soundness holds by construction: a chunk's content is always the exact
// slice content[ByteStart:ByteEnd].
func (c *Chunker) Chunk(content string) []core.RawChunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	segments := splitSegments(content)
	atomicRanges := findAtomicRanges(content)

	var out []core.RawChunk
	for _, seg := range segments {
		paragraphs := splitParagraphs(content, seg.start, seg.end, atomicRanges)
		out = append(out, c.chunkParagraphs(content, paragraphs, seg.context)...)
	}
	return out
}

// splitSegments walks every heading in document order, building the
// breadcrumb stack as it goes, and returns one segment per run of body
// text between headings (including the text before the first heading,
// under an empty context).
func splitSegments(content string) []segment {
	matches := headingPattern.FindAllStringSubmatchIndex(content, -1)

	var stack [6]string
	var segments []segment
	prevEnd := 0

	appendSegment := func(start, end int) {
		if start >= end {
			return
		}
		segments = append(segments, segment{start: start, end: end, context: breadcrumb(stack)})
	}

	for _, m := range matches {
		headingStart, headingEnd := m[0], m[1]
		titleStart, titleEnd := m[4], m[5]

		appendSegment(prevEnd, headingStart)

		level := m[3] - m[2] // length of the '#'*n group
		stack[level-1] = strings.TrimSpace(content[titleStart:titleEnd])
		for i := level; i < 6; i++ {
			stack[i] = ""
		}

		end := headingEnd
		if end < len(content) && content[end] == '\n' {
			end++
		}
		prevEnd = end
	}
	appendSegment(prevEnd, len(content))

	return segments
}

// breadcrumb copies the non-empty stack entries in outer-to-inner order.
func breadcrumb(stack [6]string) []string {
	var out []string
	for _, title := range stack {
		if title != "" {
			out = append(out, title)
		}
	}
	return out
}

// charLen counts Unicode scalar values, matching the spec's notion of
// "char count" rather than raw byte length.
func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
