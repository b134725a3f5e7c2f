package chunk

import (
	"github.com/codanna-go/codanna/internal/core"
)

// chunkParagraphs applies the merge-below-min / split-above-max rule to
// one segment's paragraphs, in order, tagging every resulting chunk with
// the segment's heading context.
func (c *Chunker) chunkParagraphs(content string, paragraphs []paragraph, context []string) []core.RawChunk {
	var out []core.RawChunk

	bufStart, bufEnd := -1, -1
	hasBuf := func() bool { return bufStart >= 0 }
	flush := func() {
		if !hasBuf() {
			return
		}
		out = append(out, c.emitSpan(content, bufStart, bufEnd, context)...)
		bufStart, bufEnd = -1, -1
	}

	for _, p := range paragraphs {
		if charLen(content[p.start:p.end]) >= c.opts.MinChunkChars {
			// Already at or above the floor on its own: whatever was
			// accumulating before it closes out first, then this
			// paragraph becomes its own chunk (split further if needed).
			flush()
			out = append(out, c.emitSpan(content, p.start, p.end, context)...)
			continue
		}

		if !hasBuf() {
			bufStart, bufEnd = p.start, p.end
		} else {
			bufEnd = p.end
		}
		if charLen(content[bufStart:bufEnd]) >= c.opts.MinChunkChars {
			flush()
		}
	}
	flush()

	return out
}

// emitSpan turns one accumulated span into one or more RawChunks: a
// single chunk if it already fits under the ceiling, otherwise a sliding
// window with overlap.
func (c *Chunker) emitSpan(content string, start, end int, context []string) []core.RawChunk {
	if charLen(content[start:end]) <= c.opts.MaxChunkChars {
		return []core.RawChunk{rawChunk(content, start, end, context)}
	}
	return c.slidingWindowSplit(content, start, end, context)
}

// slidingWindowSplit walks a rune-index sliding window of MaxChunkChars
// with OverlapChars overlap over content[start:end], translating rune
// positions back to byte offsets so every emitted chunk lands on a valid
// UTF-8 boundary.
func (c *Chunker) slidingWindowSplit(content string, start, end int, context []string) []core.RawChunk {
	bounds := runeBoundaries(content[start:end])
	numRunes := len(bounds) - 1
	step := c.opts.MaxChunkChars - c.opts.OverlapChars

	var out []core.RawChunk
	winStart := 0
	for winStart < numRunes {
		winEnd := winStart + c.opts.MaxChunkChars
		if winEnd > numRunes {
			winEnd = numRunes
		}
		out = append(out, rawChunk(content, start+bounds[winStart], start+bounds[winEnd], context))
		if winEnd >= numRunes {
			break
		}
		winStart += step
	}
	return out
}

// runeBoundaries returns the byte offset of every rune in s plus a final
// entry for len(s), so bounds[i] is where rune i starts.
func runeBoundaries(s string) []int {
	bounds := make([]int, 0, len(s)+1)
	for i := range s {
		bounds = append(bounds, i)
	}
	bounds = append(bounds, len(s))
	return bounds
}

func rawChunk(content string, start, end int, context []string) core.RawChunk {
	return core.RawChunk{
		ByteStart:      start,
		ByteEnd:        end,
		HeadingContext: append([]string(nil), context...),
		Content:        content[start:end],
	}
}
