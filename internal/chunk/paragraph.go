package chunk

import "regexp"

// codeBlockPattern matches fenced code blocks, including their metadata.
var codeBlockPattern = regexp.MustCompile("(?s)```[^`]*```")

// tablePattern matches a Markdown table: a header row, optional separator
// row, and any number of body rows.
var tablePattern = regexp.MustCompile(`(?m)^\|.+\|$(\n^\|[-:|]+\|$)?(\n^\|.+\|$)*`)

// byteRange is a half-open [start, end) span of absolute byte offsets.
type byteRange struct{ start, end int }

// findAtomicRanges locates spans that must never be split mid-block: fenced
// code and tables. A blank-line boundary inside one of these is ignored.
func findAtomicRanges(content string) []byteRange {
	var ranges []byteRange
	for _, m := range codeBlockPattern.FindAllStringIndex(content, -1) {
		ranges = append(ranges, byteRange{m[0], m[1]})
	}
	for _, m := range tablePattern.FindAllStringIndex(content, -1) {
		ranges = append(ranges, byteRange{m[0], m[1]})
	}
	return ranges
}

func insideAny(pos int, ranges []byteRange) bool {
	for _, r := range ranges {
		if pos > r.start && pos < r.end {
			return true
		}
	}
	return false
}

// paragraph is a contiguous, trimmed slice of a segment's body.
type paragraph struct{ start, end int }

// splitParagraphs splits content[segStart:segEnd] on blank-line boundaries,
// skipping any boundary that falls inside an atomic block, and trims
// leading/trailing whitespace from each resulting span. Empty (whitespace
// only) spans are dropped.
func splitParagraphs(content string, segStart, segEnd int, atomicRanges []byteRange) []paragraph {
	body := content[segStart:segEnd]
	matches := blankLineSeparator.FindAllStringIndex(body, -1)

	var paragraphs []paragraph
	prev := 0
	for _, m := range matches {
		absStart := segStart + m[0]
		if insideAny(absStart, atomicRanges) {
			continue
		}
		if p, ok := trimSpan(content, segStart+prev, segStart+m[0]); ok {
			paragraphs = append(paragraphs, p)
		}
		prev = m[1]
	}
	if p, ok := trimSpan(content, segStart+prev, segEnd); ok {
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

// trimSpan trims ASCII whitespace from both ends of content[start:end],
// returning ok=false if nothing but whitespace remains. Trimming only
// ever removes single-byte ASCII bytes, so it never moves a boundary off
// a UTF-8 rune boundary.
func trimSpan(content string, start, end int) (paragraph, bool) {
	for start < end && isSpace(content[start]) {
		start++
	}
	for end > start && isSpace(content[end-1]) {
		end--
	}
	if start >= end {
		return paragraph{}, false
	}
	return paragraph{start, end}, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
