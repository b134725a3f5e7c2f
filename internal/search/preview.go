package search

import (
	"sort"
	"strings"
)

// PreviewMode selects how a result's content is rendered for display.
type PreviewMode string

const (
	// PreviewFull shows the entire chunk content.
	PreviewFull PreviewMode = "full"
	// PreviewKWIC centers a window on the first query-term match.
	PreviewKWIC PreviewMode = "kwic"
)

// PreviewConfig controls preview rendering for one search request.
type PreviewConfig struct {
	Mode      PreviewMode
	Chars     int
	Highlight bool
}

// DefaultPreviewConfig matches the defaults a fresh collection gets: a
// 600-character KWIC window with highlighting on.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{Mode: PreviewKWIC, Chars: 600, Highlight: true}
}

func (c PreviewConfig) withDefaults() PreviewConfig {
	if c.Mode == "" {
		c.Mode = PreviewKWIC
	}
	if c.Chars <= 0 {
		c.Chars = 600
	}
	return c
}

const (
	highlightStart = "\x1b[1;36m>>"
	highlightEnd   = "<<\x1b[0m"
)

// generatePreview renders content per cfg: the full text or a KWIC window,
// then highlights matching query terms if requested.
func generatePreview(content, query string, cfg PreviewConfig) string {
	cfg = cfg.withDefaults()

	preview := content
	if cfg.Mode == PreviewKWIC {
		preview = extractKWIC(content, query, cfg.Chars)
	}
	if cfg.Highlight {
		preview = highlightKeywords(preview, query)
	}
	return preview
}

// extractKWIC centers a windowChars-wide preview on the first occurrence
// of any query word (case-insensitive, words under two chars ignored),
// expanding both edges out to the nearest whitespace so words are never
// cut mid-character, and marking truncation with "...".
func extractKWIC(content, query string, windowChars int) string {
	contentLower := strings.ToLower(content)
	bestBytePos := -1
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) < 2 {
			continue
		}
		if pos := strings.Index(contentLower, word); pos != -1 && (bestBytePos == -1 || pos < bestBytePos) {
			bestBytePos = pos
		}
	}
	if bestBytePos == -1 {
		bestBytePos = 0
	}

	chars := []rune(content)
	total := len(chars)
	charPos := len([]rune(content[:bestBytePos]))
	if charPos > total {
		charPos = total
	}

	half := windowChars / 2
	start := charPos - half
	if start < 0 {
		start = 0
	}
	end := charPos + half
	if end > total {
		end = total
	}

	for start > 0 && !isSpace(chars[start-1]) {
		start--
	}
	for end < total && !isSpace(chars[end]) {
		end++
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(chars[start:end]))
	if end < total {
		b.WriteString("...")
	}
	return b.String()
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// highlightKeywords wraps every query-word match in text with dual ANSI +
// text markers, merging matches separated only by spaces/tabs into a
// single highlighted span so ">>word1<< >>word2<<" becomes ">>word1
// word2<<".
func highlightKeywords(text, query string) string {
	textLower := strings.ToLower(text)

	type span struct{ start, end int }
	var matches []span
	for _, word := range strings.Fields(query) {
		if len(word) < 2 {
			continue
		}
		wordLower := strings.ToLower(word)
		searchStart := 0
		for {
			rel := strings.Index(textLower[searchStart:], wordLower)
			if rel == -1 {
				break
			}
			start := searchStart + rel
			end := start + len(word)
			matches = append(matches, span{start, end})
			searchStart = end
		}
	}
	if len(matches) == 0 {
		return text
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	merged := matches[:1]
	for _, m := range matches[1:] {
		last := &merged[len(merged)-1]
		between := text[last.end:m.start]
		adjacent := m.start <= last.end || isOnlySpacesOrTabs(between)
		if adjacent {
			if m.end > last.end {
				last.end = m.end
			}
			continue
		}
		merged = append(merged, m)
	}

	var b strings.Builder
	offset := 0
	for _, m := range merged {
		b.WriteString(text[offset:m.start])
		b.WriteString(highlightStart)
		b.WriteString(text[m.start:m.end])
		b.WriteString(highlightEnd)
		offset = m.end
	}
	b.WriteString(text[offset:])
	return b.String()
}

func isOnlySpacesOrTabs(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}
