package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKWIC_CentersOnFirstMatchAndExpandsToWordBoundaries(t *testing.T) {
	content := "the quick brown fox jumps over the lazy dog"
	preview := extractKWIC(content, "fox", 10)
	assert.Contains(t, preview, "fox")
	assert.True(t, len(preview) > 0)
}

func TestExtractKWIC_NoMatch_StartsFromBeginning(t *testing.T) {
	content := "alpha beta gamma delta"
	preview := extractKWIC(content, "zzz", 100)
	assert.Equal(t, content, preview, "a window covering the whole content with no trailing text needs no ellipsis")
}

func TestExtractKWIC_AddsEllipsesWhenTruncated(t *testing.T) {
	content := "aaaa bbbb cccc dddd eeee ffff gggg hhhh"
	preview := extractKWIC(content, "dddd", 6)
	assert.True(t, len(preview) < len(content))
	assert.Contains(t, preview, "...")
}

func TestHighlightKeywords_WrapsMatchWithDualMarkers(t *testing.T) {
	out := highlightKeywords("parse the request", "parse")
	assert.Equal(t, "\x1b[1;36m>>parse<<\x1b[0m the request", out)
}

func TestHighlightKeywords_MergesAdjacentMatchesSeparatedBySpace(t *testing.T) {
	out := highlightKeywords("foo bar baz", "foo bar")
	assert.Equal(t, "\x1b[1;36m>>foo bar<<\x1b[0m baz", out)
}

func TestHighlightKeywords_NoMatch_ReturnsTextUnchanged(t *testing.T) {
	out := highlightKeywords("nothing matches here", "zzz")
	assert.Equal(t, "nothing matches here", out)
}

func TestHighlightKeywords_SkipsWordsUnderTwoChars(t *testing.T) {
	out := highlightKeywords("a b parse", "a parse")
	assert.Equal(t, "a b \x1b[1;36m>>parse<<\x1b[0m", out)
}

func TestGeneratePreview_FullModeSkipsWindowing(t *testing.T) {
	content := "short content"
	out := generatePreview(content, "short", PreviewConfig{Mode: PreviewFull, Highlight: false})
	assert.Equal(t, content, out)
}
