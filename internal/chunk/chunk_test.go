package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsMinNotLessThanMax(t *testing.T) {
	_, err := New(Options{MinChunkChars: 100, MaxChunkChars: 100, OverlapChars: 10})
	assert.Error(t, err)
}

func TestNew_RejectsOverlapNotLessThanMin(t *testing.T) {
	_, err := New(Options{MinChunkChars: 50, MaxChunkChars: 100, OverlapChars: 50})
	assert.Error(t, err)
}

func TestChunk_MergesTinyParagraphsBelowMin(t *testing.T) {
	// Given: two tiny paragraphs followed by one already past the floor.
	c, err := New(Options{MinChunkChars: 50, MaxChunkChars: 500, OverlapChars: 20})
	require.NoError(t, err)
	content := "Tiny.\n\nAlso tiny.\n\n" + strings.Repeat("a", 400)

	// When: chunking.
	chunks := c.Chunk(content)

	// Then: exactly two chunks, the first merging both tiny paragraphs,
	// the second the long run verbatim.
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Content, "Tiny.")
	assert.Contains(t, chunks[0].Content, "Also tiny.")
	assert.Equal(t, strings.Repeat("a", 400), chunks[1].Content)
}

func TestChunk_SlidingWindowSplitsOversizedParagraph(t *testing.T) {
	// Given: one 1000-char paragraph with no blank lines at all.
	c, err := New(Options{MinChunkChars: 20, MaxChunkChars: 100, OverlapChars: 20})
	require.NoError(t, err)
	content := strings.Repeat("word ", 200)

	// When: chunking.
	chunks := c.Chunk(content)

	// Then: at least 10 chunks, none over the ceiling.
	assert.GreaterOrEqual(t, len(chunks), 10)
	for _, ch := range chunks {
		assert.LessOrEqual(t, charLen(ch.Content), 100)
	}
}

func TestChunk_ByteRangesAreUTF8SafeAndWithinBounds(t *testing.T) {
	c, err := New(Options{MinChunkChars: 10, MaxChunkChars: 40, OverlapChars: 5})
	require.NoError(t, err)
	content := "# Héading\n\nCafé naïve déjà vu 日本語のテスト文章です。" + strings.Repeat("x", 200)

	chunks := c.Chunk(content)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		require.GreaterOrEqual(t, ch.ByteStart, 0)
		require.LessOrEqual(t, ch.ByteEnd, len(content))
		require.LessOrEqual(t, ch.ByteStart, ch.ByteEnd)
		slice := content[ch.ByteStart:ch.ByteEnd]
		assert.True(t, strings.ToValidUTF8(slice, "") == slice, "chunk byte range must decode as valid UTF-8")
		assert.Equal(t, ch.Content, slice)
	}
}

func TestChunk_HeadingContextTracksNestedHeadings(t *testing.T) {
	c, err := New(Options{MinChunkChars: 1, MaxChunkChars: 1000, OverlapChars: 0})
	require.NoError(t, err)
	content := "# Intro\n\nTop level text.\n\n## Setup\n\nNested text here.\n"

	chunks := c.Chunk(content)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"Intro"}, chunks[0].HeadingContext)
	assert.Equal(t, []string{"Intro", "Setup"}, chunks[1].HeadingContext)
}

func TestChunk_SiblingHeadingResetsDeeperContext(t *testing.T) {
	c, err := New(Options{MinChunkChars: 1, MaxChunkChars: 1000, OverlapChars: 0})
	require.NoError(t, err)
	content := "# A\n\n## B\n\ntext one\n\n# C\n\ntext two\n"

	chunks := c.Chunk(content)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"A", "B"}, chunks[0].HeadingContext)
	assert.Equal(t, []string{"C"}, chunks[1].HeadingContext)
}

func TestChunk_NoHeadingsYieldsEmptyContext(t *testing.T) {
	c, err := New(Options{MinChunkChars: 1, MaxChunkChars: 1000, OverlapChars: 0})
	require.NoError(t, err)

	chunks := c.Chunk("just a paragraph, no headings at all")
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].HeadingContext)
}

func TestChunk_BlankOrWhitespaceContentYieldsNoChunks(t *testing.T) {
	c, err := New(Options{MinChunkChars: 10, MaxChunkChars: 100, OverlapChars: 5})
	require.NoError(t, err)
	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("   \n\n  \n"))
}

func TestChunk_PreservesCodeBlockAcrossBlankLines(t *testing.T) {
	c, err := New(Options{MinChunkChars: 5, MaxChunkChars: 1000, OverlapChars: 0})
	require.NoError(t, err)
	content := "intro\n\n```go\nfunc a() {}\n\nfunc b() {}\n```\n\noutro"

	chunks := c.Chunk(content)
	for _, ch := range chunks {
		if strings.Contains(ch.Content, "func a()") {
			assert.Contains(t, ch.Content, "func b()", "blank line inside a fenced code block must not split it")
		}
	}
}
