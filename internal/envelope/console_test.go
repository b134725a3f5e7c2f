package envelope

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole_Print_SuccessUsesCheckmark(t *testing.T) {
	// Given: a console writer with a buffer
	buf := &bytes.Buffer{}
	c := NewConsole(buf)

	// When: printing a success envelope
	c.Print(Ok("symbol", "Index complete!", nil, NewMeta()))

	// Then: output contains checkmark and message
	output := buf.String()
	assert.Contains(t, output, "✅")
	assert.Contains(t, output, "Index complete!")
}

func TestConsole_Print_NotFoundUsesWarningIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewConsole(buf)

	c.Print(NotFound("symbol", "no symbol named Foo", NewMeta()))

	output := buf.String()
	assert.Contains(t, output, "⚠️")
	assert.Contains(t, output, "no symbol named Foo")
}

func TestConsole_Print_ErrorUsesCrossIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewConsole(buf)

	c.Print(InvalidQuery("graph_query", "unknown relation kind", NewMeta()))

	output := buf.String()
	assert.Contains(t, output, "❌")
}

func TestConsole_Print_WithHint_PrintsHintLine(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewConsole(buf)

	env := Ok("symbol", "done", nil, NewMeta())
	env.Hint = "try --verbose for more detail"
	c.Print(env)

	assert.Contains(t, buf.String(), "hint: try --verbose for more detail")
}
