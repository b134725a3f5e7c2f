package envelope

import (
	"fmt"
	"io"
)

// Console renders an Envelope as the icon-prefixed human text the teacher's
// output.Writer produced, for CLI invocations without --json. It keeps the
// teacher's icon vocabulary (checkmark for success, warning, cross) rather
// than reinventing one.
type Console struct {
	out io.Writer
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Print writes env's message with a status icon, and its hint on a
// following line when present.
func (c *Console) Print(env *Envelope) {
	icon := "✅"
	switch env.Code {
	case CodeNotFound:
		icon = "⚠️ "
	case CodeOK:
		icon = "✅"
	default:
		if env.Status == StatusError {
			icon = "❌"
		}
	}
	_, _ = fmt.Fprintf(c.out, "%s %s\n", icon, env.Message)
	if env.Hint != "" {
		_, _ = fmt.Fprintf(c.out, "   hint: %s\n", env.Hint)
	}
}
