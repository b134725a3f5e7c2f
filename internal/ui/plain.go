package ui

import (
	"fmt"
	"io"
)

// PlainRenderer prints a line on each stage transition and on each update
// that carries a total, then a multi-line final summary. Used for pipes,
// CI, and non-interactive terminals.
type PlainRenderer struct {
	out       io.Writer
	styles    Styles
	lastStage Stage
	haveStage bool
}

// NewPlainRenderer builds a PlainRenderer writing to cfg.Output.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	noColor := cfg.NoColor || DetectNoColor() || !IsTTY(cfg.Output)
	return &PlainRenderer{out: cfg.Output, styles: GetStyles(noColor)}
}

func (r *PlainRenderer) Start() error { return nil }

func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	if r.haveStage && event.Stage == r.lastStage && event.Total == 0 {
		return
	}
	r.lastStage, r.haveStage = event.Stage, true

	label := r.styles.Stage.Render(event.Stage.String())
	switch {
	case event.Total > 0:
		fmt.Fprintf(r.out, "%s: %d/%d %s\n", label, event.Current, event.Total, event.Message)
	case event.Current > 0:
		fmt.Fprintf(r.out, "%s: %d %s\n", label, event.Current, event.Message)
	default:
		fmt.Fprintf(r.out, "%s %s\n", label, event.Message)
	}
}

func (r *PlainRenderer) Complete(stats CompletionStats) {
	fmt.Fprintln(r.out, r.styles.Header.Render("Index complete"))
	fmt.Fprintf(r.out, "  files discovered: %d\n", stats.FilesDiscovered)
	fmt.Fprintf(r.out, "  symbols indexed:  %d\n", stats.SymbolsIndexed)
	fmt.Fprintf(r.out, "  symbols embedded: %d\n", stats.SymbolsEmbedded)
	fmt.Fprintf(r.out, "  collections:      %d\n", stats.Collections)
}

func (r *PlainRenderer) Stop() error { return nil }
