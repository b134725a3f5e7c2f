// Package ui provides terminal progress and status display for the CLI:
// a rich bubbletea TUI on an interactive terminal, a line-oriented
// fallback everywhere else.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Stage identifies which part of an index run is currently active.
type Stage int

const (
	StageDiscover Stage = iota
	StageParse
	StageIndex
	StageDocuments
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageDiscover:
		return "Discovering"
	case StageParse:
		return "Parsing"
	case StageIndex:
		return "Indexing/Embedding"
	case StageDocuments:
		return "Documents"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// ProgressEvent is one point-in-time update for the active stage.
// Total of 0 means the stage has no known item count (code indexing
// reports items processed so far with no upfront total; document
// collections know their file count ahead of time).
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	Message string
}

// CompletionStats summarizes a finished index run for the closing
// render.
type CompletionStats struct {
	FilesDiscovered int
	SymbolsIndexed  int
	SymbolsEmbedded int
	Collections     int
}

// Renderer displays progress for one index run.
type Renderer interface {
	Start() error
	UpdateProgress(event ProgressEvent)
	Complete(stats CompletionStats)
	Stop() error
}

// Config selects how a Renderer presents itself.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
}

// NewRenderer returns a TUIRenderer for an interactive terminal, or a
// PlainRenderer for pipes, CI, and --no-tui runs, falling back to plain
// if TUI initialization fails for any reason.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY reports whether w is a terminal file descriptor.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether NO_COLOR is set, per the no-color.org
// convention.
func DetectNoColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// DetectCI reports whether a common CI environment variable is set.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if _, ok := os.LookupEnv(v); ok {
			return true
		}
	}
	return false
}
