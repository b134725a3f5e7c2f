package ui

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// progressMsg and completeMsg cross from the caller's goroutine into the
// bubbletea event loop through the program's own Send, which is the
// supported way to feed external events into a running Program.
type progressMsg ProgressEvent
type completeMsg CompletionStats

// TUIRenderer drives an indexingModel through a tea.Program on the
// alternate screen buffer.
type TUIRenderer struct {
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	started bool
}

// NewTUIRenderer builds a TUIRenderer. Returns an error if cfg.Output
// isn't a TTY, so callers fall back to PlainRenderer.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	styles := GetStyles(cfg.NoColor || DetectNoColor())
	model := newIndexingModel(styles)

	var opts []tea.ProgramOption
	if f, ok := cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	opts = append(opts, tea.WithAltScreen())

	return &TUIRenderer{
		program: tea.NewProgram(model, opts...),
		done:    make(chan struct{}),
	}, nil
}

func (r *TUIRenderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	r.started = true
	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.program.Send(progressMsg(event))
}

func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.program.Send(completeMsg(stats))
}

func (r *TUIRenderer) Stop() error {
	r.program.Send(tea.Quit())
	<-r.done
	return nil
}

// indexingModel renders the active stage's spinner and, once a stage
// reports a known total, a progress bar alongside it.
type indexingModel struct {
	styles   Styles
	spinner  spinner.Model
	bar      progress.Model
	stage    Stage
	current  int
	total    int
	message  string
	complete bool
	stats    CompletionStats
}

func newIndexingModel(styles Styles) *indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Stage

	bar := progress.New(progress.WithSolidFill(colorLime))

	return &indexingModel{styles: styles, spinner: sp, bar: bar}
}

func (m *indexingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *indexingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.stage, m.current, m.total, m.message = msg.Stage, msg.Current, msg.Total, msg.Message
		return m, nil
	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *indexingModel) View() string {
	if m.complete {
		return m.styles.Header.Render("Index complete") + "\n" +
			fmt.Sprintf("  files discovered: %d\n  symbols indexed:  %d\n  symbols embedded: %d\n  collections:      %d\n",
				m.stats.FilesDiscovered, m.stats.SymbolsIndexed, m.stats.SymbolsEmbedded, m.stats.Collections)
	}

	line := fmt.Sprintf("%s %s", m.spinner.View(), m.styles.Stage.Render(m.stage.String()))
	if m.total > 0 {
		line += " " + m.bar.ViewAs(float64(m.current)/float64(m.total))
	} else if m.current > 0 {
		line += fmt.Sprintf(" (%d)", m.current)
	}
	if m.message != "" {
		line += " " + m.styles.Dim.Render(m.message)
	}
	return m.styles.Panel.Render(line) + "\n"
}
