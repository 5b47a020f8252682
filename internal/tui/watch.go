// Package tui is the live front end: it watches a .kin file, rebuilds
// the simulation whenever the file changes, and renders particle state
// every frame. A failed rebuild keeps the last good scene on screen with
// the error alongside.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/kinetic-lang/kinetic/internal/config"
	"github.com/kinetic-lang/kinetic/internal/diag"
	"github.com/kinetic-lang/kinetic/internal/runtime"
	"github.com/kinetic-lang/kinetic/internal/viz"
)

const (
	canvasWidth  = 70
	canvasHeight = 18
	maxSpeed     = 64
)

type TickMsg time.Time

type fileChangedMsg struct{}

type watchErrMsg struct{ err error }

// Model drives one watched file. The simulation context is rebuilt, never
// mutated, on every reload.
type Model struct {
	path    string
	cfg     *config.Config
	watcher *fsnotify.Watcher

	source   string
	ctx      *runtime.Context
	diags    diag.List
	buildErr string
	trace    viz.Series

	playing       bool
	stepsPerFrame int
	showHelp      bool
}

func NewModel(path string, cfg *config.Config) (*Model, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors that save via rename would otherwise
	// drop the watch on the first write.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	m := &Model{
		path:          path,
		cfg:           cfg,
		watcher:       watcher,
		playing:       true,
		stepsPerFrame: 1,
	}
	m.reload()
	return m, nil
}

// NewStaticModel runs a fixed source with no file watching, for preset
// scenes. The r key still rebuilds from the same text.
func NewStaticModel(title, source string, cfg *config.Config) *Model {
	m := &Model{
		path:          title,
		cfg:           cfg,
		source:        source,
		playing:       true,
		stepsPerFrame: 1,
	}
	m.rebuild()
	return m
}

// Run blocks until the user quits.
func Run(path string, cfg *config.Config) error {
	m, err := NewModel(path, cfg)
	if err != nil {
		return err
	}
	defer m.watcher.Close()

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// RunSource is Run for in-memory programs.
func RunSource(title, source string, cfg *config.Config) error {
	m := NewStaticModel(title, source, cfg)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Model) frameInterval() time.Duration {
	fps := m.cfg.FrameRate
	if fps <= 0 {
		fps = config.DefaultFrameRate
	}
	return time.Second / time.Duration(fps)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.frameInterval(), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// waitForChange blocks on the watcher until the watched file is touched.
func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-m.watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(ev.Name) != filepath.Base(m.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					return fileChangedMsg{}
				}
			case err, ok := <-m.watcher.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err}
			}
		}
	}
}

// reload re-reads the file and rebuilds the context. On failure the old
// context stays so the last good scene remains visible.
func (m *Model) reload() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		m.buildErr = err.Error()
		return
	}
	m.source = string(data)
	m.rebuild()
}

func (m *Model) rebuild() {
	ctx, diags, err := runtime.BuildContext(m.source)
	m.diags = diags
	if err != nil {
		m.buildErr = err.Error()
		return
	}
	m.ctx = ctx
	m.buildErr = ""
	m.trace = viz.Series{}
}

func (m *Model) Init() tea.Cmd {
	if m.watcher == nil {
		return m.tick()
	}
	return tea.Batch(m.tick(), m.waitForChange())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "s":
			m.playing = false
			if m.ctx != nil {
				m.ctx.Step()
			}
		case "r":
			m.rebuild()
		case "+", "=":
			if m.stepsPerFrame < maxSpeed {
				m.stepsPerFrame *= 2
			}
		case "-":
			if m.stepsPerFrame > 1 {
				m.stepsPerFrame /= 2
			}
		case "?":
			m.showHelp = !m.showHelp
		}
		return m, nil

	case TickMsg:
		if m.playing && m.ctx != nil && !m.ctx.Done() {
			for i := 0; i < m.stepsPerFrame && !m.ctx.Step(); i++ {
			}
			m.recordTrace()
		}
		return m, m.tick()

	case fileChangedMsg:
		m.reload()
		return m, m.waitForChange()

	case watchErrMsg:
		m.buildErr = msg.err.Error()
		return m, m.waitForChange()
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(viz.HeaderStyle.Render(fmt.Sprintf("kinetic watch — %s", filepath.Base(m.path))))
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')

	if m.ctx != nil {
		b.WriteString(viz.CanvasStyle.Render(viz.RenderScene(m.ctx.World(), canvasWidth, canvasHeight)))
		b.WriteByte('\n')
		b.WriteString(m.hud())
		if len(m.trace.Values) > 1 {
			b.WriteByte('\n')
			b.WriteString(m.trace.Plot(canvasWidth-10, 6))
		}
	}

	if m.buildErr != "" {
		b.WriteByte('\n')
		b.WriteString(viz.ErrorPanel.Render(m.buildErr))
	}
	for _, w := range m.diags.Warnings() {
		b.WriteByte('\n')
		b.WriteString(viz.WarnStyle.Render("warning: " + w.Message))
	}

	if m.showHelp {
		b.WriteByte('\n')
		b.WriteString(viz.HelpStyle.Render("space play/pause · s step · r reset · +/- speed · q quit"))
	} else {
		b.WriteByte('\n')
		b.WriteString(viz.HelpStyle.Render("? help"))
	}
	return b.String()
}

// recordTrace appends the first detector (or kinetic energy when the
// program declares none) to the sparkline, keeping a sliding window.
func (m *Model) recordTrace() {
	detectors, err := runtime.EvaluateDetectors(m.ctx)
	switch {
	case err == nil && len(detectors) > 0:
		m.trace.Name = detectors[0].Name
		m.trace.Record(detectors[0].Value)
	case err == nil:
		m.trace.Name = "energy"
		m.trace.Record(m.ctx.World().KineticEnergy())
	default:
		return
	}
	if limit := 2 * canvasWidth; len(m.trace.Values) > limit {
		m.trace.Values = m.trace.Values[len(m.trace.Values)-limit:]
	}
}

func (m *Model) statusLine() string {
	switch {
	case m.ctx == nil:
		return viz.StatusDone.Render("no scene")
	case m.ctx.Done():
		return viz.StatusDone.Render("finished")
	case m.playing:
		return viz.StatusRunning.Render(fmt.Sprintf("running ×%d", m.stepsPerFrame))
	default:
		return viz.StatusPaused.Render("paused")
	}
}

func (m *Model) hud() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d / %d   %s %.3fs   %s %.4f",
		viz.LabelStyle.Render("step"), m.ctx.StepCount(), m.ctx.MaxSteps(),
		viz.LabelStyle.Render("time"), m.ctx.Time(),
		viz.LabelStyle.Render("energy"), m.ctx.World().KineticEnergy())

	if detectors, err := runtime.EvaluateDetectors(m.ctx); err == nil {
		for _, d := range detectors {
			fmt.Fprintf(&b, "\n%s %s",
				viz.LabelStyle.Render(d.Name),
				viz.ValueStyle.Render(fmt.Sprintf("%.6f", d.Value)))
		}
	}
	return b.String()
}
