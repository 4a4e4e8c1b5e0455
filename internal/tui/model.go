package tui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"scribeflow/internal/clipboard"
	"scribeflow/internal/domain"
	"scribeflow/internal/workflow"
)

// Messages delivered by the program's subscriptions.
type (
	SnapshotMsg  workflow.Snapshot
	IndicatorMsg clipboard.Indicator
	StatusMsg    struct {
		Status domain.Status
		OK     bool
	}
)

type opDoneMsg struct {
	op  workflow.Operation
	err error
}

type selectedMsg struct {
	index int
	err   error
}

type copiedMsg struct {
	indicator clipboard.Indicator
}

type Workflow interface {
	SelectDocument(doc domain.Document) error
	Transcribe(ctx context.Context) error
	Recalibrate(ctx context.Context) error
	Summarize(ctx context.Context) error
	Snapshot() workflow.Snapshot
}

type Copier interface {
	Copy(text string) (clipboard.Indicator, error)
}

// Notifier receives errors the UI itself runs into, such as unreadable files.
type Notifier interface {
	Error(text string)
}

type LoadFunc func(path string) (domain.Document, error)

type Config struct {
	Context  context.Context
	Workflow Workflow
	Copier   Copier
	Notifier Notifier
	Paths    []string
	Load     LoadFunc
	Logger   *slog.Logger
}

// Model renders workflow state and turns key presses into workflow calls.
// It never changes workflow state itself.
type Model struct {
	ctx      context.Context
	flow     Workflow
	copier   Copier
	notifier Notifier
	load     LoadFunc
	logger   *slog.Logger

	paths     []string
	index     int
	snap      workflow.Snapshot
	status    domain.Status
	hasStatus bool
	indicator clipboard.Indicator
	spinner   spinner.Model

	width, height int
}

func New(cfg Config) Model {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Load == nil {
		cfg.Load = domain.LoadDocument
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    time.Second / 10,
	}
	sp.Style = spinnerStyle

	return Model{
		ctx:       cfg.Context,
		flow:      cfg.Workflow,
		copier:    cfg.Copier,
		notifier:  cfg.Notifier,
		load:      cfg.Load,
		logger:    cfg.Logger,
		paths:     cfg.Paths,
		index:     -1,
		snap:      cfg.Workflow.Snapshot(),
		indicator: clipboard.IndicatorIdle,
		spinner:   sp,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if len(m.paths) > 0 {
		cmds = append(cmds, m.selectCmd(0))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotMsg:
		m.applySnapshot(workflow.Snapshot(msg))

	case StatusMsg:
		m.status, m.hasStatus = msg.Status, msg.OK

	case IndicatorMsg:
		m.indicator = clipboard.Indicator(msg)

	case copiedMsg:
		m.indicator = msg.indicator

	case selectedMsg:
		if msg.err == nil {
			m.index = msg.index
		}
		m.applySnapshot(m.flow.Snapshot())

	case opDoneMsg:
		if msg.err != nil {
			m.logger.Debug("operation returned error", "operation", msg.op, "error", msg.err)
		}
		m.applySnapshot(m.flow.Snapshot())
	}
	return m, nil
}

func (m *Model) applySnapshot(snap workflow.Snapshot) {
	m.snap = snap
	if snap.State.Status != nil {
		m.status, m.hasStatus = *snap.State.Status, true
	} else {
		m.status, m.hasStatus = domain.Status{}, false
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	controls := m.snap.Controls
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "t":
		if controls.Transcribe {
			return m, m.runCmd(workflow.OpTranscribe, m.flow.Transcribe)
		}
	case "r":
		if controls.Recalibrate {
			return m, m.runCmd(workflow.OpRecalibrate, m.flow.Recalibrate)
		}
	case "s":
		if controls.Summarize {
			return m, m.runCmd(workflow.OpSummarize, m.flow.Summarize)
		}
	case "c":
		if controls.Copy {
			return m, m.copyCmd(m.snap.DisplayedText)
		}
	case "n", "right":
		if next := m.index + 1; next < len(m.paths) && !m.snap.Busy {
			return m, m.selectCmd(next)
		}
	case "p", "left":
		if prev := m.index - 1; prev >= 0 && !m.snap.Busy {
			return m, m.selectCmd(prev)
		}
	}
	return m, nil
}

// Workflow calls block on the network and publish through subscriptions
// that feed back into the program, so they never run inside Update.
func (m Model) runCmd(op workflow.Operation, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) copyCmd(text string) tea.Cmd {
	copier := m.copier
	return func() tea.Msg {
		indicator, _ := copier.Copy(text)
		return copiedMsg{indicator: indicator}
	}
}

func (m Model) selectCmd(index int) tea.Cmd {
	path := m.paths[index]
	load, flow, notifier, logger := m.load, m.flow, m.notifier, m.logger
	return func() tea.Msg {
		doc, err := load(path)
		if err != nil {
			logger.Warn("load document failed", "path", path, "error", err)
			if notifier != nil {
				notifier.Error(fmt.Sprintf("Cannot open %s: %v", filepath.Base(path), err))
			}
			return selectedMsg{index: index, err: err}
		}
		return selectedMsg{index: index, err: flow.SelectDocument(doc)}
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	width := max(m.width, 20)
	var b strings.Builder

	b.WriteString(titleStyle.Render("ScribeFlow"))
	b.WriteString("  ")
	b.WriteString(docStyle.Render(m.documentLine()))
	b.WriteString("\n")

	switch {
	case m.snap.Busy:
		b.WriteString(m.spinner.View() + " ")
		if m.hasStatus {
			b.WriteString(severityStyle(m.status.Severity).Render(m.status.Text))
		}
	case m.hasStatus:
		b.WriteString(severityStyle(m.status.Severity).Render(m.status.Text))
	}
	b.WriteString("\n")

	rule := ruleStyle.Render(strings.Repeat("─", width))
	b.WriteString(rule + "\n")
	b.WriteString(headerStyle.Render(m.viewHeader()) + "\n")
	if domain.IsBlank(m.snap.DisplayedText) {
		b.WriteString(placeholder.Render("No text yet.") + "\n")
	} else {
		b.WriteString(bodyStyle.Width(width).Render(m.snap.DisplayedText) + "\n")
	}
	b.WriteString(rule + "\n")
	b.WriteString(m.controlsLine())
	return b.String()
}

func (m Model) documentLine() string {
	if m.snap.DocumentName == "" {
		if len(m.paths) == 0 {
			return "no audio file given"
		}
		return "no audio file selected"
	}
	if len(m.paths) > 1 && m.index >= 0 {
		return fmt.Sprintf("[%d/%d] %s", m.index+1, len(m.paths), m.snap.DocumentName)
	}
	return m.snap.DocumentName
}

func (m Model) viewHeader() string {
	if m.snap.State.ViewMode == domain.ViewSummary {
		return "Summary"
	}
	if !domain.IsBlank(m.snap.State.CalibratedText) && !m.snap.State.IsCalibrated {
		return "Transcription (not calibrated)"
	}
	return "Transcription"
}

func (m Model) controlsLine() string {
	c := m.snap.Controls
	items := []string{
		control("t", "Transcribe", c.Transcribe),
		control("r", "Recalibrate", c.Recalibrate),
		control("s", m.snap.SummarizeLabel, c.Summarize),
		control("c", m.indicator.Label(), c.Copy),
	}
	if len(m.paths) > 1 {
		items = append(items, control("n/p", "Document", !m.snap.Busy))
	}
	items = append(items, control("q", "Quit", true))
	return strings.Join(items, "  ")
}

func control(key, label string, enabled bool) string {
	text := "[" + key + "] " + label
	if !enabled {
		return disabledStyle.Render(text)
	}
	return keyStyle.Render("["+key+"]") + " " + labelStyle.Render(label)
}
