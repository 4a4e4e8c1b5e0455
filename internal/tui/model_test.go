package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"scribeflow/internal/clipboard"
	"scribeflow/internal/domain"
	"scribeflow/internal/workflow"
)

type fakeWorkflow struct {
	snap     workflow.Snapshot
	calls    []string
	selected []domain.Document
	err      error
}

func (f *fakeWorkflow) SelectDocument(doc domain.Document) error {
	f.calls = append(f.calls, "select")
	f.selected = append(f.selected, doc)
	f.snap.DocumentName = doc.Name
	return f.err
}

func (f *fakeWorkflow) Transcribe(context.Context) error {
	f.calls = append(f.calls, "transcribe")
	return f.err
}

func (f *fakeWorkflow) Recalibrate(context.Context) error {
	f.calls = append(f.calls, "recalibrate")
	return f.err
}

func (f *fakeWorkflow) Summarize(context.Context) error {
	f.calls = append(f.calls, "summarize")
	return f.err
}

func (f *fakeWorkflow) Snapshot() workflow.Snapshot { return f.snap }

type fakeCopier struct {
	text      string
	indicator clipboard.Indicator
}

func (f *fakeCopier) Copy(text string) (clipboard.Indicator, error) {
	f.text = text
	return f.indicator, nil
}

type fakeNotifier struct{ errors []string }

func (f *fakeNotifier) Error(text string) { f.errors = append(f.errors, text) }

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(flow *fakeWorkflow, copier *fakeCopier, paths ...string) Model {
	m := New(Config{
		Workflow: flow,
		Copier:   copier,
		Notifier: &fakeNotifier{},
		Paths:    paths,
		Load: func(path string) (domain.Document, error) {
			return domain.Document{ID: path, Name: path, Data: []byte("audio")}, nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func readySnapshot() workflow.Snapshot {
	return workflow.Snapshot{
		DocumentName: "talk.mp3",
		State: domain.TranscriptionState{
			RawText:        "raw",
			CalibratedText: "hello",
			ViewMode:       domain.ViewCalibrated,
			IsCalibrated:   true,
		},
		Controls:       workflow.Controls{Transcribe: true, Recalibrate: true, Copy: true, Summarize: true},
		DisplayedText:  "hello",
		SummarizeLabel: workflow.LabelSummarize,
	}
}

func TestDisabledControlsIgnoreKeys(t *testing.T) {
	flow := &fakeWorkflow{}
	m := newTestModel(flow, &fakeCopier{})

	for _, k := range []string{"t", "r", "s", "c", "n", "p"} {
		if _, cmd := m.Update(key(k)); cmd != nil {
			t.Fatalf("key %q should be ignored while its control is disabled", k)
		}
	}
	if len(flow.calls) != 0 {
		t.Fatalf("unexpected workflow calls: %v", flow.calls)
	}
}

func TestKeysRunWorkflowOperations(t *testing.T) {
	cases := map[string]string{"t": "transcribe", "r": "recalibrate", "s": "summarize"}
	for k, want := range cases {
		flow := &fakeWorkflow{snap: readySnapshot()}
		m := newTestModel(flow, &fakeCopier{})

		_, cmd := m.Update(key(k))
		if cmd == nil {
			t.Fatalf("key %q: expected a command", k)
		}
		msg := cmd()
		done, ok := msg.(opDoneMsg)
		if !ok || string(done.op) != want {
			t.Fatalf("key %q: unexpected message %#v", k, msg)
		}
		if len(flow.calls) != 1 || flow.calls[0] != want {
			t.Fatalf("key %q: unexpected calls %v", k, flow.calls)
		}
	}
}

func TestOperationDoneRefreshesSnapshot(t *testing.T) {
	flow := &fakeWorkflow{snap: readySnapshot()}
	m := newTestModel(flow, &fakeCopier{})

	flow.snap.State.SummaryText = "brief"
	flow.snap.State.ViewMode = domain.ViewSummary
	flow.snap.DisplayedText = "brief"
	flow.snap.SummarizeLabel = workflow.LabelShowFullText
	flow.snap.State.Status = &domain.Status{Text: "Summary generated.", Severity: domain.SeveritySuccess}

	next, _ := m.Update(opDoneMsg{op: workflow.OpSummarize})
	view := next.(Model).View()
	for _, want := range []string{"Summary", "brief", "[s] Show full text", "Summary generated."} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestCopyUsesDisplayedTextAndShowsIndicator(t *testing.T) {
	flow := &fakeWorkflow{snap: readySnapshot()}
	copier := &fakeCopier{indicator: clipboard.IndicatorCopied}
	m := newTestModel(flow, copier)

	_, cmd := m.Update(key("c"))
	if cmd == nil {
		t.Fatal("expected copy command")
	}
	next, _ := m.Update(cmd())
	if copier.text != "hello" {
		t.Fatalf("copied %q, want displayed text", copier.text)
	}
	if !strings.Contains(next.(Model).View(), "[c] Copied!") {
		t.Fatalf("view should show copied indicator:\n%s", next.(Model).View())
	}

	reverted, _ := next.Update(IndicatorMsg(clipboard.IndicatorIdle))
	if !strings.Contains(reverted.(Model).View(), "[c] Copy text") {
		t.Fatalf("indicator should revert:\n%s", reverted.(Model).View())
	}
}

func TestSnapshotAndStatusMessages(t *testing.T) {
	flow := &fakeWorkflow{}
	m := newTestModel(flow, &fakeCopier{})

	snap := readySnapshot()
	snap.Busy = true
	snap.Running = workflow.OpRecalibrate
	snap.Controls = workflow.Controls{}
	next, _ := m.Update(SnapshotMsg(snap))
	next, _ = next.Update(StatusMsg{Status: domain.Status{Text: "Recalibrating transcription...", Severity: domain.SeverityInfo}, OK: true})

	view := next.(Model).View()
	if !strings.Contains(view, "Recalibrating transcription...") {
		t.Fatalf("view missing status:\n%s", view)
	}
	if _, cmd := next.Update(key("r")); cmd != nil {
		t.Fatal("busy snapshot disables recalibrate")
	}

	cleared, _ := next.Update(StatusMsg{})
	if strings.Contains(cleared.(Model).View(), "Recalibrating") {
		t.Fatal("cleared status should not be rendered")
	}
}

func TestSelectDocumentNavigation(t *testing.T) {
	flow := &fakeWorkflow{}
	m := newTestModel(flow, &fakeCopier{}, "a.mp3", "b.mp3")

	next, _ := m.Update(m.selectCmd(0)())
	m = next.(Model)
	if m.index != 0 || flow.selected[0].Name != "a.mp3" {
		t.Fatalf("unexpected selection: index=%d selected=%v", m.index, flow.selected)
	}
	if !strings.Contains(m.View(), "[1/2] a.mp3") {
		t.Fatalf("view missing document line:\n%s", m.View())
	}

	if _, cmd := m.Update(key("p")); cmd != nil {
		t.Fatal("no previous document before the first")
	}
	_, cmd := m.Update(key("n"))
	if cmd == nil {
		t.Fatal("expected next document command")
	}
	next, _ = m.Update(cmd())
	if next.(Model).index != 1 || flow.selected[1].Name != "b.mp3" {
		t.Fatalf("unexpected selection after next: %v", flow.selected)
	}
}

func TestSelectDocumentLoadError(t *testing.T) {
	flow := &fakeWorkflow{}
	notifier := &fakeNotifier{}
	m := New(Config{
		Workflow: flow,
		Notifier: notifier,
		Paths:    []string{"/tmp/missing.wav"},
		Load: func(string) (domain.Document, error) {
			return domain.Document{}, errors.New("no such file")
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	msg := m.selectCmd(0)()
	if sel, ok := msg.(selectedMsg); !ok || sel.err == nil {
		t.Fatalf("expected failed selection, got %#v", msg)
	}
	if len(flow.calls) != 0 {
		t.Fatal("workflow must not see an unreadable document")
	}
	if len(notifier.errors) != 1 || !strings.Contains(notifier.errors[0], "missing.wav") {
		t.Fatalf("unexpected notifications: %v", notifier.errors)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(&fakeWorkflow{}, &fakeCopier{})
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
