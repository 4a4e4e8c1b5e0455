package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"scribeflow/internal/domain"
)

// Operation names a user-triggerable workflow step.
type Operation string

const (
	OpSelect      Operation = "select"
	OpTranscribe  Operation = "transcribe"
	OpRecalibrate Operation = "recalibrate"
	OpSummarize   Operation = "summarize"
)

// Outcomes reported to the OutcomeObserver.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeRefused = "refused"
	OutcomeToggled = "toggled"
)

const (
	msgNoDocument       = "Please select an audio file first."
	msgNoRawText        = "No raw transcription available."
	msgNoCalibratedText = "No calibrated text to summarize."
	msgTranscribing     = "Uploading and transcribing audio..."
	msgRecalibrating    = "Recalibrating transcription..."
	msgSummarizing      = "Generating summary..."
	msgTranscribed      = "Transcription complete."
	msgRecalibrated     = "Calibration succeeded."
	msgCalibrationSkip  = "Calibration failed, the previous text was kept."
	msgSummarized       = "Summary generated."
)

// Labels of the summarize control.
const (
	LabelSummarize    = "Summarize"
	LabelSummarizing  = "Summarizing..."
	LabelShowSummary  = "Show summary"
	LabelShowFullText = "Show full text"
)

// RemoteClient is the request/response layer for the three remote operations.
type RemoteClient interface {
	Transcribe(ctx context.Context, doc domain.Document) (domain.Result, error)
	Recalibrate(ctx context.Context, rawText string) (domain.Result, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// StatusPublisher receives the workflow's user-facing notifications.
type StatusPublisher interface {
	Publish(text string, severity domain.Severity)
	Clear()
	Current() (domain.Status, bool)
}

// OutcomeObserver is told how every operation ended.
type OutcomeObserver func(op Operation, outcome string, duration time.Duration)

// Controls reports which user controls may be triggered right now.
type Controls struct {
	Transcribe  bool `json:"transcribe"`
	Recalibrate bool `json:"recalibrate"`
	Copy        bool `json:"copy"`
	Summarize   bool `json:"summarize"`
}

// Snapshot is everything a presentation layer needs to render the workflow.
type Snapshot struct {
	DocumentName   string                    `json:"documentName,omitempty"`
	State          domain.TranscriptionState `json:"state"`
	Busy           bool                      `json:"busy"`
	Running        Operation                 `json:"running,omitempty"`
	Controls       Controls                  `json:"controls"`
	DisplayedText  string                    `json:"displayedText"`
	SummarizeLabel string                    `json:"summarizeLabel"`
}

type Option func(*Workflow)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithObserver(observer OutcomeObserver) Option {
	return func(w *Workflow) {
		w.observer = observer
	}
}

// Workflow owns the TranscriptionState of the selected document and runs at
// most one operation at a time. State is only mutated after a remote call
// has resolved.
type Workflow struct {
	remote   RemoteClient
	statuses StatusPublisher
	logger   *slog.Logger
	observer OutcomeObserver

	mu      sync.Mutex
	doc     *domain.Document
	state   domain.TranscriptionState
	busy    bool
	running Operation

	listenerMu sync.Mutex
	nextID     int
	listeners  map[int]func(Snapshot)
}

func New(remote RemoteClient, statuses StatusPublisher, opts ...Option) *Workflow {
	if remote == nil || statuses == nil {
		panic("workflow: remote client and status publisher are required")
	}
	w := &Workflow{
		remote:    remote,
		statuses:  statuses,
		logger:    slog.Default(),
		state:     domain.EmptyState(),
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Subscribe registers fn to receive a snapshot after every change and returns
// a function that removes it. fn must not block on the workflow.
func (w *Workflow) Subscribe(fn func(Snapshot)) func() {
	w.listenerMu.Lock()
	defer w.listenerMu.Unlock()
	w.nextID++
	id := w.nextID
	w.listeners[id] = fn
	return func() {
		w.listenerMu.Lock()
		defer w.listenerMu.Unlock()
		delete(w.listeners, id)
	}
}

// SelectDocument replaces the current document and resets all derived state.
func (w *Workflow) SelectDocument(doc domain.Document) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return w.refuse(OpSelect, ErrBusy, "")
	}
	d := doc
	w.doc = &d
	w.state = domain.EmptyState()
	w.mu.Unlock()

	w.statuses.Clear()
	w.logger.Info("document selected", "document", doc.Name, "document_id", doc.ID, "bytes", len(doc.Data))
	w.observe(OpSelect, OutcomeSuccess, 0)
	w.notify()
	return nil
}

// Transcribe sends the selected document to the server. On failure the
// calibrated text is cleared; the raw text is kept.
func (w *Workflow) Transcribe(ctx context.Context) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return w.refuse(OpTranscribe, ErrBusy, "")
	}
	if w.doc == nil {
		w.mu.Unlock()
		return w.refuse(OpTranscribe, ErrNoDocument, msgNoDocument)
	}
	doc := *w.doc
	w.begin(OpTranscribe)
	w.mu.Unlock()

	w.statuses.Publish(msgTranscribing, domain.SeverityInfo)
	w.notify()

	started := time.Now()
	res, err := w.remote.Transcribe(ctx, doc)

	w.mu.Lock()
	if err != nil {
		w.state.CalibratedText = ""
		w.state.SummaryText = ""
		w.state.ViewMode = domain.ViewCalibrated
		w.state.IsCalibrated = false
	} else {
		raw := res.RawText
		if domain.IsBlank(raw) {
			raw = res.CalibratedText
		}
		w.state.RawText = raw
		w.replaceCalibrated(res)
	}
	w.end()
	w.mu.Unlock()

	if err != nil {
		w.fail(OpTranscribe, doc.Name, err, err.Error(), started)
		return err
	}

	severity := domain.SeverityInfo
	if res.IsCalibrated {
		severity = domain.SeveritySuccess
	}
	w.statuses.Publish(messageOr(res.Message, msgTranscribed), severity)
	w.succeed(OpTranscribe, doc.Name, started, "is_calibrated", res.IsCalibrated)
	return nil
}

// Recalibrate runs the calibration pass again over the raw transcription.
// The calibrated text is only replaced by a response that was actually
// calibrated; anything else keeps the displayed text and reports an error.
func (w *Workflow) Recalibrate(ctx context.Context) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return w.refuse(OpRecalibrate, ErrBusy, "")
	}
	if domain.IsBlank(w.state.RawText) {
		w.mu.Unlock()
		return w.refuse(OpRecalibrate, ErrNoRawText, msgNoRawText)
	}
	raw := w.state.RawText
	name := w.documentNameLocked()
	w.begin(OpRecalibrate)
	w.mu.Unlock()

	w.statuses.Publish(msgRecalibrating, domain.SeverityInfo)
	w.notify()

	started := time.Now()
	res, err := w.remote.Recalibrate(ctx, raw)
	if err == nil && !res.IsCalibrated {
		err = fmt.Errorf("%w: %s", ErrCalibrationNotApplied, messageOr(res.Message, msgCalibrationSkip))
	}

	w.mu.Lock()
	if err == nil {
		w.replaceCalibrated(res)
	}
	w.end()
	w.mu.Unlock()

	if err != nil {
		msg := err.Error()
		if errors.Is(err, ErrCalibrationNotApplied) {
			msg = messageOr(res.Message, msgCalibrationSkip)
		}
		w.fail(OpRecalibrate, name, err, msg, started)
		return err
	}

	w.statuses.Publish(messageOr(res.Message, msgRecalibrated), domain.SeveritySuccess)
	w.succeed(OpRecalibrate, name, started)
	return nil
}

// Summarize toggles between the calibrated text and its summary when a
// summary exists, and requests one from the server otherwise.
func (w *Workflow) Summarize(ctx context.Context) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return w.refuse(OpSummarize, ErrBusy, "")
	}
	if w.state.HasSummary() {
		if w.state.ViewMode == domain.ViewSummary {
			w.state.ViewMode = domain.ViewCalibrated
		} else {
			w.state.ViewMode = domain.ViewSummary
		}
		mode := w.state.ViewMode
		w.mu.Unlock()

		w.logger.Debug("view toggled", "view_mode", mode)
		w.observe(OpSummarize, OutcomeToggled, 0)
		w.notify()
		return nil
	}
	if domain.IsBlank(w.state.CalibratedText) {
		w.mu.Unlock()
		return w.refuse(OpSummarize, ErrNoCalibratedText, msgNoCalibratedText)
	}
	text := w.state.CalibratedText
	name := w.documentNameLocked()
	w.begin(OpSummarize)
	w.mu.Unlock()

	w.statuses.Publish(msgSummarizing, domain.SeverityInfo)
	w.notify()

	started := time.Now()
	summary, err := w.remote.Summarize(ctx, text)
	if err == nil && domain.IsBlank(summary) {
		err = errors.New("empty summary")
	}

	w.mu.Lock()
	// The calibrated text cannot change while busy, so the summary still matches it.
	if err == nil {
		w.state.SummaryText = summary
		w.state.ViewMode = domain.ViewSummary
	}
	w.end()
	w.mu.Unlock()

	if err != nil {
		w.fail(OpSummarize, name, err, err.Error(), started)
		return err
	}

	w.statuses.Publish(msgSummarized, domain.SeveritySuccess)
	w.succeed(OpSummarize, name, started)
	return nil
}

// DisplayedText returns the summary in summary mode, else the calibrated text.
func (w *Workflow) DisplayedText() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.DisplayedText()
}

func (w *Workflow) Controls() Controls {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.controlsLocked()
}

// SummarizeLabel names what the summarize control does next.
func (w *Workflow) SummarizeLabel() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summarizeLabelLocked()
}

// State returns a copy of the TranscriptionState including the current status.
func (w *Workflow) State() domain.TranscriptionState {
	w.mu.Lock()
	state := w.state
	w.mu.Unlock()
	if st, ok := w.statuses.Current(); ok {
		state.Status = &st
	}
	return state
}

func (w *Workflow) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	snap := Snapshot{
		DocumentName:   w.documentNameLocked(),
		State:          w.state,
		Busy:           w.busy,
		Running:        w.running,
		Controls:       w.controlsLocked(),
		DisplayedText:  w.state.DisplayedText(),
		SummarizeLabel: w.summarizeLabelLocked(),
	}
	w.mu.Unlock()
	if st, ok := w.statuses.Current(); ok {
		snap.State.Status = &st
	}
	return snap
}

func (w *Workflow) controlsLocked() Controls {
	idle := !w.busy
	return Controls{
		Transcribe:  idle && w.doc != nil,
		Recalibrate: idle && !domain.IsBlank(w.state.RawText),
		Copy:        idle && !domain.IsBlank(w.state.DisplayedText()),
		Summarize:   idle && !domain.IsBlank(w.state.CalibratedText),
	}
}

func (w *Workflow) summarizeLabelLocked() string {
	switch {
	case w.running == OpSummarize:
		return LabelSummarizing
	case !w.state.HasSummary():
		return LabelSummarize
	case w.state.ViewMode == domain.ViewSummary:
		return LabelShowFullText
	default:
		return LabelShowSummary
	}
}

// replaceCalibrated installs a new calibrated text, which invalidates any summary.
func (w *Workflow) replaceCalibrated(res domain.Result) {
	w.state.CalibratedText = res.CalibratedText
	w.state.IsCalibrated = res.IsCalibrated
	w.state.SummaryText = ""
	w.state.ViewMode = domain.ViewCalibrated
}

func (w *Workflow) begin(op Operation) {
	w.busy = true
	w.running = op
}

func (w *Workflow) end() {
	w.busy = false
	w.running = ""
}

func (w *Workflow) documentNameLocked() string {
	if w.doc == nil {
		return ""
	}
	return w.doc.Name
}

// refuse reports a precondition failure. An empty msg leaves the current
// status alone, so a busy refusal keeps the running operation's progress text.
func (w *Workflow) refuse(op Operation, cause error, msg string) error {
	if msg != "" {
		w.statuses.Publish(msg, domain.SeverityInfo)
	}
	w.logger.Debug("operation refused", "operation", op, "reason", cause)
	w.observe(op, OutcomeRefused, 0)
	return &PreconditionError{Op: op, Err: cause}
}

func (w *Workflow) fail(op Operation, document string, err error, msg string, started time.Time) {
	duration := time.Since(started)
	w.statuses.Publish(msg, domain.SeverityError)
	w.logger.Warn("operation failed",
		"operation", op,
		"document", document,
		"error", err,
		"duration_ms", duration.Milliseconds(),
	)
	w.observe(op, OutcomeFailed, duration)
	w.notify()
}

func (w *Workflow) succeed(op Operation, document string, started time.Time, attrs ...any) {
	duration := time.Since(started)
	args := append([]any{
		"operation", op,
		"document", document,
		"duration_ms", duration.Milliseconds(),
	}, attrs...)
	w.logger.Info("operation finished", args...)
	w.observe(op, OutcomeSuccess, duration)
	w.notify()
}

func (w *Workflow) observe(op Operation, outcome string, duration time.Duration) {
	if w.observer != nil {
		w.observer(op, outcome, duration)
	}
}

func (w *Workflow) notify() {
	w.listenerMu.Lock()
	listeners := make([]func(Snapshot), 0, len(w.listeners))
	for _, id := range slices.Sorted(maps.Keys(w.listeners)) {
		listeners = append(listeners, w.listeners[id])
	}
	w.listenerMu.Unlock()
	if len(listeners) == 0 {
		return
	}

	snap := w.Snapshot()
	for _, fn := range listeners {
		fn(snap)
	}
}

func messageOr(msg, fallback string) string {
	if domain.IsBlank(msg) {
		return fallback
	}
	return msg
}

