package clipboard

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrNothingToCopy is returned when Copy is called with blank text.
var ErrNothingToCopy = errors.New("nothing to copy")

// Indicator is the transient copy feedback shown next to the copy control.
type Indicator string

const (
	IndicatorIdle   Indicator = "idle"
	IndicatorCopied Indicator = "copied"
	IndicatorFailed Indicator = "failed"
)

// Label is the text the copy control shows for the indicator.
func (i Indicator) Label() string {
	switch i {
	case IndicatorCopied:
		return "Copied!"
	case IndicatorFailed:
		return "Copy failed"
	default:
		return "Copy text"
	}
}

const (
	copiedUnits = 2
	failedUnits = 3
)

// Notifier receives the status notifications produced by Copy.
type Notifier interface {
	Info(text string)
	Error(text string)
}

// ScheduleFunc runs fn once after d. The returned stop function cancels it
// and reports whether it was still pending.
type ScheduleFunc func(d time.Duration, fn func()) (stop func() bool)

func afterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

type Option func(*Exporter)

// WithUnit sets the base duration; the copied indicator reverts after two
// units and the failed indicator after three.
func WithUnit(unit time.Duration) Option {
	return func(e *Exporter) {
		if unit > 0 {
			e.unit = unit
		}
	}
}

func WithScheduler(schedule ScheduleFunc) Option {
	return func(e *Exporter) {
		if schedule != nil {
			e.schedule = schedule
		}
	}
}

// WithListener registers a callback invoked after every indicator change.
func WithListener(fn func(Indicator)) Option {
	return func(e *Exporter) {
		if fn != nil {
			e.listeners = append(e.listeners, fn)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Exporter copies text to the clipboard and drives the transient indicator.
//
// Every non-blank Copy starts a new generation. The pending revert of the
// previous generation is stopped, and a revert that fires anyway is dropped
// unless its generation is still the latest one.
type Exporter struct {
	writer   Writer
	notifier Notifier
	unit     time.Duration
	schedule ScheduleFunc
	logger   *slog.Logger

	mu         sync.Mutex
	generation uint64
	indicator  Indicator
	stopRevert func() bool
	listeners  []func(Indicator)
}

func NewExporter(writer Writer, notifier Notifier, opts ...Option) *Exporter {
	if writer == nil {
		writer = System{}
	}
	e := &Exporter{
		writer:    writer,
		notifier:  notifier,
		unit:      time.Second,
		schedule:  afterFunc,
		logger:    slog.Default(),
		indicator: IndicatorIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Copy writes text to the clipboard and returns the indicator it switched to.
func (e *Exporter) Copy(text string) (Indicator, error) {
	if strings.TrimSpace(text) == "" {
		if e.notifier != nil {
			e.notifier.Info("Nothing to copy.")
		}
		return e.Indicator(), ErrNothingToCopy
	}

	e.mu.Lock()
	e.generation++
	gen := e.generation
	if e.stopRevert != nil {
		e.stopRevert()
		e.stopRevert = nil
	}
	e.mu.Unlock()

	writeErr := e.writer.WriteAll(text)

	next, units := IndicatorCopied, copiedUnits
	if writeErr != nil {
		next, units = IndicatorFailed, failedUnits
		e.logger.Error("clipboard write failed", "error", writeErr)
	}

	e.mu.Lock()
	if gen != e.generation {
		// A newer Copy owns the shared indicator; report this write's own outcome.
		e.mu.Unlock()
		return next, writeErr
	}
	e.indicator = next
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()

	if writeErr != nil && e.notifier != nil {
		e.notifier.Error("Copy failed, please copy the text manually.")
	}
	for _, l := range listeners {
		l(next)
	}

	stop := e.schedule(time.Duration(units)*e.unit, func() { e.revert(gen) })
	e.mu.Lock()
	if gen == e.generation && e.indicator == next {
		e.stopRevert = stop
		e.mu.Unlock()
	} else {
		e.mu.Unlock()
		stop()
	}
	return next, writeErr
}

func (e *Exporter) Indicator() Indicator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indicator
}

// Generation returns the number of non-blank copy requests issued so far.
func (e *Exporter) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

func (e *Exporter) revert(gen uint64) {
	e.mu.Lock()
	if gen != e.generation || e.indicator == IndicatorIdle {
		e.mu.Unlock()
		return
	}
	e.indicator = IndicatorIdle
	e.stopRevert = nil
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()

	for _, l := range listeners {
		l(IndicatorIdle)
	}
}
