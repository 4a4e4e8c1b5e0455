package domain

import "strings"

// ViewMode selects which text the workflow displays.
type ViewMode string

const (
	ViewCalibrated ViewMode = "calibrated"
	ViewSummary    ViewMode = "summary"
)

// Severity classifies a status notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Status is one user-facing notification.
type Status struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// Result is the normalized success outcome of a transcribe or recalibrate call.
// RawText is empty when the server did not return a raw transcription.
type Result struct {
	RawText        string
	CalibratedText string
	IsCalibrated   bool
	Message        string
}

// TranscriptionState is the authoritative record for the selected document.
// An empty string means the text is absent.
type TranscriptionState struct {
	RawText        string   `json:"rawText,omitempty"`
	CalibratedText string   `json:"calibratedText,omitempty"`
	SummaryText    string   `json:"summaryText,omitempty"`
	ViewMode       ViewMode `json:"viewMode"`
	IsCalibrated   bool     `json:"isCalibrated"`
	Status         *Status  `json:"status,omitempty"`
}

// EmptyState returns the state a freshly selected document starts from.
func EmptyState() TranscriptionState {
	return TranscriptionState{ViewMode: ViewCalibrated}
}

// DisplayedText returns the summary in summary mode and the calibrated text otherwise.
func (s TranscriptionState) DisplayedText() string {
	if s.ViewMode == ViewSummary {
		return s.SummaryText
	}
	return s.CalibratedText
}

// HasSummary reports whether a summary exists for the current calibrated text.
func (s TranscriptionState) HasSummary() bool {
	return s.SummaryText != ""
}

// IsBlank reports whether s contains only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
