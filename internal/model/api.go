package model

// StatusSuccess marks a successful transcribe or recalibrate response.
const StatusSuccess = "success"

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
}

// TranscriptionResponse is returned by both /transcribe and /recalibrate.
// RawTranscription is only set by /transcribe.
type TranscriptionResponse struct {
	Status             string `json:"status"`
	Transcription      string `json:"transcription"`
	RawTranscription   string `json:"raw_transcription,omitempty"`
	IsCalibrated       bool   `json:"is_calibrated"`
	CalibrationMessage string `json:"calibration_message,omitempty"`
}

type RecalibrateRequest struct {
	RawTranscription string `json:"raw_transcription"`
}

type SummarizeRequest struct {
	TextToSummarize string `json:"text_to_summarize"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}
