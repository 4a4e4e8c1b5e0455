package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"scribeflow/internal/calibration"
)

type Transcriber interface {
	Transcribe(ctx context.Context, file io.Reader, fileName string) (string, error)
}

type Calibrator interface {
	Calibrate(ctx context.Context, raw string) calibration.Result
}

type Service struct {
	transcriber Transcriber
	calibrator  Calibrator
	logger      *slog.Logger
}

type Timings struct {
	Transcription time.Duration
	Calibration   time.Duration
	Total         time.Duration
}

type TranscribeResult struct {
	RawText      string
	Text         string
	IsCalibrated bool
	Message      string
	Timings      Timings
}

type RecalibrateResult struct {
	Text         string
	IsCalibrated bool
	Message      string
}

func New(transcriber Transcriber, calibrator Calibrator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		transcriber: transcriber,
		calibrator:  calibrator,
		logger:      logger,
	}
}

// Transcribe runs speech-to-text and then calibration. Only a transcription
// failure is an error; a calibration failure falls back to the raw text.
func (s *Service) Transcribe(ctx context.Context, file io.Reader, fileName string) (TranscribeResult, error) {
	started := time.Now()

	raw, err := s.transcriber.Transcribe(ctx, file, fileName)
	transcriptionDuration := time.Since(started)
	if err != nil {
		return TranscribeResult{}, err
	}
	raw = strings.TrimSpace(raw)

	calibrationStarted := time.Now()
	calibrated := s.calibrator.Calibrate(ctx, raw)
	calibrationDuration := time.Since(calibrationStarted)

	result := TranscribeResult{
		RawText:      raw,
		Text:         calibrated.Text,
		IsCalibrated: calibrated.Calibrated(),
		Message:      "transcription complete" + transcribeSuffix(calibrated),
		Timings: Timings{
			Transcription: transcriptionDuration,
			Calibration:   calibrationDuration,
			Total:         time.Since(started),
		},
	}
	s.logger.Info("transcription finished",
		"file", fileName,
		"outcome", calibrated.Outcome,
		"transcription_ms", transcriptionDuration.Milliseconds(),
		"calibration_ms", calibrationDuration.Milliseconds(),
	)
	return result, nil
}

func (s *Service) Recalibrate(ctx context.Context, raw string) RecalibrateResult {
	calibrated := s.calibrator.Calibrate(ctx, strings.TrimSpace(raw))
	return RecalibrateResult{
		Text:         calibrated.Text,
		IsCalibrated: calibrated.Calibrated(),
		Message:      outcomeMessage(calibrated),
	}
}

func transcribeSuffix(r calibration.Result) string {
	switch r.Outcome {
	case calibration.OutcomeCalibrated:
		return ", calibration succeeded"
	case calibration.OutcomeSkipped:
		return " (calibration skipped: " + r.Reason + ")"
	default:
		return ", but calibration failed (" + r.Reason + ")"
	}
}

func outcomeMessage(r calibration.Result) string {
	switch r.Outcome {
	case calibration.OutcomeCalibrated:
		return "calibration succeeded"
	case calibration.OutcomeSkipped:
		return "calibration skipped (" + r.Reason + ")"
	default:
		return "calibration failed (" + r.Reason + ")"
	}
}
