package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"scribeflow/internal/calibration"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, file io.Reader, _ string) (string, error) {
	_, _ = io.ReadAll(file)
	return f.text, f.err
}

type fakeCalibrator struct {
	result calibration.Result
	input  string
	calls  int
}

func (f *fakeCalibrator) Calibrate(_ context.Context, raw string) calibration.Result {
	f.calls++
	f.input = raw
	res := f.result
	if res.Text == "" {
		res.Text = raw
	}
	return res
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTranscribeFallsBackToRawOnCalibrationFailure(t *testing.T) {
	cal := &fakeCalibrator{result: calibration.Result{Outcome: calibration.OutcomeFailed, Reason: "API error 500: boom"}}
	svc := New(&fakeTranscriber{text: "  raw transcript  "}, cal, discardLogger())

	res, err := svc.Transcribe(context.Background(), strings.NewReader("audio"), "test.wav")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.RawText != "raw transcript" || res.Text != "raw transcript" {
		t.Fatalf("expected raw fallback, got %+v", res)
	}
	if res.IsCalibrated {
		t.Fatal("expected IsCalibrated=false")
	}
	if res.Message != "transcription complete, but calibration failed (API error 500: boom)" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if cal.input != "raw transcript" {
		t.Fatalf("calibrator should see trimmed raw text, got %q", cal.input)
	}
}

func TestTranscribeMessages(t *testing.T) {
	cases := []struct {
		name   string
		result calibration.Result
		want   string
		ok     bool
	}{
		{
			name:   "calibrated",
			result: calibration.Result{Text: "clean", Outcome: calibration.OutcomeCalibrated},
			want:   "transcription complete, calibration succeeded",
			ok:     true,
		},
		{
			name:   "skipped",
			result: calibration.Result{Outcome: calibration.OutcomeSkipped, Reason: "service not configured"},
			want:   "transcription complete (calibration skipped: service not configured)",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&fakeTranscriber{text: "raw"}, &fakeCalibrator{result: tc.result}, discardLogger())
			res, err := svc.Transcribe(context.Background(), strings.NewReader("audio"), "a.wav")
			if err != nil {
				t.Fatalf("Transcribe() error = %v", err)
			}
			if res.Message != tc.want || res.IsCalibrated != tc.ok {
				t.Fatalf("unexpected result: %+v", res)
			}
		})
	}
}

func TestTranscribeErrorSkipsCalibration(t *testing.T) {
	boom := errors.New("boom")
	cal := &fakeCalibrator{}
	svc := New(&fakeTranscriber{err: boom}, cal, discardLogger())

	if _, err := svc.Transcribe(context.Background(), strings.NewReader("audio"), "a.wav"); !errors.Is(err, boom) {
		t.Fatalf("expected transcription error, got %v", err)
	}
	if cal.calls != 0 {
		t.Fatal("calibration must not run after a failed transcription")
	}
}

func TestRecalibrate(t *testing.T) {
	cal := &fakeCalibrator{result: calibration.Result{Text: "clean", Outcome: calibration.OutcomeCalibrated}}
	svc := New(&fakeTranscriber{}, cal, discardLogger())

	res := svc.Recalibrate(context.Background(), " raw ")
	if res.Text != "clean" || !res.IsCalibrated || res.Message != "calibration succeeded" {
		t.Fatalf("unexpected result: %+v", res)
	}

	cal.result = calibration.Result{Outcome: calibration.OutcomeFailed, Reason: "request timed out"}
	res = svc.Recalibrate(context.Background(), "raw")
	if res.Text != "raw" || res.IsCalibrated || res.Message != "calibration failed (request timed out)" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
