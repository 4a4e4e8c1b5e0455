package workflow

import "errors"

var (
	// ErrBusy is returned when an operation is requested while another runs.
	ErrBusy = errors.New("another operation is in progress")

	ErrNoDocument       = errors.New("no document selected")
	ErrNoRawText        = errors.New("no raw transcription available")
	ErrNoCalibratedText = errors.New("no calibrated text available")

	// ErrCalibrationNotApplied is returned by Recalibrate when the server
	// answered but could not calibrate, so the previous calibrated text was kept.
	ErrCalibrationNotApplied = errors.New("calibration was not applied")
)

// PreconditionError is an operation refused locally. It has already been
// surfaced as an informational status and is never a hard failure.
type PreconditionError struct {
	Op  Operation
	Err error
}

func (e *PreconditionError) Error() string {
	return string(e.Op) + ": " + e.Err.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
