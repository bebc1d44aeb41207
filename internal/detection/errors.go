package detection

import "errors"

var (
	// ErrDetectorUnavailable marks a detector whose startup check failed.
	ErrDetectorUnavailable = errors.New("detector unavailable")
	// ErrNoPrimarySet indicates the primary language has no registered detectors.
	ErrNoPrimarySet = errors.New("primary language has no detectors")
	// ErrInvalidRecognizer indicates a recognizer definition could not be compiled.
	ErrInvalidRecognizer = errors.New("invalid recognizer")
)
