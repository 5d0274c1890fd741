package sysex

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame is wrapped by every decode failure.
	ErrMalformedFrame = errors.New("malformed sysex frame")
	// ErrChecksum reports a bulk dump whose checksum does not match its data.
	ErrChecksum = fmt.Errorf("%w: checksum mismatch", ErrMalformedFrame)
	// ErrTimeout is returned when no frame arrived before the deadline.
	ErrTimeout = errors.New("timed out waiting for sysex frame")
	// ErrStopped is returned to consumers blocked on a stopped framer.
	ErrStopped = errors.New("sysex framer stopped")
	// ErrInvalidName reports a name containing non-printable characters.
	ErrInvalidName = errors.New("invalid name")
	// ErrOutOfRange reports an encode argument outside the 7-bit wire domain.
	ErrOutOfRange = errors.New("value outside the sysex wire domain")
)

// FrameError describes why a frame could not be decoded.
type FrameError struct {
	// Op is the decode operation that failed
	Op string

	// Reason is a human-readable description of the defect
	Reason string

	// Err is ErrMalformedFrame or one of the errors wrapping it
	Err error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Reason)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFrameError returns true if err is or wraps a *FrameError.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// Malformed builds a *FrameError wrapping ErrMalformedFrame.
func Malformed(op, format string, args ...any) error {
	return &FrameError{Op: op, Reason: fmt.Sprintf(format, args...), Err: ErrMalformedFrame}
}

func checksumError(op string, want, got byte) error {
	return &FrameError{
		Op:     op,
		Reason: fmt.Sprintf("computed 0x%02X, frame carries 0x%02X", want, got),
		Err:    ErrChecksum,
	}
}
