package flasher

import "fmt"

// Status is a flashing status code as reported to the host protocol.
//
// Data-path failures are sticky: they are recorded in the session's status
// when they happen and surfaced on the next LastStatus or End call, so the
// data handlers keep consuming input and stay aligned with the host's
// packet sequence.
type Status byte

const (
	// StatusOK indicates no error
	StatusOK Status = iota

	// StatusUnlockFailed indicates the device rejected the unlock command
	StatusUnlockFailed

	// StatusWriteFailed indicates a device erase or write command failed
	StatusWriteFailed

	// StatusNotActive indicates an operation outside an open session
	StatusNotActive

	// StatusNotEnoughData indicates the session ended, or the compressed
	// stream finished, before the declared byte count was written
	StatusNotEnoughData

	// StatusTooMuchData indicates the compressed stream implies more output
	// than the session declared
	StatusTooMuchData

	// StatusInflateFailed indicates the compressed stream is corrupt or
	// truncated
	StatusInflateFailed

	// StatusDeviceTimeout indicates the device stayed busy past the
	// configured readiness timeout
	StatusDeviceTimeout
)

// String returns a human-readable name for the status code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnlockFailed:
		return "flash unlock failed"
	case StatusWriteFailed:
		return "device write failed"
	case StatusNotActive:
		return "no active session"
	case StatusNotEnoughData:
		return "not enough data"
	case StatusTooMuchData:
		return "too much data"
	case StatusInflateFailed:
		return "decompression failed"
	case StatusDeviceTimeout:
		return "device ready timeout"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", byte(s))
	}
}

// StatusError is an error carrying the protocol status code.
// Returned by Begin, BeginDeflated and End so the dispatcher can put the
// raw code in its reply packet while callers still get a normal error.
type StatusError struct {
	// Op is the operation that failed
	Op string

	// Status is the protocol status code
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

// StatusOf extracts the status code from an error returned by this package.
// A nil error maps to StatusOK; a foreign error maps to StatusWriteFailed.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	if se, ok := err.(*StatusError); ok {
		return se.Status
	}
	return StatusWriteFailed
}

// IsStatusError returns true if the error is a StatusError.
func IsStatusError(err error) bool {
	_, ok := err.(*StatusError)
	return ok
}
