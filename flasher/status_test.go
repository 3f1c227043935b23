package flasher

import (
	"errors"
	"testing"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusOK, "ok"},
		{StatusUnlockFailed, "flash unlock failed"},
		{StatusWriteFailed, "device write failed"},
		{StatusNotActive, "no active session"},
		{StatusNotEnoughData, "not enough data"},
		{StatusTooMuchData, "too much data"},
		{StatusInflateFailed, "decompression failed"},
		{StatusDeviceTimeout, "device ready timeout"},
		{Status(0xEE), "unknown status code 0xEE"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Op: "end", Status: StatusNotEnoughData}
	if got, want := err.Error(), "end: not enough data"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsStatusError(err) {
		t.Error("IsStatusError should be true for StatusError")
	}
	if IsStatusError(errors.New("plain")) {
		t.Error("IsStatusError should be false for a plain error")
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(nil); got != StatusOK {
		t.Errorf("StatusOf(nil) = %v, want StatusOK", got)
	}
	if got := StatusOf(&StatusError{Op: "begin", Status: StatusUnlockFailed}); got != StatusUnlockFailed {
		t.Errorf("StatusOf = %v, want StatusUnlockFailed", got)
	}
	if got := StatusOf(errors.New("plain")); got != StatusWriteFailed {
		t.Errorf("StatusOf(plain) = %v, want StatusWriteFailed", got)
	}
}
