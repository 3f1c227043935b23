package flasher

import (
	"time"

	"github.com/moffa90/go-norflash/flashdev"
)

// Session is a flash programming engine holding the state of one
// Begin...End exchange.
//
// A Session is driven call-at-a-time by a single dispatcher goroutine, the
// way the host-link layer of a bootloader stub issues commands; it is not
// safe for concurrent use. Exactly one exchange is open at a time: a Begin
// while a session is active silently discards the previous session's
// progress without reconciling partially erased or written flash.
type Session struct {
	dev flashdev.Device
	cfg Config

	// active is true strictly between a successful Begin and a successful
	// End. It is also left true when Begin fails to unlock the device; the
	// host decides whether to proceed or re-issue Begin.
	active bool

	// nextWrite is the flash offset of the next raw write.
	nextWrite uint32

	// nextEraseSector is the sector index of the next erase.
	nextEraseSector int

	// bytesLeft is the raw byte count still expected before End may succeed.
	bytesLeft uint32

	// eraseLeft is the number of sectors still to be erased.
	eraseLeft int

	// lastStatus is the sticky data-path status. Set by Data and
	// DeflatedData, cleared only by Begin.
	lastStatus Status

	// inf is the decompression pipeline, present only in deflated mode.
	inf *inflater

	// compLeft is the compressed byte count still expected, deflated mode.
	compLeft uint32

	totalBytes uint32
	started    time.Time
}

// New creates a Session driving the given device.
//
// Example:
//
//	dev, _ := memflash.New(4 * 1024 * 1024)
//	sess := flasher.New(dev,
//	    flasher.WithLogger(myLogger),
//	    flasher.WithReadyTimeout(10*time.Second),
//	)
func New(dev flashdev.Device, opts ...Option) *Session {
	if dev == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		dev: dev,
		cfg: cfg,
	}
}

// Begin opens a raw write session of totalSize bytes starting at offset and
// unlocks the device's write protection.
//
// Session state is reset before the unlock is attempted: if the unlock
// fails, Begin returns a StatusUnlockFailed error but the session is left
// open with its counters set, and the host decides whether to proceed or
// re-issue Begin.
func (s *Session) Begin(totalSize, offset uint32) error {
	s.closeInflater()

	s.active = true
	s.nextWrite = offset
	s.nextEraseSector = int(offset / flashdev.SectorSize)
	s.bytesLeft = totalSize
	s.eraseLeft = int((totalSize + flashdev.SectorSize - 1) / flashdev.SectorSize)
	s.lastStatus = StatusOK
	s.compLeft = 0
	s.totalBytes = totalSize
	s.started = time.Now()

	s.logDebug("flash session started",
		"offset", offset,
		"size", totalSize,
		"erase_sectors", s.eraseLeft,
	)

	if err := s.dev.Unlock(); err != nil {
		s.logError("flash unlock failed", "err", err)
		return &StatusError{Op: "begin", Status: StatusUnlockFailed}
	}

	return nil
}

// BeginDeflated opens a session whose data arrives as a zlib-wrapped
// compressed stream of compressedSize bytes, decompressing to
// uncompressedSize bytes written starting at offset.
//
// The return value is whatever Begin returned; the decompressor is
// initialized either way.
func (s *Session) BeginDeflated(uncompressedSize, compressedSize, offset uint32) error {
	err := s.Begin(uncompressedSize, offset)
	s.inf = newInflater()
	s.compLeft = compressedSize
	return err
}

// End closes the session.
//
// It fails with StatusNotActive if no session is open, and with
// StatusNotEnoughData if fewer bytes than declared have arrived — in that
// case the session stays active so the host can send the rest. Otherwise
// the session is closed and the sticky data-path status is returned (nil
// if the whole exchange succeeded).
func (s *Session) End() error {
	if !s.active {
		return &StatusError{Op: "end", Status: StatusNotActive}
	}
	if s.bytesLeft > 0 {
		return &StatusError{Op: "end", Status: StatusNotEnoughData}
	}

	s.active = false
	s.closeInflater()

	if s.lastStatus != StatusOK {
		s.logError("flash session ended with error", "status", s.lastStatus.String())
		return &StatusError{Op: "end", Status: s.lastStatus}
	}

	s.logInfo("flash session complete",
		"bytes", s.totalBytes,
		"elapsed", time.Since(s.started).String(),
	)
	return nil
}

// IsActive reports whether a session is open.
func (s *Session) IsActive() bool { return s.active }

// LastStatus returns the sticky data-path status. It is idempotent: the
// value persists until the next Begin resets it to StatusOK. Callers must
// poll it after every Data or DeflatedData call before deciding whether to
// continue the session.
func (s *Session) LastStatus() Status { return s.lastStatus }

// BytesRemaining returns the raw byte count still expected before End can
// succeed.
func (s *Session) BytesRemaining() uint32 { return s.bytesLeft }

// reportProgress calls the progress callback if configured.
func (s *Session) reportProgress() {
	if s.cfg.ProgressCallback == nil {
		return
	}

	written := int(s.totalBytes - s.bytesLeft)
	pct := 100.0
	if s.totalBytes > 0 {
		pct = float64(written) / float64(s.totalBytes) * 100
	}
	s.cfg.ProgressCallback(Progress{
		BytesWritten: written,
		TotalBytes:   int(s.totalBytes),
		Percentage:   pct,
		ElapsedTime:  time.Since(s.started),
	})
}

// logDebug logs a debug message if a logger is configured.
func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Error(msg, keysAndValues...)
	}
}
