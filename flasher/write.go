package flasher

import "github.com/moffa90/go-norflash/flashdev"

// Data writes a packet of raw image bytes at the session's write cursor,
// erasing ahead as needed.
//
// Data never returns an error: failures are recorded in the sticky status
// and the write/remaining counters advance regardless, so the engine stays
// aligned with the host's packet sequence. Callers must check LastStatus
// after each call.
func (s *Session) Data(p []byte) {
	if !s.active {
		s.lastStatus = StatusNotActive
		return
	}
	s.writeRaw(p)
}

// writeRaw ensures erase coverage for the write's full extent, then issues
// one device write and advances the counters.
func (s *Session) writeRaw(p []byte) {
	if len(p) == 0 {
		return
	}

	// Highest sector this write touches; erase must have reached it.
	lastSector := int((s.nextWrite + uint32(len(p)) + flashdev.SectorSize - 1) / flashdev.SectorSize)

	if !s.eraseCatchUp(lastSector) {
		// No erase coverage, so the write is skipped rather than programmed
		// over unerased cells. Counters still advance below to keep the
		// packet framing in sync.
		s.lastStatus = StatusDeviceTimeout
		s.logError("device ready timeout during erase catch-up",
			"addr", s.nextWrite,
			"len", len(p),
		)
	} else if err := s.dev.Write(s.nextWrite, p); err != nil {
		s.lastStatus = StatusWriteFailed
		s.logError("flash write failed",
			"addr", s.nextWrite,
			"len", len(p),
			"err", err,
		)
	}

	s.nextWrite += uint32(len(p))
	s.bytesLeft -= uint32(len(p))

	s.reportProgress()
}
