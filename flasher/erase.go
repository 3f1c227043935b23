package flasher

import (
	"time"

	"github.com/moffa90/go-norflash/flashdev"
)

// eraseNext issues at most one erase command, without waiting for the
// device to become ready. It returns true if an erase was issued.
//
// A block erase is chosen when at least a block's worth of sectors remains
// and the erase cursor sits on a block boundary; otherwise a single sector
// is erased. Callers re-invoke until the cursor has advanced far enough.
func (s *Session) eraseNext() bool {
	if s.eraseLeft == 0 {
		return false
	}
	if !s.dev.Ready() {
		// Don't wait; the caller polls again if it needs the coverage.
		return false
	}

	sectors := 1
	addr := uint32(s.nextEraseSector) * flashdev.SectorSize

	var err error
	if s.eraseLeft >= flashdev.SectorsPerBlock && s.nextEraseSector%flashdev.SectorsPerBlock == 0 {
		sectors = flashdev.SectorsPerBlock
		err = s.dev.EraseBlock(addr)
	} else {
		err = s.dev.EraseSector(addr)
	}
	if err != nil {
		s.lastStatus = StatusWriteFailed
		s.logError("flash erase failed", "addr", addr, "sectors", sectors, "err", err)
	}

	// The cursor advances even on failure so the stream keeps moving; the
	// sticky status carries the bad news to the host.
	s.nextEraseSector += sectors
	s.eraseLeft -= sectors
	return true
}

// eraseCatchUp blocks until the erase cursor reaches lastSector, issuing
// erases as the device becomes ready. It returns false if the device
// stayed busy past the configured ReadyTimeout; a zero timeout spins
// forever.
func (s *Session) eraseCatchUp(lastSector int) bool {
	var deadline time.Time
	if s.cfg.ReadyTimeout > 0 {
		deadline = time.Now().Add(s.cfg.ReadyTimeout)
	}

	for s.nextEraseSector < lastSector {
		if s.eraseNext() {
			if s.cfg.ReadyTimeout > 0 {
				deadline = time.Now().Add(s.cfg.ReadyTimeout)
			}
			continue
		}
		if s.eraseLeft == 0 {
			// Nothing left to erase: the write extends past the declared
			// image size. Give up rather than spin; the write proceeds on
			// the caller's head.
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return false
		}
		if s.cfg.PollInterval > 0 {
			time.Sleep(s.cfg.PollInterval)
		}
	}
	return true
}
