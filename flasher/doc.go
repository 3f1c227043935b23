// Package flasher implements the flash-programming engine of a
// bootloader-resident agent: it tracks a multi-packet write session into
// serial NOR flash, keeps block/sector erase strictly ahead of the write
// cursor, and optionally decompresses a streamed zlib payload on the way
// to the device.
//
// # Overview
//
// A host drives the engine through one session at a time:
//   - Begin or BeginDeflated opens the session and unlocks the device
//   - Data or DeflatedData consumes the image one packet at a time
//   - End closes the session and reports the outcome
//
// Erasing is interleaved with writing: before each raw write the engine
// catches the erase cursor up past the write's last sector, choosing 32 KiB
// block erases over 4 KiB sector erases whenever the remaining run allows
// it. In deflated mode erases are additionally started opportunistically
// while the decompressor is busy, hiding erase latency behind CPU work.
//
// # Basic usage
//
//	dev, _ := memflash.New(4 * 1024 * 1024)
//	sess := flasher.New(dev)
//
//	if err := sess.Begin(uint32(len(image)), 0x10000); err != nil {
//	    log.Fatal(err)
//	}
//	for _, packet := range packets(image) {
//	    sess.Data(packet)
//	    if st := sess.LastStatus(); st != flasher.StatusOK {
//	        log.Fatalf("data packet: %s", st)
//	    }
//	}
//	if err := sess.End(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Sticky errors
//
// Data and DeflatedData never return errors. A failure on the data path is
// recorded in the session's sticky status and the byte accounting advances
// anyway, so the engine never falls out of step with the host's packet
// sequence; the failure surfaces on the next LastStatus query or on End.
// Callers must poll LastStatus after every data call before deciding
// whether to continue the session.
//
// # Compressed uploads
//
// BeginDeflated declares both the compressed and the decompressed sizes.
// DeflatedData then accepts the zlib stream in arbitrarily sized packets;
// decompressed output accumulates in a fixed 32 KiB buffer that persists
// across calls and is flushed to flash as it fills:
//
//	sess.BeginDeflated(uncompressedLen, compressedLen, 0x10000)
//	for _, packet := range packets(compressed) {
//	    sess.DeflatedData(packet)
//	}
//	err := sess.End()
//
// A stream that ends short of the declared size classifies as
// StatusNotEnoughData; one that implies more output than declared as
// StatusTooMuchData; a corrupt stream as StatusInflateFailed.
//
// # Hardware independence
//
// The engine does not implement hardware access. Callers provide a
// flashdev.Device for their part: a real SPI controller, a wire protocol to
// a stub, or the memflash simulation for tests and tooling.
//
// # Configuration
//
//	sess := flasher.New(dev,
//	    flasher.WithLogger(myLogger),
//	    flasher.WithProgressCallback(progressFunc),
//	    flasher.WithReadyTimeout(10*time.Second),
//	    flasher.WithPollInterval(100*time.Microsecond),
//	)
//
// The ready timeout bounds the wait for device readiness during erase
// catch-up; an unbounded poll turns a wedged part into a hang. A timed-out
// write records StatusDeviceTimeout and is skipped.
// WithReadyTimeout(0) restores the unbounded bare-metal behavior.
package flasher
