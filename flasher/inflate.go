package flasher

import (
	"io"

	"github.com/klauspost/compress/zlib"
)

// inflateBufSize is the capacity of the reusable decompression output
// buffer. Output accumulates here across DeflatedData calls and is flushed
// to flash when the buffer fills or the stream ends.
const inflateBufSize = 32 * 1024

type inflateEventKind int

const (
	// evNeedInput: the pump consumed the whole supplied chunk and wants more.
	evNeedInput inflateEventKind = iota
	// evFlush: the output buffer holds n bytes that must be written (or
	// discarded) before the pump continues.
	evFlush
	// evDone: the stream decompressed completely.
	evDone
	// evFailed: the stream is corrupt or truncated.
	evFailed
	// evClosed: the pump exited after a discarded flush or shutdown.
	evClosed
)

type inflateEvent struct {
	kind inflateEventKind
	n    int
	err  error
}

type inflateChunk struct {
	data []byte
	// final marks the last chunk of the compressed stream; once it is
	// consumed the zlib reader sees EOF instead of blocking for more.
	final bool
}

// inflater bridges the chunk-at-a-time DeflatedData surface to the
// pull-based zlib reader.
//
// The reader runs on a pump goroutine, but the two sides take strict
// turns: the session goroutine blocks in feed while the pump works, and
// the pump blocks on input or on a flush acknowledgement while the session
// works. Session state is therefore never touched from two goroutines at
// once, and the sticky status is settled by the time DeflatedData returns.
type inflater struct {
	in     chan inflateChunk
	events chan inflateEvent
	ack    chan bool

	out []byte

	// pump-side input cursor
	cur []byte
	eof bool

	// session-side view of the pump, valid between turns
	waitingInput bool
	finished     bool
	done         bool
	err          error
}

func newInflater() *inflater {
	inf := &inflater{
		in:     make(chan inflateChunk),
		events: make(chan inflateEvent),
		ack:    make(chan bool),
		out:    make([]byte, inflateBufSize),
	}
	go inf.run()
	return inf
}

// Read supplies compressed bytes to the zlib reader. Runs on the pump
// goroutine; blocks until the session delivers the next chunk.
func (inf *inflater) Read(p []byte) (int, error) {
	for len(inf.cur) == 0 {
		if inf.eof {
			return 0, io.EOF
		}
		inf.events <- inflateEvent{kind: evNeedInput}
		c, ok := <-inf.in
		if !ok {
			return 0, io.EOF
		}
		inf.cur = c.data
		inf.eof = c.final
	}

	n := copy(p, inf.cur)
	inf.cur = inf.cur[n:]
	return n, nil
}

// requestFlush hands the filled output buffer to the session and waits for
// it to be written. A false return means the session discarded the output
// and the pump must exit.
func (inf *inflater) requestFlush(n int) bool {
	inf.events <- inflateEvent{kind: evFlush, n: n}
	return <-inf.ack
}

// run is the pump goroutine: it pulls decompressed bytes out of the zlib
// reader into the output buffer, flushing on a full buffer or a terminal
// stream status. Its last act is always exactly one terminal event.
func (inf *inflater) run() {
	zr, err := zlib.NewReader(inf)
	if err != nil {
		inf.events <- inflateEvent{kind: evFailed, err: err}
		return
	}
	defer zr.Close()

	fill := 0
	for {
		n, err := zr.Read(inf.out[fill:])
		fill += n
		if err != nil {
			if fill > 0 && !inf.requestFlush(fill) {
				inf.events <- inflateEvent{kind: evClosed}
				return
			}
			if err == io.EOF {
				inf.events <- inflateEvent{kind: evDone}
			} else {
				inf.events <- inflateEvent{kind: evFailed, err: err}
			}
			return
		}
		if fill == len(inf.out) {
			if !inf.requestFlush(fill) {
				inf.events <- inflateEvent{kind: evClosed}
				return
			}
			fill = 0
		}
	}
}

// DeflatedData feeds a packet of the compressed stream to the
// decompression pipeline, writing decompressed output to flash as it
// materializes and erasing ahead opportunistically.
//
// Like Data, it never returns an error: stream problems are classified
// into the sticky status (StatusInflateFailed, StatusNotEnoughData for a
// stream that finished short of the declared size, StatusTooMuchData for a
// stream implying more output than declared) and the compressed-byte
// accounting advances regardless. Callers must check LastStatus after each
// call.
func (s *Session) DeflatedData(p []byte) {
	if !s.active || s.inf == nil {
		s.lastStatus = StatusNotActive
		return
	}

	// The last chunk is the one that exhausts the declared compressed size;
	// beyond it the decompressor must not wait for more input.
	final := s.compLeft <= uint32(len(p))

	s.feedInflate(p, final)

	if uint32(len(p)) >= s.compLeft {
		s.compLeft = 0
	} else {
		s.compLeft -= uint32(len(p))
	}

	// Post-call classification, sticky and deferred: stream problems
	// surface on the next status query, never synchronously.
	switch {
	case s.inf.err != nil:
		s.lastStatus = StatusInflateFailed
		s.logError("decompression failed", "err", s.inf.err)
	case s.inf.done && s.bytesLeft > 0:
		s.lastStatus = StatusNotEnoughData
	case !s.inf.done && s.bytesLeft == 0:
		s.lastStatus = StatusTooMuchData
	}
}

// feedInflate delivers one chunk to the pump and services its events until
// it either wants the next chunk or terminates.
func (s *Session) feedInflate(p []byte, final bool) {
	inf := s.inf
	if inf.finished {
		// Terminal stream: input is consumed and dropped so the packet
		// framing stays aligned.
		return
	}

	delivered := false
	if inf.waitingInput {
		inf.in <- inflateChunk{data: p, final: final}
		inf.waitingInput = false
		delivered = true
	}

	for {
		// Opportunistic erase: the pump is burning CPU on decompression, so
		// start the next erase while we wait on it.
		s.eraseNext()

		ev := <-inf.events
		switch ev.kind {
		case evNeedInput:
			if !delivered {
				inf.in <- inflateChunk{data: p, final: final}
				delivered = true
				continue
			}
			inf.waitingInput = true
			return

		case evFlush:
			if s.bytesLeft == 0 && ev.n > 0 {
				// The session's byte budget is spent; everything further is
				// over-supply and never reaches flash.
				inf.ack <- false
				continue
			}
			s.writeRaw(inf.out[:ev.n])
			inf.ack <- true

		case evDone:
			inf.done = true
			inf.finished = true
			return

		case evFailed:
			inf.err = ev.err
			inf.finished = true
			return

		case evClosed:
			inf.finished = true
			return
		}
	}
}

// closeInflater tears the pump down, discarding any un-flushed output.
// Safe to call when no pipeline exists or the pump already exited.
func (s *Session) closeInflater() {
	inf := s.inf
	if inf == nil {
		return
	}
	s.inf = nil
	if inf.finished {
		return
	}

	close(inf.in)
	for {
		ev := <-inf.events
		switch ev.kind {
		case evNeedInput:
			// The pump will observe the closed input channel next.
		case evFlush:
			inf.ack <- false
		default:
			return
		}
	}
}
