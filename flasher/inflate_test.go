package flasher

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/moffa90/go-norflash/memflash"
)

// pattern returns n bytes of a deterministic, mildly compressible payload.
func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i>>3) ^ byte(i>>11)
	}
	return p
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compress close: %v", err)
	}
	return buf.Bytes()
}

// feedChunks streams the compressed payload in fixed-size packets, the way
// the host-link dispatcher delivers it.
func feedChunks(s *Session, stream []byte, chunkSize int) {
	for len(stream) > 0 {
		n := chunkSize
		if n > len(stream) {
			n = len(stream)
		}
		s.DeflatedData(stream[:n])
		stream = stream[n:]
	}
}

func TestDeflatedRoundTrip(t *testing.T) {
	const offset = 8192
	data := pattern(100000)
	comp := deflate(t, data)

	dev, err := memflash.New(256 * 1024)
	if err != nil {
		t.Fatalf("memflash: %v", err)
	}
	s := New(dev)

	if err := s.BeginDeflated(uint32(len(data)), uint32(len(comp)), offset); err != nil {
		t.Fatalf("BeginDeflated failed: %v", err)
	}

	feedChunks(s, comp, 1333)

	if st := s.LastStatus(); st != StatusOK {
		t.Fatalf("LastStatus = %v, want StatusOK", st)
	}
	if err := s.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	got := dev.Bytes()[offset : offset+len(data)]
	if !bytes.Equal(got, data) {
		t.Fatal("flash contents do not match the decompressed image")
	}
}

func TestDeflatedSessionReuse(t *testing.T) {
	dev, err := memflash.New(128 * 1024)
	if err != nil {
		t.Fatalf("memflash: %v", err)
	}
	s := New(dev)

	for i := 0; i < 2; i++ {
		data := pattern(20000 + i*7)
		comp := deflate(t, data)

		if err := s.BeginDeflated(uint32(len(data)), uint32(len(comp)), 0); err != nil {
			t.Fatalf("session %d: BeginDeflated failed: %v", i, err)
		}
		feedChunks(s, comp, 900)
		if err := s.End(); err != nil {
			t.Fatalf("session %d: End failed: %v", i, err)
		}
		if !bytes.Equal(dev.Bytes()[:len(data)], data) {
			t.Fatalf("session %d: flash contents mismatch", i)
		}
	}
}

func TestDeflatedUnderSupply(t *testing.T) {
	data := pattern(20000)
	comp := deflate(t, data)

	dev, err := memflash.New(128 * 1024)
	if err != nil {
		t.Fatalf("memflash: %v", err)
	}
	s := New(dev)

	// Declare more output than the stream will produce.
	if err := s.BeginDeflated(uint32(len(data))+5000, uint32(len(comp)), 0); err != nil {
		t.Fatalf("BeginDeflated failed: %v", err)
	}
	feedChunks(s, comp, 1000)

	if st := s.LastStatus(); st != StatusNotEnoughData {
		t.Errorf("LastStatus = %v, want StatusNotEnoughData", st)
	}
	err = s.End()
	if StatusOf(err) != StatusNotEnoughData {
		t.Errorf("End status = %v, want StatusNotEnoughData", StatusOf(err))
	}
	if !s.IsActive() {
		t.Error("session should remain active with bytes outstanding")
	}
}

func TestDeflatedOverSupply(t *testing.T) {
	// The stream inflates to 40000 bytes but the session declares only one
	// output buffer's worth; the budget runs out at the first flush.
	data := pattern(40000)
	comp := deflate(t, data)

	dev, err := memflash.New(128 * 1024)
	if err != nil {
		t.Fatalf("memflash: %v", err)
	}
	s := New(dev)

	if err := s.BeginDeflated(inflateBufSize, uint32(len(comp)), 0); err != nil {
		t.Fatalf("BeginDeflated failed: %v", err)
	}
	feedChunks(s, comp, 1000)

	if st := s.LastStatus(); st != StatusTooMuchData {
		t.Errorf("LastStatus = %v, want StatusTooMuchData", st)
	}

	// Nothing past the declared size reaches flash.
	for i, b := range dev.Bytes()[inflateBufSize : inflateBufSize+4096] {
		if b != 0xFF {
			t.Fatalf("byte at 0x%X = 0x%02X, want erased cell", inflateBufSize+i, b)
		}
	}

	// The byte budget is spent, so End closes the session and reports the
	// sticky status.
	err = s.End()
	if StatusOf(err) != StatusTooMuchData {
		t.Errorf("End status = %v, want StatusTooMuchData", StatusOf(err))
	}
	if s.IsActive() {
		t.Error("session should be closed")
	}
}

func TestDeflatedBadStream(t *testing.T) {
	dev, err := memflash.New(64 * 1024)
	if err != nil {
		t.Fatalf("memflash: %v", err)
	}
	s := New(dev)

	if err := s.BeginDeflated(1000, 50, 0); err != nil {
		t.Fatalf("BeginDeflated failed: %v", err)
	}

	junk := bytes.Repeat([]byte{0xAA}, 50)
	s.DeflatedData(junk)

	if st := s.LastStatus(); st != StatusInflateFailed {
		t.Errorf("LastStatus = %v, want StatusInflateFailed", st)
	}
}

func TestDeflatedTruncatedStream(t *testing.T) {
	data := pattern(20000)
	comp := deflate(t, data)
	truncated := comp[:len(comp)-10]

	dev, err := memflash.New(64 * 1024)
	if err != nil {
		t.Fatalf("memflash: %v", err)
	}
	s := New(dev)

	if err := s.BeginDeflated(uint32(len(data)), uint32(len(truncated)), 0); err != nil {
		t.Fatalf("BeginDeflated failed: %v", err)
	}
	feedChunks(s, truncated, 700)

	if st := s.LastStatus(); st != StatusInflateFailed {
		t.Errorf("LastStatus = %v, want StatusInflateFailed", st)
	}
}

func TestDeflatedErasesAheadOfWrites(t *testing.T) {
	data := pattern(50000)
	comp := deflate(t, data)

	dev := &mockDevice{}
	s := New(dev)

	if err := s.BeginDeflated(uint32(len(data)), uint32(len(comp)), 0); err != nil {
		t.Fatalf("BeginDeflated failed: %v", err)
	}
	feedChunks(s, comp, 1111)

	if st := s.LastStatus(); st != StatusOK {
		t.Fatalf("LastStatus = %v, want StatusOK", st)
	}
	if dev.unerasedWrites != 0 {
		t.Errorf("%d writes touched unerased flash", dev.unerasedWrites)
	}
	if err := s.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
}

func TestDeflatedDataOnRawSession(t *testing.T) {
	s := New(&mockDevice{})
	if err := s.Begin(4096, 0); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	s.DeflatedData(make([]byte, 16))
	if st := s.LastStatus(); st != StatusNotActive {
		t.Errorf("LastStatus = %v, want StatusNotActive", st)
	}
}

func TestBeginTearsDownAbandonedStream(t *testing.T) {
	data := pattern(30000)
	comp := deflate(t, data)

	dev, err := memflash.New(64 * 1024)
	if err != nil {
		t.Fatalf("memflash: %v", err)
	}
	s := New(dev)

	if err := s.BeginDeflated(uint32(len(data)), uint32(len(comp)), 0); err != nil {
		t.Fatalf("BeginDeflated failed: %v", err)
	}
	// Abandon the stream halfway through.
	s.DeflatedData(comp[:len(comp)/2])

	// A fresh raw session over the same engine must work.
	raw := pattern(4096)
	if err := s.Begin(uint32(len(raw)), 0); err != nil {
		t.Fatalf("Begin after abandoned stream failed: %v", err)
	}
	s.Data(raw)
	if err := s.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if !bytes.Equal(dev.Bytes()[:len(raw)], raw) {
		t.Fatal("flash contents mismatch after session restart")
	}
}
