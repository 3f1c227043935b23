package memflash

import (
	"fmt"
	"io"

	"github.com/moffa90/go-norflash/flashdev"
)

// Device is an in-memory NOR flash array.
//
// Device is not safe for concurrent use; like the hardware it stands in
// for, it expects one caller at a time.
type Device struct {
	mem    []byte
	locked bool

	// busy counts down one Ready poll at a time; Ready reports false while
	// busy > 0. SetBusy arms it.
	busy int

	erases int
	writes int
}

// New creates a device of the given size with all cells erased (0xFF).
// Size must be a positive multiple of the sector size.
func New(size int) (*Device, error) {
	if size <= 0 || size%flashdev.SectorSize != 0 {
		return nil, fmt.Errorf("memflash: size %d is not a positive multiple of %d", size, flashdev.SectorSize)
	}

	mem := make([]byte, size)
	for i := range mem {
		mem[i] = 0xFF
	}

	return &Device{mem: mem, locked: true}, nil
}

// Load creates a device whose initial contents are image, padded with
// erased cells to the next sector boundary.
func Load(image []byte) (*Device, error) {
	size := (len(image) + flashdev.SectorSize - 1) / flashdev.SectorSize * flashdev.SectorSize
	if size == 0 {
		size = flashdev.SectorSize
	}

	d, err := New(size)
	if err != nil {
		return nil, err
	}
	copy(d.mem, image)
	return d, nil
}

// Size returns the capacity in bytes.
func (d *Device) Size() int { return len(d.mem) }

// Unlock clears write protection.
func (d *Device) Unlock() error {
	d.locked = false
	return nil
}

// Ready reports whether the device can accept a new erase command.
func (d *Device) Ready() bool {
	if d.busy > 0 {
		d.busy--
		return false
	}
	return true
}

// SetBusy makes the next n Ready polls report false.
func (d *Device) SetBusy(n int) { d.busy = n }

// EraseSector erases one sector. addr must be sector-aligned and in range.
func (d *Device) EraseSector(addr uint32) error {
	return d.erase(addr, flashdev.SectorSize)
}

// EraseBlock erases one block. addr must be block-aligned and in range.
func (d *Device) EraseBlock(addr uint32) error {
	return d.erase(addr, flashdev.BlockSize)
}

func (d *Device) erase(addr uint32, granule int) error {
	if d.locked {
		return fmt.Errorf("memflash: erase at 0x%06X while write protected", addr)
	}
	if int(addr)%granule != 0 {
		return fmt.Errorf("memflash: erase address 0x%06X not aligned to %d", addr, granule)
	}
	if int(addr)+granule > len(d.mem) {
		return fmt.Errorf("memflash: erase at 0x%06X exceeds device size %d", addr, len(d.mem))
	}

	for i := int(addr); i < int(addr)+granule; i++ {
		d.mem[i] = 0xFF
	}
	d.erases++
	return nil
}

// Write programs p at addr. Bits are ANDed in: programming can only clear
// bits, so writing over unerased cells corrupts data exactly as it would on
// a real part.
func (d *Device) Write(addr uint32, p []byte) error {
	if d.locked {
		return fmt.Errorf("memflash: write at 0x%06X while write protected", addr)
	}
	if int(addr)+len(p) > len(d.mem) {
		return fmt.Errorf("memflash: write of %d bytes at 0x%06X exceeds device size %d", len(p), addr, len(d.mem))
	}

	for i, b := range p {
		d.mem[int(addr)+i] &= b
	}
	d.writes++
	return nil
}

// ReadAt implements io.ReaderAt over the flash array.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(d.mem)) {
		return 0, fmt.Errorf("memflash: read offset %d out of range", off)
	}
	n := copy(p, d.mem[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes returns the flash contents. The slice aliases the device's array.
func (d *Device) Bytes() []byte { return d.mem }

// EraseCount returns the number of erase commands accepted.
func (d *Device) EraseCount() int { return d.erases }

// WriteCount returns the number of write commands accepted.
func (d *Device) WriteCount() int { return d.writes }
