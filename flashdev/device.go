package flashdev

// Geometry of the serial NOR parts the engine targets.
const (
	// SectorSize is the smallest erasable unit in bytes (4 KiB)
	SectorSize = 4096

	// BlockSize is the large erase granule in bytes (32 KiB)
	BlockSize = 32 * 1024

	// SectorsPerBlock is the number of sectors covered by one block erase
	SectorsPerBlock = BlockSize / SectorSize
)

// Device is the set of flash primitives the engine requires.
//
// Erase and write primitives address the part by absolute byte offset.
// EraseSector and EraseBlock expect sector- and block-aligned addresses
// respectively; implementations should reject misaligned addresses rather
// than round them.
//
// Ready must be a non-blocking poll of the part's busy flag. The engine
// polls it before issuing an erase and never issues a new erase while the
// device reports busy.
type Device interface {
	// Unlock clears write protection. Called once per session by Begin.
	Unlock() error

	// Ready reports whether the device can accept a new erase command.
	// It must not block.
	Ready() bool

	// EraseSector erases the SectorSize bytes starting at addr.
	EraseSector(addr uint32) error

	// EraseBlock erases the BlockSize bytes starting at addr.
	EraseBlock(addr uint32) error

	// Write programs p at addr. The engine guarantees the target range has
	// been erased first.
	Write(addr uint32, p []byte) error
}
