// Package flashdev defines the capability boundary between the flashing
// engine and a serial NOR flash part.
//
// The engine never touches hardware registers directly. Instead it drives a
// Device implementation providing the five primitives a flashing session
// needs: unlock write protection, poll the busy flag, erase a sector, erase
// a block, and program a run of bytes. Implementations may wrap a real SPI
// controller, a bootloader wire protocol, or an in-memory simulation such as
// the memflash package.
//
// Geometry constants describe the common 4 KiB-sector / 32 KiB-block serial
// NOR layout the engine's erase scheduler is built around.
package flashdev
