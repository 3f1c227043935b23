// Package memflash provides an in-memory serial NOR flash simulation
// implementing flashdev.Device.
//
// The simulation keeps real NOR semantics: erased cells read 0xFF, a write
// can only clear bits (data is ANDed into the array), erase and write are
// rejected while write protection is engaged, and erase addresses must be
// aligned to the erase granule. A scriptable busy counter lets tests
// exercise the engine's readiness polling.
//
// memflash backs the engine's end-to-end tests and the norprog CLI's
// file-backed flash images; it is also a reasonable starting point for a
// hardware-in-the-loop harness that records traffic.
package memflash
