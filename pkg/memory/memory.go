// Package memory implements the paged linear guest address space of spec
// §4.2: a fixed-size byte-addressable sandbox partitioned into 4 KiB pages,
// each carrying an EXECUTABLE/WRITABLE/FREEZED/DIRTY flag byte enforced by
// the W^X wrapper (invariant 2 of spec §3: no page is ever both executable
// and writable).
package memory

import (
	"encoding/binary"

	"github.com/rvsandbox/rvvm/pkg/rverr"
)

// PageSize is the fixed page granularity of the guest address space.
const PageSize = 4096

// Flag is a bitmask of per-page attributes.
type Flag uint8

const (
	// FlagExecutable marks a page as instruction-fetchable. Mutually
	// exclusive with FlagWritable (W^X, invariant 2).
	FlagExecutable Flag = 1 << iota
	// FlagWritable marks a page as store-eligible.
	FlagWritable
	// FlagFreezed seals a page's flags against further init_pages calls.
	FlagFreezed
	// FlagDirty is set by any store and read by the snapshot engine.
	FlagDirty
)

// DefaultSize is the default maximum guest address space size (4 MiB), per
// spec §3.
const DefaultSize = 4 * 1024 * 1024

// PageOf returns the page index containing addr.
func PageOf(addr uint64) uint64 { return addr / PageSize }

// PageAligned reports whether addr falls on a page boundary.
func PageAligned(addr uint64) bool { return addr%PageSize == 0 }

// Memory is the paged linear address space interface shared by the flat
// and sparse backends and the W^X wrapper that sits above either.
type Memory interface {
	// Size returns the maximum addressable size M.
	Size() uint64

	// InitPages sets flags over [addr, addr+size) and copies
	// source[offsetFromAddr:offsetFromAddr+len] into the region,
	// zero-filling the remainder. Both addr and size must be
	// page-aligned. Page flags become exactly flags; InitPages adds no
	// FlagDirty of its own, since it is initial setup, not a runtime store.
	InitPages(addr, size uint64, flags Flag, source []byte, offsetFromAddr uint64) error

	FetchFlag(page uint64) Flag
	SetFlag(page uint64, flag Flag) error
	ClearFlag(page uint64, flag Flag) error

	Load8(addr uint64) (uint8, error)
	Load16(addr uint64) (uint16, error)
	Load32(addr uint64) (uint32, error)
	Load64(addr uint64) (uint64, error)

	Store8(addr uint64, v uint8) error
	Store16(addr uint64, v uint16) error
	Store32(addr uint64, v uint32) error
	Store64(addr uint64, v uint64) error

	// StoreBytes writes data starting at addr.
	StoreBytes(addr uint64, data []byte) error
	// StoreByte fills size bytes starting at addr with the single byte
	// value fill.
	StoreByte(addr uint64, size uint64, fill uint8) error

	// ExecuteLoad16 is the instruction-fetch fast path. WXMemory requires
	// the containing page(s) to have FlagExecutable set; Flat and Sparse
	// only check bounds.
	ExecuteLoad16(addr uint64) (uint16, error)

	// LoadBytes reads size bytes starting at addr into a fresh buffer.
	LoadBytes(addr uint64, size uint64) ([]byte, error)

	// PageBytes returns a copy of the raw contents of a single page, for
	// the snapshot engine. Unallocated pages read as all-zero.
	PageBytes(page uint64) []byte
}

func checkBounds(m uint64, addr, length uint64) error {
	if length == 0 {
		return nil
	}
	if addr > m || length > m-addr {
		return rverr.ErrOutOfBound
	}
	return nil
}

// littleEndianGet/Put are shared helpers used by every backend to decode
// natural widths from a raw byte slice; guest memory content is always
// little-endian regardless of host endianness (spec §1 non-goals).
func littleEndianGet16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func littleEndianGet32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func littleEndianGet64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

func littleEndianPut16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func littleEndianPut32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func littleEndianPut64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
