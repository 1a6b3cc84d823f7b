// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package arena

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Default block geometry.
//
// Each arena owns a 2 GiB block whose base address sits on a 4 GiB boundary.
// The high alignment lets 32-bit offsets into the block double as stable
// identifiers when the raw buffer is shared with an embedding host.
const (
	// DefaultBlockSize is the usable capacity of one pooled arena.
	DefaultBlockSize = 1 << 31 // 2 GiB

	// DefaultBlockAlign is the required alignment of the block base.
	DefaultBlockAlign = 1 << 32 // 4 GiB
)

// FixedArena is an Arena whose block is carved out of one large,
// high-alignment OS reservation.
//
// Capacity is fixed at construction. Reset restores the cursor to the start
// of the block and never changes capacity. The arena is created lazily by a
// Pool, reused indefinitely across checkouts, and its reservation is
// unmapped at pool teardown - unless the raw block was handed to a second
// owner via Share, in which case unmapping is deferred until both owners
// have released (see free).
type FixedArena struct {
	Arena

	// id uniquely identifies this arena within the process.
	id uint32

	// mapping is the whole OS reservation the block was carved from.
	// Larger than the block itself; see newFixedArena.
	mapping []byte

	// doubleOwned is true while both this FixedArena and an external host
	// hold the block. Flipped by Share, cleared by whichever owner
	// releases first.
	doubleOwned atomic.Bool
}

// newFixedArena reserves a block of blockSize bytes aligned on blockAlign.
//
// mmap only guarantees page alignment, and asking the OS allocator for a
// multi-GiB alignment directly is refused on some platforms. So the
// reservation is over-sized by the alignment and the one sub-block that
// lands on an alignment boundary is used; such a sub-block always exists in
// a blockSize+blockAlign reservation. The unused head and tail stay
// reserved but untouched - anonymous mappings cost nothing until written.
//
// A failed reservation is fatal. There is no degraded mode for failing to
// reserve the region the whole run's memory model is built on, and a panic
// would be swallowed by the runtime's task recovery, so this aborts the
// process directly.
func newFixedArena(id uint32, blockSize, blockAlign int) *FixedArena {
	mapLen := blockSize + blockAlign
	mem, err := unix.Mmap(-1, 0, mapLen,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "beringlint: failed to reserve %d-byte arena block: %v\n", mapLen, err)
		os.Exit(1)
	}

	base := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	offset := 0
	if rem := int(base % uintptr(blockAlign)); rem != 0 {
		offset = blockAlign - rem
	}
	block := mem[offset : offset+blockSize : offset+blockSize]

	return &FixedArena{
		Arena:   Arena{data: block},
		id:      id,
		mapping: mem,
	}
}

// ID returns the arena's process-unique identity.
func (f *FixedArena) ID() uint32 {
	return f.id
}

// Bump returns the arena as a plain bump allocator, for callers that only
// allocate and don't care about block identity or sharing.
func (f *FixedArena) Bump() *Arena {
	return &f.Arena
}

// Share hands the raw block to a second owner and returns it.
//
// After Share, the backing reservation outlives pool teardown until the
// external owner calls ReleaseShared. The returned slice is the full usable
// block; its base is aligned on the pool's block alignment.
func (f *FixedArena) Share() []byte {
	f.doubleOwned.Store(true)
	return f.data
}

// ReleaseShared is the external owner's release of a block obtained from
// Share. Safe to call concurrently with the pool-side release; the
// reservation is unmapped exactly once, by whichever release comes second.
func (f *FixedArena) ReleaseShared() {
	f.free()
}

// free releases this side's ownership of the reservation.
//
// If the block is double-owned, the flag is cleared and the memory survives
// for the other owner to free. Otherwise the whole reservation is unmapped.
// The swap makes concurrent releases from both owners race-safe: exactly
// one of them observes doubleOwned == false and unmaps.
//
// Each owner must call free at most once; this mirrors the pool invariant
// that an arena is destroyed only at teardown.
func (f *FixedArena) free() {
	if f.doubleOwned.Swap(false) {
		return
	}
	// Ignore the munmap error: the mapping came from us, and there is no
	// caller that could act on a failure during teardown.
	_ = munmap(f.mapping)
}

// munmap is replaced in tests to observe release behavior.
var munmap = unix.Munmap
