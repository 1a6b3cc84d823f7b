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

import "unsafe"

// MinAlign is the alignment of every allocation served by an Arena.
//
// 16 bytes keeps any Go value correctly aligned and matches the granularity
// the block layout in fixed.go is computed with.
const MinAlign = 16

// Arena is a bump allocator over a single fixed memory block.
//
// Allocations advance one cursor; there is no per-object free. Reset moves
// the cursor back to the start of the block and invalidates every slice and
// string previously handed out. The block never grows: when the cursor would
// pass the end, AllocBytes returns nil and the caller is expected to surface
// a per-file error rather than retry.
//
// Thread Safety:
//
//	An Arena is NOT safe for concurrent use. The pool hands each arena to
//	exactly one goroutine at a time (see Guard), which is the only
//	synchronization this type needs. Reset requires the same exclusive
//	access as allocation.
type Arena struct {
	// data is the full usable block. Fixed at construction.
	data []byte

	// cursor is the offset of the next free byte in data.
	cursor int
}

// NewArena creates an Arena over a heap-backed block of the given size.
//
// This constructor exists for tests and for embedders that do not need the
// pooled, high-alignment blocks; the runtime itself always allocates through
// a Pool, whose arenas are built by newFixedArena instead.
func NewArena(size int) *Arena {
	return &Arena{data: make([]byte, size)}
}

// AllocBytes returns a zeroed n-byte slice carved from the arena block.
//
// The returned slice aliases arena memory: it is valid until the next Reset
// and must not be retained past the Guard's release. Returns nil when n <= 0
// or when the block has insufficient remaining capacity.
func (a *Arena) AllocBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	start := (a.cursor + MinAlign - 1) &^ (MinAlign - 1)
	end := start + n
	if end > len(a.data) || end < 0 {
		return nil
	}
	a.cursor = end
	return a.data[start:end:end]
}

// AllocString copies s into the arena and returns a string view of the copy.
//
// The view aliases arena memory and is invalidated by Reset, exactly like a
// slice from AllocBytes. The second return is false when the arena cannot
// hold the copy. An empty s allocates nothing.
func (a *Arena) AllocString(s string) (string, bool) {
	if len(s) == 0 {
		return "", true
	}
	buf := a.AllocBytes(len(s))
	if buf == nil {
		return "", false
	}
	copy(buf, s)
	return unsafe.String(unsafe.SliceData(buf), len(buf)), true
}

// Reset moves the allocation cursor back to the start of the block.
//
// Every slice and string previously returned by this arena becomes invalid.
// The caller must hold exclusive access; the pool guarantees this by only
// resetting between checkouts.
func (a *Arena) Reset() {
	a.cursor = 0
}

// Len reports the number of bytes currently allocated.
func (a *Arena) Len() int {
	return a.cursor
}

// Cap reports the fixed capacity of the block.
func (a *Arena) Cap() int {
	return len(a.data)
}

// Remaining reports how many bytes an immediate aligned allocation could
// still obtain.
func (a *Arena) Remaining() int {
	start := (a.cursor + MinAlign - 1) &^ (MinAlign - 1)
	if start > len(a.data) {
		return 0
	}
	return len(a.data) - start
}
