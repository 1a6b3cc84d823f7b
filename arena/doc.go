// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package arena implements the memory-pooling allocator backing the lint
// runtime: fixed-size bump allocators carved out of large, high-alignment
// OS reservations, recycled through a thread-safe pool.
//
// Parsing a file produces a large number of short-lived allocations (source
// text, syntax trees, per-section scratch). All of them are served from one
// Arena and reclaimed in bulk with a single Reset when the file has been
// linted, instead of leaning on the garbage collector.
//
// # Usage
//
//	pool := arena.NewPool(runtime.NumCPU())
//	defer pool.Close()
//
//	guard := pool.Get()
//	defer guard.Release() // resets the arena and returns it to the pool
//
//	buf := guard.Arena().AllocBytes(n)
//
// All pointer arithmetic in the module lives in this package. Nothing
// outside it performs address math; callers only see AllocBytes, AllocString,
// Reset, Get and Release.
//
// # Ownership
//
// An arena is either idle in its pool or owned by exactly one Guard, never
// both. The backing reservation is normally unmapped at pool teardown, but a
// block handed to an embedding host via Share is unmapped only after both
// the pool and the host have released it (see FixedArena.Share).
//
// This package requires a Unix mmap; the runtime targets the same platforms
// as the rest of the toolchain.
package arena
