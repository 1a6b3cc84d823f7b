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
	"math"
	"sync"
	"sync/atomic"
)

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithBlockSize overrides the usable capacity of each arena block.
//
// Intended for tests and embedders with small inputs; the default is
// DefaultBlockSize. Must be a multiple of MinAlign.
func WithBlockSize(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.blockSize = n
		}
	}
}

// WithBlockAlign overrides the base alignment of each arena block.
//
// Must be a power of two no smaller than the page size. The default is
// DefaultBlockAlign.
func WithBlockAlign(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.blockAlign = n
		}
	}
}

// Pool is a thread-safe bag of idle FixedArenas.
//
// Arenas are created lazily on first demand rather than up front: each
// backing reservation is very large, and a worker slot that never runs a
// parse should cost nothing. The worker count passed to NewPool is a
// capacity hint for the idle bag, not a cap - Get never blocks waiting for
// a return, it constructs a fresh arena when the bag is empty.
//
// Invariant: once created, an arena is either idle in the pool or owned by
// exactly one Guard. Never both, never neither.
type Pool struct {
	mu   sync.Mutex
	idle []*FixedArena

	// closed prevents returns from resurrecting arenas after Close.
	closed bool

	nextID atomic.Uint32

	blockSize  int
	blockAlign int
}

// NewPool creates a Pool sized for the given worker count.
//
// workerCount bounds the pre-warmed capacity of the idle bag only; no
// memory is reserved until the first Get.
func NewPool(workerCount int, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		idle:       make([]*FixedArena, 0, workerCount),
		blockSize:  DefaultBlockSize,
		blockAlign: DefaultBlockAlign,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get checks an arena out of the pool, constructing one if none is idle.
//
// The returned Guard is the exclusive handle to the arena; callers must
// Release it when done. O(1) amortized; the lock is held only for the
// pop itself.
func (p *Pool) Get() *Guard {
	p.mu.Lock()
	var fa *FixedArena
	if n := len(p.idle); n > 0 {
		fa = p.idle[n-1]
		p.idle = p.idle[:n-1]
	}
	p.mu.Unlock()

	if fa == nil {
		id := p.nextID.Add(1) - 1
		// Wrapping the id counter would mean ~4 billion arenas were
		// created in one process. Treat it as a programming error.
		if id == math.MaxUint32 {
			panic("arena: id counter overflow, too many arenas created")
		}
		fa = newFixedArena(id, p.blockSize, p.blockAlign)
	}

	return &Guard{arena: fa, pool: p}
}

// put returns a reset arena to the idle bag.
func (p *Pool) put(fa *FixedArena) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		fa.free()
		return
	}
	p.idle = append(p.idle, fa)
	p.mu.Unlock()
}

// Close unmaps every idle arena and marks the pool closed.
//
// Guards still outstanding remain valid; their arenas are unmapped when
// released. Blocks shared with an external owner survive until that owner
// also releases (see FixedArena.Share).
func (p *Pool) Close() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	for _, fa := range idle {
		fa.free()
	}
}

// IdleCount reports how many arenas are currently parked in the pool.
func (p *Pool) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Created reports how many arenas this pool has constructed in total.
func (p *Pool) Created() int {
	return int(p.nextID.Load())
}

// Guard is the exclusive, scoped checkout of one FixedArena.
//
// Exactly one Guard exists per checked-out arena. Release resets the arena
// and returns it to the pool; after Release the Guard is inert and further
// calls are no-ops.
type Guard struct {
	arena *FixedArena
	pool  *Pool
}

// Arena returns the checked-out arena. Nil after Release.
func (g *Guard) Arena() *FixedArena {
	return g.arena
}

// Release resets the arena and returns it to the pool.
//
// Every slice and string allocated from the arena becomes invalid. Safe to
// call more than once from the owning goroutine; only the first call has an
// effect.
func (g *Guard) Release() {
	fa := g.arena
	if fa == nil {
		return
	}
	g.arena = nil
	fa.Reset()
	g.pool.put(fa)
}
