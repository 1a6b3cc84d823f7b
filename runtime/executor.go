// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runtime

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor is a fixed-width task pool. Width is set once at construction
// and never changes, so arena pool capacity assumptions hold for the whole
// run. It is injected into the Runtime rather than shared process-wide.
type Executor struct {
	width int
	sem   *semaphore.Weighted
	wg    sync.WaitGroup
}

// NewExecutor creates an executor running at most width tasks concurrently.
// A non-positive width defaults to GOMAXPROCS.
func NewExecutor(width int) *Executor {
	if width <= 0 {
		width = runtime.GOMAXPROCS(0)
	}
	return &Executor{
		width: width,
		sem:   semaphore.NewWeighted(int64(width)),
	}
}

// Width returns the maximum number of concurrently running tasks.
func (e *Executor) Width() int { return e.width }

// Go schedules task, blocking the caller until a worker slot is free.
// Blocking here is what bounds concurrent arena checkouts to the pool's
// capacity hint.
func (e *Executor) Go(ctx context.Context, task func()) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.sem.Release(1)
		task()
	}()
	return nil
}

// Wait blocks until every scheduled task has returned.
func (e *Executor) Wait() {
	e.wg.Wait()
}
