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
	"sync"
	"sync/atomic"
	"testing"
)

func TestExecutor_BoundsConcurrency(t *testing.T) {
	const width = 3
	exec := NewExecutor(width)

	var running atomic.Int32
	var peak atomic.Int32
	var mu sync.Mutex

	for i := 0; i < 50; i++ {
		err := exec.Go(context.Background(), func() {
			now := running.Add(1)
			mu.Lock()
			if now > peak.Load() {
				peak.Store(now)
			}
			mu.Unlock()
			running.Add(-1)
		})
		if err != nil {
			t.Fatalf("Go: %v", err)
		}
	}
	exec.Wait()

	if got := peak.Load(); got > width {
		t.Fatalf("observed %d concurrent tasks, width is %d", got, width)
	}
}

func TestExecutor_WaitDrainsAllTasks(t *testing.T) {
	exec := NewExecutor(2)
	var done atomic.Int32
	for i := 0; i < 20; i++ {
		if err := exec.Go(context.Background(), func() { done.Add(1) }); err != nil {
			t.Fatalf("Go: %v", err)
		}
	}
	exec.Wait()
	if done.Load() != 20 {
		t.Fatalf("completed %d tasks, want 20", done.Load())
	}
}

func TestExecutor_CanceledContextRejectsTasks(t *testing.T) {
	exec := NewExecutor(1)
	block := make(chan struct{})
	if err := exec.Go(context.Background(), func() { <-block }); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := exec.Go(ctx, func() {}); err == nil {
		t.Fatal("expected error scheduling on a canceled context with no free slot")
	}
	close(block)
	exec.Wait()
}

func TestExecutor_DefaultWidthPositive(t *testing.T) {
	if NewExecutor(0).Width() <= 0 {
		t.Fatal("default width must be positive")
	}
}
