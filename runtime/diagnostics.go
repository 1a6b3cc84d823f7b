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
	"sync"

	"github.com/AleutianAI/BeringLint/lint"
)

// FileDiagnostics is one delivery on the diagnostic sink: every message
// for one file, in the rule engine's traversal order. Files arrive in
// completion order, which is not deterministic across runs.
type FileDiagnostics struct {
	Path     string
	Messages []lint.Message
}

// Sink receives per-file diagnostics as each lint completes. Report may be
// called concurrently from worker tasks and must be safe for that.
type Sink interface {
	Report(file FileDiagnostics)
}

// SinkFunc adapts a function to the Sink interface. The function must be
// concurrency-safe.
type SinkFunc func(FileDiagnostics)

func (f SinkFunc) Report(file FileDiagnostics) { f(file) }

// CollectingSink accumulates deliveries for later inspection. Used by the
// CLI to gather results before formatting, and by tests.
type CollectingSink struct {
	mu    sync.Mutex
	files []FileDiagnostics
}

func (s *CollectingSink) Report(file FileDiagnostics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, file)
}

// Reset discards every collected delivery.
func (s *CollectingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
}

// Files returns a copy of every delivery so far.
func (s *CollectingSink) Files() []FileDiagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FileDiagnostics, len(s.files))
	copy(out, s.files)
	return out
}

// MessageCount returns the total number of messages across deliveries.
func (s *CollectingSink) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, f := range s.files {
		total += len(f.Messages)
	}
	return total
}
