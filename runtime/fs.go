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
	"fmt"
	"os"
	"sync"

	"github.com/AleutianAI/BeringLint/arena"
)

// FileSystem abstracts file access so hosts can supply in-memory or remote
// backends. ReadToArena places the file text into the caller's arena so the
// text's lifetime is tied to the arena checkout, not the garbage collector.
type FileSystem interface {
	ReadToArena(path string, a *arena.Arena) (string, error)
	WriteFile(path, content string) error
}

// OSFileSystem reads and writes the local filesystem.
type OSFileSystem struct{}

func (OSFileSystem) ReadToArena(path string, a *arena.Arena) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, ok := a.AllocString(string(raw))
	if !ok {
		return "", fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, len(raw))
	}
	return text, nil
}

func (OSFileSystem) WriteFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MemoryFileSystem is an in-memory FileSystem for tests and embedding
// hosts. It counts reads and writes per path so callers can assert how
// often the pipeline touched each file.
type MemoryFileSystem struct {
	mu     sync.Mutex
	files  map[string]string
	reads  map[string]int
	writes map[string]int
}

// NewMemoryFileSystem creates a MemoryFileSystem seeded with files.
func NewMemoryFileSystem(files map[string]string) *MemoryFileSystem {
	copied := make(map[string]string, len(files))
	for path, content := range files {
		copied[path] = content
	}
	return &MemoryFileSystem{
		files:  copied,
		reads:  make(map[string]int),
		writes: make(map[string]int),
	}
}

func (m *MemoryFileSystem) ReadToArena(path string, a *arena.Arena) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	m.reads[path]++
	text, allocated := a.AllocString(content)
	if !allocated {
		return "", fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, len(content))
	}
	return text, nil
}

func (m *MemoryFileSystem) WriteFile(path, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
	m.writes[path]++
	return nil
}

// Content returns the current content of path and whether it exists.
func (m *MemoryFileSystem) Content(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path]
	return content, ok
}

// ReadCount returns how many times path has been read.
func (m *MemoryFileSystem) ReadCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[path]
}

// WriteCount returns how many times path has been written.
func (m *MemoryFileSystem) WriteCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[path]
}
