// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import "github.com/AleutianAI/BeringLint/ast"

// ModuleRecord is the lightweight, persistent result of analyzing one file
// section: its module requests and exported names, plus the dependency
// table linking each request to the record of the module it resolved to.
//
// Records outlive the section's source text and syntax tree - they are what
// the module graph keeps for the remainder of a run after heavy content has
// been reclaimed, so they hold only plain heap strings.
//
// # Write Discipline
//
// The dependency table is write-once-then-read-many: the runtime's
// single coordinating goroutine calls Link before any lint task can
// observe the record, and never again afterwards. That ordering is the
// only synchronization; readers need no lock.
type ModuleRecord struct {
	// Path is the file this record was parsed from.
	Path string

	// RequestedModules are the import specifiers of the section, in
	// source order, deduplicated.
	RequestedModules []string

	// Exports are the names the section exports, in source order.
	Exports []string

	loaded map[string]*ModuleRecord
}

// NewModuleRecord builds a record from a section analysis.
//
// Specifier and export strings from the analysis are already plain heap
// strings (tree-sitter copies node text), so the record holds no arena
// memory.
func NewModuleRecord(path string, analysis *ast.Analysis) *ModuleRecord {
	rec := &ModuleRecord{
		Path:   path,
		loaded: make(map[string]*ModuleRecord),
	}
	seen := make(map[string]bool, len(analysis.Imports))
	for _, imp := range analysis.Imports {
		if !seen[imp.Specifier] {
			seen[imp.Specifier] = true
			rec.RequestedModules = append(rec.RequestedModules, imp.Specifier)
		}
	}
	rec.Exports = append(rec.Exports, analysis.Exports...)
	return rec
}

// Link records that specifier resolved to dep.
//
// Must only be called by the coordinating goroutine, before the record is
// handed to any lint task. Each specifier is linked at most once; a second
// link for the same specifier is ignored.
func (r *ModuleRecord) Link(specifier string, dep *ModuleRecord) {
	if _, exists := r.loaded[specifier]; exists {
		return
	}
	r.loaded[specifier] = dep
}

// LoadedModule returns the record of the module a specifier resolved to,
// or nil when the specifier was never resolved (unresolvable imports are
// dropped, see the runtime).
//
// Safe for concurrent use once the record has been linked.
func (r *ModuleRecord) LoadedModule(specifier string) *ModuleRecord {
	return r.loaded[specifier]
}

// LoadedCount reports how many requests have been linked.
func (r *ModuleRecord) LoadedCount() int {
	return len(r.loaded)
}

// ExportsName reports whether the module exports the given name.
func (r *ModuleRecord) ExportsName(name string) bool {
	for _, e := range r.Exports {
		if e == name {
			return true
		}
	}
	return false
}
