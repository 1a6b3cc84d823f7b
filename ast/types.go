// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast parses JavaScript and TypeScript sources with tree-sitter and
// extracts the module-level facts the lint runtime needs: import specifiers,
// exported names, and a syntax tree for rules to traverse.
//
// Files that embed scripts in markup (.vue, .svelte, .html) are split into
// sections first; each section is parsed independently so one broken script
// block does not take down the rest of the file.
package ast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Section is one script region of a file.
//
// Plain .js/.ts files are a single section covering the whole file. For
// markup formats the loader produces one Section per script block, with
// Offset locating the block inside the full file so diagnostics and fixes
// can be reported in file coordinates.
type Section struct {
	// Source is the section text. For pooled-arena callers this aliases
	// arena memory and is only valid while the owning guard is held.
	Source string

	// Offset is the byte offset of Source within the full file.
	Offset int
}

// Import is one module request found in a section.
type Import struct {
	// Specifier is the raw request string, e.g. "./util" or "lodash".
	Specifier string

	// Names are the names this import expects the target module to
	// export. A default import records "default"; namespace and bare
	// side-effect imports record nothing.
	Names []string

	// Start and End are section-relative byte offsets of the statement.
	Start int
	End   int
}

// SyntaxError is a parse or analysis failure within one section.
type SyntaxError struct {
	// Message describes the failure.
	Message string

	// Start and End are section-relative byte offsets of the offending
	// region.
	Start int
	End   int
}

// Analysis is the parse + extraction result for one section.
//
// The Tree references the section source; callers that pass arena-backed
// sources must Close the analysis before releasing the arena.
type Analysis struct {
	// Tree is the tree-sitter parse tree for rule traversal.
	Tree *sitter.Tree

	// Source is the raw bytes the tree was parsed from.
	Source []byte

	// Imports are the module requests of this section, in source order.
	Imports []Import

	// Exports are the names this section exports, in source order.
	// A default export is recorded as "default".
	Exports []string

	// Errors are the syntax errors found. A section with errors still has
	// a (partial) tree; callers decide whether to lint it.
	Errors []SyntaxError
}

// Close releases the tree-sitter tree. Safe to call on a nil analysis or
// more than once.
func (a *Analysis) Close() {
	if a == nil || a.Tree == nil {
		return
	}
	a.Tree.Close()
	a.Tree = nil
}
