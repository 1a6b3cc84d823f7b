// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"path/filepath"
	"strings"
)

// scriptExtensions are the plain single-section source files.
var scriptExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
	".ts":  true,
	".tsx": true,
	".mts": true,
	".cts": true,
}

// markupExtensions are files whose scripts live inside <script> blocks.
var markupExtensions = map[string]bool{
	".vue":    true,
	".svelte": true,
	".html":   true,
}

// Supported reports whether the file can be linted at all.
//
// Unsupported files are skipped silently by the runtime: they contribute no
// module record and no diagnostic.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return scriptExtensions[ext] || markupExtensions[ext]
}

// Split breaks a file into its script sections.
//
// Plain script files are returned as one full-file section. Markup files
// yield one section per <script> block; a markup file without script blocks
// yields no sections. The section sources are substrings of text, so they
// share its backing memory.
func Split(path, text string) []Section {
	ext := strings.ToLower(filepath.Ext(path))
	if !markupExtensions[ext] {
		return []Section{{Source: text, Offset: 0}}
	}
	return splitScriptBlocks(text)
}

// splitScriptBlocks extracts the contents of every <script ...>...</script>
// pair. Matching is case-insensitive and tolerant of attributes; a block
// without a closing tag is ignored rather than guessed at.
func splitScriptBlocks(text string) []Section {
	var sections []Section
	lower := strings.ToLower(text)

	pos := 0
	for {
		open := strings.Index(lower[pos:], "<script")
		if open < 0 {
			break
		}
		open += pos

		gt := strings.IndexByte(lower[open:], '>')
		if gt < 0 {
			break
		}
		start := open + gt + 1

		end := strings.Index(lower[start:], "</script")
		if end < 0 {
			break
		}
		end += start

		sections = append(sections, Section{
			Source: text[start:end],
			Offset: start,
		})
		pos = end + len("</script")
	}
	return sections
}
