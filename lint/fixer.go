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

import (
	"sort"
	"strings"
)

// FixResult is the outcome of applying fixes to a single file.
type FixResult struct {
	// Fixed is true when at least one fix was applied and Code differs
	// from the input source.
	Fixed bool

	// Code is the rewritten source. Only meaningful when Fixed is true.
	Code string

	// Messages holds the diagnostics that remain after fixing: every
	// message without a fix, plus any fixable message whose fix was
	// skipped because it overlapped an earlier one.
	Messages []Message
}

// ApplyFixes rewrites source by applying the fixes attached to messages.
//
// Fixes are applied in ascending start order (ties broken by end offset).
// A fix whose span overlaps an already applied fix is skipped and its
// message is retained; such messages surface again on a subsequent run
// once the earlier fix has landed. Offsets are byte offsets into source
// in file coordinates.
func ApplyFixes(source string, messages []Message) FixResult {
	var fixable []Message
	var remaining []Message
	for _, msg := range messages {
		if msg.Fix == nil {
			remaining = append(remaining, msg)
			continue
		}
		fixable = append(fixable, msg)
	}
	if len(fixable) == 0 {
		return FixResult{Messages: remaining}
	}

	sort.SliceStable(fixable, func(i, j int) bool {
		if fixable[i].Fix.Start != fixable[j].Fix.Start {
			return fixable[i].Fix.Start < fixable[j].Fix.Start
		}
		return fixable[i].Fix.End < fixable[j].Fix.End
	})

	var out strings.Builder
	out.Grow(len(source))
	cursor := 0
	applied := 0
	for _, msg := range fixable {
		fix := msg.Fix
		if fix.Start < cursor || fix.Start > fix.End || fix.End > len(source) {
			remaining = append(remaining, msg)
			continue
		}
		out.WriteString(source[cursor:fix.Start])
		out.WriteString(fix.Replacement)
		cursor = fix.End
		applied++
	}
	out.WriteString(source[cursor:])

	if applied == 0 {
		return FixResult{Messages: remaining}
	}
	return FixResult{Fixed: true, Code: out.String(), Messages: remaining}
}
