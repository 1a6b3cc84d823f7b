// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lint defines the rule-engine surface of the linter: diagnostics,
// per-file module records, the Engine interface the runtime drives, and the
// fix applier that folds every rule fix for one file into a single rewrite.
package lint

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityWarning is a finding that does not fail the run.
	SeverityWarning Severity = iota

	// SeverityError is a finding that fails the run.
	SeverityError
)

// String returns "warning" or "error".
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is one finding in one file.
//
// Offsets are byte positions in the full file, not in a section: rules that
// operate on markup script blocks add the section offset before emitting.
type Diagnostic struct {
	// Rule names the rule that produced the finding, e.g. "no-debugger".
	// Empty for findings the runtime itself produces (I/O, parse errors).
	Rule string

	// Severity of the finding.
	Severity Severity

	// Message is the human-readable description.
	Message string

	// Start and End are byte offsets of the finding in the file.
	Start int
	End   int
}

// String formats the diagnostic for plain output.
func (d Diagnostic) String() string {
	if d.Rule == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Severity, d.Message, d.Rule)
}

// Fix is a textual replacement a rule proposes for its finding.
//
// Start and End are byte offsets in the full file. A deletion has an empty
// Replacement.
type Fix struct {
	Start       int
	End         int
	Replacement string
}

// Message is a diagnostic with an optional fix attached.
type Message struct {
	Diagnostic

	// Fix is nil when the rule has no automatic repair for this finding.
	Fix *Fix
}
