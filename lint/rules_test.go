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
	"context"
	"strings"
	"testing"

	"github.com/AleutianAI/BeringLint/ast"
)

// parseSection is a test helper that parses source as a standalone script
// section and fails the test on error.
func parseSection(t *testing.T, path, source string, offset int) *ast.Analysis {
	t.Helper()
	parser := ast.NewParser()
	analysis, err := parser.Parse(context.Background(), path, ast.Section{Source: source, Offset: offset})
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	t.Cleanup(analysis.Close)
	return analysis
}

func TestNoDebugger_FlagsAndFixes(t *testing.T) {
	source := "const a = 1;\ndebugger;\nconst b = 2;\n"
	analysis := parseSection(t, "/src/a.js", source, 0)

	runner := NewRunnerWithRules(noDebugger{})
	messages := runner.Run("/src/a.js", []Section{{Analysis: analysis}}, nil)

	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	msg := messages[0]
	if msg.Rule != "no-debugger" || msg.Severity != SeverityError {
		t.Fatalf("unexpected diagnostic: %+v", msg.Diagnostic)
	}
	if source[msg.Start:msg.End] != "debugger;" {
		t.Fatalf("diagnostic span %q, want %q", source[msg.Start:msg.End], "debugger;")
	}
	if msg.Fix == nil || msg.Fix.Replacement != "" {
		t.Fatalf("expected removal fix, got %+v", msg.Fix)
	}

	result := ApplyFixes(source, messages)
	if !result.Fixed {
		t.Fatal("expected fix to apply")
	}
	if strings.Contains(result.Code, "debugger") {
		t.Fatalf("debugger statement survived fixing: %q", result.Code)
	}
}

func TestNoDebugger_SectionOffsetShiftsSpans(t *testing.T) {
	const offset = 40
	source := "debugger;\n"
	analysis := parseSection(t, "/src/page.vue", source, offset)

	runner := NewRunnerWithRules(noDebugger{})
	messages := runner.Run("/src/page.vue", []Section{{Offset: offset, Analysis: analysis}}, nil)

	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Start != offset || messages[0].End != offset+9 {
		t.Fatalf("span [%d,%d), want [%d,%d)", messages[0].Start, messages[0].End, offset, offset+9)
	}
}

func TestImportNames_MissingExportFlagged(t *testing.T) {
	source := "import { shared, missing } from './util';\n"
	analysis := parseSection(t, "/src/a.js", source, 0)

	record := NewModuleRecord("/src/a.js", analysis)
	dep := NewModuleRecord("/src/util.js", &ast.Analysis{Exports: []string{"shared"}})
	record.Link("./util", dep)

	runner := NewRunnerWithRules(importNames{})
	messages := runner.Run("/src/a.js", []Section{{Analysis: analysis, Record: record}}, nil)

	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d: %v", len(messages), messages)
	}
	if messages[0].Rule != "import-names" {
		t.Fatalf("unexpected rule %q", messages[0].Rule)
	}
	if !strings.Contains(messages[0].Message, "missing") {
		t.Fatalf("message should name the missing export: %q", messages[0].Message)
	}
}

func TestImportNames_DefaultImportChecked(t *testing.T) {
	source := "import util from './util';\n"
	analysis := parseSection(t, "/src/a.js", source, 0)

	record := NewModuleRecord("/src/a.js", analysis)
	dep := NewModuleRecord("/src/util.js", &ast.Analysis{Exports: []string{"helper"}})
	record.Link("./util", dep)

	runner := NewRunnerWithRules(importNames{})
	messages := runner.Run("/src/a.js", []Section{{Analysis: analysis, Record: record}}, nil)

	if len(messages) != 1 {
		t.Fatalf("expected default import to be flagged, got %d messages", len(messages))
	}

	dep2 := NewModuleRecord("/src/util.js", &ast.Analysis{Exports: []string{"default"}})
	record2 := NewModuleRecord("/src/a.js", analysis)
	record2.Link("./util", dep2)

	messages = runner.Run("/src/a.js", []Section{{Analysis: analysis, Record: record2}}, nil)
	if len(messages) != 0 {
		t.Fatalf("expected no messages with default export present, got %v", messages)
	}
}

func TestImportNames_SkipsWithoutRecordOrLink(t *testing.T) {
	source := "import { anything } from './util';\n"
	analysis := parseSection(t, "/src/a.js", source, 0)

	runner := NewRunnerWithRules(importNames{})

	messages := runner.Run("/src/a.js", []Section{{Analysis: analysis}}, nil)
	if len(messages) != 0 {
		t.Fatalf("expected silence without a dependency table, got %v", messages)
	}

	record := NewModuleRecord("/src/a.js", analysis)
	messages = runner.Run("/src/a.js", []Section{{Analysis: analysis, Record: record}}, nil)
	if len(messages) != 0 {
		t.Fatalf("expected silence for unresolved specifier, got %v", messages)
	}
}

func TestRunner_SkipsNilAnalysis(t *testing.T) {
	runner := NewRunner()
	messages := runner.Run("/src/empty.js", []Section{{Analysis: nil}}, nil)
	if len(messages) != 0 {
		t.Fatalf("expected no messages for nil analysis, got %v", messages)
	}
}
