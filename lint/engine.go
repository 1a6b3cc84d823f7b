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
	"github.com/AleutianAI/BeringLint/arena"
	"github.com/AleutianAI/BeringLint/ast"
)

// Section is one analyzed script region of a file, ready for rules.
type Section struct {
	// Offset locates the section inside the full file. Rules add it to
	// section-relative spans before emitting diagnostics or fixes.
	Offset int

	// Analysis holds the syntax tree and module facts. Valid only while
	// the file's arena guard is held.
	Analysis *ast.Analysis

	// Record is the section's module record with its dependency table
	// linked (when cross-module analysis is enabled).
	Record *ModuleRecord
}

// Engine runs rules over one file and returns its findings.
//
// The runtime treats the engine as a black box: it hands over the path,
// every successfully analyzed section, and the arena the file's content
// lives in (for engine scratch allocations), and gets back messages in the
// engine's traversal order. That order must be deterministic for identical
// input, independent of when or on which worker the file is processed.
type Engine interface {
	Run(path string, sections []Section, a *arena.Arena) []Message
}

// Rule is a single check the default engine runs per section.
type Rule interface {
	// Name is the rule identifier used in diagnostics, e.g. "no-debugger".
	Name() string

	// Run inspects one section and returns its findings.
	Run(rctx *RuleContext) []Message
}

// RuleContext is everything a rule may look at for one section.
type RuleContext struct {
	// Path of the file being linted.
	Path string

	// Section under inspection.
	Section Section
}

// Runner is the default Engine: a fixed, ordered rule set applied to each
// section in section order.
//
// Thread Safety:
//
//	Runner is stateless between calls and safe for concurrent use; the
//	runtime invokes Run from many lint tasks at once.
type Runner struct {
	rules []Rule
}

// NewRunner creates a Runner with the default rule set.
func NewRunner() *Runner {
	return &Runner{rules: defaultRules()}
}

// NewRunnerWithRules creates a Runner with an explicit rule set. Intended
// for tests and embedders that bring their own rules.
func NewRunnerWithRules(rules ...Rule) *Runner {
	return &Runner{rules: rules}
}

// Run applies every rule to every section, in fixed order.
//
// Message order is sections outer, rules inner, findings in rule traversal
// order - deterministic for identical input regardless of scheduling.
func (r *Runner) Run(path string, sections []Section, _ *arena.Arena) []Message {
	var messages []Message
	for _, section := range sections {
		if section.Analysis == nil {
			continue
		}
		rctx := &RuleContext{Path: path, Section: section}
		for _, rule := range r.rules {
			messages = append(messages, rule.Run(rctx)...)
		}
	}
	return messages
}
