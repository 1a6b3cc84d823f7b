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
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// defaultRules returns the built-in rule set, in execution order.
func defaultRules() []Rule {
	return []Rule{
		noDebugger{},
		importNames{},
	}
}

// noDebugger flags debugger statements and offers their removal as a fix.
type noDebugger struct{}

func (noDebugger) Name() string { return "no-debugger" }

func (noDebugger) Run(rctx *RuleContext) []Message {
	analysis := rctx.Section.Analysis
	root := analysis.Tree.RootNode()
	if root == nil {
		return nil
	}

	var messages []Message
	walkTree(root, func(node *sitter.Node) {
		if node.Type() != "debugger_statement" {
			return
		}
		start := rctx.Section.Offset + int(node.StartByte())
		end := rctx.Section.Offset + int(node.EndByte())
		messages = append(messages, Message{
			Diagnostic: Diagnostic{
				Rule:     "no-debugger",
				Severity: SeverityError,
				Message:  "unexpected debugger statement",
				Start:    start,
				End:      end,
			},
			Fix: &Fix{Start: start, End: end},
		})
	})
	return messages
}

// importNames checks named and default imports against the resolved
// dependency's exports.
//
// Requires cross-module analysis: without a linked dependency table every
// import is skipped, so the rule is silent on the fast path. Unresolved
// specifiers are also skipped - an import the resolver could not place is
// not evidence of a missing export.
type importNames struct{}

func (importNames) Name() string { return "import-names" }

func (importNames) Run(rctx *RuleContext) []Message {
	section := rctx.Section
	if section.Record == nil {
		return nil
	}

	var messages []Message
	for _, imp := range section.Analysis.Imports {
		dep := section.Record.LoadedModule(imp.Specifier)
		if dep == nil {
			continue
		}
		for _, name := range imp.Names {
			if dep.ExportsName(name) {
				continue
			}
			messages = append(messages, Message{
				Diagnostic: Diagnostic{
					Rule:     "import-names",
					Severity: SeverityError,
					Message:  fmt.Sprintf("%q is not exported by %s", name, dep.Path),
					Start:    section.Offset + imp.Start,
					End:      section.Offset + imp.End,
				},
			})
		}
	}
	return messages
}

// walkTree visits every node of the tree in depth-first order.
func walkTree(node *sitter.Node, visit func(*sitter.Node)) {
	visit(node)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walkTree(node.NamedChild(i), visit)
	}
}
