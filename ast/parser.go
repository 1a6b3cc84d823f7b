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
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// DefaultMaxSectionSize caps how large a single section the parser accepts.
const DefaultMaxSectionSize = 10 * 1024 * 1024 // 10 MiB

// maxReportedSyntaxErrors bounds how many ERROR nodes are turned into
// diagnostics for one section.
const maxReportedSyntaxErrors = 5

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMaxSectionSize sets the largest section the parser will accept.
func WithMaxSectionSize(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.maxSectionSize = n
		}
	}
}

// Parser extracts module facts from JavaScript and TypeScript sections.
//
// Thread Safety:
//
//	Parser is safe for concurrent use. Each Parse call creates its own
//	tree-sitter parser instance internally.
type Parser struct {
	maxSectionSize int
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{maxSectionSize: DefaultMaxSectionSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses one section and extracts imports, exports and syntax errors.
//
// The grammar is chosen from the file extension: .tsx uses the TSX grammar,
// other TypeScript extensions use the TypeScript grammar, everything else
// (including script blocks of markup files) uses the JavaScript grammar.
//
// A section with syntax errors still yields an Analysis with a partial tree
// and the errors recorded; a non-nil error return means the section could
// not be analyzed at all (not UTF-8, too large, context canceled).
//
// The returned Analysis references section memory; Close it before the
// owning arena is released.
func (p *Parser) Parse(ctx context.Context, path string, section Section) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if len(section.Source) > p.maxSectionSize {
		return nil, fmt.Errorf("section of %s is %d bytes, exceeds limit %d",
			path, len(section.Source), p.maxSectionSize)
	}
	if !utf8.ValidString(section.Source) {
		return nil, fmt.Errorf("section of %s is not valid UTF-8", path)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(path))

	content := []byte(section.Source)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse of %s failed: %w", path, err)
	}

	analysis := &Analysis{
		Tree:   tree,
		Source: content,
	}

	root := tree.RootNode()
	if root == nil {
		analysis.Errors = append(analysis.Errors, SyntaxError{Message: "parser produced no syntax tree"})
		return analysis, nil
	}

	if root.HasError() {
		collectSyntaxErrors(root, content, analysis)
	}
	extractModuleFacts(root, content, analysis)

	return analysis, nil
}

// languageFor picks the tree-sitter grammar for a path.
func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// collectSyntaxErrors records up to maxReportedSyntaxErrors ERROR nodes.
func collectSyntaxErrors(root *sitter.Node, content []byte, out *Analysis) {
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	var walk func() bool
	walk = func() bool {
		node := cursor.CurrentNode()
		if node.Type() == nodeError || node.IsMissing() {
			msg := "syntax error"
			if node.IsMissing() {
				msg = fmt.Sprintf("missing %s", node.Type())
			}
			out.Errors = append(out.Errors, SyntaxError{
				Message: msg,
				Start:   int(node.StartByte()),
				End:     int(node.EndByte()),
			})
			return len(out.Errors) < maxReportedSyntaxErrors
		}
		if cursor.GoToFirstChild() {
			for {
				if !walk() {
					return false
				}
				if !cursor.GoToNextSibling() {
					break
				}
			}
			cursor.GoToParent()
		}
		return true
	}
	walk()
}

// extractModuleFacts walks the top-level statements for imports and exports.
//
// Only module-level statements can carry import/export syntax, so the walk
// does not descend into declarations.
func extractModuleFacts(root *sitter.Node, content []byte, out *Analysis) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case nodeImportStatement:
			if imp, ok := extractImport(node, content); ok {
				out.Imports = append(out.Imports, imp)
			}
		case nodeExportStatement:
			extractExport(node, content, out)
		}
	}
}

// extractImport reads one import statement.
func extractImport(node *sitter.Node, content []byte) (Import, bool) {
	source := node.ChildByFieldName(fieldSource)
	if source == nil {
		return Import{}, false
	}
	imp := Import{
		Specifier: stringValue(source, content),
		Start:     int(node.StartByte()),
		End:       int(node.EndByte()),
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != nodeImportClause {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			part := child.NamedChild(j)
			switch part.Type() {
			case nodeIdentifier:
				// Default import binds the target's default export.
				imp.Names = append(imp.Names, exportDefaultName)
			case nodeNamedImports:
				for k := 0; k < int(part.NamedChildCount()); k++ {
					spec := part.NamedChild(k)
					if spec.Type() != nodeImportSpecifier {
						continue
					}
					if name := spec.ChildByFieldName(fieldName); name != nil {
						imp.Names = append(imp.Names, name.Content(content))
					}
				}
			case nodeNamespaceImport:
				// import * as ns: every export is reachable, nothing to check.
			}
		}
	}
	return imp, true
}

// extractExport reads one export statement, recording exported names and,
// for re-exports, the module request.
func extractExport(node *sitter.Node, content []byte, out *Analysis) {
	if source := node.ChildByFieldName(fieldSource); source != nil {
		// export ... from "mod" is also a module request.
		out.Imports = append(out.Imports, Import{
			Specifier: stringValue(source, content),
			Start:     int(node.StartByte()),
			End:       int(node.EndByte()),
		})
	}

	if decl := node.ChildByFieldName(fieldDeclaration); decl != nil {
		out.Exports = append(out.Exports, declaredNames(decl, content)...)
		return
	}

	if value := node.ChildByFieldName(fieldValue); value != nil {
		// export default <expr>
		out.Exports = append(out.Exports, exportDefaultName)
		return
	}

	exportsDefault := false
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == exportDefaultName {
			exportsDefault = true
			break
		}
	}
	if exportsDefault {
		out.Exports = append(out.Exports, exportDefaultName)
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != nodeExportClause {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			spec := child.NamedChild(j)
			if spec.Type() != nodeExportSpecifier {
				continue
			}
			name := spec.ChildByFieldName(fieldAlias)
			if name == nil {
				name = spec.ChildByFieldName(fieldName)
			}
			if name != nil {
				out.Exports = append(out.Exports, name.Content(content))
			}
		}
	}
}

// declaredNames returns the names introduced by an exported declaration.
func declaredNames(decl *sitter.Node, content []byte) []string {
	switch decl.Type() {
	case nodeFunctionDeclaration, nodeGeneratorFunction, nodeClassDeclaration:
		if name := decl.ChildByFieldName(fieldName); name != nil {
			return []string{name.Content(content)}
		}
	case nodeLexicalDeclaration, nodeVariableDeclaration:
		var names []string
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			d := decl.NamedChild(i)
			if d.Type() != nodeVariableDeclarator {
				continue
			}
			if name := d.ChildByFieldName(fieldName); name != nil && name.Type() == nodeIdentifier {
				names = append(names, name.Content(content))
			}
		}
		return names
	default:
		// interface/type/enum declarations in TS carry a name field too.
		if name := decl.ChildByFieldName(fieldName); name != nil {
			return []string{name.Content(content)}
		}
	}
	return nil
}

// stringValue returns the value of a string literal node without quotes.
func stringValue(node *sitter.Node, content []byte) string {
	text := node.Content(content)
	if len(text) >= 2 {
		switch text[0] {
		case '\'', '"', '`':
			return text[1 : len(text)-1]
		}
	}
	return text
}
