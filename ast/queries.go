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

// Tree-sitter node type names shared by the javascript and typescript
// grammars. Kept in one place so grammar drift shows up here and not
// scattered through the extraction code.
const (
	nodeImportStatement = "import_statement"
	nodeImportClause    = "import_clause"
	nodeNamedImports    = "named_imports"
	nodeImportSpecifier = "import_specifier"
	nodeNamespaceImport = "namespace_import"

	nodeExportStatement = "export_statement"
	nodeExportClause    = "export_clause"
	nodeExportSpecifier = "export_specifier"

	nodeIdentifier          = "identifier"
	nodeString              = "string"
	nodeFunctionDeclaration = "function_declaration"
	nodeGeneratorFunction   = "generator_function_declaration"
	nodeClassDeclaration    = "class_declaration"
	nodeLexicalDeclaration  = "lexical_declaration"
	nodeVariableDeclaration = "variable_declaration"
	nodeVariableDeclarator  = "variable_declarator"

	nodeError = "ERROR"

	fieldSource      = "source"
	fieldDeclaration = "declaration"
	fieldName        = "name"
	fieldAlias       = "alias"
	fieldValue       = "value"
)

// exportDefaultName is the canonical exported name of a default export.
const exportDefaultName = "default"
