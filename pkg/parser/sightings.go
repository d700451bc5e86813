package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// SightingKind classifies how a module specifier appeared in source.
type SightingKind string

const (
	// SightingImport covers static import declarations, including
	// type-only imports (`import type { T } from "x"`).
	SightingImport SightingKind = "import"
	// SightingReexport covers `export ... from "x"` forms.
	SightingReexport SightingKind = "reexport"
	// SightingRequire covers `require("x")` calls with a literal argument.
	SightingRequire SightingKind = "require"
	// SightingDynamicImport covers `import("x")` calls with a literal argument.
	SightingDynamicImport SightingKind = "dynamic-import"
	// SightingRequireClause covers the external module reference form
	// `import x = require("x")`.
	SightingRequireClause SightingKind = "require-clause"
)

// Sighting is one module-specifier reference found in a syntax tree.
type Sighting struct {
	Kind   SightingKind
	Source string // the module specifier, quotes stripped
	Line   uint32
}

// Sightings walks a parsed tree once and returns every module-specifier
// reference it contains. Matching against dependency names is done by the
// caller as a pure function over this list.
func Sightings(result *ParseResult) []Sighting {
	if result == nil || result.Tree == nil {
		return nil
	}

	var sightings []Sighting
	add := func(kind SightingKind, node *sitter.Node, raw string) {
		src := StripQuotes(raw)
		if src == "" {
			return
		}
		sightings = append(sightings, Sighting{
			Kind:   kind,
			Source: src,
			Line:   node.StartPoint().Row + 1,
		})
	}

	Walk(result.Tree.RootNode(), result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		switch nodeType {
		case "import_statement":
			if srcNode := node.ChildByFieldName("source"); srcNode != nil {
				add(SightingImport, node, GetNodeText(srcNode, source))
			}

		case "export_statement":
			if srcNode := node.ChildByFieldName("source"); srcNode != nil {
				add(SightingReexport, node, GetNodeText(srcNode, source))
			}

		case "import_require_clause":
			// `import x = require("y")` keeps the module string as the
			// only string child of the clause.
			for i := range int(node.ChildCount()) {
				child := node.Child(i)
				if child.Type() == "string" {
					add(SightingRequireClause, node, GetNodeText(child, source))
					break
				}
			}

		case "call_expression":
			fnNode := node.ChildByFieldName("function")
			if fnNode == nil {
				return true
			}
			fnType := fnNode.Type()

			var kind SightingKind
			switch {
			case fnType == "import":
				kind = SightingDynamicImport
			case fnType == "identifier" && GetNodeText(fnNode, source) == "require":
				kind = SightingRequire
			default:
				return true
			}

			if arg := firstStringArgument(node, source); arg != "" {
				add(kind, node, arg)
			}
		}
		return true
	})

	return sightings
}

// firstStringArgument returns the raw text of the first string-literal
// argument of a call expression, or "" when the argument is not a plain
// literal (dynamically constructed specifiers are a documented limitation).
func firstStringArgument(call *sitter.Node, source []byte) string {
	argsNode := call.ChildByFieldName("arguments")
	if argsNode == nil {
		return ""
	}
	for i := range int(argsNode.ChildCount()) {
		child := argsNode.Child(i)
		switch child.Type() {
		case "string":
			return GetNodeText(child, source)
		case "template_string":
			// Only constant templates (no substitutions) count as literals.
			if !hasChildOfType(child, "template_substitution") {
				return GetNodeText(child, source)
			}
			return ""
		}
	}
	return ""
}

func hasChildOfType(node *sitter.Node, childType string) bool {
	for i := range int(node.ChildCount()) {
		if node.Child(i).Type() == childType {
			return true
		}
	}
	return false
}
