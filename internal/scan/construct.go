/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"context"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// constructNames maps tree-sitter JavaScript node types that have no ES5
// equivalent to the names shown in reports.
var constructNames = map[string]string{
	"arrow_function":                  "arrow function",
	"class":                           "class",
	"class_declaration":               "class",
	"template_string":                 "template literal",
	"lexical_declaration":             "let/const declaration",
	"spread_element":                  "spread element",
	"rest_pattern":                    "rest parameter",
	"object_pattern":                  "destructuring",
	"array_pattern":                   "destructuring",
	"generator_function":              "generator",
	"generator_function_declaration":  "generator",
	"await_expression":                "async/await",
	"for_in_statement":                "for...of loop",
	"import_statement":                "module import",
	"export_statement":                "module export",
	"optional_chain":                  "optional chaining",
	"class_static_block":              "class static block",
	"private_property_identifier":     "private field",
	"shorthand_property_identifier":   "shorthand property",
	"computed_property_name":          "computed property",
	"assignment_pattern":              "default parameter",
}

// maxConstructDepth bounds the walk from the failing node towards the root.
const maxConstructDepth = 8

// Describer names the post-ES5 construct at a failure position.
type Describer struct {
	lang *sitter.Language
}

// NewDescriber returns a describer backed by the tree-sitter JavaScript grammar.
func NewDescriber() *Describer {
	return &Describer{lang: javascript.GetLanguage()}
}

// Describe returns a human name for the construct enclosing line/column
// (1-based line, 0-based UTF-16 column) or "" when nothing recognizable is found.
func (d *Describer) Describe(ctx context.Context, src []byte, line, column int) string {
	if line < 1 || column < 0 {
		return ""
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(d.lang)

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil || tree == nil {
		return ""
	}
	defer tree.Close()

	// tree-sitter columns are byte offsets
	point := sitter.Point{Row: uint32(line - 1), Column: uint32(byteColumn(src, line, column))}
	node := tree.RootNode().NamedDescendantForPointRange(point, point)
	for depth := 0; node != nil && depth < maxConstructDepth; depth++ {
		if name, ok := describeNode(node); ok {
			return name
		}
		node = node.Parent()
	}
	return ""
}

func describeNode(n *sitter.Node) (string, bool) {
	typ := n.Type()
	switch typ {
	case "function", "function_expression", "function_declaration", "method_definition":
		// async functions share node types with plain ones
		if n.ChildCount() > 0 && n.Child(0).Type() == "async" {
			return "async function", true
		}
		return "", false
	case "augmented_assignment_expression":
		// also covers ES5 operators such as += and -=
		for i := 0; i < int(n.ChildCount()); i++ {
			switch n.Child(i).Type() {
			case "||=", "&&=", "??=":
				return "logical assignment", true
			case "**=":
				return "exponentiation assignment", true
			}
		}
		return "", false
	case "for_in_statement":
		// tree-sitter uses one node type for both for-in and for-of
		for i := 0; i < int(n.ChildCount()); i++ {
			if n.Child(i).Type() == "of" {
				return constructNames[typ], true
			}
		}
		return "", false
	}
	name, ok := constructNames[typ]
	return name, ok
}

// byteColumn converts a 0-based UTF-16 column on line to a byte offset
// within that line.
func byteColumn(src []byte, line, column int) int {
	starts := lineStarts(src)
	if line > len(starts) {
		return column
	}
	start := starts[line-1]
	units := 0
	i := start
	for i < len(src) && units < column {
		r, size := utf8.DecodeRune(src[i:])
		if r == '\n' || r == '\r' {
			break
		}
		if l := utf16.RuneLen(r); l > 0 {
			units += l
		} else {
			units++
		}
		i += size
	}
	return i - start
}
