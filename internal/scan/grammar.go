/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/robertkrimen/otto/ast"
	"github.com/robertkrimen/otto/parser"
)

// ECMAVersion names an ECMAScript grammar level.
type ECMAVersion int

const (
	// ES5 is the lowest broadly compatible grammar.
	ES5 ECMAVersion = 5
)

func (v ECMAVersion) String() string {
	return fmt.Sprintf("es%d", int(v))
}

// Grammar is the target grammar configuration for checking bundles.
type Grammar struct {
	Version       ECMAVersion
	AllowModules  bool
	AllowHashBang bool
}

// ES5Grammar is the fixed target used by the scanner.
func ES5Grammar() Grammar {
	return Grammar{Version: ES5}
}

// Signature identifies the grammar for cache keys.
func (g Grammar) Signature() string {
	return fmt.Sprintf("%s/modules=%t/hashbang=%t", g.Version, g.AllowModules, g.AllowHashBang)
}

// Checker parses bundle text under a Grammar.
type Checker struct {
	grammar Grammar
}

// NewChecker validates the grammar and returns a checker for it.
func NewChecker(g Grammar) (*Checker, error) {
	if g.Version != ES5 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGrammar, g.Version)
	}
	if g.AllowModules {
		return nil, fmt.Errorf("%w: module syntax requires a grammar newer than %s", ErrUnsupportedGrammar, g.Version)
	}
	return &Checker{grammar: g}, nil
}

// Grammar returns the checker's grammar.
func (c *Checker) Grammar() Grammar {
	return c.grammar
}

// Check parses src. It returns a SyntaxFailure for a position-bearing parse
// error and an *UnpositionedParseError when the parser fails without one.
func (c *Checker) Check(file string, src []byte) (failure *SyntaxFailure, err error) {
	defer func() {
		if r := recover(); r != nil {
			failure = nil
			err = &UnpositionedParseError{File: file, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	if c.grammar.AllowHashBang {
		src = blankHashBang(src)
	}

	// Patterns the Go regexp engine cannot translate are still valid ES5
	program, perr := parser.ParseFile(nil, file, src, parser.IgnoreRegExpErrors)
	if perr == nil {
		return checkRegExpFlags(file, src, program), nil
	}

	var list *parser.ErrorList
	if errors.As(perr, &list) && len(*list) > 0 {
		list.Sort()
		first := (*list)[0]
		if first.Position.Line > 0 {
			return positioned(file, src, first.Position.Line, first.Position.Column, first.Message), nil
		}
	}

	var single *parser.Error
	if errors.As(perr, &single) && single.Position.Line > 0 {
		return positioned(file, src, single.Position.Line, single.Position.Column, single.Message), nil
	}

	return nil, &UnpositionedParseError{File: file, Err: perr}
}

// positioned converts the parser's 1-based byte column into a 0-based
// UTF-16 column, the unit source map generated columns use.
func positioned(file string, src []byte, line, byteColumn int, message string) *SyntaxFailure {
	starts := lineStarts(src)
	col := 0
	if line <= len(starts) {
		start := starts[line-1]
		end := start + byteColumn - 1
		if end > len(src) {
			end = len(src)
		}
		if end > start {
			col = utf16Len(src[start:end])
		}
	}
	return &SyntaxFailure{File: file, Line: line, Column: col, Message: message}
}

// es5RegExpFlags are the only flags ES5 defines; each may appear once.
const es5RegExpFlags = "gim"

// checkRegExpFlags reports the first regular expression literal using flags
// ES5 does not define, such as u, y or s.
func checkRegExpFlags(file string, src []byte, program *ast.Program) *SyntaxFailure {
	if program == nil {
		return nil
	}
	v := &regExpFlagVisitor{}
	ast.Walk(v, program)
	if v.bad == nil {
		return nil
	}

	// Idx is 1-based when parsing without a file set
	offset := int(v.bad.Idx) - 1
	if offset < 0 || offset > len(src) {
		offset = 0
	}
	starts := lineStarts(src)
	line := sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
	start := starts[line-1]
	return &SyntaxFailure{
		File:    file,
		Line:    line,
		Column:  utf16Len(src[start:offset]),
		Message: fmt.Sprintf("Invalid regular expression flags: %s", v.bad.Flags),
	}
}

type regExpFlagVisitor struct {
	bad *ast.RegExpLiteral
}

func (v *regExpFlagVisitor) Enter(n ast.Node) ast.Visitor {
	if v.bad != nil {
		return nil
	}
	if lit, ok := n.(*ast.RegExpLiteral); ok && !validES5Flags(lit.Flags) {
		v.bad = lit
		return nil
	}
	return v
}

func (v *regExpFlagVisitor) Exit(ast.Node) {}

func validES5Flags(flags string) bool {
	seen := make(map[rune]bool, len(flags))
	for _, f := range flags {
		if !strings.ContainsRune(es5RegExpFlags, f) || seen[f] {
			return false
		}
		seen[f] = true
	}
	return true
}

// lineStarts returns the byte offset of every line, counting line
// terminators the way the parser does (\r\n, \r, \n, U+2028, U+2029).
func lineStarts(src []byte) []int {
	starts := []int{0}
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		switch r {
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				size = 2
			}
			starts = append(starts, i+size)
		case '\n', '\u2028', '\u2029':
			starts = append(starts, i+size)
		}
		i += size
	}
	return starts
}

// utf16Len counts UTF-16 code units in b.
func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
		b = b[size:]
	}
	return n
}

// blankHashBang replaces a leading "#!" line with a same-length comment so
// positions in the rest of the file are unchanged.
func blankHashBang(src []byte) []byte {
	if !bytes.HasPrefix(src, []byte("#!")) {
		return src
	}
	out := make([]byte, len(src))
	copy(out, src)
	out[0], out[1] = '/', '/'
	return out
}
