/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"context"
	"testing"
)

func TestDescribe(t *testing.T) {
	d := NewDescriber()
	tests := []struct {
		name   string
		src    string
		line   int
		column int
		want   string
	}{
		{"class", "var a = 1;\nclass Widget {}\n", 2, 0, "class"},
		{"template literal", "var s = `hi`;\n", 1, 8, "template literal"},
		{"arrow function", "var f = (a) => a;\n", 1, 12, "arrow function"},
		{"let declaration", "let n = 1;\n", 1, 0, "let/const declaration"},
		{"plain es5", "var n = 1;\n", 1, 4, ""},
		{"logical assignment", "var a;\na ??= 1;\n", 2, 2, "logical assignment"},
		{"compound assignment", "var a = 0;\na += b ?? c;\n", 2, 7, ""},
		{"non-ascii prefix", "var s = 'éé'; var f = (a) => a;\n", 1, 22, "arrow function"},
		{"out of range", "var n = 1;\n", 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Describe(context.Background(), []byte(tt.src), tt.line, tt.column)
			if got != tt.want {
				t.Fatalf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}
