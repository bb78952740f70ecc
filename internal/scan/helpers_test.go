/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func encodeVLQ(sb *strings.Builder, v int) {
	if v < 0 {
		v = (-v << 1) | 1
	} else {
		v <<= 1
	}
	for {
		digit := v & 31
		v >>= 5
		if v > 0 {
			digit |= 32
		}
		sb.WriteByte(base64Digits[digit])
		if v == 0 {
			return
		}
	}
}

// buildSourceMap maps column 0 of each generated line (1-based index into
// lineSources) to line i of that source. A trailing sentinel line keeps
// lookups past column 0 on the last real line resolvable.
func buildSourceMap(t *testing.T, lineSources []string) []byte {
	t.Helper()
	index := map[string]int{}
	var sources []string
	for _, s := range lineSources {
		if _, ok := index[s]; !ok {
			index[s] = len(sources)
			sources = append(sources, s)
		}
	}

	var sb strings.Builder
	prevSrc, prevLine := 0, 0
	lines := append(append([]string{}, lineSources...), lineSources[len(lineSources)-1])
	for i, s := range lines {
		if i > 0 {
			sb.WriteByte(';')
		}
		encodeVLQ(&sb, 0)
		encodeVLQ(&sb, index[s]-prevSrc)
		encodeVLQ(&sb, i-prevLine)
		encodeVLQ(&sb, 0)
		prevSrc, prevLine = index[s], i
	}

	data, err := json.Marshal(map[string]any{
		"version":  3,
		"file":     "bundle.js",
		"sources":  sources,
		"names":    []string{},
		"mappings": sb.String(),
	})
	if err != nil {
		t.Fatalf("marshal source map: %v", err)
	}
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeBundle writes a bundle whose every line maps to the given sources,
// plus its sibling source map.
func writeBundle(t *testing.T, path string, lines []string, sources []string) {
	t.Helper()
	writeFile(t, path, []byte(strings.Join(lines, "\n")+"\n"))
	writeFile(t, MapPath(path), buildSourceMap(t, sources))
}

const es5Line = "var ok = function (a) { return a + 1; };"

// modernLine fails ES5 parsing at column 0.
const modernLine = "class Widget {}"
