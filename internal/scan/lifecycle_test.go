/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRunOnceSkipsSecondInvocation(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, filepath.Join(dir, "static", "x.js"),
		[]string{modernLine},
		[]string{"webpack://_N_E/node_modules/esm-only/index.js"})
	s := newTestScanner(t, dir, nil)

	var lc Lifecycle
	first, err := RunOnce(context.Background(), &lc, s)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Skipped || first.Status() != StatusRemediationNeeded {
		t.Fatalf("first run should scan and find offenders: %+v", first)
	}
	if !lc.Done() {
		t.Fatal("lifecycle should be marked done")
	}

	second, err := RunOnce(context.Background(), &lc, s)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Skipped || second.Status() != StatusClean {
		t.Fatalf("second run should be a clean no-op: %+v", second)
	}

	var fresh Lifecycle
	third, err := RunOnce(context.Background(), &fresh, s)
	if err != nil {
		t.Fatalf("fresh lifecycle: %v", err)
	}
	if third.Skipped {
		t.Fatal("a fresh lifecycle must scan again")
	}
}
