/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"context"

	"github.com/fulmenhq/bundlecheck/pkg/logger"
)

// Lifecycle guards one build's scan so repeated hook invocations within the
// same build run it only once. Callers own the value; a new build needs a new
// Lifecycle.
type Lifecycle struct {
	alreadyRun bool
}

// Done reports whether the lifecycle has already run its scan.
func (lc *Lifecycle) Done() bool {
	return lc.alreadyRun
}

// RunOnce runs s the first time it is called for lc. Later calls return a
// clean Result with Skipped set.
func RunOnce(ctx context.Context, lc *Lifecycle, s *Scanner) (*Result, error) {
	if lc.alreadyRun {
		logger.Debug("Scan already ran for this build; skipping")
		return &Result{Skipped: true}, nil
	}
	lc.alreadyRun = true
	return s.Run(ctx)
}
