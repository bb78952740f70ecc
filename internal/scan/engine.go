/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/fulmenhq/bundlecheck/internal/cache"
	"github.com/fulmenhq/bundlecheck/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ProgressNotice is printed once files are found and checking begins.
const ProgressNotice = "[bundlecheck] Checking browser compatibility..."

// Options configures a Scanner.
type Options struct {
	Resolver       *Resolver
	Ignore         []string // package identifiers exempt from reporting
	SourcePrefixes []string
	// Concurrency > 0 fixes the worker count; otherwise ConcurrencyPercent of
	// CPU cores is used (default 50).
	Concurrency        int
	ConcurrencyPercent int
	DescribeConstructs bool
	Cache              *cache.Store
	Progress           io.Writer
}

// Scanner runs the resolve, check, trace and classify pipeline.
type Scanner struct {
	opts       Options
	checker    *Checker
	tracer     *Tracer
	classifier *Classifier
	describer  *Describer
	readFile   func(string) ([]byte, error)
}

// NewScanner validates options and builds a scanner for the ES5 grammar.
func NewScanner(opts Options) (*Scanner, error) {
	if opts.Resolver == nil {
		return nil, errors.New("scanner requires a resolver")
	}
	checker, err := NewChecker(ES5Grammar())
	if err != nil {
		return nil, err
	}
	s := &Scanner{
		opts:       opts,
		checker:    checker,
		tracer:     NewTracer(),
		classifier: NewClassifier(opts.SourcePrefixes...),
		readFile:   os.ReadFile,
	}
	if opts.DescribeConstructs {
		s.describer = NewDescriber()
	}
	return s, nil
}

// Workers returns the effective worker count.
func (s *Scanner) Workers() int {
	if s.opts.Concurrency > 0 {
		return s.opts.Concurrency
	}
	percent := s.opts.ConcurrencyPercent
	if percent <= 0 {
		percent = 50
	}
	n := (runtime.NumCPU() * percent) / 100
	if n < 1 {
		n = 1
	}
	return n
}

// Run executes one scan. A *FatalTraceError is returned when a source map
// cannot be used; an *UnpositionedParseError when a bundle fails to parse
// without a position.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	files, err := s.opts.Resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve bundle files: %w", err)
	}
	if len(files) == 0 {
		logger.Info("No bundle files matched; nothing to check")
		return &Result{}, nil
	}

	if s.opts.Progress != nil {
		_, _ = fmt.Fprintln(s.opts.Progress, ProgressNotice)
	}
	workers := s.Workers()
	logger.Debug("Checking bundle files", logger.Int("files", len(files)), logger.Int("workers", workers))

	failures, err := s.checkAll(ctx, files, workers)
	if err != nil {
		return nil, err
	}

	findings, err := s.traceAll(ctx, failures, workers)
	if err != nil {
		return nil, err
	}

	res := Aggregate(findings, s.opts.Ignore)
	res.FilesChecked = len(files)
	res.Failures = failures
	logger.Info(fmt.Sprintf("Checked %d bundle files in %v: %d failures, %d offending packages",
		len(files), time.Since(start).Round(time.Millisecond), len(failures), len(res.Offenders)))
	return &res, nil
}

// checkAll parses every file; each task writes only its own slot.
func (s *Scanner) checkAll(ctx context.Context, files []string, workers int) ([]SyntaxFailure, error) {
	slots := make([]*SyntaxFailure, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := s.checkFile(gctx, file)
			if err != nil {
				return err
			}
			slots[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var failures []SyntaxFailure
	for _, f := range slots {
		if f != nil {
			failures = append(failures, *f)
		}
	}
	return failures, nil
}

func (s *Scanner) checkFile(ctx context.Context, file string) (*SyntaxFailure, error) {
	src, err := s.readFile(file)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", file, err)
	}

	var key string
	if s.opts.Cache != nil {
		key = cache.Key(s.checker.Grammar().Signature(), src)
		if e, ok := s.opts.Cache.Get(key); ok {
			logger.Trace("check cache hit", logger.String("file", file))
			if e.Clean {
				return nil, nil
			}
			f := &SyntaxFailure{File: file, Line: e.Line, Column: e.Column, Message: e.Message}
			s.describe(ctx, f, src)
			return f, nil
		}
	}

	f, err := s.checker.Check(file, src)
	if err != nil {
		return nil, err
	}
	if s.opts.Cache != nil {
		if f == nil {
			s.opts.Cache.Put(key, cache.Entry{Clean: true})
		} else {
			s.opts.Cache.Put(key, cache.Entry{Line: f.Line, Column: f.Column, Message: f.Message})
		}
	}
	if f != nil {
		logger.Debug("grammar failure", logger.String("file", file), logger.Int("line", f.Line),
			logger.Int("column", f.Column), logger.String("message", f.Message))
		s.describe(ctx, f, src)
	}
	return f, nil
}

func (s *Scanner) describe(ctx context.Context, f *SyntaxFailure, src []byte) {
	if s.describer == nil {
		return
	}
	f.Construct = s.describer.Describe(ctx, src, f.Line, f.Column)
}

type traceOutcome struct {
	finding Finding
	err     error
}

// traceAll resolves every failure concurrently. The first source map error
// cancels the remaining tasks and returns without waiting for them.
func (s *Scanner) traceAll(parent context.Context, failures []SyntaxFailure, workers int) ([]Finding, error) {
	if len(failures) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	outcomes := make(chan traceOutcome, len(failures))
	g := new(errgroup.Group)
	g.SetLimit(workers)
	go func() {
		for _, f := range failures {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				origin, err := s.tracer.Trace(ctx, f)
				outcomes <- traceOutcome{finding: s.classify(f, origin), err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(outcomes)
	}()

	findings := make([]Finding, 0, len(failures))
	for out := range outcomes {
		if out.err != nil {
			var mapErr *SourceMapError
			if errors.As(out.err, &mapErr) {
				cancel()
				return nil, &FatalTraceError{Err: mapErr, Completed: findings}
			}
			if errors.Is(out.err, context.Canceled) || errors.Is(out.err, context.DeadlineExceeded) {
				continue
			}
			cancel()
			return nil, &FatalTraceError{Err: out.err, Completed: findings}
		}
		findings = append(findings, out.finding)
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return findings, nil
}

func (s *Scanner) classify(f SyntaxFailure, origin ResolvedOrigin) Finding {
	fd := Finding{Failure: f, Origin: origin}
	switch {
	case !origin.Attributable():
		fd.Kind = OriginUnattributable
	default:
		if pkg, ok := s.classifier.Classify(origin.Source); ok {
			fd.Kind = OriginDependency
			fd.Package = pkg
		} else if s.classifier.IsDependency(origin.Source) {
			fd.Kind = OriginUnattributable
		} else {
			fd.Kind = OriginFirstParty
		}
	}
	return fd
}
