// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runtime schedules parallel parsing, dependency discovery, and
// linting over a set of entry files.
//
// Two modes exist. With cross-module analysis off, every entry is
// processed independently in parallel. With it on, files are processed in
// bounded waves: a wave parses its entries plus every dependency
// discovered transitively, links the dependency tables once all parses
// land, lints the wave's entries, then retires their heavy content before
// the next wave starts. Pure dependency files never retain source text
// past their parse - only their import/export records persist in the
// module graph.
package runtime

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/BeringLint/arena"
	"github.com/AleutianAI/BeringLint/ast"
	"github.com/AleutianAI/BeringLint/lint"
	"github.com/AleutianAI/BeringLint/pkg/logging"
	"github.com/AleutianAI/BeringLint/resolver"
)

// Runtime drives one lint run. Construct with NewRuntime; a Runtime may be
// reused for sequential runs but not concurrent ones.
type Runtime struct {
	fs          FileSystem
	res         resolver.Resolver
	engine      lint.Engine
	pool        *arena.Pool
	exec        *Executor
	sink        Sink
	parser      *ast.Parser
	log         *logging.Logger
	crossModule bool
	fix         bool
	groupSize   int

	// liveContents counts module contents currently held in memory.
	// Observability for the wave retirement contract.
	liveContents atomic.Int32
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFileSystem replaces the default OS-backed filesystem.
func WithFileSystem(fs FileSystem) Option {
	return func(r *Runtime) { r.fs = fs }
}

// WithResolver installs the module resolver. Required when cross-module
// analysis is enabled, unused otherwise.
func WithResolver(res resolver.Resolver) Option {
	return func(r *Runtime) { r.res = res }
}

// WithEngine replaces the default rule engine.
func WithEngine(engine lint.Engine) Option {
	return func(r *Runtime) { r.engine = engine }
}

// WithExecutor injects the task pool. The pool's width also sizes the
// arena pool's capacity hint when no pool is supplied.
func WithExecutor(exec *Executor) Option {
	return func(r *Runtime) { r.exec = exec }
}

// WithArenaPool injects the arena pool.
func WithArenaPool(pool *arena.Pool) Option {
	return func(r *Runtime) { r.pool = pool }
}

// WithSink installs the diagnostic sink.
func WithSink(sink Sink) Option {
	return func(r *Runtime) { r.sink = sink }
}

// WithCrossModule enables cross-file dependency analysis.
func WithCrossModule(enabled bool) Option {
	return func(r *Runtime) { r.crossModule = enabled }
}

// WithFix enables applying fixes and writing changed files back.
func WithFix(enabled bool) Option {
	return func(r *Runtime) { r.fix = enabled }
}

// WithGroupSize overrides the wave size. Zero keeps the default of four
// times the executor width, which balances worker utilization against the
// amount of content a wave retains.
func WithGroupSize(size int) Option {
	return func(r *Runtime) { r.groupSize = size }
}

// WithLogger replaces the default logger.
func WithLogger(log *logging.Logger) Option {
	return func(r *Runtime) { r.log = log }
}

// NewRuntime builds a Runtime. Unset collaborators get working defaults:
// OS filesystem, built-in rule engine, GOMAXPROCS-wide executor, an arena
// pool sized to the executor, and a sink that drops diagnostics.
func NewRuntime(opts ...Option) (*Runtime, error) {
	r := &Runtime{parser: ast.NewParser()}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = OSFileSystem{}
	}
	if r.engine == nil {
		r.engine = lint.NewRunner()
	}
	if r.exec == nil {
		r.exec = NewExecutor(0)
	}
	if r.pool == nil {
		r.pool = arena.NewPool(r.exec.Width())
	}
	if r.sink == nil {
		r.sink = SinkFunc(func(FileDiagnostics) {})
	}
	if r.log == nil {
		r.log = logging.Default()
	}
	if r.groupSize <= 0 {
		r.groupSize = r.exec.Width() * 4
	}
	if r.crossModule && r.res == nil {
		return nil, ErrNoResolver
	}
	return r, nil
}

// RunResult summarizes one completed run.
type RunResult struct {
	// Files is the number of entry files linted.
	Files int

	// Waves is the number of scheduling waves. Zero on the fast path.
	Waves int

	records map[string][]*lint.ModuleRecord
}

// ModuleRecords returns the per-section records the run produced for
// path, or nil outside cross-module mode.
func (rr *RunResult) ModuleRecords(path string) []*lint.ModuleRecord {
	return rr.records[path]
}

// Run lints paths and streams diagnostics to the sink as each file
// completes. Duplicate paths are linted once. The error reports scheduling
// failures such as cancellation; per-file problems surface as diagnostics,
// not as an error.
func (r *Runtime) Run(ctx context.Context, paths []string) (*RunResult, error) {
	entries := dedupe(paths)
	ctx, span := startRunSpan(ctx, len(entries), r.crossModule)
	defer span.End()
	start := time.Now()

	var result *RunResult
	var err error
	if r.crossModule {
		result, err = r.runGraph(ctx, entries)
	} else {
		result, err = r.runFast(ctx, entries)
	}

	recordRunMetrics(ctx, time.Since(start), len(entries),
		resultWaves(result), r.pool.Created(), err == nil)
	if err != nil {
		return nil, err
	}
	r.log.Debug("lint run complete",
		"files", result.Files,
		"waves", result.Waves,
		"arenas", r.pool.Created(),
		"duration", time.Since(start))
	return result, nil
}

func resultWaves(r *RunResult) int {
	if r == nil {
		return 0
	}
	return r.Waves
}

// runFast processes every entry independently. No graph, no coordination
// beyond the shared arena pool and sink.
func (r *Runtime) runFast(ctx context.Context, entries []string) (*RunResult, error) {
	for _, path := range entries {
		path := path
		err := r.exec.Go(ctx, func() {
			res := r.processPath(ctx, path, true)
			r.lintModule(path, res)
		})
		if err != nil {
			r.exec.Wait()
			return nil, err
		}
	}
	r.exec.Wait()
	return &RunResult{Files: len(entries)}, nil
}

// linkRequest records one unresolved dependency edge, stashed until the
// wave's parses have all landed.
type linkRequest struct {
	record    *lint.ModuleRecord
	specifier string
	resolved  string
}

// runGraph processes entries in waves with cross-module dependency
// linking. The coordinator - this goroutine - is the module graph's only
// writer; lint tasks read records only after linking finishes and before
// the next wave begins, so the graph needs no lock.
func (r *Runtime) runGraph(ctx context.Context, entries []string) (*RunResult, error) {
	// Deeper paths first: heuristically more likely to be leaf modules,
	// so their dependents' content can retire sooner.
	sorted := make([]string, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.Count(sorted[i], string(filepath.Separator)) >
			strings.Count(sorted[j], string(filepath.Separator))
	})

	entrySet := make(map[string]struct{}, len(sorted))
	for _, path := range sorted {
		entrySet[path] = struct{}{}
	}

	graph := make(map[string][]*lint.ModuleRecord)
	seen := make(map[string]struct{})
	results := make(chan parseResult, r.groupSize)
	waves := 0

	for offset := 0; offset < len(sorted); offset += r.groupSize {
		wave := sorted[offset:min(offset+r.groupSize, len(sorted))]
		waves++

		pending := 0
		for _, path := range wave {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			pending++
			r.dispatchParse(ctx, path, true, results)
		}

		// Drain results, dispatching newly discovered dependencies as
		// they surface. Dispatch is asynchronous, so receiving here
		// never deadlocks against a full worker pool.
		var stash []linkRequest
		var staged []parseResult
		for pending > 0 {
			res := <-results
			pending--

			graph[res.path] = append(graph[res.path], res.records...)

			for _, record := range res.records {
				baseDir := filepath.Dir(res.path)
				for _, specifier := range record.RequestedModules {
					resolved, err := r.res.Resolve(baseDir, specifier)
					if err != nil {
						// Unresolved edges are dropped, not reported.
						r.log.Debug("import edge dropped",
							"path", res.path, "specifier", specifier, "error", err)
						continue
					}
					if _, ok := seen[resolved]; !ok {
						seen[resolved] = struct{}{}
						_, isEntry := entrySet[resolved]
						pending++
						r.dispatchParse(ctx, resolved, isEntry, results)
					}
					stash = append(stash, linkRequest{
						record:    record,
						specifier: specifier,
						resolved:  resolved,
					})
				}
			}

			switch {
			case res.content != nil:
				staged = append(staged, res)
			case len(res.diagnostics) > 0:
				r.sink.Report(FileDiagnostics{Path: res.path, Messages: res.diagnostics})
			case res.isEntry:
				// Entry with nothing to lint still gets its delivery.
				r.sink.Report(FileDiagnostics{Path: res.path})
			}
		}

		// Every parse in flight has landed, so each dependency table is
		// written exactly once before any lint task can read it.
		for _, req := range stash {
			if deps := graph[req.resolved]; len(deps) > 0 {
				req.record.Link(req.specifier, deps[0])
			}
		}

		var lintWG sync.WaitGroup
		for _, res := range staged {
			res := res
			lintWG.Add(1)
			err := r.exec.Go(ctx, func() {
				defer lintWG.Done()
				r.lintModule(res.path, res)
			})
			if err != nil {
				lintWG.Done()
				res.content.release(r)
			}
		}
		lintWG.Wait()

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return &RunResult{Files: len(sorted), Waves: waves, records: graph}, nil
}

// dispatchParse schedules a parse task without blocking the caller. When
// the executor rejects the task (cancellation), a result carrying the
// error is delivered so the coordinator's pending count still drains.
func (r *Runtime) dispatchParse(ctx context.Context, path string, isEntry bool, results chan<- parseResult) {
	go func() {
		err := r.exec.Go(ctx, func() {
			res := r.processPath(ctx, path, isEntry)
			res.isEntry = isEntry
			results <- res
		})
		if err != nil {
			results <- parseResult{
				path:    path,
				isEntry: isEntry,
				diagnostics: []lint.Message{ioMessage(
					fmt.Errorf("schedule %s: %w", path, err))},
			}
		}
	}()
}

// sectionContent pairs one parsed section with its record while the
// owning arena checkout is alive.
type sectionContent struct {
	offset   int
	analysis *ast.Analysis
	record   *lint.ModuleRecord
}

// moduleContent bundles an arena checkout with the source text and
// analyses borrowed from it. Released exactly once, after linting.
type moduleContent struct {
	guard    *arena.Guard
	source   string
	sections []sectionContent
}

func (c *moduleContent) release(r *Runtime) {
	for _, sec := range c.sections {
		sec.analysis.Close()
	}
	c.guard.Release()
	r.liveContents.Add(-1)
}

// parseResult is the output of processing one path.
type parseResult struct {
	path        string
	isEntry     bool
	records     []*lint.ModuleRecord
	content     *moduleContent
	diagnostics []lint.Message
}

// processPath reads, splits, and parses one file. Content is retained
// only when retain is true (the path is an entry that will be linted);
// pure dependencies give their arena back immediately, keeping just the
// heap-allocated import/export records.
func (r *Runtime) processPath(ctx context.Context, path string, retain bool) (result parseResult) {
	result.path = path
	guard := r.pool.Get()
	defer func() {
		if rec := recover(); rec != nil {
			guard.Release()
			result = parseResult{path: path, diagnostics: []lint.Message{
				internalMessage(fmt.Errorf("parse %s: panic: %v", path, rec)),
			}}
		}
	}()

	source, err := r.fs.ReadToArena(path, guard.Arena().Bump())
	if err != nil {
		guard.Release()
		result.diagnostics = append(result.diagnostics, ioMessage(err))
		return result
	}

	content := &moduleContent{guard: guard, source: source}
	for _, section := range ast.Split(path, source) {
		analysis, err := r.parser.Parse(ctx, path, section)
		if err != nil {
			result.diagnostics = append(result.diagnostics, parseMessage(section.Offset, err))
			continue
		}
		for _, syntaxErr := range analysis.Errors {
			result.diagnostics = append(result.diagnostics, syntaxMessage(section.Offset, syntaxErr))
		}
		record := lint.NewModuleRecord(path, analysis)
		result.records = append(result.records, record)
		content.sections = append(content.sections, sectionContent{
			offset:   section.Offset,
			analysis: analysis,
			record:   record,
		})
	}

	if !retain || len(content.sections) == 0 {
		for _, sec := range content.sections {
			sec.analysis.Close()
		}
		guard.Release()
		return result
	}

	r.liveContents.Add(1)
	result.content = content
	return result
}

// lintModule runs the engine over a module's sections, applies fixes with
// at most one write per file, emits the delivery, and retires the
// content. Parse diagnostics lead the delivery so per-file order is
// stable.
func (r *Runtime) lintModule(path string, res parseResult) {
	defer func() {
		if rec := recover(); rec != nil {
			if res.content != nil {
				res.content.release(r)
			}
			r.sink.Report(FileDiagnostics{Path: path, Messages: []lint.Message{
				internalMessage(fmt.Errorf("lint %s: panic: %v", path, rec)),
			}})
		}
	}()

	if res.content == nil {
		r.sink.Report(FileDiagnostics{Path: path, Messages: res.diagnostics})
		return
	}

	sections := make([]lint.Section, 0, len(res.content.sections))
	for _, sec := range res.content.sections {
		sections = append(sections, lint.Section{
			Offset:   sec.offset,
			Analysis: sec.analysis,
			Record:   sec.record,
		})
	}

	messages := append(res.diagnostics, r.engine.Run(path, sections, res.content.guard.Arena().Bump())...)

	if r.fix {
		// All sections coalesce into one buffer so multi-section files
		// are written at most once per run.
		fixed := lint.ApplyFixes(res.content.source, messages)
		if fixed.Fixed {
			if err := r.fs.WriteFile(path, fixed.Code); err != nil {
				fixed.Messages = append(fixed.Messages, ioMessage(err))
			}
		}
		messages = fixed.Messages
	}

	res.content.release(r)
	r.sink.Report(FileDiagnostics{Path: path, Messages: messages})
}

func ioMessage(err error) lint.Message {
	return lint.Message{Diagnostic: lint.Diagnostic{
		Rule:     "io",
		Severity: lint.SeverityError,
		Message:  err.Error(),
	}}
}

func internalMessage(err error) lint.Message {
	return lint.Message{Diagnostic: lint.Diagnostic{
		Rule:     "internal",
		Severity: lint.SeverityError,
		Message:  err.Error(),
	}}
}

func parseMessage(offset int, err error) lint.Message {
	return lint.Message{Diagnostic: lint.Diagnostic{
		Rule:     "parse",
		Severity: lint.SeverityError,
		Message:  err.Error(),
		Start:    offset,
		End:      offset,
	}}
}

func syntaxMessage(offset int, syntaxErr ast.SyntaxError) lint.Message {
	return lint.Message{Diagnostic: lint.Diagnostic{
		Rule:     "parse",
		Severity: lint.SeverityError,
		Message:  syntaxErr.Message,
		Start:    offset + syntaxErr.Start,
		End:      offset + syntaxErr.End,
	}}
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	return out
}
