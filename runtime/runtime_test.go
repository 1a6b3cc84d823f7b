// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runtime

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/AleutianAI/BeringLint/arena"
	"github.com/AleutianAI/BeringLint/lint"
)

// mapResolver resolves specifiers against an in-memory file set. Probes
// the path as written, then with script extensions.
type mapResolver struct {
	files map[string]string
}

func (m mapResolver) Resolve(baseDir, specifier string) (string, error) {
	if !strings.HasPrefix(specifier, ".") && !filepath.IsAbs(specifier) {
		return "", fmt.Errorf("bare specifier %q", specifier)
	}
	base := filepath.Join(baseDir, specifier)
	candidates := []string{base, base + ".js", base + ".ts"}
	for _, candidate := range candidates {
		if _, ok := m.files[candidate]; ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unresolved %q from %s", specifier, baseDir)
}

// smallPool keeps test arenas tiny so runs don't reserve gigabytes.
func smallPool(t *testing.T, workers int) *arena.Pool {
	t.Helper()
	pool := arena.NewPool(workers,
		arena.WithBlockSize(1<<16),
		arena.WithBlockAlign(1<<20),
	)
	t.Cleanup(pool.Close)
	return pool
}

type testRun struct {
	rt   *Runtime
	sink *CollectingSink
	fs   *MemoryFileSystem
}

func newTestRun(t *testing.T, files map[string]string, workers int, opts ...Option) *testRun {
	t.Helper()
	fs := NewMemoryFileSystem(files)
	sink := &CollectingSink{}
	exec := NewExecutor(workers)
	base := []Option{
		WithFileSystem(fs),
		WithSink(sink),
		WithExecutor(exec),
		WithArenaPool(smallPool(t, workers)),
		WithResolver(mapResolver{files: files}),
	}
	rt, err := NewRuntime(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return &testRun{rt: rt, sink: sink, fs: fs}
}

// diagnosticsByPath flattens sink deliveries into path -> formatted
// messages for order-insensitive comparison across files.
func diagnosticsByPath(sink *CollectingSink) map[string][]string {
	out := make(map[string][]string)
	for _, file := range sink.Files() {
		msgs := make([]string, 0, len(file.Messages))
		for _, m := range file.Messages {
			msgs = append(msgs, m.String())
		}
		out[file.Path] = append(out[file.Path], msgs...)
	}
	return out
}

func sameDiagnostics(t *testing.T, want, got map[string][]string) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("delivery path sets differ: %d vs %d paths", len(want), len(got))
	}
	for path, wantMsgs := range want {
		gotMsgs, ok := got[path]
		if !ok {
			t.Fatalf("missing delivery for %s", path)
		}
		if len(wantMsgs) != len(gotMsgs) {
			t.Fatalf("%s: %d messages, want %d", path, len(gotMsgs), len(wantMsgs))
		}
		for i := range wantMsgs {
			if wantMsgs[i] != gotMsgs[i] {
				t.Fatalf("%s message %d: %q != %q", path, i, gotMsgs[i], wantMsgs[i])
			}
		}
	}
}

func TestFastPath_EquivalentAcrossWorkerCounts(t *testing.T) {
	files := map[string]string{
		"/src/a.js": "debugger;\nconst a = 1;\n",
		"/src/b.js": "const b = 2;\n",
		"/src/c.js": "debugger;\ndebugger;\n",
	}
	paths := []string{"/src/a.js", "/src/b.js", "/src/c.js"}

	serial := newTestRun(t, files, 1)
	if _, err := serial.rt.Run(context.Background(), paths); err != nil {
		t.Fatalf("serial run: %v", err)
	}

	parallel := newTestRun(t, files, 8)
	if _, err := parallel.rt.Run(context.Background(), paths); err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	sameDiagnostics(t, diagnosticsByPath(serial.sink), diagnosticsByPath(parallel.sink))
}

func TestGraphPath_DeterministicAcrossInputOrderAndWaveSize(t *testing.T) {
	files := map[string]string{
		"/src/a.js": "import { missing } from './b';\ndebugger;\n",
		"/src/b.js": "export const present = 1;\n",
	}

	baseline := map[string][]string{}
	for i, tc := range []struct {
		paths     []string
		groupSize int
	}{
		{[]string{"/src/a.js", "/src/b.js"}, 1},
		{[]string{"/src/b.js", "/src/a.js"}, 1},
		{[]string{"/src/a.js", "/src/b.js"}, 16},
		{[]string{"/src/b.js", "/src/a.js"}, 2},
	} {
		run := newTestRun(t, files, 4, WithCrossModule(true), WithGroupSize(tc.groupSize))
		if _, err := run.rt.Run(context.Background(), tc.paths); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		got := diagnosticsByPath(run.sink)
		if i == 0 {
			baseline = got
			if len(got["/src/a.js"]) != 2 {
				t.Fatalf("expected import-names and no-debugger for a.js, got %v", got["/src/a.js"])
			}
			continue
		}
		sameDiagnostics(t, baseline, got)
	}
}

func TestGraphPath_Idempotent(t *testing.T) {
	files := map[string]string{
		"/src/a.js": "import { gone } from './b';\n",
		"/src/b.js": "export const kept = 1;\n",
	}
	paths := []string{"/src/a.js", "/src/b.js"}

	first := newTestRun(t, files, 2, WithCrossModule(true))
	if _, err := first.rt.Run(context.Background(), paths); err != nil {
		t.Fatal(err)
	}
	second := newTestRun(t, files, 2, WithCrossModule(true))
	if _, err := second.rt.Run(context.Background(), paths); err != nil {
		t.Fatal(err)
	}

	sameDiagnostics(t, diagnosticsByPath(first.sink), diagnosticsByPath(second.sink))
}

func TestFix_MultiSectionFileWrittenOnce(t *testing.T) {
	page := "<html><script>\ndebugger;\nconst a = 1;\n</script>" +
		"<script>\nconst b = 2;\ndebugger;\n</script></html>"
	files := map[string]string{"/src/page.html": page}

	run := newTestRun(t, files, 4, WithFix(true))
	if _, err := run.rt.Run(context.Background(), []string{"/src/page.html"}); err != nil {
		t.Fatal(err)
	}

	if got := run.fs.WriteCount("/src/page.html"); got != 1 {
		t.Fatalf("expected exactly 1 write, got %d", got)
	}
	content, _ := run.fs.Content("/src/page.html")
	if strings.Contains(content, "debugger") {
		t.Fatalf("fixes from both sections should apply: %q", content)
	}
	if !strings.Contains(content, "const a = 1;") || !strings.Contains(content, "const b = 2;") {
		t.Fatalf("unrelated content must survive fixing: %q", content)
	}
}

// retirementProbe asserts that while an entry lints, only that entry's
// content is still held: its dependency was parsed and retired earlier in
// the same wave.
type retirementProbe struct {
	rt       *Runtime
	inner    lint.Engine
	observed chan int32
}

func (p *retirementProbe) Run(path string, sections []lint.Section, a *arena.Arena) []lint.Message {
	select {
	case p.observed <- p.rt.liveContents.Load():
	default:
	}
	return p.inner.Run(path, sections, a)
}

func TestMemoryRetirement_DependencyContentDropped(t *testing.T) {
	files := map[string]string{
		"/src/a.js": "import { shared } from './b';\n",
		"/src/b.js": "export const shared = 1;\n",
	}

	probe := &retirementProbe{inner: lint.NewRunner(), observed: make(chan int32, 1)}
	run := newTestRun(t, files, 2, WithCrossModule(true), WithEngine(probe))
	probe.rt = run.rt

	result, err := run.rt.Run(context.Background(), []string{"/src/a.js"})
	if err != nil {
		t.Fatal(err)
	}

	live := <-probe.observed
	if live != 1 {
		t.Fatalf("expected only the entry's content live during lint, got %d", live)
	}
	if run.rt.liveContents.Load() != 0 {
		t.Fatalf("expected all content retired after run, got %d", run.rt.liveContents.Load())
	}
	if got := run.fs.ReadCount("/src/b.js"); got != 1 {
		t.Fatalf("dependency should be read exactly once, got %d reads", got)
	}

	aRecords := result.ModuleRecords("/src/a.js")
	bRecords := result.ModuleRecords("/src/b.js")
	if len(aRecords) != 1 || len(bRecords) != 1 {
		t.Fatalf("expected 1 record each, got %d and %d", len(aRecords), len(bRecords))
	}
	if !bRecords[0].ExportsName("shared") {
		t.Fatal("dependency record should stay queryable after retirement")
	}
	if aRecords[0].LoadedModule("./b") != bRecords[0] {
		t.Fatal("entry's dependency table should link the retained record")
	}
}

func TestGraphPath_ThreeFileChainWaveOfOne(t *testing.T) {
	files := map[string]string{
		"/src/a.js": "import { b } from './b';\nexport const a = 1;\n",
		"/src/b.js": "import { c } from './c';\nexport const b = 1;\n",
		"/src/c.js": "export const c = 1;\n",
	}
	paths := []string{"/src/a.js", "/src/b.js", "/src/c.js"}

	run := newTestRun(t, files, 2, WithCrossModule(true), WithGroupSize(1))
	result, err := run.rt.Run(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}

	deliveries := run.sink.Files()
	if len(deliveries) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(deliveries))
	}
	delivered := make(map[string]bool)
	for _, d := range deliveries {
		if delivered[d.Path] {
			t.Fatalf("duplicate delivery for %s", d.Path)
		}
		delivered[d.Path] = true
	}

	for path, spec := range map[string]string{"/src/a.js": "./b", "/src/b.js": "./c"} {
		records := result.ModuleRecords(path)
		if len(records) != 1 {
			t.Fatalf("%s: expected 1 record, got %d", path, len(records))
		}
		if records[0].LoadedModule(spec) == nil {
			t.Fatalf("%s: dependency %q not linked", path, spec)
		}
	}
	if len(result.ModuleRecords("/src/c.js")) != 1 {
		t.Fatal("expected a record for the leaf module")
	}
}

func TestGraphPath_ManyIndependentFiles(t *testing.T) {
	const fileCount = 5000
	files := make(map[string]string, fileCount)
	paths := make([]string, 0, fileCount)
	for i := 0; i < fileCount; i++ {
		path := fmt.Sprintf("/src/f%04d.js", i)
		files[path] = "export const x = 1;\n"
		paths = append(paths, path)
	}

	run := newTestRun(t, files, 8, WithCrossModule(true), WithGroupSize(8))
	result, err := run.rt.Run(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}

	deliveries := run.sink.Files()
	if len(deliveries) != fileCount {
		t.Fatalf("expected %d deliveries, got %d", fileCount, len(deliveries))
	}
	seen := make(map[string]bool, fileCount)
	for _, d := range deliveries {
		if seen[d.Path] {
			t.Fatalf("duplicate delivery for %s", d.Path)
		}
		seen[d.Path] = true
	}
	if result.Files != fileCount {
		t.Fatalf("result.Files = %d, want %d", result.Files, fileCount)
	}
	if result.Waves != (fileCount+7)/8 {
		t.Fatalf("result.Waves = %d, want %d", result.Waves, (fileCount+7)/8)
	}
}

func TestGraphPath_UnresolvedImportDroppedSilently(t *testing.T) {
	files := map[string]string{
		"/src/a.js": "import { thing } from './missing';\n",
	}

	run := newTestRun(t, files, 2, WithCrossModule(true))
	result, err := run.rt.Run(context.Background(), []string{"/src/a.js"})
	if err != nil {
		t.Fatal(err)
	}

	deliveries := run.sink.Files()
	if len(deliveries) != 1 {
		t.Fatalf("expected only the entry's delivery, got %d", len(deliveries))
	}
	if len(deliveries[0].Messages) != 0 {
		t.Fatalf("dropped edge must not surface diagnostics, got %v", deliveries[0].Messages)
	}
	records := result.ModuleRecords("/src/a.js")
	if len(records) != 1 || records[0].LoadedModule("./missing") != nil {
		t.Fatal("unresolved specifier must stay unlinked")
	}
}

func TestRun_SyntaxErrorIsolatedPerFile(t *testing.T) {
	files := map[string]string{
		"/src/bad.js":  "const = ;\n",
		"/src/good.js": "const ok = 1;\n",
	}

	run := newTestRun(t, files, 2)
	if _, err := run.rt.Run(context.Background(), []string{"/src/bad.js", "/src/good.js"}); err != nil {
		t.Fatal(err)
	}

	got := diagnosticsByPath(run.sink)
	if len(got["/src/bad.js"]) == 0 {
		t.Fatal("expected parse diagnostics for the malformed file")
	}
	if len(got["/src/good.js"]) != 0 {
		t.Fatalf("healthy file should be unaffected, got %v", got["/src/good.js"])
	}
}

func TestRun_MissingFileBecomesDiagnostic(t *testing.T) {
	run := newTestRun(t, map[string]string{}, 2)
	if _, err := run.rt.Run(context.Background(), []string{"/src/gone.js"}); err != nil {
		t.Fatal(err)
	}

	deliveries := run.sink.Files()
	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}
	if len(deliveries[0].Messages) != 1 || deliveries[0].Messages[0].Rule != "io" {
		t.Fatalf("expected a single io diagnostic, got %v", deliveries[0].Messages)
	}
}

func TestRun_DuplicateEntriesLintedOnce(t *testing.T) {
	files := map[string]string{"/src/a.js": "debugger;\n"}

	run := newTestRun(t, files, 2)
	result, err := run.rt.Run(context.Background(),
		[]string{"/src/a.js", "/src/a.js", "/src/a.js"})
	if err != nil {
		t.Fatal(err)
	}

	if result.Files != 1 {
		t.Fatalf("result.Files = %d, want 1", result.Files)
	}
	if len(run.sink.Files()) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(run.sink.Files()))
	}
}

func TestNewRuntime_CrossModuleRequiresResolver(t *testing.T) {
	_, err := NewRuntime(WithCrossModule(true))
	if err != ErrNoResolver {
		t.Fatalf("expected ErrNoResolver, got %v", err)
	}
}

func TestGraphPath_EntryOrderSortsDeeperPathsFirst(t *testing.T) {
	paths := []string{"/src/a.js", "/src/deep/nested/c.js", "/src/deep/b.js"}
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.Count(sorted[i], "/") > strings.Count(sorted[j], "/")
	})

	want := []string{"/src/deep/nested/c.js", "/src/deep/b.js", "/src/a.js"}
	for i := range want {
		if sorted[i] != want[i] {
			t.Fatalf("position %d = %s, want %s", i, sorted[i], want[i])
		}
	}
}
