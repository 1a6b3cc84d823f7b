// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/BeringLint/arena"
	"github.com/AleutianAI/BeringLint/ast"
	"github.com/AleutianAI/BeringLint/lint"
	"github.com/AleutianAI/BeringLint/resolver"
	"github.com/AleutianAI/BeringLint/runtime"
)

var (
	flagFix         bool
	flagCrossModule bool
	flagWorkers     int
	flagGroupSize   int
	flagProjectRef  string

	lintCmd = &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint the given files or directories",
		Long: `Lints every supported source file found under the given paths.
Directories are walked recursively; node_modules and hidden directories
are skipped. With --cross-module, import/export relationships between
files are resolved and made available to rules.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runLint,
	}
)

func init() {
	lintCmd.Flags().BoolVar(&flagFix, "fix", false, "apply fixes and rewrite changed files")
	lintCmd.Flags().BoolVar(&flagCrossModule, "cross-module", false, "enable cross-file dependency analysis")
	lintCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool width (0 = GOMAXPROCS)")
	lintCmd.Flags().IntVar(&flagGroupSize, "group-size", 0, "scheduling wave size (0 = workers*4)")
	lintCmd.Flags().StringVar(&flagProjectRef, "project-reference", "",
		"jsconfig.json-style file supplying path aliases for import resolution")
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	entries, err := collectEntries(args)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no lintable files found")
		return nil
	}

	rt, sink, err := buildRuntime()
	if err != nil {
		return err
	}

	result, err := rt.Run(cmd.Context(), entries)
	if err != nil {
		return err
	}

	errorCount, warningCount := printDiagnostics(sink)
	fmt.Fprintf(os.Stdout, "\n%d file(s) checked: %d error(s), %d warning(s)\n",
		result.Files, errorCount, warningCount)
	if errorCount > 0 {
		os.Exit(1)
	}
	return nil
}

// mergeFlags folds command-line overrides over the loaded config.
func mergeFlags() {
	if flagFix {
		cfg.Fix = true
	}
	if flagCrossModule {
		cfg.CrossModule = true
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagGroupSize > 0 {
		cfg.GroupSize = flagGroupSize
	}
	if flagProjectRef != "" {
		cfg.ProjectReference = flagProjectRef
	}
}

func buildRuntime() (*runtime.Runtime, *runtime.CollectingSink, error) {
	mergeFlags()

	sink := &runtime.CollectingSink{}
	exec := runtime.NewExecutor(cfg.Workers)
	opts := []runtime.Option{
		runtime.WithExecutor(exec),
		runtime.WithArenaPool(arena.NewPool(exec.Width())),
		runtime.WithSink(sink),
		runtime.WithCrossModule(cfg.CrossModule),
		runtime.WithFix(cfg.Fix),
		runtime.WithGroupSize(cfg.GroupSize),
		runtime.WithLogger(logger),
	}

	if cfg.CrossModule {
		var resolverOpts []resolver.Option
		if cfg.ProjectReference != "" {
			loaded, err := resolver.LoadAliases(cfg.ProjectReference)
			if err != nil {
				return nil, nil, err
			}
			resolverOpts = loaded
		}
		opts = append(opts, runtime.WithResolver(resolver.NewNodeResolver(resolverOpts...)))
	}

	rt, err := runtime.NewRuntime(opts...)
	if err != nil {
		return nil, nil, err
	}
	return rt, sink, nil
}

// collectEntries expands args into absolute paths of supported files.
func collectEntries(args []string) ([]string, error) {
	var entries []string
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			entries = append(entries, abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if name == "node_modules" || (strings.HasPrefix(name, ".") && path != abs) {
					return filepath.SkipDir
				}
				return nil
			}
			if ast.Supported(path) {
				entries = append(entries, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// printDiagnostics writes deliveries in path order and returns the error
// and warning counts.
func printDiagnostics(sink *runtime.CollectingSink) (errors, warnings int) {
	files := sink.Files()
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	for _, file := range files {
		for _, msg := range file.Messages {
			switch msg.Severity {
			case lint.SeverityError:
				errors++
			case lint.SeverityWarning:
				warnings++
			}
			fmt.Fprintf(os.Stdout, "%s: %s\n", file.Path, msg.String())
		}
	}
	return errors, warnings
}
