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
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/BeringLint/ast"
)

// debounceWindow batches rapid editor writes into one re-lint.
const debounceWindow = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-lint files as they change",
	Long: `Watches the given directories and re-lints each supported file
when it changes. Changes arriving in quick succession are batched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&flagCrossModule, "cross-module", false, "enable cross-file dependency analysis")
	watchCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool width (0 = GOMAXPROCS)")
	watchCmd.Flags().StringVar(&flagProjectRef, "project-reference", "",
		"jsconfig.json-style file supplying path aliases for import resolution")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		if err := addRecursive(watcher, abs); err != nil {
			return err
		}
	}

	rt, sink, err := buildRuntime()
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("watching for changes", "paths", args)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				_ = addRecursive(watcher, event.Name)
				continue
			}
			if !ast.Supported(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			pending = make(map[string]struct{})

			result, err := rt.Run(cmd.Context(), changed)
			if err != nil {
				logger.Error("lint pass failed", "error", err)
				continue
			}
			errorCount, warningCount := printDiagnostics(sink)
			sink.Reset()
			logger.Info("lint pass complete",
				"files", result.Files, "errors", errorCount, "warnings", warningCount)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-quit:
			logger.Info("shutting down watcher")
			return nil
		}
	}
}

// addRecursive watches dir and every subdirectory, skipping node_modules
// and hidden directories.
func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == "node_modules" || (strings.HasPrefix(name, ".") && path != dir) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
