// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command beringlint lints JavaScript and TypeScript sources.
//
// Usage:
//
//	beringlint lint ./src
//	beringlint lint --fix --cross-module ./src
//	beringlint watch ./src
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/BeringLint/config"
	"github.com/AleutianAI/BeringLint/pkg/logging"
)

var (
	cfg    config.Config
	logger *logging.Logger

	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "beringlint",
		Short: "A fast, memory-bounded linter for JavaScript and TypeScript",
		Long: `BeringLint parses many files in parallel, optionally builds a
cross-file module dependency graph, runs rules over each file, and emits
diagnostics while keeping peak memory bounded.`,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a .beringlint.yaml (default: search upward from the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, error (overrides the config file)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err = config.Load(configPath, wd)
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger = logging.New(logging.Config{
			Level:   logging.ParseLevel(level),
			Service: "beringlint",
		})
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	}
}
