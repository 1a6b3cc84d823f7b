// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the .beringlint.yaml run
// configuration.
package config

import (
	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for config types.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Config is the full run configuration.
type Config struct {
	// Workers sets the worker pool width. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0,lte=1024"`

	// CrossModule enables cross-file dependency analysis.
	CrossModule bool `yaml:"cross_module"`

	// GroupSize overrides the scheduling wave size. Zero derives it
	// from the worker count.
	GroupSize int `yaml:"group_size" validate:"gte=0"`

	// Fix applies fixes and rewrites changed files.
	Fix bool `yaml:"fix"`

	// ProjectReference points to a jsconfig.json-style file supplying
	// path aliases for import resolution.
	ProjectReference string `yaml:"project_reference,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Workers:     0,
		CrossModule: false,
		GroupSize:   0,
		Fix:         false,
		LogLevel:    "info",
	}
}

// Validate checks the configuration's field constraints.
func (c Config) Validate() error {
	return validate.Struct(c)
}
