// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver maps import specifiers to absolute file paths.
//
// The default implementation handles relative and absolute specifiers with
// node-style extension probing, plus optional path aliases loaded from a
// jsconfig.json-style project reference. Bare package specifiers are not
// resolved: the scheduler drops those edges rather than descending into
// node_modules.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps an import specifier, as written in a module located in
// baseDir, to the absolute path of the module it names.
type Resolver interface {
	Resolve(baseDir, specifier string) (string, error)
}

// probeExtensions is the order in which extensionless specifiers are tried.
var probeExtensions = []string{".js", ".jsx", ".ts", ".tsx"}

// statFunc reports whether path exists as a regular file. Swappable in tests.
type statFunc func(path string) bool

func osFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// NodeResolver resolves relative and absolute specifiers against the
// filesystem, with optional alias expansion. The zero value is not usable;
// construct with NewNodeResolver.
type NodeResolver struct {
	aliases []alias
	baseDir string
	exists  statFunc
}

// Option configures a NodeResolver.
type Option func(*NodeResolver)

// WithAliases installs path aliases, typically loaded via LoadAliases.
func WithAliases(aliases []alias, baseDir string) Option {
	return func(r *NodeResolver) {
		r.aliases = aliases
		r.baseDir = baseDir
	}
}

func withStat(exists statFunc) Option {
	return func(r *NodeResolver) { r.exists = exists }
}

// NewNodeResolver creates a resolver with node-style probing semantics.
func NewNodeResolver(opts ...Option) *NodeResolver {
	r := &NodeResolver{exists: osFileExists}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps specifier to an absolute file path.
//
// Relative specifiers are joined to baseDir; absolute specifiers are used
// as is. Alias prefixes are expanded before probing. Anything else is a
// bare package specifier and returns ErrBareSpecifier.
func (r *NodeResolver) Resolve(baseDir, specifier string) (string, error) {
	if specifier == "" {
		return "", fmt.Errorf("%w: empty specifier", ErrUnresolved)
	}

	candidates := r.candidatePaths(baseDir, specifier)
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %q", ErrBareSpecifier, specifier)
	}

	for _, candidate := range candidates {
		if resolved, ok := r.probe(candidate); ok {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%w: %q from %s", ErrUnresolved, specifier, baseDir)
}

// candidatePaths expands specifier into absolute paths to probe, in order.
func (r *NodeResolver) candidatePaths(baseDir, specifier string) []string {
	if filepath.IsAbs(specifier) {
		return []string{filepath.Clean(specifier)}
	}
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		specifier == "." || specifier == ".." {
		return []string{filepath.Join(baseDir, specifier)}
	}

	var candidates []string
	for _, a := range r.aliases {
		for _, target := range a.expand(specifier) {
			candidates = append(candidates, filepath.Join(r.baseDir, target))
		}
	}
	return candidates
}

// probe tries path as written, then with each extension, then as a
// directory containing an index file.
func (r *NodeResolver) probe(path string) (string, bool) {
	if filepath.Ext(path) != "" && r.exists(path) {
		return path, true
	}
	for _, ext := range probeExtensions {
		if candidate := path + ext; r.exists(candidate) {
			return candidate, true
		}
	}
	for _, ext := range probeExtensions {
		if candidate := filepath.Join(path, "index"+ext); r.exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}
