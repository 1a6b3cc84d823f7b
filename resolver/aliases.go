// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// alias is a single jsconfig-style path mapping. A pattern with a trailing
// "*" matches a prefix; a pattern without one matches exactly.
type alias struct {
	pattern string
	targets []string
}

// expand returns the target paths for specifier, or nil when the pattern
// does not match. A "*" in a target is replaced with the matched suffix.
func (a alias) expand(specifier string) []string {
	prefix, wildcard := strings.CutSuffix(a.pattern, "*")
	if !wildcard {
		if specifier != a.pattern {
			return nil
		}
		return a.targets
	}
	suffix, ok := strings.CutPrefix(specifier, prefix)
	if !ok {
		return nil
	}
	expanded := make([]string, 0, len(a.targets))
	for _, target := range a.targets {
		expanded = append(expanded, strings.Replace(target, "*", suffix, 1))
	}
	return expanded
}

// projectReference mirrors the subset of jsconfig.json / tsconfig.json the
// resolver consumes.
type projectReference struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// LoadAliases reads path aliases from a jsconfig.json-style file and
// returns options configuring a NodeResolver with them. Longer patterns
// take precedence so "@app/components/*" wins over "@app/*".
func LoadAliases(path string) ([]Option, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project reference %s: %w", path, err)
	}

	var ref projectReference
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProjectReference, path, err)
	}

	baseDir := filepath.Dir(path)
	if ref.CompilerOptions.BaseURL != "" {
		baseDir = filepath.Join(baseDir, ref.CompilerOptions.BaseURL)
	}

	aliases := make([]alias, 0, len(ref.CompilerOptions.Paths))
	for pattern, targets := range ref.CompilerOptions.Paths {
		aliases = append(aliases, alias{pattern: pattern, targets: targets})
	}
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i].pattern) != len(aliases[j].pattern) {
			return len(aliases[i].pattern) > len(aliases[j].pattern)
		}
		return aliases[i].pattern < aliases[j].pattern
	})

	return []Option{WithAliases(aliases, baseDir)}, nil
}
