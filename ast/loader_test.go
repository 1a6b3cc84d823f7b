// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"strings"
	"testing"
)

func TestSupported(t *testing.T) {
	supported := []string{"a.js", "a.jsx", "a.ts", "b/a.tsx", "a.mjs", "a.cjs", "a.vue", "a.svelte", "a.html", "A.JS"}
	for _, path := range supported {
		if !Supported(path) {
			t.Errorf("expected %q to be supported", path)
		}
	}

	unsupported := []string{"a.css", "a.json", "a.go", "a", "a.md"}
	for _, path := range unsupported {
		if Supported(path) {
			t.Errorf("expected %q to be unsupported", path)
		}
	}
}

func TestSplit_PlainScript(t *testing.T) {
	text := "export const x = 1;\n"
	sections := Split("src/a.ts", text)
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	if sections[0].Source != text || sections[0].Offset != 0 {
		t.Errorf("unexpected section: %+v", sections[0])
	}
}

func TestSplit_Markup(t *testing.T) {
	t.Run("single script block", func(t *testing.T) {
		text := "<template><p/></template>\n<script>\nimport a from './a';\n</script>\n"
		sections := Split("c.vue", text)
		if len(sections) != 1 {
			t.Fatalf("got %d sections, want 1", len(sections))
		}
		s := sections[0]
		if !strings.Contains(s.Source, "import a from './a';") {
			t.Errorf("section source missing script body: %q", s.Source)
		}
		// Offset must point at the section within the whole file.
		if text[s.Offset:s.Offset+len(s.Source)] != s.Source {
			t.Error("offset does not locate section in file")
		}
	})

	t.Run("multiple script blocks", func(t *testing.T) {
		text := "<script>const a = 1;</script><div/><script setup>const b = 2;</script>"
		sections := Split("c.vue", text)
		if len(sections) != 2 {
			t.Fatalf("got %d sections, want 2", len(sections))
		}
		if sections[0].Source != "const a = 1;" {
			t.Errorf("first section: %q", sections[0].Source)
		}
		if sections[1].Source != "const b = 2;" {
			t.Errorf("second section: %q", sections[1].Source)
		}
		if sections[1].Offset <= sections[0].Offset {
			t.Error("sections out of order")
		}
	})

	t.Run("no script blocks", func(t *testing.T) {
		if got := Split("c.html", "<p>plain</p>"); len(got) != 0 {
			t.Errorf("expected no sections, got %d", len(got))
		}
	})

	t.Run("unterminated block ignored", func(t *testing.T) {
		if got := Split("c.html", "<script>const x = 1;"); len(got) != 0 {
			t.Errorf("expected no sections, got %d", len(got))
		}
	})
}
