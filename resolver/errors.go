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

import "errors"

var (
	// ErrUnresolved indicates the specifier named no file on disk.
	ErrUnresolved = errors.New("specifier did not resolve")

	// ErrBareSpecifier indicates a bare package specifier, which this
	// resolver deliberately does not handle.
	ErrBareSpecifier = errors.New("bare specifiers are not resolved")

	// ErrInvalidProjectReference indicates the project reference file
	// could not be parsed.
	ErrInvalidProjectReference = errors.New("invalid project reference file")
)
