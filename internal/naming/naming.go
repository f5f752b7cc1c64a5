// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package naming turns capture timestamps into canonical instants and
// derives the destination directory and filename for a saved image.
//
// All derived names use a single configured zone so that the same photo
// always files to the same path regardless of where the camera or this
// process happen to run.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// captureLayout is the de facto EXIF timestamp format: colon-delimited date,
// space, colon-delimited time. Fixed width, parsed exactly.
const captureLayout = "2006:01:02 15:04:05"

// filenameLayout renders the capture instant for filenames. Dots instead of
// colons keep the name portable across filesystems.
const filenameLayout = "2006-01-02T15.04.05"

// MalformedTimestampError reports a capture timestamp that deviates from the
// expected pattern. It never falls back to the current time.
type MalformedTimestampError struct {
	Raw string
	Err error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed capture timestamp %q", e.Raw)
}

func (e *MalformedTimestampError) Unwrap() error { return e.Err }

// Normalize interprets raw as wall-clock time in loc and returns the
// resulting instant. raw must match "YYYY:MM:DD HH:MM:SS" exactly.
func Normalize(raw string, loc *time.Location) (time.Time, error) {
	if len(raw) != len(captureLayout) {
		return time.Time{}, &MalformedTimestampError{Raw: raw}
	}
	t, err := time.ParseInLocation(captureLayout, raw, loc)
	if err != nil {
		return time.Time{}, &MalformedTimestampError{Raw: raw, Err: err}
	}
	return t, nil
}

// DestinationPath is where one image is filed. Directory must exist before
// the write; filename collisions are last-write-wins by design.
type DestinationPath struct {
	Directory string
	Filename  string
}

// FullPath joins directory and filename.
func (p DestinationPath) FullPath() string {
	return filepath.Join(p.Directory, p.Filename)
}

// DerivePath builds the date-tree directory and the
// "<timestamp> [<sender>] <subject>.jpg" filename from the normalized
// capture instant. Sender name and subject pass through verbatim apart from
// characters that would break the path itself.
func DerivePath(root, senderName, subject string, t time.Time) DestinationPath {
	dir := filepath.Join(root, t.Format("2006"), t.Format("01"), t.Format("02"))
	name := fmt.Sprintf("%s [%s] %s.jpg",
		t.Format(filenameLayout),
		sanitizeComponent(senderName),
		sanitizeComponent(subject),
	)
	return DestinationPath{Directory: dir, Filename: name}
}

// sanitizeComponent replaces path separators and control characters with
// dashes. Everything else is kept as-is; see DESIGN.md for the rationale.
func sanitizeComponent(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '-'
		case r < 0x20 || r == 0x7f:
			return '-'
		default:
			return r
		}
	}, s)
}
