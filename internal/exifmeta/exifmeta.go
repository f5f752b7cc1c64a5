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

// Package exifmeta extracts capture-time metadata from image bytes.
//
// An image without the recognised timestamp fields is a normal, expected
// result (Present == false), not an error. Only bytes that cannot be parsed
// as an image at all yield a MetadataReadError.
package exifmeta

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/rwcarlsen/goexif/exif"
)

// CaptureMetadata is the timestamp embedded by the capturing device, as the
// raw EXIF string ("YYYY:MM:DD HH:MM:SS"). EXIF timestamps carry no zone.
type CaptureMetadata struct {
	Timestamp string
	Present   bool
}

// MetadataReadError reports image bytes that could not be parsed at all.
type MetadataReadError struct {
	Err error
}

func (e *MetadataReadError) Error() string {
	return fmt.Sprintf("read image metadata: %v", e.Err)
}

func (e *MetadataReadError) Unwrap() error { return e.Err }

// Extractor reads EXIF capture timestamps. The zero value is ready to use.
type Extractor struct{}

// Extract returns the capture timestamp embedded in the image, preferring
// the original-capture field over the generic one. It has no side effects.
func (Extractor) Extract(data []byte) (CaptureMetadata, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// No EXIF segment is fine as long as the bytes are still a
		// decodable image; anything else is a read failure.
		if _, cfgErr := jpeg.DecodeConfig(bytes.NewReader(data)); cfgErr != nil {
			return CaptureMetadata{}, &MetadataReadError{Err: err}
		}
		return CaptureMetadata{}, nil
	}

	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			return CaptureMetadata{}, &MetadataReadError{Err: fmt.Errorf("field %s: %w", field, err)}
		}
		return CaptureMetadata{Timestamp: value, Present: true}, nil
	}

	return CaptureMetadata{}, nil
}
