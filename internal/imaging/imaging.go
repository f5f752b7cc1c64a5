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

// Package imaging resizes incoming photos with libvips and stamps a
// descriptive comment into the output JPEG.
//
// Callers must run vips.Startup before using the transformer and
// vips.Shutdown on exit; see cmd/server.
package imaging

import (
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

// Transformer is the image-processing collaborator of the attachment
// pipeline. Implementations resize data to fit within maxDimension on both
// axes (aspect-preserving, never upscaling) and embed comment in the output.
type Transformer interface {
	Transform(data []byte, comment string, maxDimension int) ([]byte, error)
}

// VipsTransformer implements Transformer with libvips.
type VipsTransformer struct {
	quality int
}

// NewVipsTransformer returns a transformer producing JPEG output at the
// given quality (1–100; 0 selects a sensible default).
func NewVipsTransformer(quality int) *VipsTransformer {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &VipsTransformer{quality: quality}
}

// Transform decodes, resizes, and re-encodes the image, then embeds the
// comment as a JPEG COM segment.
func (t *VipsTransformer) Transform(data []byte, comment string, maxDimension int) ([]byte, error) {
	image, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer image.Close()

	scale := fitScale(image.Width(), image.Height(), maxDimension)
	if scale < 1.0 {
		if err := image.Resize(scale, vips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("resize image: %w", err)
		}
	}

	out, _, err := image.ExportJpeg(&vips.JpegExportParams{Quality: t.quality})
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return embedComment(out, comment)
}

// fitScale calculates the scale factor to fit the image within a
// maxDim × maxDim bounding box while preserving aspect ratio.
func fitScale(srcWidth, srcHeight, maxDim int) float64 {
	if srcWidth <= 0 || srcHeight <= 0 || maxDim <= 0 {
		return 1.0
	}

	scaleX := float64(maxDim) / float64(srcWidth)
	scaleY := float64(maxDim) / float64(srcHeight)

	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	// Never upscale
	if scale > 1.0 {
		scale = 1.0
	}

	return scale
}
