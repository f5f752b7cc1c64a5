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

package imaging

import "testing"

// TestFitScale verifies the bounding-box scale: longest edge lands on the
// limit, aspect preserved, never upscaled.
func TestFitScale(t *testing.T) {
	cases := []struct {
		name   string
		w, h   int
		maxDim int
		want   float64
	}{
		{"landscape_downscale", 3200, 2400, 1600, 0.5},
		{"portrait_downscale", 2400, 3200, 1600, 0.5},
		{"square_downscale", 4800, 4800, 1600, 1.0 / 3.0},
		{"fits_already", 800, 600, 1600, 1.0},
		{"exact_fit", 1600, 1200, 1600, 1.0},
		{"no_limit", 3200, 2400, 0, 1.0},
		{"degenerate_dims", 0, 2400, 1600, 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := fitScale(tc.w, tc.h, tc.maxDim)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("fitScale(%d, %d, %d) = %v, want %v", tc.w, tc.h, tc.maxDim, got, tc.want)
			}
		})
	}
}

// TestNewVipsTransformer_QualityClamp verifies out-of-range quality values
// fall back to the default.
func TestNewVipsTransformer_QualityClamp(t *testing.T) {
	for _, q := range []int{0, -1, 101} {
		if got := NewVipsTransformer(q).quality; got != 85 {
			t.Errorf("quality(%d) = %d, want 85", q, got)
		}
	}
	if got := NewVipsTransformer(70).quality; got != 70 {
		t.Errorf("quality(70) = %d", got)
	}
}
