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

import "fmt"

// JPEG markers. A COM segment may appear anywhere between SOI and SOS;
// placing it directly after SOI keeps the insertion a single copy.
const (
	jpegSOI1 = 0xff
	jpegSOI2 = 0xd8
	jpegCOM  = 0xfe
)

// maxCommentLen is the COM payload limit: the two-byte segment length field
// includes itself.
const maxCommentLen = 0xffff - 2

// embedComment inserts comment as a JPEG COM segment right after the SOI
// marker. An empty comment returns the input unchanged; over-long comments
// are truncated to the segment limit.
func embedComment(data []byte, comment string) ([]byte, error) {
	if comment == "" {
		return data, nil
	}
	if len(data) < 2 || data[0] != jpegSOI1 || data[1] != jpegSOI2 {
		return nil, fmt.Errorf("embed comment: not a JPEG stream")
	}
	if len(comment) > maxCommentLen {
		comment = comment[:maxCommentLen]
	}

	segLen := len(comment) + 2
	out := make([]byte, 0, len(data)+4+len(comment))
	out = append(out, jpegSOI1, jpegSOI2)
	out = append(out, jpegSOI1, jpegCOM, byte(segLen>>8), byte(segLen&0xff))
	out = append(out, comment...)
	out = append(out, data[2:]...)
	return out, nil
}
