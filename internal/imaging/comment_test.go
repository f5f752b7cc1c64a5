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

import (
	"bytes"
	"strings"
	"testing"
)

// TestEmbedComment_Segment verifies the COM segment lands directly after SOI
// with a correct length field and the rest of the stream untouched.
func TestEmbedComment_Segment(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xdb, 0x00, 0x02, 0xaa, 0xbb}

	out, err := embedComment(jpeg, "hi")
	if err != nil {
		t.Fatalf("embedComment returned error: %v", err)
	}

	want := []byte{
		0xff, 0xd8, // SOI
		0xff, 0xfe, 0x00, 0x04, // COM, length = 2 + len("hi")
		'h', 'i',
		0xff, 0xdb, 0x00, 0x02, 0xaa, 0xbb, // original remainder
	}
	if !bytes.Equal(out, want) {
		t.Errorf("got % x\nwant % x", out, want)
	}
}

// TestEmbedComment_Empty verifies an empty comment is a no-op.
func TestEmbedComment_Empty(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0x01, 0x02}

	out, err := embedComment(jpeg, "")
	if err != nil {
		t.Fatalf("embedComment returned error: %v", err)
	}
	if !bytes.Equal(out, jpeg) {
		t.Errorf("stream changed: % x", out)
	}
}

// TestEmbedComment_NotJpeg verifies non-JPEG bytes are rejected.
func TestEmbedComment_NotJpeg(t *testing.T) {
	cases := [][]byte{
		nil,
		{0xff},
		[]byte("PNG stream"),
		{0x89, 0x50, 0x4e, 0x47},
	}

	for _, data := range cases {
		if _, err := embedComment(data, "hi"); err == nil {
			t.Errorf("embedComment accepted % x", data)
		}
	}
}

// TestEmbedComment_Truncation verifies comments beyond the segment limit are
// clipped, not rejected.
func TestEmbedComment_Truncation(t *testing.T) {
	jpeg := []byte{0xff, 0xd8}
	long := strings.Repeat("x", maxCommentLen+100)

	out, err := embedComment(jpeg, long)
	if err != nil {
		t.Fatalf("embedComment returned error: %v", err)
	}

	segLen := int(out[4])<<8 | int(out[5])
	if segLen != maxCommentLen+2 {
		t.Errorf("segment length = %d, want %d", segLen, maxCommentLen+2)
	}
	if len(out) != 2+4+maxCommentLen {
		t.Errorf("output length = %d", len(out))
	}
}
