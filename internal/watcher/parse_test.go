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

package watcher

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// rawEmail assembles an RFC 5322 message with CRLF line endings.
func rawEmail(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// TestParseAttachments_MixedParts verifies proper attachments and inline
// images are collected while inline text is ignored.
func TestParseAttachments_MixedParts(t *testing.T) {
	raw := rawEmail(
		"From: Jane <jane@example.com>",
		"To: photos@example.com",
		"Subject: Hello",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary=BOUNDARY`,
		"",
		"--BOUNDARY",
		"Content-Type: text/plain",
		"",
		"Photo attached.",
		"--BOUNDARY",
		"Content-Type: image/jpeg",
		`Content-Disposition: attachment; filename="photo.jpg"`,
		"Content-Transfer-Encoding: base64",
		"",
		b64("jpeg-attachment-bytes"),
		"--BOUNDARY",
		"Content-Type: image/png",
		"Content-Disposition: inline",
		"Content-Transfer-Encoding: base64",
		"",
		b64("inline-image-bytes"),
		"--BOUNDARY",
		`Content-Type: application/pdf`,
		`Content-Disposition: attachment; filename="doc.pdf"`,
		"",
		"%PDF-1.4",
		"--BOUNDARY--",
	)

	attachments := parseAttachments(raw)

	if len(attachments) != 3 {
		t.Fatalf("got %d attachments, want 3", len(attachments))
	}

	if attachments[0].ContentType != "image/jpeg" {
		t.Errorf("attachment 0 content type = %q", attachments[0].ContentType)
	}
	if attachments[0].Filename != "photo.jpg" {
		t.Errorf("attachment 0 filename = %q", attachments[0].Filename)
	}
	if string(attachments[0].Content) != "jpeg-attachment-bytes" {
		t.Errorf("attachment 0 content = %q", attachments[0].Content)
	}

	// The inline image counts; it has no filename of its own.
	if attachments[1].ContentType != "image/png" {
		t.Errorf("attachment 1 content type = %q", attachments[1].ContentType)
	}
	if attachments[1].Filename != "" {
		t.Errorf("attachment 1 filename = %q", attachments[1].Filename)
	}
	if string(attachments[1].Content) != "inline-image-bytes" {
		t.Errorf("attachment 1 content = %q", attachments[1].Content)
	}

	if attachments[2].ContentType != "application/pdf" {
		t.Errorf("attachment 2 content type = %q", attachments[2].ContentType)
	}
}

// TestParseAttachments_PlainMessage verifies a single-part text message has
// no attachments.
func TestParseAttachments_PlainMessage(t *testing.T) {
	raw := rawEmail(
		"From: Jane <jane@example.com>",
		"Subject: Just text",
		"Content-Type: text/plain",
		"",
		"No photos today.",
	)

	if got := parseAttachments(raw); len(got) != 0 {
		t.Errorf("got %d attachments from a plain message", len(got))
	}
}

// TestParseAttachments_Garbage verifies unparsable bytes yield no
// attachments rather than a panic or error.
func TestParseAttachments_Garbage(t *testing.T) {
	if got := parseAttachments([]byte("\x00\x01 not mail at all")); len(got) != 0 {
		t.Errorf("got %d attachments from garbage", len(got))
	}
}

// TestParseMessage_Envelope verifies envelope fields and the body section
// flow into the incoming message.
func TestParseMessage_Envelope(t *testing.T) {
	raw := rawEmail(
		"From: Jane <jane@example.com>",
		"Subject: Hello",
		"Content-Type: multipart/mixed; boundary=B",
		"",
		"--B",
		"Content-Type: image/jpeg",
		`Content-Disposition: attachment; filename="photo.jpg"`,
		"",
		"bytes",
		"--B--",
	)

	buf := &imapclient.FetchMessageBuffer{
		SeqNum: 42,
		UID:    1007,
		Envelope: &imap.Envelope{
			MessageID: "<msg-1@example.com>",
			Subject:   "Hello",
			From: []imap.Address{
				{Name: "Jane", Mailbox: "jane", Host: "example.com"},
			},
		},
		BodySection: []imapclient.FetchBodySectionBuffer{{
			Section: bodySection(),
			Bytes:   raw,
		}},
	}

	msg := parseMessage(buf)

	if msg.MessageID != "<msg-1@example.com>" {
		t.Errorf("message id = %q", msg.MessageID)
	}
	if msg.Subject != "Hello" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.From.Name != "Jane" || msg.From.Address != "jane@example.com" {
		t.Errorf("from = %+v", msg.From)
	}
	if msg.SeqNum != 42 {
		t.Errorf("seqnum = %d", msg.SeqNum)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "photo.jpg" {
		t.Errorf("attachments = %+v", msg.Attachments)
	}
}

// TestParseMessage_MissingPieces verifies nil envelopes and absent body
// sections degrade to empty fields instead of panicking.
func TestParseMessage_MissingPieces(t *testing.T) {
	msg := parseMessage(&imapclient.FetchMessageBuffer{SeqNum: 7})

	if msg.SeqNum != 7 {
		t.Errorf("seqnum = %d", msg.SeqNum)
	}
	if msg.MessageID != "" || msg.Subject != "" || msg.From.Address != "" {
		t.Errorf("unexpected fields: %+v", msg)
	}
	if len(msg.Attachments) != 0 {
		t.Errorf("attachments = %+v", msg.Attachments)
	}
}
