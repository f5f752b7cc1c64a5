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

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abbir/photopost/internal/models"
)

// TestRoute_NoAttachments verifies a message without attachments yields a
// single message-level skip.
func TestRoute_NoAttachments(t *testing.T) {
	acct := testAccount(t)
	r := NewRouter(newTestProcessor(fakeExtractor{meta: presentMeta}, &fakeTransformer{}))

	outcomes := r.Route(acct, testMessage())

	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes", len(outcomes))
	}
	if outcomes[0].Status != StatusSkippedNoAttachments {
		t.Errorf("status = %q", outcomes[0].Status)
	}
	if outcomes[0].MessageID != "<msg-1@example.com>" {
		t.Errorf("message_id = %q", outcomes[0].MessageID)
	}
}

// TestRoute_SenderNotAllowed verifies messages from outside the allow-list
// are dropped without processing any attachment.
func TestRoute_SenderNotAllowed(t *testing.T) {
	acct := testAccount(t)
	r := NewRouter(newTestProcessor(fakeExtractor{meta: presentMeta}, &fakeTransformer{}))

	msg := testMessage()
	msg.From = models.Address{Name: "Mallory", Address: "mallory@evil.example"}
	msg.Attachments = []models.Attachment{jpegAttachment("photo.jpg", []byte("x"))}

	outcomes := r.Route(acct, msg)

	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes", len(outcomes))
	}
	if outcomes[0].Status != StatusSkippedSenderNotAllowed {
		t.Errorf("status = %q", outcomes[0].Status)
	}
	assertRootEmpty(t, acct.Output.Root)
}

// TestRoute_EmptyFromAddress verifies a missing sender address never matches
// the allow-list, even though containment would trivially hold.
func TestRoute_EmptyFromAddress(t *testing.T) {
	acct := testAccount(t)
	r := NewRouter(newTestProcessor(fakeExtractor{meta: presentMeta}, &fakeTransformer{}))

	msg := testMessage()
	msg.From = models.Address{}
	msg.Attachments = []models.Attachment{jpegAttachment("photo.jpg", []byte("x"))}

	outcomes := r.Route(acct, msg)

	if outcomes[0].Status != StatusSkippedSenderNotAllowed {
		t.Errorf("status = %q", outcomes[0].Status)
	}
}

// TestRoute_ConfiguredNameWins verifies filenames use the allow-list display
// name, not whatever name the message header carries.
func TestRoute_ConfiguredNameWins(t *testing.T) {
	acct := testAccount(t)
	r := NewRouter(newTestProcessor(fakeExtractor{meta: presentMeta}, &fakeTransformer{}))

	msg := testMessage()
	msg.From.Name = "J. Random Spoofer"
	msg.Attachments = []models.Attachment{jpegAttachment("photo.jpg", []byte("x"))}

	outcomes := r.Route(acct, msg)

	if outcomes[0].Status != StatusSaved {
		t.Fatalf("status = %q, err = %v", outcomes[0].Status, outcomes[0].Err)
	}
	if filepath.Base(outcomes[0].Path) != "2021-05-03T14.22.10 [Jane] Hello.jpg" {
		t.Errorf("filename = %q", filepath.Base(outcomes[0].Path))
	}
}

// TestRoute_PerAttachmentIsolation verifies each attachment reaches its own
// terminal outcome and a failing sibling does not stop the others.
func TestRoute_PerAttachmentIsolation(t *testing.T) {
	acct := testAccount(t)
	r := NewRouter(newTestProcessor(fakeExtractor{meta: presentMeta}, &fakeTransformer{}))

	msg := testMessage()
	msg.Attachments = []models.Attachment{
		{ContentType: "text/plain", Filename: "note.txt", Content: []byte("hi")},
		jpegAttachment("photo.jpg", []byte("jpeg-bytes")),
		{ContentType: "application/zip", Filename: "archive.zip", Content: []byte("PK")},
	}

	outcomes := r.Route(acct, msg)

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if outcomes[0].Status != StatusSkippedNotJpeg {
		t.Errorf("outcome 0 = %q", outcomes[0].Status)
	}
	if outcomes[1].Status != StatusSaved {
		t.Errorf("outcome 1 = %q, err = %v", outcomes[1].Status, outcomes[1].Err)
	}
	if outcomes[2].Status != StatusSkippedNotJpeg {
		t.Errorf("outcome 2 = %q", outcomes[2].Status)
	}

	if _, err := os.Stat(outcomes[1].Path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
}

// TestMatchSender_Containment covers the allow-list address match, which is a
// containment check of the sender address in the configured entry.
func TestMatchSender_Containment(t *testing.T) {
	acct := testAccount(t)

	cases := []struct {
		name string
		from string
		want bool
	}{
		{"exact", "jane@example.com", true},
		{"substring_of_entry", "jane@example", true},
		{"superset_of_entry", "mail.jane@example.com.evil", false},
		{"different", "bob@example.com", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := matchSender(acct.AcceptedSenders, tc.from)
			if ok != tc.want {
				t.Errorf("matchSender(%q) = %v, want %v", tc.from, ok, tc.want)
			}
		})
	}
}
