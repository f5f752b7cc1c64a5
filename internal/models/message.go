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

// Package models defines the data structures shared across the service.
package models

import "fmt"

// Address represents a message sender with an address and optional display name.
type Address struct {
	Name    string
	Address string
}

// Attachment is one MIME attachment of an incoming message. Filename is the
// name assigned by the sending client and is informational only; it never
// influences where the attachment is filed.
type Attachment struct {
	ContentType string
	Content     []byte
	Filename    string
}

// Identifier returns a stable label for logging when the sending client did
// not name the attachment. idx is the zero-based position in the message.
func (a Attachment) Identifier(idx int) string {
	if a.Filename != "" {
		return a.Filename
	}
	return fmt.Sprintf("part-%d", idx+1)
}

// IncomingMessage is a fully parsed email as delivered by the mailbox
// watcher. It is read-only to the processing pipeline and discarded after
// processing; nothing is persisted.
type IncomingMessage struct {
	MessageID   string
	From        Address
	Subject     string
	SeqNum      uint32
	Attachments []Attachment
}
