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
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/abbir/photopost/internal/models"
)

// fetchAbove retrieves every message with a UID greater than lastUID, parsed
// into IncomingMessages, and returns the highest UID encountered.
func fetchAbove(client *imapclient.Client, lastUID uint32) ([]*models.IncomingMessage, uint32, error) {
	var uidSet imap.UIDSet
	uidSet.AddRange(imap.UID(lastUID+1), 0)

	bufs, err := collectUIDs(client, uidSet)
	if err != nil {
		return nil, lastUID, err
	}

	var msgs []*models.IncomingMessage
	newLast := lastUID
	for _, buf := range bufs {
		// Servers answer an N:* range with the highest existing message
		// even when N exceeds it; skip anything already processed.
		if uint32(buf.UID) <= lastUID {
			continue
		}
		if uint32(buf.UID) > newLast {
			newLast = uint32(buf.UID)
		}
		msgs = append(msgs, parseMessage(buf))
	}
	return msgs, newLast, nil
}

// collectUIDs fetches envelope and full body for the given UID set.
func collectUIDs(client *imapclient.Client, uidSet imap.UIDSet) ([]*imapclient.FetchMessageBuffer, error) {
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection()},
	}
	bufs, err := client.Fetch(uidSet, fetchOpts).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	return bufs, nil
}

// bodySection describes the full-message section fetched without setting
// the \Seen flag.
func bodySection() *imap.FetchItemBodySection {
	return &imap.FetchItemBodySection{Peek: true}
}
