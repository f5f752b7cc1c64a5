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
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"

	"github.com/abbir/photopost/internal/models"
)

// Drain fetches every message currently in the mailbox in one pass. Used by
// cmd/backfill to push existing mail through the pipeline; the streaming
// session is untouched.
func (w *Watcher) Drain(ctx context.Context) ([]*models.IncomingMessage, error) {
	client, _, err := w.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if _, err := client.Select(w.account.Mail.Folder, nil).Wait(); err != nil {
		return nil, fmt.Errorf("select %s: %w", w.account.Mail.Folder, err)
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		_ = client.Logout().Wait()
		return nil, nil
	}

	bufs, err := collectUIDs(client, imap.UIDSetNum(uids...))
	if err != nil {
		return nil, err
	}

	msgs := make([]*models.IncomingMessage, 0, len(bufs))
	for _, buf := range bufs {
		if ctx.Err() != nil {
			return msgs, ctx.Err()
		}
		msgs = append(msgs, parseMessage(buf))
	}

	if err := client.Logout().Wait(); err != nil {
		return msgs, fmt.Errorf("imap logout: %w", err)
	}
	return msgs, nil
}
