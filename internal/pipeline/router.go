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
	"strings"

	"github.com/abbir/photopost/internal/config"
	"github.com/abbir/photopost/internal/models"
)

// Router filters incoming messages by sender and fans out their attachments
// to the processor. One outcome per attachment; no attachment's failure
// affects its siblings.
type Router struct {
	processor *Processor
}

// NewRouter creates a router over the given processor.
func NewRouter(processor *Processor) *Router {
	return &Router{processor: processor}
}

// Route processes one message for one account. Messages without attachments
// and messages from senders outside the allow-list produce a single
// message-level skip outcome.
func (r *Router) Route(acct config.Account, msg *models.IncomingMessage) []Outcome {
	base := Outcome{AccountID: acct.ID, MessageID: msg.MessageID}

	if len(msg.Attachments) == 0 {
		base.Status = StatusSkippedNoAttachments
		return []Outcome{base}
	}

	sender, ok := matchSender(acct.AcceptedSenders, msg.From.Address)
	if !ok {
		base.Status = StatusSkippedSenderNotAllowed
		return []Outcome{base}
	}

	outcomes := make([]Outcome, 0, len(msg.Attachments))
	for i, att := range msg.Attachments {
		outcomes = append(outcomes, r.processor.Process(acct, sender, msg, att, i))
	}
	return outcomes
}

// matchSender resolves the first allow-list entry whose address contains the
// sender address. The containment (rather than equality) check is inherited
// behavior; see DESIGN.md.
func matchSender(accepted []config.AcceptedSender, fromAddr string) (config.AcceptedSender, bool) {
	if fromAddr == "" {
		return config.AcceptedSender{}, false
	}
	for _, s := range accepted {
		if strings.Contains(s.EmailAddress, fromAddr) {
			return s, true
		}
	}
	return config.AcceptedSender{}, false
}
