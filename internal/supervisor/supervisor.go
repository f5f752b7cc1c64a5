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

// Package supervisor drives one mailbox watcher per account: a
// single-threaded event loop per account consumes lifecycle and message
// events, restarts the watcher on disconnect, and dispatches message
// processing onto goroutines so image work never stalls event delivery.
package supervisor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/abbir/photopost/internal/config"
	"github.com/abbir/photopost/internal/models"
	"github.com/abbir/photopost/internal/pipeline"
	"github.com/abbir/photopost/internal/watcher"
)

// MailboxWatcher is the watching collaborator as the supervisor sees it.
type MailboxWatcher interface {
	Start(ctx context.Context)
	Events() <-chan watcher.Event
}

// MessageRouter routes one incoming message to per-attachment outcomes.
type MessageRouter interface {
	Route(acct config.Account, msg *models.IncomingMessage) []pipeline.Outcome
}

// OutcomeSink receives every processing outcome, e.g. the Redis journal.
type OutcomeSink interface {
	Publish(ctx context.Context, o pipeline.Outcome) error
}

// Supervisor owns the watcher of a single account.
type Supervisor struct {
	account config.Account
	watcher MailboxWatcher
	router  MessageRouter
	sink    OutcomeSink // optional

	wg sync.WaitGroup
}

// New creates a supervisor. sink may be nil.
func New(account config.Account, w MailboxWatcher, router MessageRouter, sink OutcomeSink) *Supervisor {
	return &Supervisor{
		account: account,
		watcher: w,
		router:  router,
		sink:    sink,
	}
}

// AccountID returns the supervised account's identifier.
func (s *Supervisor) AccountID() string {
	return s.account.ID
}

// Run starts the watcher and consumes its events until the context is
// cancelled. It blocks; callers run it in a goroutine per account.
func (s *Supervisor) Run(ctx context.Context) {
	s.watcher.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			slog.Info("account supervisor stopped", "account", s.account.ID)
			return
		case ev := <-s.watcher.Events():
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *Supervisor) handleEvent(ctx context.Context, ev watcher.Event) {
	switch ev.Type {
	case watcher.EventConnected:
		slog.Info("imap connected", "account", s.account.ID)

	case watcher.EventDisconnected:
		slog.Warn("imap disconnected", "account", s.account.ID)
		s.reconnect(ctx)

	case watcher.EventError:
		slog.Error("imap error", "account", s.account.ID, "error", ev.Err)

	case watcher.EventMessage:
		msg := ev.Message
		slog.Info("email received",
			"account", s.account.ID,
			"message_id", msg.MessageID,
			"from", msg.From.Address,
		)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.processMessage(ctx, msg)
		}()
	}
}

// reconnect requests a fresh watcher session. Kept as an explicit method so
// the restart policy lives in the dispatcher, not inside a callback.
func (s *Supervisor) reconnect(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	slog.Info("restarting mailbox watcher", "account", s.account.ID)
	s.watcher.Start(ctx)
}

// processMessage routes a message and reports every resulting outcome.
func (s *Supervisor) processMessage(ctx context.Context, msg *models.IncomingMessage) {
	outcomes := s.router.Route(s.account, msg)
	for _, o := range outcomes {
		slog.Log(ctx, o.Level(), "attachment processed", o.LogAttrs()...)

		if s.sink != nil {
			if err := s.sink.Publish(ctx, o); err != nil {
				slog.Warn("failed to journal outcome",
					"account", s.account.ID,
					"message_id", msg.MessageID,
					"error", err,
				)
			}
		}
	}
}
