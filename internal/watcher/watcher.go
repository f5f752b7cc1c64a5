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

// Package watcher streams one IMAP mailbox as a sequence of typed events.
//
// A Watcher owns a single connection session at a time. It emits Connected,
// then a Message event per newly arrived mail, and finally Disconnected when
// the session ends for any reason. It does not reconnect by itself: the
// supervisor reacts to Disconnected and calls Start again, keeping the
// restart decision in one explicit place.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/abbir/photopost/internal/config"
	"github.com/abbir/photopost/internal/models"
)

// EventType classifies a watcher event.
type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	EventError
	EventMessage
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventError:
		return "error"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is one lifecycle or message notification. Message is set only for
// EventMessage, Err only for EventError.
type Event struct {
	Type    EventType
	Message *models.IncomingMessage
	Err     error
}

// Checkpoint records how far into a mailbox processing has advanced. A
// UIDVALIDITY change invalidates stored UIDs per the IMAP protocol.
type Checkpoint struct {
	UIDValidity uint32
	LastUID     uint32
}

// CheckpointStore persists per-account checkpoints across restarts.
// Get returns (nil, nil) when no checkpoint exists yet.
type CheckpointStore interface {
	Get(ctx context.Context, accountID string) (*Checkpoint, error)
	Set(ctx context.Context, accountID string, cp Checkpoint) error
}

// idleRestart bounds how long a single IDLE command runs. Servers may drop
// clients idling longer than 29 minutes (RFC 2177).
const idleRestart = 20 * time.Minute

// Watcher watches one account's mailbox.
type Watcher struct {
	account     config.Account
	checkpoints CheckpointStore
	events      chan Event
	dialTimeout time.Duration
}

// New creates a watcher for the account. store may be nil, in which case a
// fresh session only sees mail arriving after it connects.
func New(account config.Account, store CheckpointStore) *Watcher {
	return &Watcher{
		account:     account,
		checkpoints: store,
		events:      make(chan Event, 16),
		dialTimeout: 10 * time.Second,
	}
}

// Events returns the channel the watcher emits on. The channel is never
// closed; it is shared across sessions.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start launches one connection session in the background. Call it once at
// startup and again after each Disconnected event.
func (w *Watcher) Start(ctx context.Context) {
	go w.session(ctx)
}

// session runs a single connect-watch-disconnect cycle.
func (w *Watcher) session(ctx context.Context) {
	client, updates, err := w.connect(ctx)
	if err != nil {
		w.emit(ctx, Event{Type: EventError, Err: err})
		w.emit(ctx, Event{Type: EventDisconnected})
		return
	}
	defer client.Close()

	w.emit(ctx, Event{Type: EventConnected})

	selected, err := client.Select(w.account.Mail.Folder, nil).Wait()
	if err != nil {
		w.emit(ctx, Event{Type: EventError, Err: fmt.Errorf("select %s: %w", w.account.Mail.Folder, err)})
		w.emit(ctx, Event{Type: EventDisconnected})
		return
	}

	lastUID := w.resolveStartUID(ctx, selected)

	for {
		if ctx.Err() != nil {
			_ = client.Logout().Wait()
			return
		}

		// Catch up on anything past the checkpoint before going idle. The
		// first pass picks up mail that arrived while we were away.
		newLast, err := w.deliverNew(ctx, client, lastUID)
		if err != nil {
			w.emit(ctx, Event{Type: EventError, Err: err})
			w.emit(ctx, Event{Type: EventDisconnected})
			return
		}
		if newLast != lastUID {
			lastUID = newLast
			w.saveCheckpoint(ctx, selected.UIDValidity, lastUID)
		}

		if err := w.idle(ctx, client, updates); err != nil {
			if ctx.Err() != nil {
				_ = client.Logout().Wait()
				return
			}
			w.emit(ctx, Event{Type: EventError, Err: err})
			w.emit(ctx, Event{Type: EventDisconnected})
			return
		}
	}
}

// resolveStartUID decides which UID processing resumes after. Without a
// usable checkpoint, watching starts at the mailbox's current UIDNEXT so
// only new arrivals are processed.
func (w *Watcher) resolveStartUID(ctx context.Context, selected *imap.SelectData) uint32 {
	fromUIDNext := uint32(selected.UIDNext)
	if fromUIDNext > 0 {
		fromUIDNext--
	}

	if w.checkpoints == nil {
		return fromUIDNext
	}

	cp, err := w.checkpoints.Get(ctx, w.account.ID)
	if err != nil {
		slog.Warn("checkpoint lookup failed, starting from current mailbox state",
			"account", w.account.ID,
			"error", err,
		)
		return fromUIDNext
	}
	if cp == nil {
		return fromUIDNext
	}
	if cp.UIDValidity != selected.UIDValidity {
		slog.Warn("mailbox UIDVALIDITY changed, discarding checkpoint",
			"account", w.account.ID,
			"stored", cp.UIDValidity,
			"current", selected.UIDValidity,
		)
		return fromUIDNext
	}
	return cp.LastUID
}

// deliverNew fetches and emits all messages with UIDs above lastUID and
// returns the highest UID seen.
func (w *Watcher) deliverNew(ctx context.Context, client *imapclient.Client, lastUID uint32) (uint32, error) {
	msgs, newLast, err := fetchAbove(client, lastUID)
	if err != nil {
		return lastUID, fmt.Errorf("fetch new messages: %w", err)
	}
	for _, msg := range msgs {
		w.emit(ctx, Event{Type: EventMessage, Message: msg})
	}
	return newLast, nil
}

// idle blocks until the server reports mailbox activity, the context is
// cancelled, or the idle period expires for a protocol-mandated restart.
func (w *Watcher) idle(ctx context.Context, client *imapclient.Client, updates <-chan struct{}) error {
	// Drain a notification that raced the previous fetch.
	select {
	case <-updates:
		return nil
	default:
	}

	idleCmd, err := client.Idle()
	if err != nil {
		return fmt.Errorf("imap idle: %w", err)
	}

	timer := time.NewTimer(idleRestart)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		_ = idleCmd.Close()
		_ = idleCmd.Wait()
		return ctx.Err()
	case <-updates:
	case <-timer.C:
	}

	if err := idleCmd.Close(); err != nil {
		return fmt.Errorf("end idle: %w", err)
	}
	if err := idleCmd.Wait(); err != nil {
		return fmt.Errorf("idle terminated: %w", err)
	}
	return nil
}

// saveCheckpoint best-effort persists progress; a store failure only costs a
// possible replay after restart.
func (w *Watcher) saveCheckpoint(ctx context.Context, uidValidity, lastUID uint32) {
	if w.checkpoints == nil {
		return
	}
	cp := Checkpoint{UIDValidity: uidValidity, LastUID: lastUID}
	if err := w.checkpoints.Set(ctx, w.account.ID, cp); err != nil {
		slog.Warn("failed to persist mailbox checkpoint",
			"account", w.account.ID,
			"last_uid", lastUID,
			"error", err,
		)
	}
}

// emit delivers an event unless the context is already cancelled.
func (w *Watcher) emit(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

// connect dials, authenticates, and returns a client plus the channel the
// server's unsolicited mailbox updates are signalled on.
func (w *Watcher) connect(ctx context.Context) (*imapclient.Client, chan struct{}, error) {
	m := w.account.Mail

	port := m.Port
	if port == 0 {
		if m.UseTLS() {
			port = 993
		} else {
			port = 143
		}
	}
	addr := fmt.Sprintf("%s:%d", m.Host, port)

	updates := make(chan struct{}, 1)
	opts := &imapclient.Options{
		Dialer: &net.Dialer{Timeout: w.dialTimeout},
		UnilateralDataHandler: &imapclient.UnilateralDataHandler{
			Mailbox: func(data *imapclient.UnilateralDataMailbox) {
				if data.NumMessages == nil {
					return
				}
				select {
				case updates <- struct{}{}:
				default:
				}
			},
		},
	}

	var client *imapclient.Client
	var err error
	if m.UseTLS() {
		client, err = imapclient.DialTLS(addr, opts)
	} else {
		client, err = imapclient.DialInsecure(addr, opts)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("imap connect %s: %w", addr, err)
	}

	if err := w.authenticate(ctx, client, port); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return client, updates, nil
}
