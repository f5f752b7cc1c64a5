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

package supervisor

import (
	"context"
	"log/slog"
	"sync"
)

// Orchestrator is the explicit registry of account supervisors, keyed by
// account ID, with a start/stop lifecycle. Accounts run independently; one
// account failing never stops the others.
type Orchestrator struct {
	supervisors map[string]*Supervisor

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates an empty registry.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		supervisors: make(map[string]*Supervisor),
	}
}

// Add registers a supervisor. Later registrations with the same account ID
// replace earlier ones; call before StartAll.
func (o *Orchestrator) Add(s *Supervisor) {
	o.supervisors[s.AccountID()] = s
}

// Supervisor returns the registered supervisor for an account, or nil.
func (o *Orchestrator) Supervisor(accountID string) *Supervisor {
	return o.supervisors[accountID]
}

// Accounts returns the number of registered accounts.
func (o *Orchestrator) Accounts() int {
	return len(o.supervisors)
}

// StartAll launches every registered supervisor.
func (o *Orchestrator) StartAll(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for id, s := range o.supervisors {
		o.wg.Add(1)
		go func(id string, s *Supervisor) {
			defer o.wg.Done()
			s.Run(runCtx)
		}(id, s)
	}

	slog.Info("orchestrator started", "accounts", len(o.supervisors))
}

// StopAll cancels all supervisors and waits for them to drain.
func (o *Orchestrator) StopAll() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	slog.Info("orchestrator stopped")
}
