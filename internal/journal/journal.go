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

// Package journal publishes processing outcomes to a Redis list as an
// append-only audit feed. The journal is optional and best-effort: the log
// stream remains the authoritative record, and publish failures never affect
// processing.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/abbir/photopost/internal/pipeline"
)

// Journal sends outcome entries to Redis.
type Journal struct {
	rdb       *redis.Client
	queueName string
}

// New creates a journal targeting the specified queue.
func New(rdb *redis.Client, queueName string) *Journal {
	return &Journal{
		rdb:       rdb,
		queueName: queueName,
	}
}

// entry is the JSON shape of one journal record.
type entry struct {
	ID         string    `json:"id"`
	Account    string    `json:"account"`
	MessageID  string    `json:"message_id"`
	Attachment string    `json:"attachment,omitempty"`
	Status     string    `json:"status"`
	Path       string    `json:"path,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Publish serialises an outcome and pushes it onto the journal queue.
func (j *Journal) Publish(ctx context.Context, o pipeline.Outcome) error {
	e := entry{
		ID:         uuid.New().String(),
		Account:    o.AccountID,
		MessageID:  o.MessageID,
		Attachment: o.Attachment,
		Status:     string(o.Status),
		Path:       o.Path,
		At:         time.Now().UTC(),
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	if err := j.rdb.LPush(ctx, j.queueName, payload).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (j *Journal) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return j.rdb.Ping(ctx).Err()
}
