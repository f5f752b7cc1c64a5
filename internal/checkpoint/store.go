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

// Package checkpoint provides a Postgres-backed store for per-account
// mailbox positions, so a restarted service resumes after the last message
// it processed instead of only seeing new arrivals.
package checkpoint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abbir/photopost/internal/watcher"
)

// Store persists watcher checkpoints in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a checkpoint store backed by the given Postgres pool.
// It ensures the checkpoints table exists on creation.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure checkpoint schema: %w", err)
	}
	slog.Info("checkpoint store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS mailbox_checkpoints (
			account_id  TEXT PRIMARY KEY,
			uidvalidity BIGINT NOT NULL,
			last_uid    BIGINT NOT NULL,
			updated_at  TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

// Get retrieves the checkpoint for an account, or nil when none exists.
func (s *Store) Get(ctx context.Context, accountID string) (*watcher.Checkpoint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT uidvalidity, last_uid
		FROM mailbox_checkpoints
		WHERE account_id = $1
	`, accountID)

	var cp watcher.Checkpoint
	err := row.Scan(&cp.UIDValidity, &cp.LastUID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// Set inserts or updates an account's checkpoint.
func (s *Store) Set(ctx context.Context, accountID string, cp watcher.Checkpoint) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO mailbox_checkpoints (account_id, uidvalidity, last_uid)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE SET
			uidvalidity = EXCLUDED.uidvalidity,
			last_uid    = EXCLUDED.last_uid,
			updated_at  = NOW()
	`, accountID, cp.UIDValidity, cp.LastUID)
	return err
}
