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

// photopost — mailbox photo filing service
//
// Entry point for the long-running daemon. It:
//  1. Loads multi-account configuration from config.yaml
//  2. Optionally connects to Redis (outcome journal) and Postgres (checkpoints)
//  3. Starts one mailbox watcher + supervisor per configured account
//  4. Files JPEG attachments from allow-listed senders into date trees
//  5. Serves a health endpoint
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/abbir/photopost/internal/checkpoint"
	"github.com/abbir/photopost/internal/config"
	"github.com/abbir/photopost/internal/exifmeta"
	"github.com/abbir/photopost/internal/imaging"
	"github.com/abbir/photopost/internal/journal"
	"github.com/abbir/photopost/internal/pipeline"
	"github.com/abbir/photopost/internal/supervisor"
	"github.com/abbir/photopost/internal/watcher"
)

func main() {
	configFlag := flag.String("config", "", "Path to config.yaml (default: $CONFIG_PATH)")
	flag.Parse()

	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting photopost service")

	// --- Load Configuration ---
	cfg, err := config.Load(*configFlag)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Re-apply the configured log level now that it is known.
	if cfg.LogLevel != slog.LevelInfo {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.LogLevel,
		}))
		slog.SetDefault(logger)
	}

	slog.Info("configuration loaded",
		"accounts", len(cfg.Accounts),
		"timezone", cfg.Timezone,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- libvips ---
	vips.Startup(nil)
	defer vips.Shutdown()

	// --- Outcome Journal (optional) ---
	var sink supervisor.OutcomeSink
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)

		j := journal.New(rdb, cfg.OutcomesQueue)
		if err := j.Ping(ctx); err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		sink = j
		slog.Info("connected to Redis", "queue", cfg.OutcomesQueue)
	}

	// --- Checkpoint Store (optional) ---
	var checkpoints watcher.CheckpointStore
	var pgPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pgPool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create Postgres pool", "error", err)
			os.Exit(1)
		}
		if err := pgPool.Ping(ctx); err != nil {
			slog.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}

		store, err := checkpoint.NewStore(ctx, pgPool)
		if err != nil {
			slog.Error("failed to initialise checkpoint store", "error", err)
			os.Exit(1)
		}
		checkpoints = store
		slog.Info("connected to PostgreSQL")
	}

	// --- Processing Pipeline ---
	processor := pipeline.NewProcessor(
		exifmeta.Extractor{},
		imaging.NewVipsTransformer(0),
		cfg.Location,
	)
	router := pipeline.NewRouter(processor)

	// --- One supervisor per account ---
	orch := supervisor.NewOrchestrator()
	for _, acct := range cfg.Accounts {
		w := watcher.New(acct, checkpoints)
		orch.Add(supervisor.New(acct, w, router, sink))
	}
	orch.StartAll(ctx)

	// --- Health Check Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if rdb != nil {
			if err := rdb.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		if pgPool != nil {
			if err := pgPool.Ping(r.Context()); err != nil {
				http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "accounts": %d}`, orch.Accounts())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		orch.StopAll()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		if rdb != nil {
			rdb.Close()
		}
		if pgPool != nil {
			pgPool.Close()
		}
	}()

	slog.Info("photopost service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("photopost service stopped")
}
