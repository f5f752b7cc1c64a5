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

// photopost — Mailbox Backfill Command
//
// Standalone CLI tool that runs every message already sitting in an
// account's watched folder through the filing pipeline once. Intended for
// seeding the photo tree on new deployments, where mail arrived before the
// service was watching.
//
// Usage:
//
//	go run ./cmd/backfill/ --account <id> [--config /path/to/config.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/abbir/photopost/internal/config"
	"github.com/abbir/photopost/internal/exifmeta"
	"github.com/abbir/photopost/internal/imaging"
	"github.com/abbir/photopost/internal/pipeline"
	"github.com/abbir/photopost/internal/watcher"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	accountFlag := flag.String("account", "", "Account ID to backfill (required)")
	configFlag := flag.String("config", "", "Path to config.yaml (default: $CONFIG_PATH)")
	flag.Parse()

	if *accountFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: --account is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	// --- Load Configuration ---
	cfg, err := config.Load(*configFlag)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	acct := cfg.Account(*accountFlag)
	if acct == nil {
		slog.Error("account not found in configuration", "account", *accountFlag)
		os.Exit(1)
	}

	slog.Info("starting mailbox backfill",
		"account", acct.ID,
		"folder", acct.Mail.Folder,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vips.Startup(nil)
	defer vips.Shutdown()

	// --- Fetch everything in the folder ---
	w := watcher.New(*acct, nil)
	msgs, err := w.Drain(ctx)
	if err != nil {
		slog.Error("mailbox drain failed", "account", acct.ID, "error", err)
		os.Exit(1)
	}
	slog.Info("fetched messages", "account", acct.ID, "count", len(msgs))

	// --- Run every message through the pipeline ---
	processor := pipeline.NewProcessor(
		exifmeta.Extractor{},
		imaging.NewVipsTransformer(0),
		cfg.Location,
	)
	router := pipeline.NewRouter(processor)

	var saved, skipped, failed int
	for _, msg := range msgs {
		for _, o := range router.Route(*acct, msg) {
			slog.Log(ctx, o.Level(), "attachment processed", o.LogAttrs()...)
			switch {
			case o.Saved():
				saved++
			case o.Status == pipeline.StatusSkippedNotJpeg,
				o.Status == pipeline.StatusSkippedNoMetadata,
				o.Status == pipeline.StatusSkippedSenderNotAllowed,
				o.Status == pipeline.StatusSkippedNoAttachments:
				skipped++
			default:
				failed++
			}
		}
	}

	// --- Summary ---
	slog.Info("backfill complete",
		"account", acct.ID,
		"messages", len(msgs),
		"saved", saved,
		"skipped", skipped,
		"failed", failed,
	)
}
