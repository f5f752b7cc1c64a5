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

// Package pipeline runs per-attachment photo processing: content-type
// gating, metadata extraction, path derivation, resize, write, and
// timestamp correction, with independent failure isolation per attachment.
package pipeline

import "log/slog"

// Status is the terminal classification of one processing attempt.
type Status string

const (
	StatusSaved                   Status = "saved"
	StatusSkippedNotJpeg          Status = "skipped_not_jpeg"
	StatusSkippedNoMetadata       Status = "skipped_no_metadata"
	StatusSkippedSenderNotAllowed Status = "skipped_sender_not_allowed"
	StatusSkippedNoAttachments    Status = "skipped_no_attachments"
	StatusFailedMetadataRead      Status = "failed_metadata_read"
	StatusFailedDirectoryCreate   Status = "failed_directory_create"
	StatusFailedWrite             Status = "failed_write"
	StatusFailedTimestampSet      Status = "failed_timestamp_set"
)

// Outcome carries enough context to log one processing attempt meaningfully.
// Path is set when a file reached disk, including StatusFailedTimestampSet,
// where the image is saved but its filesystem timestamp is stale.
type Outcome struct {
	Status     Status
	AccountID  string
	MessageID  string
	Attachment string
	Path       string
	Err        error
}

// Saved reports whether the image is on disk and readable.
func (o Outcome) Saved() bool {
	return o.Status == StatusSaved || o.Status == StatusFailedTimestampSet
}

// Level maps the outcome to a log severity: normal skips and successes are
// informational, recoverable failures are warnings.
func (o Outcome) Level() slog.Level {
	switch o.Status {
	case StatusSaved, StatusSkippedNotJpeg, StatusSkippedNoMetadata,
		StatusSkippedSenderNotAllowed, StatusSkippedNoAttachments:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// LogAttrs returns the structured fields for this outcome.
func (o Outcome) LogAttrs() []any {
	attrs := []any{
		"account", o.AccountID,
		"message_id", o.MessageID,
		"status", string(o.Status),
	}
	if o.Attachment != "" {
		attrs = append(attrs, "attachment", o.Attachment)
	}
	if o.Path != "" {
		attrs = append(attrs, "path", o.Path)
	}
	if o.Err != nil {
		attrs = append(attrs, "error", o.Err)
	}
	return attrs
}
