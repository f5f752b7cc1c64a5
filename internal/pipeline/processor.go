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
	"fmt"
	"os"
	"time"

	"github.com/abbir/photopost/internal/config"
	"github.com/abbir/photopost/internal/exifmeta"
	"github.com/abbir/photopost/internal/imaging"
	"github.com/abbir/photopost/internal/models"
	"github.com/abbir/photopost/internal/naming"
)

// MetadataExtractor reads capture metadata from image bytes.
type MetadataExtractor interface {
	Extract(data []byte) (exifmeta.CaptureMetadata, error)
}

// Processor runs one attachment through the save pipeline. Side effects are
// attempted only along the success path; a partially completed attachment is
// left as-is (no rollback).
type Processor struct {
	extractor   MetadataExtractor
	transformer imaging.Transformer
	loc         *time.Location
}

// NewProcessor wires the metadata and image collaborators. loc is the fixed
// zone capture timestamps are interpreted and filed in.
func NewProcessor(extractor MetadataExtractor, transformer imaging.Transformer, loc *time.Location) *Processor {
	return &Processor{
		extractor:   extractor,
		transformer: transformer,
		loc:         loc,
	}
}

// Process takes one attachment to a terminal outcome. It never returns an
// error: every failure mode is an outcome so that one bad attachment cannot
// abort its siblings.
func (p *Processor) Process(acct config.Account, sender config.AcceptedSender, msg *models.IncomingMessage, att models.Attachment, idx int) Outcome {
	out := Outcome{
		AccountID:  acct.ID,
		MessageID:  msg.MessageID,
		Attachment: att.Identifier(idx),
	}

	if att.ContentType != "image/jpeg" {
		out.Status = StatusSkippedNotJpeg
		return out
	}

	meta, err := p.extractor.Extract(att.Content)
	if err != nil {
		out.Status = StatusFailedMetadataRead
		out.Err = err
		return out
	}
	if !meta.Present {
		out.Status = StatusSkippedNoMetadata
		return out
	}

	// A malformed timestamp fails this attachment only; it must never fall
	// back to the current time.
	captured, err := naming.Normalize(meta.Timestamp, p.loc)
	if err != nil {
		out.Status = StatusFailedMetadataRead
		out.Err = err
		return out
	}

	dest := naming.DerivePath(acct.Output.Root, sender.Name, msg.Subject, captured)

	// MkdirAll is idempotent: an existing directory, including one created
	// by a concurrently processed attachment, is success.
	if err := os.MkdirAll(dest.Directory, 0o755); err != nil {
		out.Status = StatusFailedDirectoryCreate
		out.Err = err
		return out
	}

	comment := fmt.Sprintf("%s. Sent from %s (%s)", msg.Subject, sender.Name, msg.From.Address)
	resized, err := p.transformer.Transform(att.Content, comment, acct.Output.MaxDimension)
	if err != nil {
		out.Status = StatusFailedWrite
		out.Err = err
		return out
	}

	path := dest.FullPath()
	if err := os.WriteFile(path, resized, 0o644); err != nil {
		out.Status = StatusFailedWrite
		out.Err = err
		return out
	}
	out.Path = path

	// Stamp access and modification times with the capture instant. The
	// image is already on disk, so a failure here is non-fatal.
	if err := os.Chtimes(path, captured, captured); err != nil {
		out.Status = StatusFailedTimestampSet
		out.Err = err
		return out
	}

	out.Status = StatusSaved
	return out
}
