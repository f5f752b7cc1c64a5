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

package watcher

import (
	"bytes"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/abbir/photopost/internal/models"
)

// parseMessage converts a fetched IMAP message into the pipeline's incoming
// message form.
func parseMessage(buf *imapclient.FetchMessageBuffer) *models.IncomingMessage {
	msg := &models.IncomingMessage{
		SeqNum: buf.SeqNum,
	}

	if buf.Envelope != nil {
		msg.MessageID = buf.Envelope.MessageID
		msg.Subject = buf.Envelope.Subject
		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			msg.From = models.Address{
				Name:    from.Name,
				Address: from.Addr(),
			}
		}
	}

	raw := buf.FindBodySection(bodySection())
	if raw != nil {
		msg.Attachments = parseAttachments(raw)
	}

	return msg
}

// parseAttachments extracts attachment parts from a raw RFC 5322 message.
// Inline image parts count as attachments too; phone mail clients often
// embed photos inline rather than as proper attachments.
func parseAttachments(raw []byte) []models.Attachment {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// An unparsable body simply has no attachments to offer.
		return nil
	}
	defer mr.Close()

	var attachments []models.Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.AttachmentHeader:
			contentType, _, _ := h.ContentType()
			filename, _ := h.Filename()
			content, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			attachments = append(attachments, models.Attachment{
				ContentType: contentType,
				Content:     content,
				Filename:    filename,
			})

		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if !strings.HasPrefix(contentType, "image/") {
				continue
			}
			content, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			attachments = append(attachments, models.Attachment{
				ContentType: contentType,
				Content:     content,
			})
		}
	}

	return attachments
}
