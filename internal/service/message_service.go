/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/entity"
)

// Append stores a message at the end of the dialog log.
// Membership and blacklist checks are up to the caller.
func (d *localDialogService) Append(ctx context.Context, dialogID uint64, content string, sentAt int64, sender string) error {
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return apperr.Validationf("message longer than %d characters", MaxMessageLength)
	}
	r := d.store.Read(ctx)
	exists, err := r.Dialogs.Exists(dialogID)
	if err != nil {
		return storageError("dialog.Append", err)
	}
	if !exists {
		return apperr.NotFound("dialog " + dialogKey(dialogID) + " does not exist")
	}
	err = r.Messages.Append(&entity.DialogEntry{
		DialogID: dialogID,
		Content:  content,
		SentAt:   sentAt,
		Sender:   sender,
	})
	return storageError("dialog.Append", err)
}

// History returns the last count messages in timestamp order, all of them when count is 0
func (d *localDialogService) History(ctx context.Context, dialogID uint64, count int) ([]entity.DialogEntry, error) {
	if count < 0 {
		return nil, apperr.Validation("message count can not be negative")
	}
	entries, err := d.store.Read(ctx).Messages.History(dialogID, count)
	return entries, storageError("dialog.History", err)
}

// Search returns the messages containing substring (case sensitive) sent within [lower, upper]
func (d *localDialogService) Search(ctx context.Context, dialogID uint64, substring string, lower, upper int64) ([]entity.DialogEntry, error) {
	if lower > upper {
		return nil, apperr.Validation("time range lower bound is after its upper bound")
	}
	entries, err := d.store.Read(ctx).Messages.InRange(dialogID, lower, upper)
	if err != nil {
		return nil, storageError("dialog.Search", err)
	}
	matching := entries[:0]
	for _, entry := range entries {
		if strings.Contains(entry.Content, substring) {
			matching = append(matching, entry)
		}
	}
	return matching, nil
}
