/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

// DeletedSenderMark prefixes the sender of entries whose author removed the dialog for themselves.
const DeletedSenderMark = "~"

// Represents a message appended to a dialog log.
type DialogEntry struct {
	Seq           uint64 `gorm:"primaryKey;autoIncrement" json:"seq"`                            // Position in the log store
	DialogID      uint64 `gorm:"not null;index:idx_entry_dialog_time,priority:1" json:"dialog"`    // Dialog the message belongs to
	Content       string `gorm:"not null" json:"content"`                                         // Actual content of the message
	SentAt        int64  `gorm:"not null;index:idx_entry_dialog_time,priority:2" json:"timestamp"` // Client supplied timestamp
	Sender        string `gorm:"not null;index" json:"sender"`                                    // Name of the author
	SenderDeleted bool   `gorm:"not null;default:false" json:"-"`                                 // Author removed the dialog for themselves
}

// SenderTag is the sender as shown to clients: soft-deleted authors carry the deletion mark.
func (e *DialogEntry) SenderTag() string {
	if e.SenderDeleted {
		return DeletedSenderMark + e.Sender
	}
	return e.Sender
}
