/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

// Two-party conversation. Membership is stored as RelationDialog edges, the log as DialogEntry rows.
type Dialog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"` // Smallest unused positive integer at creation time
	CreatedAt time.Time `gorm:"not null" json:"created-at"`
}

// A dialog id released by a destroyed dialog, available to the allocator.
type FreeDialogID struct {
	ID uint64 `gorm:"primaryKey;autoIncrement:false"`
}
