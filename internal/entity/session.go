/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

// A live session, keyed by the network address the client connected from.
// The fingerprint of the client's public key is unique: the same key can not back two sessions.
type Session struct {
	Address        string    `gorm:"primaryKey" json:"address"`
	UserName       string    `gorm:"not null;index" json:"user"`
	PublicKey      string    `gorm:"not null" json:"public-key"`            // "<modulus>:<exponent>"
	KeyFingerprint string    `gorm:"not null;uniqueIndex" json:"-"`         // SHA3-256 of the public key, hex encoded
	LastActive     int64     `gorm:"not null;default:0" json:"last-active"` // Unix seconds, advisory only
	CreatedAt      time.Time `gorm:"not null" json:"created-at"`
}
