/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

// The server's RSA key pair, a single row (ID = 1) written at bootstrap and read once at startup.
type ServerKey struct {
	ID         uint64    `gorm:"primaryKey"`
	PrivateKey []byte    `gorm:"not null"` // PKCS#1 DER
	PublicKey  string    `gorm:"not null"` // "<modulus>:<exponent>"
	CreatedAt  time.Time `gorm:"not null"`
}

// All returns every model the storage layer migrates.
func All() []any {
	return []any{
		&SystemState{},
		&User{},
		&UserSecret{},
		&Profile{},
		&Session{},
		&Relation{},
		&AddRequest{},
		&Dialog{},
		&FreeDialogID{},
		&DialogEntry{},
		&ServerKey{},
	}
}
