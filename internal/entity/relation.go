/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

// RelationKind is the set a relation edge belongs to.
type RelationKind string

const (
	RelationFriend    RelationKind = "friend"
	RelationFavorite  RelationKind = "favorite"
	RelationBlacklist RelationKind = "blacklist"
	RelationDialog    RelationKind = "dialog" // Target is the decimal dialog id
)

// Relation is one element of one of the owner's relation sets.
// Each set is stored row-per-edge, so adding or removing an element never rewrites the whole set.
type Relation struct {
	Owner     string       `gorm:"primaryKey" json:"owner"`
	Kind      RelationKind `gorm:"primaryKey;index:idx_relation_reverse,priority:1" json:"kind"`
	Target    string       `gorm:"primaryKey;index:idx_relation_reverse,priority:2" json:"target"`
	CreatedAt time.Time    `gorm:"not null" json:"created-at"`
}
