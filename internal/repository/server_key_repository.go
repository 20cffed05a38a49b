/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"time"

	"github.com/MoarCatz/chat-server/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServerKeyRepository interface {
	Save(key *entity.ServerKey) error
	Get() (*entity.ServerKey, error)
}

type GormServerKeyRepository struct {
	db *gorm.DB
}

func NewGormServerKeyRepository(db *gorm.DB) ServerKeyRepository {
	return &GormServerKeyRepository{db}
}

// Save stores key as the one server key pair, replacing any previous one
func (repo *GormServerKeyRepository) Save(key *entity.ServerKey) error {
	key.ID = 1
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now()
	}
	err := repo.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(key).Error
	return translate(err, "serverKeyRepo.Save")
}

func (repo *GormServerKeyRepository) Get() (*entity.ServerKey, error) {
	var key entity.ServerKey
	err := repo.db.First(&key, 1).Error
	return &key, translate(err, "serverKeyRepo.Get")
}
