/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"slices"

	"github.com/MoarCatz/chat-server/internal/entity"

	"gorm.io/gorm"
)

// MessageRepository is the single log store backing every dialog, keyed by (dialog id, seq).
type MessageRepository interface {
	Append(entry *entity.DialogEntry) error

	History(dialogID uint64, count int) ([]entity.DialogEntry, error)
	InRange(dialogID uint64, lower, upper int64) ([]entity.DialogEntry, error)

	MarkSenderDeleted(dialogID uint64, sender string) error
	DeleteByDialog(dialogID uint64) error
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &GormMessageRepository{db}
}

func (repo *GormMessageRepository) Append(entry *entity.DialogEntry) error {
	return translate(repo.db.Create(entry).Error, "messageRepo.Append")
}

// History returns the last count entries ordered by timestamp, or the whole log when count is 0
func (repo *GormMessageRepository) History(dialogID uint64, count int) ([]entity.DialogEntry, error) {
	var entries []entity.DialogEntry
	if count <= 0 {
		err := repo.db.Where("dialog_id = ?", dialogID).Order("sent_at ASC, seq ASC").Find(&entries).Error
		return entries, translate(err, "messageRepo.History")
	}

	err := repo.db.Where("dialog_id = ?", dialogID).Order("sent_at DESC, seq DESC").Limit(count).Find(&entries).Error
	if err != nil {
		return nil, translate(err, "messageRepo.History")
	}
	slices.Reverse(entries)
	return entries, nil
}

// InRange returns the entries with lower <= timestamp <= upper, ordered by timestamp
func (repo *GormMessageRepository) InRange(dialogID uint64, lower, upper int64) ([]entity.DialogEntry, error) {
	var entries []entity.DialogEntry
	err := repo.db.Where("dialog_id = ? AND sent_at BETWEEN ? AND ?", dialogID, lower, upper).Order("sent_at ASC, seq ASC").Find(&entries).Error
	return entries, translate(err, "messageRepo.InRange")
}

func (repo *GormMessageRepository) MarkSenderDeleted(dialogID uint64, sender string) error {
	err := repo.db.Model(&entity.DialogEntry{}).Where("dialog_id = ? AND sender = ?", dialogID, sender).Update("sender_deleted", true).Error
	return translate(err, "messageRepo.MarkSenderDeleted")
}

func (repo *GormMessageRepository) DeleteByDialog(dialogID uint64) error {
	return translate(repo.db.Where("dialog_id = ?", dialogID).Delete(&entity.DialogEntry{}).Error, "messageRepo.DeleteByDialog")
}
