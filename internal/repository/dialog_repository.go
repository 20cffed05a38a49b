/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"strconv"
	"time"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DialogRepository owns dialog ids: allocation, provisioning and destruction.
// Allocate and Destroy must run inside a transaction.
type DialogRepository interface {
	Allocate() (uint64, error)
	Create(dialog *entity.Dialog) error
	Exists(id uint64) (bool, error)
	Destroy(id uint64) error
	IDs() ([]uint64, error)
}

type GormDialogRepository struct {
	db *gorm.DB
}

func NewGormDialogRepository(db *gorm.DB) DialogRepository {
	return &GormDialogRepository{db}
}

// Allocate returns the smallest positive id not assigned to a live dialog.
// Ids below the high-water mark are either live or in the free list, so the answer is the
// smallest free id if any, the high-water mark otherwise.
func (repo *GormDialogRepository) Allocate() (uint64, error) {
	var state entity.SystemState
	if err := repo.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&state, 1).Error; err != nil {
		return 0, translate(err, "dialogRepo.Allocate.State")
	}

	var free []entity.FreeDialogID
	if err := repo.db.Order("id ASC").Limit(1).Find(&free).Error; err != nil {
		return 0, translate(err, "dialogRepo.Allocate.Free")
	}
	if len(free) > 0 {
		if err := repo.db.Delete(&entity.FreeDialogID{}, free[0].ID).Error; err != nil {
			return 0, translate(err, "dialogRepo.Allocate.Take")
		}
		return free[0].ID, nil
	}

	id := state.NextDialogID
	if err := repo.db.Model(&state).Update("next_dialog_id", id+1).Error; err != nil {
		return 0, translate(err, "dialogRepo.Allocate.Advance")
	}
	return id, nil
}

func (repo *GormDialogRepository) Create(dialog *entity.Dialog) error {
	if dialog.CreatedAt.IsZero() {
		dialog.CreatedAt = time.Now()
	}
	return translate(repo.db.Create(dialog).Error, "dialogRepo.Create")
}

func (repo *GormDialogRepository) Exists(id uint64) (bool, error) {
	var n int64
	err := repo.db.Model(&entity.Dialog{}).Where("id = ?", id).Count(&n).Error
	return n > 0, translate(err, "dialogRepo.Exists")
}

// Destroy drops the log, the memberships and the dialog itself, and releases the id
func (repo *GormDialogRepository) Destroy(id uint64) error {
	res := repo.db.Delete(&entity.Dialog{}, id)
	if res.Error != nil {
		return translate(res.Error, "dialogRepo.Destroy")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("dialog " + strconv.FormatUint(id, 10) + " does not exist")
	}
	if err := repo.db.Where("dialog_id = ?", id).Delete(&entity.DialogEntry{}).Error; err != nil {
		return translate(err, "dialogRepo.Destroy.Entries")
	}
	err := repo.db.Where("kind = ? AND target = ?", entity.RelationDialog, strconv.FormatUint(id, 10)).Delete(&entity.Relation{}).Error
	if err != nil {
		return translate(err, "dialogRepo.Destroy.Members")
	}
	err = repo.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entity.FreeDialogID{ID: id}).Error
	return translate(err, "dialogRepo.Destroy.Release")
}

func (repo *GormDialogRepository) IDs() ([]uint64, error) {
	var ids []uint64
	err := repo.db.Model(&entity.Dialog{}).Order("id").Pluck("id", &ids).Error
	return ids, translate(err, "dialogRepo.IDs")
}
