/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"github.com/MoarCatz/chat-server/internal/entity"

	"gorm.io/gorm"
)

type SystemRepository interface {
	Ensure() (*entity.SystemState, error)
	GetSystemState() (*entity.SystemState, error)
}

type GormSystemRepository struct {
	db *gorm.DB
}

func NewGormSystemRepository(db *gorm.DB) SystemRepository {
	return &GormSystemRepository{db}
}

// Ensure returns the system state row, creating it on first start
func (g *GormSystemRepository) Ensure() (*entity.SystemState, error) {
	var state entity.SystemState
	err := g.db.Where(entity.SystemState{ID: 1}).Attrs(entity.SystemState{NextDialogID: 1}).FirstOrCreate(&state).Error
	return &state, translate(err, "systemRepo.Ensure")
}

func (g *GormSystemRepository) GetSystemState() (*entity.SystemState, error) {
	var state entity.SystemState
	err := g.db.First(&state, 1).Error
	return &state, translate(err, "systemRepo.GetSystemState")
}
