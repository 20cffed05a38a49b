/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/entity"

	"gorm.io/gorm"
)

type ProfileRepository interface {
	Create(profile *entity.Profile) error
	Get(name string) (*entity.Profile, error)
	UpdateColumn(name, column string, value any) error
	SetImage(name string, image []byte) error
	Delete(name string) error
}

type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &GormProfileRepository{db}
}

func (repo *GormProfileRepository) Create(profile *entity.Profile) error {
	return translate(repo.db.Create(profile).Error, "profileRepo.Create")
}

func (repo *GormProfileRepository) Get(name string) (*entity.Profile, error) {
	var profile entity.Profile
	err := repo.db.Where("name = ?", name).First(&profile).Error
	return &profile, translate(err, "profileRepo.Get")
}

// UpdateColumn sets a single column; column must come from entity.ProfileSection.Column
func (repo *GormProfileRepository) UpdateColumn(name, column string, value any) error {
	res := repo.db.Model(&entity.Profile{}).Where("name = ?", name).Update(column, value)
	if res.Error != nil {
		return translate(res.Error, "profileRepo.UpdateColumn")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("profile " + name + " does not exist")
	}
	return nil
}

func (repo *GormProfileRepository) SetImage(name string, image []byte) error {
	return repo.UpdateColumn(name, "image", image)
}

func (repo *GormProfileRepository) Delete(name string) error {
	return translate(repo.db.Where("name = ?", name).Delete(&entity.Profile{}).Error, "profileRepo.Delete")
}
