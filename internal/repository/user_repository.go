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

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(user *entity.User) error

	Delete(name string) error

	GetForLogin(name string) (*entity.User, error)
	Exists(name string) (bool, error)
	Names() ([]string, error)

	Lock(names ...string) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db}
}

// Create inserts the user together with its secret. A taken name is a Conflict.
func (repo *GormUserRepository) Create(user *entity.User) error {
	return translate(repo.db.Create(user).Error, "userRepo.Create")
}

// Delete removes the user and its secret
func (repo *GormUserRepository) Delete(name string) error {
	if err := repo.db.Where("user_name = ?", name).Delete(&entity.UserSecret{}).Error; err != nil {
		return translate(err, "userRepo.Delete.Secret")
	}
	res := repo.db.Where("name = ?", name).Delete(&entity.User{})
	if res.Error != nil {
		return translate(res.Error, "userRepo.Delete")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user " + name + " does not exist")
	}
	return nil
}

// GetForLogin loads the user with its password hash
func (repo *GormUserRepository) GetForLogin(name string) (*entity.User, error) {
	var user entity.User
	err := repo.db.Preload("Secret").Where("name = ?", name).First(&user).Error
	return &user, translate(err, "userRepo.GetForLogin")
}

func (repo *GormUserRepository) Exists(name string) (bool, error) {
	var n int64
	err := repo.db.Model(&entity.User{}).Where("name = ?", name).Count(&n).Error
	return n > 0, translate(err, "userRepo.Exists")
}

// Names lists every registered user, alphabetically
func (repo *GormUserRepository) Names() ([]string, error) {
	var names []string
	err := repo.db.Model(&entity.User{}).Order("name").Pluck("name", &names).Error
	return names, translate(err, "userRepo.Names")
}

// Lock takes row locks FOR UPDATE on the named users until the transaction ends.
// Rows are locked in name order, so two transactions locking the same pair can not deadlock.
func (repo *GormUserRepository) Lock(names ...string) error {
	names = slices.Compact(slices.Sorted(slices.Values(names)))
	var locked []string
	err := repo.db.Model(&entity.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name IN ?", names).
		Order("name").
		Pluck("name", &locked).Error
	if err != nil {
		return translate(err, "userRepo.Lock")
	}
	for _, name := range names {
		if !slices.Contains(locked, name) {
			return apperr.NotFound("user " + name + " does not exist")
		}
	}
	return nil
}
