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

type SessionRepository interface {
	Create(session *entity.Session) error
	Get(address string) (*entity.Session, error)
	Touch(address string, at int64) error

	Delete(address string) (bool, error)
	DeleteByUser(name string) error

	AddressesOf(name string) ([]string, error)
	Online(names []string) (map[string]bool, error)
}

type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db}
}

// Create inserts the session. A taken address or key fingerprint is a Conflict.
func (repo *GormSessionRepository) Create(session *entity.Session) error {
	return translate(repo.db.Create(session).Error, "sessionRepo.Create")
}

func (repo *GormSessionRepository) Get(address string) (*entity.Session, error) {
	var session entity.Session
	err := repo.db.Where("address = ?", address).First(&session).Error
	return &session, translate(err, "sessionRepo.Get")
}

func (repo *GormSessionRepository) Touch(address string, at int64) error {
	err := repo.db.Model(&entity.Session{}).Where("address = ?", address).Update("last_active", at).Error
	return translate(err, "sessionRepo.Touch")
}

// Delete reports whether a session was bound to address
func (repo *GormSessionRepository) Delete(address string) (bool, error) {
	res := repo.db.Where("address = ?", address).Delete(&entity.Session{})
	return res.RowsAffected > 0, translate(res.Error, "sessionRepo.Delete")
}

func (repo *GormSessionRepository) DeleteByUser(name string) error {
	return translate(repo.db.Where("user_name = ?", name).Delete(&entity.Session{}).Error, "sessionRepo.DeleteByUser")
}

func (repo *GormSessionRepository) AddressesOf(name string) ([]string, error) {
	var addresses []string
	err := repo.db.Model(&entity.Session{}).Where("user_name = ?", name).Order("address").Pluck("address", &addresses).Error
	return addresses, translate(err, "sessionRepo.AddressesOf")
}

// Online returns the subset of names holding at least one session
func (repo *GormSessionRepository) Online(names []string) (map[string]bool, error) {
	online := make(map[string]bool, len(names))
	if len(names) == 0 {
		return online, nil
	}
	var found []string
	err := repo.db.Model(&entity.Session{}).Distinct("user_name").Where("user_name IN ?", names).Pluck("user_name", &found).Error
	if err != nil {
		return nil, translate(err, "sessionRepo.Online")
	}
	for _, name := range found {
		online[name] = true
	}
	return online, nil
}
