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

type RequestRepository interface {
	Create(request *entity.AddRequest) error
	Exists(from, to string) (bool, error)

	Delete(from, to string) (bool, error)
	DeleteBetween(a, b string) error
	DeleteInvolving(name string) error

	Incoming(to string) ([]entity.AddRequest, error)
	Outgoing(from string) ([]entity.AddRequest, error)
	Peers(name string) ([]string, error)
}

type GormRequestRepository struct {
	db *gorm.DB
}

func NewGormRequestRepository(db *gorm.DB) RequestRepository {
	return &GormRequestRepository{db}
}

// Create inserts a pending request. A request already pending for the same ordered pair is a Conflict.
func (repo *GormRequestRepository) Create(request *entity.AddRequest) error {
	return translate(repo.db.Create(request).Error, "requestRepo.Create")
}

func (repo *GormRequestRepository) Exists(from, to string) (bool, error) {
	var n int64
	err := repo.db.Model(&entity.AddRequest{}).Where("from_user = ? AND to_user = ?", from, to).Count(&n).Error
	return n > 0, translate(err, "requestRepo.Exists")
}

// Delete removes the request in the from->to direction only, reporting whether it existed
func (repo *GormRequestRepository) Delete(from, to string) (bool, error) {
	res := repo.db.Where("from_user = ? AND to_user = ?", from, to).Delete(&entity.AddRequest{})
	return res.RowsAffected > 0, translate(res.Error, "requestRepo.Delete")
}

func (repo *GormRequestRepository) DeleteBetween(a, b string) error {
	err := repo.db.Where("(from_user = ? AND to_user = ?) OR (from_user = ? AND to_user = ?)", a, b, b, a).Delete(&entity.AddRequest{}).Error
	return translate(err, "requestRepo.DeleteBetween")
}

func (repo *GormRequestRepository) DeleteInvolving(name string) error {
	err := repo.db.Where("from_user = ? OR to_user = ?", name, name).Delete(&entity.AddRequest{}).Error
	return translate(err, "requestRepo.DeleteInvolving")
}

func (repo *GormRequestRepository) Incoming(to string) ([]entity.AddRequest, error) {
	var requests []entity.AddRequest
	err := repo.db.Where("to_user = ?", to).Order("created_at, from_user").Find(&requests).Error
	return requests, translate(err, "requestRepo.Incoming")
}

func (repo *GormRequestRepository) Outgoing(from string) ([]entity.AddRequest, error) {
	var requests []entity.AddRequest
	err := repo.db.Where("from_user = ?", from).Order("created_at, to_user").Find(&requests).Error
	return requests, translate(err, "requestRepo.Outgoing")
}

// Peers lists everyone with a pending request to or from name
func (repo *GormRequestRepository) Peers(name string) ([]string, error) {
	incoming, err := repo.Incoming(name)
	if err != nil {
		return nil, err
	}
	outgoing, err := repo.Outgoing(name)
	if err != nil {
		return nil, err
	}
	peers := make([]string, 0, len(incoming)+len(outgoing))
	for _, r := range incoming {
		peers = append(peers, r.FromUser)
	}
	for _, r := range outgoing {
		peers = append(peers, r.ToUser)
	}
	return peers, nil
}
