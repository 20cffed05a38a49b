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

// RelationRepository stores every relation set row-per-edge:
// adding and removing touch one row, so concurrent writers on the same owner never lose each other's updates.
type RelationRepository interface {
	Add(owner string, kind entity.RelationKind, target string) error
	Remove(owner string, kind entity.RelationKind, target string) error
	Has(owner string, kind entity.RelationKind, target string) (bool, error)

	List(owner string, kind entity.RelationKind) ([]string, error)
	Owners(kind entity.RelationKind, target string) ([]string, error)

	DeleteOwnedBy(owner string) error
	DeleteTargeting(target string, kinds ...entity.RelationKind) error
}

type GormRelationRepository struct {
	db *gorm.DB
}

func NewGormRelationRepository(db *gorm.DB) RelationRepository {
	return &GormRelationRepository{db}
}

// Add is a no-op when the edge already exists
func (repo *GormRelationRepository) Add(owner string, kind entity.RelationKind, target string) error {
	rel := entity.Relation{Owner: owner, Kind: kind, Target: target, CreatedAt: time.Now()}
	err := repo.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rel).Error
	return translate(err, "relationRepo.Add")
}

// Remove is a no-op when the edge is absent
func (repo *GormRelationRepository) Remove(owner string, kind entity.RelationKind, target string) error {
	err := repo.db.Where("owner = ? AND kind = ? AND target = ?", owner, kind, target).Delete(&entity.Relation{}).Error
	return translate(err, "relationRepo.Remove")
}

func (repo *GormRelationRepository) Has(owner string, kind entity.RelationKind, target string) (bool, error) {
	var n int64
	err := repo.db.Model(&entity.Relation{}).Where("owner = ? AND kind = ? AND target = ?", owner, kind, target).Count(&n).Error
	return n > 0, translate(err, "relationRepo.Has")
}

// List returns the owner's set of the given kind, sorted
func (repo *GormRelationRepository) List(owner string, kind entity.RelationKind) ([]string, error) {
	var targets []string
	err := repo.db.Model(&entity.Relation{}).Where("owner = ? AND kind = ?", owner, kind).Order("target").Pluck("target", &targets).Error
	return targets, translate(err, "relationRepo.List")
}

// Owners is the reverse lookup: everyone holding target in their set of the given kind
func (repo *GormRelationRepository) Owners(kind entity.RelationKind, target string) ([]string, error) {
	var owners []string
	err := repo.db.Model(&entity.Relation{}).Where("kind = ? AND target = ?", kind, target).Order("owner").Pluck("owner", &owners).Error
	return owners, translate(err, "relationRepo.Owners")
}

func (repo *GormRelationRepository) DeleteOwnedBy(owner string) error {
	return translate(repo.db.Where("owner = ?", owner).Delete(&entity.Relation{}).Error, "relationRepo.DeleteOwnedBy")
}

// DeleteTargeting removes target from every owner's sets of the given kinds.
// Kinds are mandatory, dialog targets share the namespace of user names.
func (repo *GormRelationRepository) DeleteTargeting(target string, kinds ...entity.RelationKind) error {
	if len(kinds) == 0 {
		return nil
	}
	err := repo.db.Where("target = ? AND kind IN ?", target, kinds).Delete(&entity.Relation{}).Error
	return translate(err, "relationRepo.DeleteTargeting")
}
