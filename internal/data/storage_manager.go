/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package data

import (
	"context"
	"fmt"
	"time"

	"github.com/MoarCatz/chat-server/internal/config"
	"github.com/MoarCatz/chat-server/internal/entity"
	"github.com/MoarCatz/chat-server/internal/nlog"
	"github.com/MoarCatz/chat-server/internal/repository"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Repositories is the set of repositories bound to one *gorm.DB, either the pool or a running transaction.
// Helpers that take a *Repositories compose into a caller's transaction without knowing about it.
type Repositories struct {
	System   repository.SystemRepository
	Users    repository.UserRepository
	Profiles repository.ProfileRepository
	Sessions repository.SessionRepository
	Relation repository.RelationRepository
	Requests repository.RequestRepository
	Dialogs  repository.DialogRepository
	Messages repository.MessageRepository
	Keys     repository.ServerKeyRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		System:   repository.NewGormSystemRepository(db),
		Users:    repository.NewGormUserRepository(db),
		Profiles: repository.NewGormProfileRepository(db),
		Sessions: repository.NewGormSessionRepository(db),
		Relation: repository.NewGormRelationRepository(db),
		Requests: repository.NewGormRequestRepository(db),
		Dialogs:  repository.NewGormDialogRepository(db),
		Messages: repository.NewGormMessageRepository(db),
		Keys:     repository.NewGormServerKeyRepository(db),
	}
}

// Storage manager gathers all the repositories needed for the chat system in a single container.
type StorageManager struct {
	db *gorm.DB
}

// NewStorageManager wraps an already migrated database, creating the system state row if missing
func NewStorageManager(db *gorm.DB) (*StorageManager, error) {
	s := &StorageManager{db: db}
	if _, err := NewRepositories(db).System.Ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

// Read returns repositories outside of any transaction.
// Never call it from inside Transaction: with SQLite the pool holds a single connection.
func (s *StorageManager) Read(ctx context.Context) *Repositories {
	return NewRepositories(s.db.WithContext(ctx))
}

// Transaction runs fn as one atomic commit unit; a non-nil error from fn rolls everything back
func (s *StorageManager) Transaction(ctx context.Context, fn func(*Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

func (s *StorageManager) DB() *gorm.DB {
	return s.db
}

func (s *StorageManager) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormWriter lets gorm's logger write into a subsystem logger
type gormWriter struct {
	logger nlog.Logger
}

func (w gormWriter) Printf(format string, v ...any) {
	w.logger.Logf(format, v...)
}

func gormConfig(logger nlog.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(gormWriter{logger}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// OpenSQLite opens (or creates) the SQLite file at path and migrates it
func OpenSQLite(path string, logger nlog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), gormConfig(logger))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection turns lock contention into queueing.
	sqlDB.SetMaxOpenConns(1)
	return db, migrate(db)
}

// OpenPostgres connects through pgx to dsn and migrates the schema
func OpenPostgres(dsn string, logger nlog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(logger))
	if err != nil {
		return nil, err
	}
	return db, migrate(db)
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(entity.All()...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Open picks the dialector the configuration asks for and returns a ready StorageManager
func Open(cfg *config.Config, logger nlog.Logger) (*StorageManager, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err = OpenSQLite(cfg.DBPath(), logger)
	case config.DriverPostgres:
		db, err = OpenPostgres(cfg.DatabaseURL, logger)
	default:
		err = fmt.Errorf("unknown db-driver %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}
	return NewStorageManager(db)
}
