/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package datatest opens throwaway SQLite stores for tests.
package datatest

import (
	"path/filepath"
	"testing"

	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/nlog"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenDB returns a migrated database living in t's temp dir
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := data.OpenSQLite(filepath.Join(t.TempDir(), "chat.db"), nlog.Discard)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Open returns a StorageManager over OpenDB
func Open(t *testing.T) *data.StorageManager {
	t.Helper()
	store, err := data.NewStorageManager(OpenDB(t))
	require.NoError(t, err)
	return store
}
