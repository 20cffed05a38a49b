/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package main

import (
	"context"
	"crypto/rsa"
	"os"
	"path/filepath"
	"testing"

	"github.com/MoarCatz/chat-server/internal/channel"
	"github.com/MoarCatz/chat-server/internal/config"
	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/nlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeygen(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, ".cfg"), []byte(`{"server-key-bits": 1024, "enable-logging": false}`), 0644))

	require.NoError(t, run(folder, false, nlog.Discard))
	first := loadKey(t, folder)

	err := run(folder, false, nlog.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-force")
	assert.True(t, first.Equal(loadKey(t, folder)))

	require.NoError(t, run(folder, true, nlog.Discard))
	assert.False(t, first.Equal(loadKey(t, folder)))
}

func loadKey(t *testing.T, folder string) *rsa.PrivateKey {
	t.Helper()
	cfg, err := config.LoadConfig(folder)
	require.NoError(t, err)
	store, err := data.Open(cfg, nlog.Discard)
	require.NoError(t, err)
	defer store.Close()
	key, err := channel.LoadServerKey(store.Read(context.Background()).Keys)
	require.NoError(t, err)
	assert.Equal(t, 1024, key.N.BitLen())
	return key
}
