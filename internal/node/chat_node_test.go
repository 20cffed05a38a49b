/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package node

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MoarCatz/chat-server/internal/channel"
	"github.com/MoarCatz/chat-server/internal/config"
	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/nlog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.BcryptCost = bcrypt.MinCost
	cfg.ServerKeyBits = 1024
	return cfg
}

func storeKey(t *testing.T, cfg *config.Config) {
	t.Helper()
	store, err := data.Open(cfg, nlog.Discard)
	require.NoError(t, err)
	key, err := channel.GenerateKeyPair(cfg.ServerKeyBits)
	require.NoError(t, err)
	require.NoError(t, channel.StoreServerKey(store.Read(context.Background()).Keys, key))
	require.NoError(t, store.Close())
}

func TestNewChatNodeNeedsServerKey(t *testing.T) {
	cfg := testConfig(t)
	_, err := NewChatNode(cfg, prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keygen")
}

func TestChatNodeLifecycle(t *testing.T) {
	cfg := testConfig(t)
	storeKey(t, cfg)

	reg := prometheus.NewRegistry()
	n, err := NewChatNode(cfg, reg)
	require.NoError(t, err)
	assert.False(t, n.Ready())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, n.Start(ctx))
	assert.True(t, n.Ready())
	assert.Error(t, n.Start(ctx))

	resp, err := n.Processor().Register(ctx, "r", "10.0.0.1:4000", "alice", "pw", "1000003:65537")
	require.NoError(t, err)
	assert.Equal(t, `3,"r"`, string(resp))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	assert.Contains(t, names, "chat_requests_total")

	require.NoError(t, n.Stop())
	assert.False(t, n.Ready())
	assert.Error(t, n.Stop())

	for _, subsystem := range subsystems {
		_, err := os.Stat(filepath.Join(cfg.LogPath(), subsystem+".log"))
		assert.NoError(t, err, subsystem)
	}
	mainLog, err := os.ReadFile(filepath.Join(cfg.LogPath(), "main.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(mainLog), n.ID().String()))
}
