/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/data/datatest"
	"github.com/MoarCatz/chat-server/internal/nlog"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	ctx      context.Context
	store    *data.StorageManager
	sessions SessionService
	graph    GraphService
	dialogs  DialogService
	accounts AccountService
	keys     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := datatest.Open(t)
	sessions := NewLocalSessionService(store, nlog.Discard)
	return &fixture{
		ctx:      context.Background(),
		store:    store,
		sessions: sessions,
		graph:    NewLocalGraphService(store, nlog.Discard),
		dialogs:  NewLocalDialogService(store, nlog.Discard),
		accounts: NewLocalAccountService(store, sessions, bcrypt.MinCost, nlog.Discard),
	}
}

// nextKey returns a distinct, well formed public key
func (f *fixture) nextKey() string {
	f.keys++
	return fmt.Sprintf("%d:65537", 1000003+2*f.keys)
}

func addressOf(name string) string {
	return name + ".example:4000"
}

func (f *fixture) register(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, f.accounts.Register(f.ctx, Registration{
			Name:         name,
			PasswordHash: "hash-of-" + name,
			PublicKey:    f.nextKey(),
			Address:      addressOf(name),
			Avatar:       []byte("png"),
		}))
	}
}

func (f *fixture) befriend(t *testing.T, a, b string) {
	t.Helper()
	require.NoError(t, f.graph.SendAddRequest(f.ctx, a, b, "hi"))
	require.NoError(t, f.graph.ConfirmAddRequest(f.ctx, b, a))
}
