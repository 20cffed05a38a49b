/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package processor

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MoarCatz/chat-server/internal/channel"
	"github.com/MoarCatz/chat-server/internal/data/datatest"
	"github.com/MoarCatz/chat-server/internal/metrics"
	"github.com/MoarCatz/chat-server/internal/nlog"
	"github.com/MoarCatz/chat-server/internal/service"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	keyOnce   sync.Once
	serverKey *rsa.PrivateKey
	clientKey *rsa.PrivateKey
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		if serverKey, err = channel.GenerateKeyPair(1024); err != nil {
			panic(err)
		}
		if clientKey, err = channel.GenerateKeyPair(1024); err != nil {
			panic(err)
		}
	})
	return serverKey, clientKey
}

type notification struct {
	user string
	code int
}

type MockNotifier struct {
	lock sync.Mutex
	sent []notification
}

func (m *MockNotifier) Notify(_ context.Context, user string, code int) {
	m.lock.Lock()
	m.sent = append(m.sent, notification{user, code})
	m.lock.Unlock()
}

// Take returns what was pushed since the last call
func (m *MockNotifier) Take() []notification {
	m.lock.Lock()
	defer m.lock.Unlock()
	sent := m.sent
	m.sent = nil
	return sent
}

type MockRecorder struct {
	metrics.Nop
	lock     sync.Mutex
	outcomes map[string][]string
}

func (m *MockRecorder) RecordRequest(kind, outcome string, _ time.Duration) {
	m.lock.Lock()
	if m.outcomes == nil {
		m.outcomes = map[string][]string{}
	}
	m.outcomes[kind] = append(m.outcomes[kind], outcome)
	m.lock.Unlock()
}

func (m *MockRecorder) Outcomes(kind string) []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.outcomes[kind]
}

type harness struct {
	ctx      context.Context
	p        *Processor
	notifier *MockNotifier
	recorder *MockRecorder
	keys     int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	server, _ := testKeys(t)
	store := datatest.Open(t)
	sessions := service.NewLocalSessionService(store, nlog.Discard)
	h := &harness{
		ctx:      context.Background(),
		notifier: &MockNotifier{},
		recorder: &MockRecorder{},
	}
	h.p = NewProcessor(Services{
		Channel:  channel.NewCryptoChannel(server, nlog.Discard, metrics.Nop{}),
		Sessions: sessions,
		Graph:    service.NewLocalGraphService(store, nlog.Discard),
		Dialogs:  service.NewLocalDialogService(store, nlog.Discard),
		Accounts: service.NewLocalAccountService(store, sessions, bcrypt.MinCost, nlog.Discard),
		Notifier: h.notifier,
		Avatar:   StaticAvatar("png"),
	}, h.recorder, nlog.Discard)
	return h
}

func (h *harness) nextKey() string {
	h.keys++
	return fmt.Sprintf("%d:65537", 2000003+2*h.keys)
}

func at(name string) string {
	return name + ":5000"
}

// signUp registers every name with a session at at(name)
func (h *harness) signUp(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		resp, err := h.p.Register(h.ctx, "signup", at(name), name, "pw-"+name, h.nextKey())
		require.NoError(t, err)
		require.Equal(t, `3,"signup"`, string(resp))
	}
	h.notifier.Take()
}

func (h *harness) befriend(t *testing.T, a, b string) {
	t.Helper()
	_, err := h.p.SendRequest(h.ctx, "req", at(a), b, "")
	require.NoError(t, err)
	_, err = h.p.ConfirmAddRequest(h.ctx, "req", at(b), a)
	require.NoError(t, err)
	h.notifier.Take()
}
