/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package fanout

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MemoryRegistry is a concurrency-safe address to connection map
type MemoryRegistry struct {
	lock  sync.RWMutex
	conns map[string]Connection
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{conns: make(map[string]Connection)}
}

func (r *MemoryRegistry) Register(address string, conn Connection) {
	r.lock.Lock()
	r.conns[address] = conn
	r.lock.Unlock()
}

func (r *MemoryRegistry) Unregister(address string) {
	r.lock.Lock()
	delete(r.conns, address)
	r.lock.Unlock()
}

func (r *MemoryRegistry) Lookup(address string) (Connection, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	conn, ok := r.conns[address]
	return conn, ok
}

// WebSocketConn adapts a gorilla connection; writes are serialized since gorilla allows one writer at a time
type WebSocketConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	lock         sync.Mutex
}

func NewWebSocketConn(conn *websocket.Conn, writeTimeout time.Duration) *WebSocketConn {
	return &WebSocketConn{conn: conn, writeTimeout: writeTimeout}
}

func (w *WebSocketConn) Send(payload []byte, binary bool) error {
	messageType := websocket.TextMessage
	if binary {
		messageType = websocket.BinaryMessage
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	if w.writeTimeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
			return err
		}
	}
	return w.conn.WriteMessage(messageType, payload)
}
