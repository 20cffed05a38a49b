/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package fanout pushes graph-change and new-message markers to the live connections of a user.
// Delivery is best effort: offline users get nothing, a full queue drops the event, nothing is retried.
package fanout

import (
	"context"
	"strconv"
	"sync"

	"github.com/MoarCatz/chat-server/internal/metrics"
	"github.com/MoarCatz/chat-server/internal/nlog"

	"github.com/google/uuid"
)

// Connection is a live client connection able to push a frame
type Connection interface {
	Send(payload []byte, binary bool) error
}

// ConnectionRegistry maps a network address to its live connection, owned by the accept loop
type ConnectionRegistry interface {
	Lookup(address string) (Connection, bool)
}

// AddressResolver returns the addresses a user currently holds sessions at
type AddressResolver interface {
	AddressesOf(ctx context.Context, user string) ([]string, error)
}

// Notifier is the capability the request processor is given to reach other users
type Notifier interface {
	Notify(ctx context.Context, user string, code int)
}

type job struct {
	id      string
	user    string
	address string
	code    int
}

// Fanout is a Notifier backed by a bounded queue and a pool of delivery workers
type Fanout struct {
	resolver AddressResolver
	registry ConnectionRegistry
	logger   nlog.Logger
	metrics  metrics.Recorder

	workers int
	jobs    chan job
	wg      sync.WaitGroup

	lock    sync.RWMutex
	started bool
	stopped bool
}

func NewFanout(resolver AddressResolver, registry ConnectionRegistry, workers, queueSize int, logger nlog.Logger, recorder metrics.Recorder) *Fanout {
	return &Fanout{
		resolver: resolver,
		registry: registry,
		logger:   logger,
		metrics:  recorder,
		workers:  workers,
		jobs:     make(chan job, queueSize),
	}
}

func (f *Fanout) Logf(format string, v ...any) {
	f.logger.Logf(format, v...)
}

// Start launches the worker pool; calling it twice has no effect
func (f *Fanout) Start() {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.started || f.stopped {
		return
	}
	f.started = true
	for i := 0; i < f.workers; i++ {
		f.wg.Add(1)
		go f.worker(i)
	}
}

// Stop refuses new events, lets the workers deliver what is already queued and waits for them
func (f *Fanout) Stop() {
	f.lock.Lock()
	if f.stopped {
		f.lock.Unlock()
		return
	}
	f.stopped = true
	close(f.jobs)
	f.lock.Unlock()
	f.wg.Wait()
}

// Notify resolves the user's sessions now and queues one delivery per address.
// It never waits on a recipient's transport.
func (f *Fanout) Notify(ctx context.Context, user string, code int) {
	addresses, err := f.resolver.AddressesOf(ctx, user)
	if err != nil {
		f.Logf("Cannot resolve the sessions of %s {%v}", user, err)
		f.metrics.RecordNotification(metrics.NotifyFailed)
		return
	}
	if len(addresses) == 0 {
		f.metrics.RecordNotification(metrics.NotifyOffline)
		return
	}

	f.lock.RLock()
	defer f.lock.RUnlock()
	for _, address := range addresses {
		if f.stopped {
			f.metrics.RecordNotification(metrics.NotifyDropped)
			continue
		}
		j := job{id: uuid.New().String(), user: user, address: address, code: code}
		select {
		case f.jobs <- j:
		default:
			f.Logf("Queue full, dropping notification %s (%d) for %s at %s", j.id, code, user, address)
			f.metrics.RecordNotification(metrics.NotifyDropped)
		}
	}
}

func (f *Fanout) worker(id int) {
	defer f.wg.Done()
	for j := range f.jobs {
		f.deliver(id, j)
	}
}

func (f *Fanout) deliver(worker int, j job) {
	conn, ok := f.registry.Lookup(j.address)
	if !ok {
		f.metrics.RecordNotification(metrics.NotifyOffline)
		return
	}
	if err := conn.Send([]byte(strconv.Itoa(j.code)), true); err != nil {
		f.Logf("[worker %d] Notification %s to %s at %s failed {%v}", worker, j.id, j.user, j.address, err)
		f.metrics.RecordNotification(metrics.NotifyFailed)
		return
	}
	f.metrics.RecordNotification(metrics.NotifyDelivered)
}
