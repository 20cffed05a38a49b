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
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/MoarCatz/chat-server/internal/channel"
	"github.com/MoarCatz/chat-server/internal/config"
	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/fanout"
	"github.com/MoarCatz/chat-server/internal/metrics"
	"github.com/MoarCatz/chat-server/internal/nlog"
	"github.com/MoarCatz/chat-server/internal/processor"
	"github.com/MoarCatz/chat-server/internal/service"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var subsystems = []string{"main", "storage", "session", "graph", "dialog", "crypto", "fanout", "processor"}

// ChatNode holds the components of a chat server together.
// The accept loop registers live connections on Registry() and hands decoded requests to Processor().
type ChatNode struct {
	ready  atomic.Bool    // Is node ready?
	id     uuid.UUID      // Instance id, tags the logs of this run
	config *config.Config // Config struct

	ctx     context.Context    // Context
	cancel  context.CancelFunc // Cancel function
	logger  *nlog.ServerLogger // Logger component
	logDone chan struct{}      // Closed once the logger flushed and closed its files

	storageMan *data.StorageManager   // Storage manager
	registry   *fanout.MemoryRegistry // Live connections by address
	fanout     *fanout.Fanout         // Push notifications
	processor  *processor.Processor   // Request operations
	main       nlog.Logger            // Logger of the "main" subsystem
}

// NewChatNode opens the store, loads the server key and wires every component.
// It returns a pointer to said node if no problems arise. Otherwise, the pointer is nil and an appropriate error is returned
func NewChatNode(cfg *config.Config, reg prometheus.Registerer) (*ChatNode, error) {
	logger, err := nlog.NewServerLogger(cfg.LogPath(), cfg.EnableLogging)
	if err != nil {
		return nil, err
	}
	loggers := make(map[string]nlog.Logger, len(subsystems))
	for _, name := range subsystems {
		if loggers[name], err = logger.RegisterSubsystem(name); err != nil {
			logger.CloseAll()
			return nil, err
		}
	}

	storageMan, err := data.Open(cfg, loggers["storage"])
	if err != nil {
		logger.CloseAll()
		return nil, err
	}
	key, err := channel.LoadServerKey(storageMan.Read(context.Background()).Keys)
	if err != nil {
		storageMan.Close()
		logger.CloseAll()
		return nil, fmt.Errorf("no usable server key, run keygen first: %w", err)
	}

	collector := metrics.NewCollector(reg)
	sessions := service.NewLocalSessionService(storageMan, loggers["session"])
	registry := fanout.NewMemoryRegistry()
	fan := fanout.NewFanout(sessions, registry, cfg.NotifyWorkers, cfg.NotifyQueueSize, loggers["fanout"], collector)

	proc := processor.NewProcessor(processor.Services{
		Channel:  channel.NewCryptoChannel(key, loggers["crypto"], collector),
		Sessions: sessions,
		Graph:    service.NewLocalGraphService(storageMan, loggers["graph"]),
		Dialogs:  service.NewLocalDialogService(storageMan, loggers["dialog"]),
		Accounts: service.NewLocalAccountService(storageMan, sessions, cfg.BcryptCost, loggers["session"]),
		Notifier: fan,
		Avatar:   processor.FileAvatar{Path: cfg.AvatarPath},
	}, collector, loggers["processor"])

	n := &ChatNode{
		id:         uuid.New(),
		config:     cfg,
		logger:     logger,
		storageMan: storageMan,
		registry:   registry,
		fanout:     fan,
		processor:  proc,
		main:       loggers["main"],
	}
	n.main.Logf("Node %s is all set: driver{%s}, workers{%d}, queue{%d}", n.id, cfg.DBDriver, cfg.NotifyWorkers, cfg.NotifyQueueSize)
	return n, nil
}

// Start runs the logger and the notification workers until Stop is called or ctx is done
func (n *ChatNode) Start(ctx context.Context) error {
	if n.ready.Load() {
		return errors.New("node already started")
	}
	n.ctx, n.cancel = context.WithCancel(ctx)
	n.logDone = make(chan struct{})
	go func() {
		n.logger.Run(n.ctx)
		close(n.logDone)
	}()
	n.fanout.Start()
	n.ready.Store(true)
	n.main.Logf("Node %s started", n.id)
	return nil
}

// Stop drains pending notifications, flushes the logs and closes the store
func (n *ChatNode) Stop() error {
	if !n.ready.CompareAndSwap(true, false) {
		return errors.New("node is not running")
	}
	n.fanout.Stop()
	n.main.Logf("Node %s stopped", n.id)
	n.cancel()
	<-n.logDone
	return n.storageMan.Close()
}

func (n *ChatNode) Ready() bool { return n.ready.Load() }
func (n *ChatNode) ID() uuid.UUID { return n.id }
func (n *ChatNode) Processor() *processor.Processor { return n.processor }
func (n *ChatNode) Registry() *fanout.MemoryRegistry { return n.registry }
func (n *ChatNode) Storage() *data.StorageManager { return n.storageMan }

// EnableLogging enables the logging done by this node
func (n *ChatNode) EnableLogging() { n.logger.EnableLogging() }

// DisableLogging disables the logging done by this node
func (n *ChatNode) DisableLogging() { n.logger.DisableLogging() }
