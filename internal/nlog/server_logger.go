/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package nlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// Logger is something that can print, using Logf, a format string
type Logger interface {
	Logf(format string, v ...any)
}

// subsystemLogger is a logger that handles only one file out of all that are opened by its logger
type subsystemLogger struct {
	subsystem string
	logger    *ServerLogger
}

// Logf for a subsystem logger is just a wrap for the Logf of its internal logger, giving its only subsystem
func (s *subsystemLogger) Logf(format string, v ...any) {
	s.logger.Logf(s.subsystem, format, v...)
}

// logEntry is an helper struct that can be used to send a couple (subsystem, formatted string) onto the log channel
type logEntry struct {
	subsystem string
	formatted string
}

// ServerLogger writes JSON lines to one file per subsystem, from one single struct.
// It's safe to share amongst goroutines since it has an internal lock.
// Writes are queued and performed by Run, so a request never waits on the disk.
type ServerLogger struct {
	directory string

	fileMapper map[string]*os.File     // Maps a subsystem to an OS file (used only to be able to deallocate it later)
	logMapper  map[string]*slog.Logger // Maps a subsystem to the corresponding JSON logger

	lock    sync.RWMutex
	enabled atomic.Bool
	dropped atomic.Uint64 // Entries discarded because the inbox was full

	inbox chan logEntry // Log channel, formatted strings are sent here instead of directly writing to files
}

// NewServerLogger creates the log directory and returns a ServerLogger writing into it.
// When successful, error is nil
func NewServerLogger(directory string, logging bool) (*ServerLogger, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}
	s := &ServerLogger{
		directory:  directory,
		fileMapper: make(map[string]*os.File),
		logMapper:  make(map[string]*slog.Logger),
		inbox:      make(chan logEntry, 600),
	}
	s.enabled.Store(logging)
	return s, nil
}

// RegisterSubsystem registers a new subsystem, returning a Logger that writes to <directory>/<subsystem>.log.
// If successful, error is nil
func (s *ServerLogger) RegisterSubsystem(subsystem string) (Logger, error) {
	file, err := os.OpenFile(filepath.Join(s.directory, subsystem+".log"), os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if old, ok := s.fileMapper[subsystem]; ok {
		old.Close()
	}
	s.logMapper[subsystem] = slog.New(slog.NewJSONHandler(file, nil)).With("subsystem", subsystem)
	s.fileMapper[subsystem] = file
	return &subsystemLogger{subsystem, s}, nil
}

// GetSubsystemLogger retrieves a subsystem logger, if previously registered.
// If successful, error is nil
func (s *ServerLogger) GetSubsystemLogger(subsystem string) (Logger, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if _, ok := s.logMapper[subsystem]; !ok {
		return nil, fmt.Errorf("subsystem %q was not registered", subsystem)
	}
	return &subsystemLogger{subsystem, s}, nil
}

// EnableLogging enables the logging done by this logger
func (s *ServerLogger) EnableLogging() { s.enabled.Store(true) }

// DisableLogging disables the logging done by this logger
func (s *ServerLogger) DisableLogging() { s.enabled.Store(false) }

// Dropped returns how many entries were discarded because Run could not keep up
func (s *ServerLogger) Dropped() uint64 { return s.dropped.Load() }

// Logf formats a string using format and v, and appends it to the logging channel, alongside the subsystem it belongs to.
// A full channel drops the entry.
func (s *ServerLogger) Logf(subsystem, format string, v ...any) {
	if !s.enabled.Load() {
		return
	}
	select {
	case s.inbox <- logEntry{subsystem, fmt.Sprintf(format, v...)}:
	default:
		s.dropped.Add(1)
	}
}

// Run waits either on the log channel or ctx.Done()
// When ctx.Done(), pending entries are flushed and resources deallocated
// When a message arrives on the log channel, we write it accordingly
func (s *ServerLogger) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			s.CloseAll()
			return
		case msg := <-s.inbox:
			s.actualWrite(msg.subsystem, msg.formatted)
		}
	}
}

func (s *ServerLogger) drain() {
	for {
		select {
		case msg := <-s.inbox:
			s.actualWrite(msg.subsystem, msg.formatted)
		default:
			return
		}
	}
}

// actualWrite is the function that writes the string formatted in the subsystem's file
// When successful, error is nil
func (s *ServerLogger) actualWrite(subsystem, formatted string) error {
	s.lock.RLock()
	logger, ok := s.logMapper[subsystem]
	s.lock.RUnlock()

	if !ok {
		return fmt.Errorf("logger is not setup for subsystem %q", subsystem)
	}
	logger.Info(formatted)
	return nil
}

// CloseAll closes all the open files that the loggers are using
func (s *ServerLogger) CloseAll() {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, file := range s.fileMapper {
		file.Sync()
		file.Close()
	}
	clear(s.fileMapper)
	clear(s.logMapper)
}

// writerLogger logs synchronously to a writer, for tools and tests
type writerLogger struct {
	logger *slog.Logger
}

func (w *writerLogger) Logf(format string, v ...any) {
	w.logger.Info(fmt.Sprintf(format, v...))
}

// NewWriterLogger returns a Logger that writes JSON lines straight into w
func NewWriterLogger(w io.Writer) Logger {
	return &writerLogger{slog.New(slog.NewJSONHandler(w, nil))}
}

type discard struct{}

func (discard) Logf(string, ...any) {}

// Discard is a Logger that does nothing
var Discard Logger = discard{}
