/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package nlog

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	NewWriterLogger(&buf).Logf("user %s logged in", "alice")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "user alice logged in", entry["msg"])
}

func TestServerLoggerWritesPerSubsystem(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewServerLogger(dir, true)
	require.NoError(t, err)

	graph, err := logger.RegisterSubsystem("graph")
	require.NoError(t, err)
	_, err = logger.RegisterSubsystem("dialog")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		logger.Run(ctx)
		close(done)
	}()

	graph.Logf("blacklisted %s", "bob")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	content, err := os.ReadFile(filepath.Join(dir, "graph.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `"subsystem":"graph"`)
	assert.Contains(t, string(content), "blacklisted bob")

	other, err := os.ReadFile(filepath.Join(dir, "dialog.log"))
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(other)))
}

func TestServerLoggerDisabled(t *testing.T) {
	logger, err := NewServerLogger(t.TempDir(), false)
	require.NoError(t, err)
	sub, err := logger.RegisterSubsystem("session")
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		sub.Logf("ignored %d", i)
	}
	assert.Zero(t, len(logger.inbox))
	assert.Zero(t, logger.Dropped())

	logger.EnableLogging()
	for i := 0; i < 700; i++ {
		sub.Logf("queued %d", i)
	}
	assert.Equal(t, cap(logger.inbox), len(logger.inbox))
	assert.Equal(t, uint64(100), logger.Dropped())
	logger.CloseAll()
}

func TestGetSubsystemLoggerUnknown(t *testing.T) {
	logger, err := NewServerLogger(t.TempDir(), true)
	require.NoError(t, err)

	_, err = logger.GetSubsystemLogger("fanout")
	assert.Error(t, err)
}
