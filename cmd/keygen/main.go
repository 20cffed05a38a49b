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
	"flag"
	"fmt"
	"os"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/channel"
	"github.com/MoarCatz/chat-server/internal/config"
	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/nlog"
)

// keygen creates the server key pair clients wrap their request keys with
func main() {
	folder := flag.String("config", ".", "folder holding the .cfg and .env files")
	force := flag.Bool("force", false, "replace the server key if one is already stored")
	flag.Parse()

	if err := run(*folder, *force, nlog.NewWriterLogger(os.Stderr)); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
}

func run(folder string, force bool, logger nlog.Logger) error {
	cfg, err := config.LoadConfig(folder)
	if err != nil {
		return err
	}
	store, err := data.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	keys := store.Read(context.Background()).Keys
	_, err = keys.Get()
	switch {
	case err == nil && !force:
		return fmt.Errorf("a server key is already stored, use -force to replace it")
	case err != nil && apperr.KindOf(err) != apperr.KindNotFound:
		return err
	}

	key, err := channel.GenerateKeyPair(cfg.ServerKeyBits)
	if err != nil {
		return err
	}
	if err := channel.StoreServerKey(keys, key); err != nil {
		return err
	}
	logger.Logf("Stored a %d bit server key, fingerprint %s", cfg.ServerKeyBits, channel.Fingerprint(&key.PublicKey))
	return nil
}
