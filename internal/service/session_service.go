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
	"crypto/rsa"
	"time"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/channel"
	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/entity"
	"github.com/MoarCatz/chat-server/internal/nlog"
)

// Registry of live sessions, keyed by the network address of the client.
// The address is the only thing telling who is making a request once the session exists.
type SessionService interface {
	Open(ctx context.Context, name, publicKey, address string) error // Binds address to name, with the client's public key
	Close(ctx context.Context, address string) error                  // Idempotent
	Touch(ctx context.Context, address string) error                  // Records activity, advisory only

	IdentityOf(ctx context.Context, address string) (string, error)
	PublicKeyOf(ctx context.Context, address string) (*rsa.PublicKey, error)

	AddressesOf(ctx context.Context, name string) ([]string, error)
	Online(ctx context.Context, names []string) (map[string]bool, error)
}

type localSessionService struct {
	store  *data.StorageManager
	logger nlog.Logger
}

func NewLocalSessionService(store *data.StorageManager, logger nlog.Logger) SessionService {
	return &localSessionService{
		store:  store,
		logger: logger,
	}
}

func (s *localSessionService) Logf(format string, v ...any) {
	s.logger.Logf(format, v...)
}

// openSession inserts the session inside the caller's transaction.
// Reopening the same (address, user, key) refreshes it; any other use of a bound address, or of a key
// already backing another session, is a Conflict.
func openSession(r *data.Repositories, name, publicKey, address string) error {
	public, err := channel.ParsePublicKey(publicKey)
	if err != nil {
		return err
	}
	fingerprint := channel.Fingerprint(public)

	existing, err := r.Sessions.Get(address)
	switch {
	case err == nil:
		if existing.UserName == name && existing.KeyFingerprint == fingerprint {
			return r.Sessions.Touch(address, time.Now().Unix())
		}
		return apperr.Conflict("address " + address + " already has a session")
	case apperr.KindOf(err) != apperr.KindNotFound:
		return err
	}

	err = r.Sessions.Create(&entity.Session{
		Address:        address,
		UserName:       name,
		PublicKey:      channel.FormatPublicKey(public),
		KeyFingerprint: fingerprint,
		LastActive:     time.Now().Unix(),
	})
	if apperr.KindOf(err) == apperr.KindConflict {
		return apperr.Conflict("public key already backs another session")
	}
	return err
}

func (s *localSessionService) Open(ctx context.Context, name, publicKey, address string) error {
	err := s.store.Transaction(ctx, func(r *data.Repositories) error {
		return openSession(r, name, publicKey, address)
	})
	if err != nil {
		s.Logf("Could not open a session for %s at %s {%v}", name, address, err)
		return storageError("session.Open", err)
	}
	s.Logf("Session opened for %s at %s", name, address)
	return nil
}

func (s *localSessionService) Close(ctx context.Context, address string) error {
	removed, err := s.store.Read(ctx).Sessions.Delete(address)
	if err != nil {
		return storageError("session.Close", err)
	}
	if removed {
		s.Logf("Session at %s closed", address)
	}
	return nil
}

func (s *localSessionService) Touch(ctx context.Context, address string) error {
	return storageError("session.Touch", s.store.Read(ctx).Sessions.Touch(address, time.Now().Unix()))
}

func (s *localSessionService) IdentityOf(ctx context.Context, address string) (string, error) {
	session, err := s.store.Read(ctx).Sessions.Get(address)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return "", apperr.NotFound("no session at " + address)
		}
		return "", storageError("session.IdentityOf", err)
	}
	return session.UserName, nil
}

func (s *localSessionService) PublicKeyOf(ctx context.Context, address string) (*rsa.PublicKey, error) {
	session, err := s.store.Read(ctx).Sessions.Get(address)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("no session at " + address)
		}
		return nil, storageError("session.PublicKeyOf", err)
	}
	return channel.ParsePublicKey(session.PublicKey)
}

func (s *localSessionService) AddressesOf(ctx context.Context, name string) ([]string, error) {
	addresses, err := s.store.Read(ctx).Sessions.AddressesOf(name)
	return addresses, storageError("session.AddressesOf", err)
}

func (s *localSessionService) Online(ctx context.Context, names []string) (map[string]bool, error) {
	online, err := s.store.Read(ctx).Sessions.Online(names)
	return online, storageError("session.Online", err)
}
