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
	"encoding/base64"
	"time"

	"github.com/MoarCatz/chat-server/internal/entity"
	"github.com/MoarCatz/chat-server/internal/metrics"
	"github.com/MoarCatz/chat-server/internal/service"
)

// Register creates the account and opens its first session.
// Invalid names, taken names and unusable keys all answer with register_error.
func (p *Processor) Register(ctx context.Context, requestID, address, nick, passwordHash, publicKey string) ([]byte, error) {
	start := time.Now()
	avatar, err := p.avatar.Avatar()
	if err != nil {
		p.metrics.RecordRequest(ClientRegister.String(), metrics.OutcomeRejected, time.Since(start))
		return nil, err
	}

	err = p.accounts.Register(ctx, service.Registration{
		Name:         nick,
		PasswordHash: passwordHash,
		PublicKey:    publicKey,
		Address:      address,
		Avatar:       avatar,
	})
	switch {
	case err == nil:
		p.metrics.RecordRequest(ClientRegister.String(), metrics.OutcomeOK, time.Since(start))
		return reply(ServerRegisterSucc, requestID)
	case isSoft(err):
		p.metrics.RecordRequest(ClientRegister.String(), metrics.OutcomeSoftError, time.Since(start))
		return reply(ServerRegisterError, requestID)
	default:
		p.metrics.RecordRequest(ClientRegister.String(), metrics.OutcomeRejected, time.Since(start))
		return nil, err
	}
}

// Login opens a session for nick at address and tells its audience the user is online.
// The reply to a failed login has to be encrypted with EncryptFor, there is no session to read the key from.
func (p *Processor) Login(ctx context.Context, requestID, address, nick, passwordHash, publicKey string) ([]byte, error) {
	start := time.Now()
	err := p.accounts.Login(ctx, nick, passwordHash, publicKey, address)
	switch {
	case err == nil:
	case isSoft(err):
		p.Logf("Login of %s from %s refused {%v}", nick, address, err)
		p.metrics.RecordRequest(ClientLogin.String(), metrics.OutcomeSoftError, time.Since(start))
		return reply(ServerLoginError, requestID)
	default:
		p.metrics.RecordRequest(ClientLogin.String(), metrics.OutcomeRejected, time.Since(start))
		return nil, err
	}

	p.notifyAudience(ctx, nick)
	p.metrics.RecordRequest(ClientLogin.String(), metrics.OutcomeOK, time.Since(start))
	return reply(ServerLoginSucc, requestID)
}

func (p *Processor) Logout(ctx context.Context, requestID, address string) (resp []byte, err error) {
	defer p.track(ClientLogout, time.Now(), &err)
	nick, err := p.accounts.Logout(ctx, address)
	if err != nil {
		return nil, err
	}
	p.notifyAudience(ctx, nick)
	return reply(ServerLogoutSucc, requestID)
}

// DeleteProfile removes the caller's account. Every remaining user gets a graph update,
// any of them might have had the caller in a list.
func (p *Processor) DeleteProfile(ctx context.Context, requestID, address string) (resp []byte, err error) {
	defer p.track(ClientDeleteProfile, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	remaining, err := p.accounts.DeleteProfile(ctx, nick)
	if err != nil {
		return nil, err
	}
	p.notify(ctx, ServerFriendsGroupUpdate, remaining...)
	return reply(ServerDeleteProfileSucc, requestID)
}

func (p *Processor) ProfileInfo(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientGetProfileInfo, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	profile, err := p.accounts.Profile(ctx, nick, user)
	if err != nil {
		return nil, err
	}
	return reply(ServerProfileInfo, requestID,
		profile.Status,
		profile.Email,
		profile.Birthday,
		profile.About,
		base64.StdEncoding.EncodeToString(profile.Image),
	)
}

// ChangeProfileSection replaces one section of the caller's profile: 0 status, 1 email,
// 2 birthday (integers only), 3 about
func (p *Processor) ChangeProfileSection(ctx context.Context, requestID, address string, section int, value any) (resp []byte, err error) {
	defer p.track(ClientChangeProfileSection, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := p.accounts.ChangeSection(ctx, nick, entity.ProfileSection(section), value); err != nil {
		return nil, err
	}
	return reply(ServerChangeProfileSectionSucc, requestID)
}

// SetImage replaces the caller's profile image with the base64 encoded one
func (p *Processor) SetImage(ctx context.Context, requestID, address, encoded string) (resp []byte, err error) {
	defer p.track(ClientSetImage, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := p.accounts.SetImage(ctx, nick, encoded); err != nil {
		return nil, err
	}
	return reply(ServerSetImageSucc, requestID)
}
