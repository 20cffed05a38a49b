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
	"time"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/channel"
	"github.com/MoarCatz/chat-server/internal/fanout"
	"github.com/MoarCatz/chat-server/internal/metrics"
	"github.com/MoarCatz/chat-server/internal/nlog"
	"github.com/MoarCatz/chat-server/internal/service"
)

// Services groups what a Processor works on
type Services struct {
	Channel  *channel.CryptoChannel
	Sessions service.SessionService
	Graph    service.GraphService
	Dialogs  service.DialogService
	Accounts service.AccountService
	Notifier fanout.Notifier
	Avatar   AvatarSource
}

// Processor runs one client request to completion per call.
// Every reply is packed and starts with its server code and the request id it answers.
// Failures other than the soft register/login outcomes are returned as errors, the
// dispatcher decides how to report them.
type Processor struct {
	channel  *channel.CryptoChannel
	sessions service.SessionService
	graph    service.GraphService
	dialogs  service.DialogService
	accounts service.AccountService
	notifier fanout.Notifier
	avatar   AvatarSource
	metrics  metrics.Recorder
	logger   nlog.Logger
}

func NewProcessor(s Services, recorder metrics.Recorder, logger nlog.Logger) *Processor {
	return &Processor{
		channel:  s.Channel,
		sessions: s.Sessions,
		graph:    s.Graph,
		dialogs:  s.Dialogs,
		accounts: s.Accounts,
		notifier: s.Notifier,
		avatar:   s.Avatar,
		metrics:  recorder,
		logger:   logger,
	}
}

func (p *Processor) Logf(format string, v ...any) {
	p.logger.Logf(format, v...)
}

func reply(code ServerCode, requestID string, extra ...any) ([]byte, error) {
	return Pack(append([]any{int(code), requestID}, extra...)...)
}

// track records the outcome of a request once its handler returns
func (p *Processor) track(code ClientCode, start time.Time, errp *error) {
	outcome := metrics.OutcomeOK
	if *errp != nil {
		outcome = metrics.OutcomeRejected
		p.Logf("%s rejected {%v}", code, *errp)
	}
	p.metrics.RecordRequest(code.String(), outcome, time.Since(start))
}

func (p *Processor) notify(ctx context.Context, code ServerCode, users ...string) {
	for _, user := range users {
		p.notifier.Notify(ctx, user, int(code))
	}
}

// notifyAudience pushes a graph update to everyone showing nick's presence
func (p *Processor) notifyAudience(ctx context.Context, nick string) {
	audience, err := p.graph.PresenceAudience(ctx, nick)
	if err != nil {
		p.Logf("Cannot compute the audience of %s {%v}", nick, err)
		return
	}
	p.notify(ctx, ServerFriendsGroupUpdate, audience...)
}

// isSoft tells whether err is an expected client facing outcome rather than a server fault
func isSoft(err error) bool {
	return apperr.KindOf(err) != apperr.KindInternal
}

// ServerPublicKey is the key clients wrap their request keys with, in "<modulus>:<exponent>" form
func (p *Processor) ServerPublicKey() string {
	return p.channel.PublicKey()
}

// Decrypt recovers a request body from its two wire fields
func (p *Processor) Decrypt(cipherBody, wrappedKey string) ([]byte, error) {
	return p.channel.UnwrapRequest(cipherBody, wrappedKey)
}

// Encrypt prepares body for the client holding the session at address
func (p *Processor) Encrypt(ctx context.Context, address string, body []byte) (channel.Envelope, error) {
	public, err := p.sessions.PublicKeyOf(ctx, address)
	if err != nil {
		return channel.Envelope{}, err
	}
	return p.channel.WrapResponse(body, public)
}

// EncryptFor prepares body for a client that has no session yet, such as a failed login
func (p *Processor) EncryptFor(publicKey string, body []byte) (channel.Envelope, error) {
	public, err := channel.ParsePublicKey(publicKey)
	if err != nil {
		return channel.Envelope{}, err
	}
	return p.channel.WrapResponse(body, public)
}

// Verify checks that body was signed by the key of the session at address
func (p *Processor) Verify(ctx context.Context, address string, body, signature []byte) error {
	public, err := p.sessions.PublicKeyOf(ctx, address)
	if err != nil {
		return err
	}
	return p.channel.VerifySignature(body, signature, public)
}

// Touch records activity on the session at address
func (p *Processor) Touch(ctx context.Context, address string) error {
	return p.sessions.Touch(ctx, address)
}

// CleanUp closes whatever session was open at address after the connection dropped
func (p *Processor) CleanUp(ctx context.Context, address string) error {
	nick, err := p.sessions.IdentityOf(ctx, address)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if err := p.sessions.Close(ctx, address); err != nil {
		return err
	}
	p.Logf("Session of %s at %s cleaned up", nick, address)
	p.notifyAudience(ctx, nick)
	return nil
}
