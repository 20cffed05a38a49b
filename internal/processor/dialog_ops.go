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
	"github.com/MoarCatz/chat-server/internal/entity"
	"github.com/MoarCatz/chat-server/internal/service"
)

// entryTuples packs log entries as (content, timestamp, sender) tuples
func entryTuples(entries []entity.DialogEntry) [][]any {
	tuples := make([][]any, 0, len(entries))
	for i := range entries {
		tuples = append(tuples, []any{entries[i].Content, entries[i].SentAt, entries[i].SenderTag()})
	}
	return tuples
}

// member resolves the caller and checks that dialog is one of its dialogs
func (p *Processor) member(ctx context.Context, address string, dialog any) (string, uint64, error) {
	id, err := service.ParseDialogID(dialog)
	if err != nil {
		return "", 0, err
	}
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return "", 0, err
	}
	if err := p.dialogs.MemberOf(ctx, nick, id); err != nil {
		return "", 0, err
	}
	return nick, id, nil
}

// CreateDialog answers with the id of the dialog between the caller and user, creating it if needed
func (p *Processor) CreateDialog(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientCreateDialog, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	id, err := p.dialogs.Create(ctx, nick, user)
	if err != nil {
		return nil, err
	}
	return reply(ServerCreateDialogSucc, requestID, id)
}

// DeleteDialog removes dialog for the caller, destroying it when nobody else is left in it
func (p *Processor) DeleteDialog(ctx context.Context, requestID, address string, dialog any) (resp []byte, err error) {
	defer p.track(ClientDeleteDialog, time.Now(), &err)
	nick, id, err := p.member(ctx, address, dialog)
	if err != nil {
		return nil, err
	}
	if _, err := p.dialogs.Remove(ctx, id, nick); err != nil {
		return nil, err
	}
	return reply(ServerDeleteDialogSucc, requestID, id)
}

// MessageHistory answers with the last count messages of dialog, all of them when count is 0
func (p *Processor) MessageHistory(ctx context.Context, requestID, address string, count int, dialog any) (resp []byte, err error) {
	defer p.track(ClientGetMessageHistory, time.Now(), &err)
	if count < 0 {
		return nil, apperr.Validation("message count can not be negative")
	}
	_, id, err := p.member(ctx, address, dialog)
	if err != nil {
		return nil, err
	}
	entries, err := p.dialogs.History(ctx, id, count)
	if err != nil {
		return nil, err
	}
	return reply(ServerMessageHistory, requestID, entryTuples(entries))
}

// SendMessage appends content to dialog and pushes new_message to the other member, if any.
// A member blacklisted by the other one can not write.
func (p *Processor) SendMessage(ctx context.Context, requestID, address, content string, timestamp int64, dialog any) (resp []byte, err error) {
	defer p.track(ClientSendMessage, time.Now(), &err)
	nick, id, err := p.member(ctx, address, dialog)
	if err != nil {
		return nil, err
	}
	peer, ok, err := p.dialogs.Counterpart(ctx, id, nick)
	if err != nil {
		return nil, err
	}
	if ok {
		blacklisted, err := p.graph.IsBlacklisted(ctx, nick, peer)
		if err != nil {
			return nil, err
		}
		if blacklisted {
			return nil, service.ErrBlacklisted
		}
	}
	if err := p.dialogs.Append(ctx, id, content, timestamp, nick); err != nil {
		return nil, err
	}
	if ok {
		p.notify(ctx, ServerNewMessage, peer)
	}
	return reply(ServerMessageReceived, requestID)
}

// SearchMessages answers with the messages of dialog containing text and sent within [lower, upper]
func (p *Processor) SearchMessages(ctx context.Context, requestID, address string, dialog any, text string, lower, upper int64) (resp []byte, err error) {
	defer p.track(ClientSearchMessages, time.Now(), &err)
	if lower > upper {
		return nil, apperr.Validation("time range lower bound is after its upper bound")
	}
	_, id, err := p.member(ctx, address, dialog)
	if err != nil {
		return nil, err
	}
	entries, err := p.dialogs.Search(ctx, id, text, lower, upper)
	if err != nil {
		return nil, err
	}
	return reply(ServerSearchMessagesResult, requestID, entryTuples(entries))
}
