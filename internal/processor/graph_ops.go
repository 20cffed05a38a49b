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

	"github.com/MoarCatz/chat-server/internal/service"
)

// presencePairs packs presence entries as (name, online) tuples
func presencePairs(list []service.Presence) [][]any {
	pairs := make([][]any, 0, len(list))
	for _, p := range list {
		pairs = append(pairs, []any{p.Name, p.Online})
	}
	return pairs
}

func requestTriples(list []service.PendingRequest) [][]any {
	triples := make([][]any, 0, len(list))
	for _, r := range list {
		triples = append(triples, []any{r.Name, r.Message, r.Online})
	}
	return triples
}

// SearchList answers with every user the caller could send an add request to
func (p *Processor) SearchList(ctx context.Context, requestID, address string) (resp []byte, err error) {
	defer p.track(ClientGetSearchList, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	list, err := p.graph.SearchList(ctx, nick)
	if err != nil {
		return nil, err
	}
	return reply(ServerSearchList, requestID, presencePairs(list))
}

// FriendsGroup answers with [favorites, online friends, offline friends, blacklist]
func (p *Processor) FriendsGroup(ctx context.Context, requestID, address string) (resp []byte, err error) {
	defer p.track(ClientFriendsGroup, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	group, err := p.graph.FriendsGroup(ctx, nick)
	if err != nil {
		return nil, err
	}
	return reply(ServerFriendsGroupResponse, requestID, [][][]any{
		presencePairs(group.Favorites),
		presencePairs(group.Online),
		presencePairs(group.Offline),
		presencePairs(group.Blacklist),
	})
}

// AddRequests answers with [incoming, outgoing] pending requests
func (p *Processor) AddRequests(ctx context.Context, requestID, address string) (resp []byte, err error) {
	defer p.track(ClientGetAddRequests, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	incoming, outgoing, err := p.graph.PendingRequests(ctx, nick)
	if err != nil {
		return nil, err
	}
	return reply(ServerAddRequests, requestID, [][][]any{requestTriples(incoming), requestTriples(outgoing)})
}

// graphOp resolves the caller, applies op against user and pushes code to user on success
func (p *Processor) graphOp(ctx context.Context, address, user string, op func(nick string) error, push ServerCode) error {
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return err
	}
	if err := op(nick); err != nil {
		return err
	}
	p.notify(ctx, push, user)
	return nil
}

func (p *Processor) AddToBlacklist(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientAddToBlacklist, time.Now(), &err)
	err = p.graphOp(ctx, address, user, func(nick string) error {
		return p.graph.Blacklist(ctx, nick, user)
	}, ServerFriendsGroupUpdate)
	if err != nil {
		return nil, err
	}
	return reply(ServerAddToBlacklistSucc, requestID)
}

func (p *Processor) RemoveFromBlacklist(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientRemoveFromBlacklist, time.Now(), &err)
	err = p.graphOp(ctx, address, user, func(nick string) error {
		return p.graph.Unblacklist(ctx, nick, user)
	}, ServerFriendsGroupUpdate)
	if err != nil {
		return nil, err
	}
	return reply(ServerRemoveFromBlacklistSucc, requestID)
}

func (p *Processor) DeleteFromFriends(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientDeleteFromFriends, time.Now(), &err)
	err = p.graphOp(ctx, address, user, func(nick string) error {
		return p.graph.Unfriend(ctx, nick, user)
	}, ServerFriendsGroupUpdate)
	if err != nil {
		return nil, err
	}
	return reply(ServerDeleteFromFriendsSucc, requestID)
}

func (p *Processor) SendRequest(ctx context.Context, requestID, address, user, message string) (resp []byte, err error) {
	defer p.track(ClientSendRequest, time.Now(), &err)
	err = p.graphOp(ctx, address, user, func(nick string) error {
		return p.graph.SendAddRequest(ctx, nick, user, message)
	}, ServerNewAddRequest)
	if err != nil {
		return nil, err
	}
	return reply(ServerSendRequestSucc, requestID)
}

// ConfirmAddRequest accepts the request user sent to the caller
func (p *Processor) ConfirmAddRequest(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientConfirmAddRequest, time.Now(), &err)
	err = p.graphOp(ctx, address, user, func(nick string) error {
		return p.graph.ConfirmAddRequest(ctx, nick, user)
	}, ServerAddRequestConfirm)
	if err != nil {
		return nil, err
	}
	return reply(ServerConfirmAddRequestSucc, requestID)
}

// DeclineAddRequest refuses the request user sent to the caller
func (p *Processor) DeclineAddRequest(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientDeclineAddRequest, time.Now(), &err)
	err = p.graphOp(ctx, address, user, func(nick string) error {
		return p.graph.DeclineAddRequest(ctx, nick, user)
	}, ServerAddRequestDecline)
	if err != nil {
		return nil, err
	}
	return reply(ServerDeclineAddRequestSucc, requestID)
}

// TakeRequestBack withdraws the request the caller sent to user
func (p *Processor) TakeRequestBack(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientTakeRequestBack, time.Now(), &err)
	err = p.graphOp(ctx, address, user, func(nick string) error {
		return p.graph.WithdrawAddRequest(ctx, nick, user)
	}, ServerFriendsGroupUpdate)
	if err != nil {
		return nil, err
	}
	return reply(ServerTakeRequestBackSucc, requestID)
}

func (p *Processor) AddToFavorites(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientAddToFavorites, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := p.graph.AddFavorite(ctx, nick, user); err != nil {
		return nil, err
	}
	return reply(ServerAddToFavoritesSucc, requestID)
}

func (p *Processor) RemoveFromFavorites(ctx context.Context, requestID, address, user string) (resp []byte, err error) {
	defer p.track(ClientRemoveFromFavorites, time.Now(), &err)
	nick, err := p.sessions.IdentityOf(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := p.graph.RemoveFavorite(ctx, nick, user); err != nil {
		return nil, err
	}
	return reply(ServerRemoveFromFavoritesSucc, requestID)
}
