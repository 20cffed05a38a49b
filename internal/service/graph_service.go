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
	"slices"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/entity"
	"github.com/MoarCatz/chat-server/internal/nlog"
)

// Presence is a user name tagged with whether the user holds a live session
type Presence struct {
	Name   string
	Online bool
}

// FriendsGroup partitions the caller's relations for display
type FriendsGroup struct {
	Favorites []Presence
	Online    []Presence
	Offline   []Presence
	Blacklist []Presence
}

// PendingRequest is one side of an add request as seen by the caller
type PendingRequest struct {
	Name    string
	Message string
	Online  bool
}

// Service used for the social graph: friends, favorites, blacklist and pending add requests.
// Every composite operation is one transaction, every relation set is mutated element by element.
type GraphService interface {
	AddRelation(ctx context.Context, owner, target string, kind entity.RelationKind) error
	RemoveRelation(ctx context.Context, owner, target string, kind entity.RelationKind) error

	Blacklist(ctx context.Context, nick, user string) error   // nick blacklists user
	Unblacklist(ctx context.Context, nick, user string) error // nick forgives user
	Unfriend(ctx context.Context, nick, user string) error    // Symmetric
	AddFavorite(ctx context.Context, nick, user string) error // user must be a friend of nick
	RemoveFavorite(ctx context.Context, nick, user string) error

	SendAddRequest(ctx context.Context, nick, user, message string) error // nick asks user
	ConfirmAddRequest(ctx context.Context, nick, user string) error       // nick accepts the request user sent
	DeclineAddRequest(ctx context.Context, nick, user string) error       // nick refuses the request user sent
	WithdrawAddRequest(ctx context.Context, nick, user string) error      // nick takes back the request sent to user

	IsBlacklisted(ctx context.Context, nick, user string) (bool, error) // Is nick in user's blacklist?
	SearchList(ctx context.Context, nick string) ([]Presence, error)
	FriendsGroup(ctx context.Context, nick string) (*FriendsGroup, error)
	PendingRequests(ctx context.Context, nick string) (incoming, outgoing []PendingRequest, err error)
	PresenceAudience(ctx context.Context, nick string) ([]string, error)
}

type localGraphService struct {
	store  *data.StorageManager
	logger nlog.Logger
}

func NewLocalGraphService(store *data.StorageManager, logger nlog.Logger) GraphService {
	return &localGraphService{
		store:  store,
		logger: logger,
	}
}

func (g *localGraphService) Logf(format string, v ...any) {
	g.logger.Logf(format, v...)
}

func (g *localGraphService) tx(ctx context.Context, op string, fn func(*data.Repositories) error) error {
	if err := g.store.Transaction(ctx, fn); err != nil {
		g.Logf("%s rejected {%v}", op, err)
		return storageError(op, err)
	}
	return nil
}

func requireUser(r *data.Repositories, name string) error {
	exists, err := r.Users.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return userNotFound(name)
	}
	return nil
}

// isBlacklisted tells whether nick is in user's blacklist. Nobody blacklists themselves.
func isBlacklisted(r *data.Repositories, nick, user string) (bool, error) {
	if nick == user {
		return false, nil
	}
	return r.Relation.Has(user, entity.RelationBlacklist, nick)
}

func (g *localGraphService) AddRelation(ctx context.Context, owner, target string, kind entity.RelationKind) error {
	return g.tx(ctx, "graph.AddRelation", func(r *data.Repositories) error {
		if err := requireUser(r, owner); err != nil {
			return err
		}
		return r.Relation.Add(owner, kind, target)
	})
}

func (g *localGraphService) RemoveRelation(ctx context.Context, owner, target string, kind entity.RelationKind) error {
	return g.tx(ctx, "graph.RemoveRelation", func(r *data.Repositories) error {
		if err := requireUser(r, owner); err != nil {
			return err
		}
		return r.Relation.Remove(owner, kind, target)
	})
}

func (g *localGraphService) Blacklist(ctx context.Context, nick, user string) error {
	err := g.tx(ctx, "graph.Blacklist", func(r *data.Repositories) error {
		if err := requireUser(r, user); err != nil {
			return err
		}
		if nick == user {
			return ErrSelfTarget
		}
		if err := r.Relation.Remove(nick, entity.RelationFriend, user); err != nil {
			return err
		}
		if err := r.Relation.Remove(nick, entity.RelationFavorite, user); err != nil {
			return err
		}
		if err := r.Relation.Add(nick, entity.RelationBlacklist, user); err != nil {
			return err
		}
		return r.Requests.DeleteBetween(nick, user)
	})
	if err == nil {
		g.Logf("%s blacklisted %s", nick, user)
	}
	return err
}

func (g *localGraphService) Unblacklist(ctx context.Context, nick, user string) error {
	return g.tx(ctx, "graph.Unblacklist", func(r *data.Repositories) error {
		if err := requireUser(r, user); err != nil {
			return err
		}
		return r.Relation.Remove(nick, entity.RelationBlacklist, user)
	})
}

func (g *localGraphService) Unfriend(ctx context.Context, nick, user string) error {
	return g.tx(ctx, "graph.Unfriend", func(r *data.Repositories) error {
		if err := requireUser(r, user); err != nil {
			return err
		}
		for _, pair := range [][2]string{{nick, user}, {user, nick}} {
			if err := r.Relation.Remove(pair[0], entity.RelationFriend, pair[1]); err != nil {
				return err
			}
			if err := r.Relation.Remove(pair[0], entity.RelationFavorite, pair[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *localGraphService) AddFavorite(ctx context.Context, nick, user string) error {
	return g.tx(ctx, "graph.AddFavorite", func(r *data.Repositories) error {
		if err := requireUser(r, user); err != nil {
			return err
		}
		friends, err := r.Relation.Has(nick, entity.RelationFriend, user)
		if err != nil {
			return err
		}
		if !friends {
			return apperr.Validation(user + " is not a friend of " + nick)
		}
		return r.Relation.Add(nick, entity.RelationFavorite, user)
	})
}

func (g *localGraphService) RemoveFavorite(ctx context.Context, nick, user string) error {
	return g.tx(ctx, "graph.RemoveFavorite", func(r *data.Repositories) error {
		if err := requireUser(r, user); err != nil {
			return err
		}
		return r.Relation.Remove(nick, entity.RelationFavorite, user)
	})
}

func (g *localGraphService) SendAddRequest(ctx context.Context, nick, user, message string) error {
	err := g.tx(ctx, "graph.SendAddRequest", func(r *data.Repositories) error {
		if err := requireUser(r, user); err != nil {
			return err
		}
		if nick == user {
			return ErrSelfTarget
		}
		// Serializes opposite requests between the same two users
		if err := r.Users.Lock(nick, user); err != nil {
			return err
		}
		for _, pair := range [][2]string{{nick, user}, {user, nick}} {
			friends, err := r.Relation.Has(pair[0], entity.RelationFriend, pair[1])
			if err != nil {
				return err
			}
			if friends {
				return apperr.Conflict(user + " and " + nick + " are already friends")
			}
		}
		for _, pair := range [][2]string{{nick, user}, {user, nick}} {
			blacklisted, err := isBlacklisted(r, pair[0], pair[1])
			if err != nil {
				return err
			}
			if blacklisted {
				return ErrBlacklisted
			}
		}
		reverse, err := r.Requests.Exists(user, nick)
		if err != nil {
			return err
		}
		if reverse {
			return apperr.Conflict(user + " already sent a request to " + nick)
		}
		err = r.Requests.Create(&entity.AddRequest{FromUser: nick, ToUser: user, Message: message})
		if apperr.KindOf(err) == apperr.KindConflict {
			return apperr.Conflict(nick + " already sent a request to " + user)
		}
		return err
	})
	if err == nil {
		g.Logf("%s sent an add request to %s", nick, user)
	}
	return err
}

func (g *localGraphService) ConfirmAddRequest(ctx context.Context, nick, user string) error {
	err := g.tx(ctx, "graph.ConfirmAddRequest", func(r *data.Repositories) error {
		if err := requireUser(r, user); err != nil {
			return err
		}
		for _, pair := range [][2]string{{nick, user}, {user, nick}} {
			blacklisted, err := isBlacklisted(r, pair[0], pair[1])
			if err != nil {
				return err
			}
			if blacklisted {
				return ErrBlacklisted
			}
		}
		pending, err := r.Requests.Delete(user, nick)
		if err != nil {
			return err
		}
		if !pending {
			return apperr.NotFound("no pending request from " + user + " to " + nick)
		}
		if err := r.Relation.Add(user, entity.RelationFriend, nick); err != nil {
			return err
		}
		return r.Relation.Add(nick, entity.RelationFriend, user)
	})
	if err == nil {
		g.Logf("%s and %s are now friends", nick, user)
	}
	return err
}

func (g *localGraphService) DeclineAddRequest(ctx context.Context, nick, user string) error {
	return g.tx(ctx, "graph.DeclineAddRequest", func(r *data.Repositories) error {
		if err := requireUser(r, user); err != nil {
			return err
		}
		_, err := r.Requests.Delete(user, nick)
		return err
	})
}

func (g *localGraphService) WithdrawAddRequest(ctx context.Context, nick, user string) error {
	return g.tx(ctx, "graph.WithdrawAddRequest", func(r *data.Repositories) error {
		if err := requireUser(r, user); err != nil {
			return err
		}
		_, err := r.Requests.Delete(nick, user)
		return err
	})
}

func (g *localGraphService) IsBlacklisted(ctx context.Context, nick, user string) (bool, error) {
	blacklisted, err := isBlacklisted(g.store.Read(ctx), nick, user)
	return blacklisted, storageError("graph.IsBlacklisted", err)
}

// SearchList returns every user the caller could send a request to: not the caller, not a friend,
// not someone who blacklisted the caller, not someone with a request pending either way.
func (g *localGraphService) SearchList(ctx context.Context, nick string) ([]Presence, error) {
	r := g.store.Read(ctx)
	names, err := r.Users.Names()
	if err != nil {
		return nil, storageError("graph.SearchList", err)
	}

	excluded := map[string]bool{nick: true}
	for _, kind := range []entity.RelationKind{entity.RelationBlacklist, entity.RelationFriend} {
		owners, err := r.Relation.Owners(kind, nick)
		if err != nil {
			return nil, storageError("graph.SearchList", err)
		}
		for _, owner := range owners {
			excluded[owner] = true
		}
	}
	peers, err := r.Requests.Peers(nick)
	if err != nil {
		return nil, storageError("graph.SearchList", err)
	}
	for _, peer := range peers {
		excluded[peer] = true
	}

	candidates := slices.DeleteFunc(names, func(name string) bool { return excluded[name] })
	online, err := r.Sessions.Online(candidates)
	if err != nil {
		return nil, storageError("graph.SearchList", err)
	}
	return tagPresence(candidates, online), nil
}

func tagPresence(names []string, online map[string]bool) []Presence {
	tagged := make([]Presence, 0, len(names))
	for _, name := range names {
		tagged = append(tagged, Presence{Name: name, Online: online[name]})
	}
	return tagged
}

func (g *localGraphService) FriendsGroup(ctx context.Context, nick string) (*FriendsGroup, error) {
	r := g.store.Read(ctx)
	friends, err := r.Relation.List(nick, entity.RelationFriend)
	if err != nil {
		return nil, storageError("graph.FriendsGroup", err)
	}
	favorites, err := r.Relation.List(nick, entity.RelationFavorite)
	if err != nil {
		return nil, storageError("graph.FriendsGroup", err)
	}
	blacklist, err := r.Relation.List(nick, entity.RelationBlacklist)
	if err != nil {
		return nil, storageError("graph.FriendsGroup", err)
	}
	online, err := r.Sessions.Online(slices.Concat(friends, favorites, blacklist))
	if err != nil {
		return nil, storageError("graph.FriendsGroup", err)
	}

	group := &FriendsGroup{
		Favorites: tagPresence(favorites, online),
		Online:    []Presence{},
		Offline:   []Presence{},
		Blacklist: tagPresence(blacklist, online),
	}
	for _, friend := range friends {
		if online[friend] {
			group.Online = append(group.Online, Presence{Name: friend, Online: true})
		} else {
			group.Offline = append(group.Offline, Presence{Name: friend, Online: false})
		}
	}
	return group, nil
}

func (g *localGraphService) PendingRequests(ctx context.Context, nick string) ([]PendingRequest, []PendingRequest, error) {
	r := g.store.Read(ctx)
	incoming, err := r.Requests.Incoming(nick)
	if err != nil {
		return nil, nil, storageError("graph.PendingRequests", err)
	}
	outgoing, err := r.Requests.Outgoing(nick)
	if err != nil {
		return nil, nil, storageError("graph.PendingRequests", err)
	}

	names := make([]string, 0, len(incoming)+len(outgoing))
	for _, req := range incoming {
		names = append(names, req.FromUser)
	}
	for _, req := range outgoing {
		names = append(names, req.ToUser)
	}
	online, err := r.Sessions.Online(names)
	if err != nil {
		return nil, nil, storageError("graph.PendingRequests", err)
	}

	in := make([]PendingRequest, 0, len(incoming))
	for _, req := range incoming {
		in = append(in, PendingRequest{Name: req.FromUser, Message: req.Message, Online: online[req.FromUser]})
	}
	out := make([]PendingRequest, 0, len(outgoing))
	for _, req := range outgoing {
		out = append(out, PendingRequest{Name: req.ToUser, Message: req.Message, Online: online[req.ToUser]})
	}
	return in, out, nil
}

// PresenceAudience lists whoever shows nick's presence somewhere: friends, users that
// blacklisted nick, and both ends of nick's pending requests.
func (g *localGraphService) PresenceAudience(ctx context.Context, nick string) ([]string, error) {
	r := g.store.Read(ctx)
	friends, err := r.Relation.List(nick, entity.RelationFriend)
	if err != nil {
		return nil, storageError("graph.PresenceAudience", err)
	}
	blacklisters, err := r.Relation.Owners(entity.RelationBlacklist, nick)
	if err != nil {
		return nil, storageError("graph.PresenceAudience", err)
	}
	peers, err := r.Requests.Peers(nick)
	if err != nil {
		return nil, storageError("graph.PresenceAudience", err)
	}

	audience := slices.Concat(friends, blacklisters, peers)
	slices.Sort(audience)
	audience = slices.Compact(audience)
	return slices.DeleteFunc(audience, func(name string) bool { return name == nick }), nil
}
