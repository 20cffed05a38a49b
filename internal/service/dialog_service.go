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
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"sync"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/entity"
	"github.com/MoarCatz/chat-server/internal/nlog"
)

// MaxMessageLength is the longest accepted message, in characters
const MaxMessageLength = 1000

// Service used for two-party dialogs: their lifecycle and their message log
type DialogService interface {
	Create(ctx context.Context, owner, peer string) (uint64, error)         // Returns the dialog the two already share, if any
	Remove(ctx context.Context, dialogID uint64, user string) (bool, error) // Soft deletes for user, or destroys; true when destroyed
	MemberOf(ctx context.Context, user string, dialogID uint64) error
	Counterpart(ctx context.Context, dialogID uint64, user string) (string, bool, error)

	Append(ctx context.Context, dialogID uint64, content string, sentAt int64, sender string) error
	History(ctx context.Context, dialogID uint64, count int) ([]entity.DialogEntry, error)
	Search(ctx context.Context, dialogID uint64, substring string, lower, upper int64) ([]entity.DialogEntry, error)
}

type localDialogService struct {
	store  *data.StorageManager
	logger nlog.Logger

	createLock sync.Mutex // Serializes creations in this process; the system state row lock covers the others
}

func NewLocalDialogService(store *data.StorageManager, logger nlog.Logger) DialogService {
	return &localDialogService{
		store:  store,
		logger: logger,
	}
}

func (d *localDialogService) Logf(format string, v ...any) {
	d.logger.Logf(format, v...)
}

func dialogKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ParseDialogID accepts the integer forms a decoded request can carry a dialog id in
func ParseDialogID(v any) (uint64, error) {
	switch id := v.(type) {
	case uint64:
		return id, nil
	case int:
		if id >= 0 {
			return uint64(id), nil
		}
	case int64:
		if id >= 0 {
			return uint64(id), nil
		}
	case float64:
		if id >= 0 && id == math.Trunc(id) && id < math.MaxInt64 {
			return uint64(id), nil
		}
	case json.Number:
		if n, err := strconv.ParseUint(id.String(), 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, apperr.Validationf("dialog id %v is not an integer", v)
}

func memberOf(r *data.Repositories, user string, dialogID uint64) error {
	member, err := r.Relation.Has(user, entity.RelationDialog, dialogKey(dialogID))
	if err != nil {
		return err
	}
	if !member {
		return apperr.NotFound("dialog " + dialogKey(dialogID) + " is not one of " + user + "'s dialogs")
	}
	return nil
}

// removeDialog applies the deletion rule for user inside the caller's transaction:
// when nobody else is left in the dialog it is destroyed, otherwise user's messages get the
// deletion mark and the dialog leaves user's set only.
func removeDialog(r *data.Repositories, dialogID uint64, user string) (bool, error) {
	if err := memberOf(r, user, dialogID); err != nil {
		return false, err
	}
	members, err := r.Relation.Owners(entity.RelationDialog, dialogKey(dialogID))
	if err != nil {
		return false, err
	}
	others := slices.DeleteFunc(members, func(name string) bool { return name == user })
	if len(others) == 0 {
		return true, r.Dialogs.Destroy(dialogID)
	}
	if err := r.Messages.MarkSenderDeleted(dialogID, user); err != nil {
		return false, err
	}
	return false, r.Relation.Remove(user, entity.RelationDialog, dialogKey(dialogID))
}

func (d *localDialogService) Create(ctx context.Context, owner, peer string) (uint64, error) {
	d.createLock.Lock()
	defer d.createLock.Unlock()

	var dialogID uint64
	err := d.store.Transaction(ctx, func(r *data.Repositories) error {
		if err := requireUser(r, peer); err != nil {
			return err
		}
		allowed := false
		for _, check := range []struct {
			owner  string
			kind   entity.RelationKind
			target string
		}{
			{owner, entity.RelationFriend, peer},
			{owner, entity.RelationBlacklist, peer},
			{peer, entity.RelationBlacklist, owner},
		} {
			has, err := r.Relation.Has(check.owner, check.kind, check.target)
			if err != nil {
				return err
			}
			if has {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperr.Unauthorized(owner + " and " + peer + " are neither friends nor blacklisted")
		}

		mine, err := r.Relation.List(owner, entity.RelationDialog)
		if err != nil {
			return err
		}
		theirs, err := r.Relation.List(peer, entity.RelationDialog)
		if err != nil {
			return err
		}
		for _, id := range mine {
			if slices.Contains(theirs, id) {
				dialogID, err = strconv.ParseUint(id, 10, 64)
				return err
			}
		}

		if dialogID, err = r.Dialogs.Allocate(); err != nil {
			return err
		}
		if err := r.Dialogs.Create(&entity.Dialog{ID: dialogID}); err != nil {
			return err
		}
		if err := r.Relation.Add(owner, entity.RelationDialog, dialogKey(dialogID)); err != nil {
			return err
		}
		return r.Relation.Add(peer, entity.RelationDialog, dialogKey(dialogID))
	})
	if err != nil {
		d.Logf("Dialog between %s and %s refused {%v}", owner, peer, err)
		return 0, storageError("dialog.Create", err)
	}
	d.Logf("Dialog %d between %s and %s", dialogID, owner, peer)
	return dialogID, nil
}

func (d *localDialogService) Remove(ctx context.Context, dialogID uint64, user string) (bool, error) {
	var destroyed bool
	err := d.store.Transaction(ctx, func(r *data.Repositories) error {
		var err error
		destroyed, err = removeDialog(r, dialogID, user)
		return err
	})
	if err != nil {
		return false, storageError("dialog.Remove", err)
	}
	if destroyed {
		d.Logf("Dialog %d destroyed by %s", dialogID, user)
	} else {
		d.Logf("Dialog %d deleted for %s", dialogID, user)
	}
	return destroyed, nil
}

func (d *localDialogService) MemberOf(ctx context.Context, user string, dialogID uint64) error {
	return storageError("dialog.MemberOf", memberOf(d.store.Read(ctx), user, dialogID))
}

// Counterpart returns the other member of the dialog, if one is left
func (d *localDialogService) Counterpart(ctx context.Context, dialogID uint64, user string) (string, bool, error) {
	members, err := d.store.Read(ctx).Relation.Owners(entity.RelationDialog, dialogKey(dialogID))
	if err != nil {
		return "", false, storageError("dialog.Counterpart", err)
	}
	for _, member := range members {
		if member != user {
			return member, true, nil
		}
	}
	return "", false, nil
}
