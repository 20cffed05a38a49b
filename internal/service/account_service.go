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
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/data"
	"github.com/MoarCatz/chat-server/internal/entity"
	"github.com/MoarCatz/chat-server/internal/nlog"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/sha3"
)

// Registration request, as decoded by the dispatcher
type Registration struct {
	Name         string
	PasswordHash string // The client never sends the clear password
	PublicKey    string // "<modulus>:<exponent>"
	Address      string
	Avatar       []byte // Initial profile image
}

// Service used for account lifecycle (registration, login, logout, deletion) and for profiles
type AccountService interface {
	Register(ctx context.Context, reg Registration) error
	Login(ctx context.Context, name, passwordHash, publicKey, address string) error
	Logout(ctx context.Context, address string) (string, error)
	DeleteProfile(ctx context.Context, name string) ([]string, error) // Returns the users still registered

	Profile(ctx context.Context, caller, user string) (*entity.Profile, error)
	ChangeSection(ctx context.Context, name string, section entity.ProfileSection, value any) error
	SetImage(ctx context.Context, name, encoded string) error
}

type localAccountService struct {
	store      *data.StorageManager
	sessions   SessionService
	bcryptCost int
	logger     nlog.Logger
}

func NewLocalAccountService(store *data.StorageManager, sessions SessionService, bcryptCost int, logger nlog.Logger) AccountService {
	return &localAccountService{
		store:      store,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (a *localAccountService) Logf(format string, v ...any) {
	a.logger.Logf(format, v...)
}

// ValidNick tells whether nick can be registered: 2 to 15 letters, digits, underscores or spaces,
// not starting with a space.
func ValidNick(nick string) bool {
	length := utf8.RuneCountInString(nick)
	if length < 2 || length > 15 {
		return false
	}
	for i, r := range nick {
		if i == 0 && r == ' ' {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_' && r != ' ' {
			return false
		}
	}
	return true
}

// passwordKey folds the client hash to a fixed 64 bytes, bcrypt refuses anything over 72
func passwordKey(passwordHash string) []byte {
	sum := sha3.Sum256([]byte(passwordHash))
	return []byte(hex.EncodeToString(sum[:]))
}

// Register creates the user, its profile and its first session in one transaction:
// any failure leaves nothing behind.
func (a *localAccountService) Register(ctx context.Context, reg Registration) error {
	if !ValidNick(reg.Name) {
		return apperr.Validationf("%q is not a valid name", reg.Name)
	}
	hash, err := bcrypt.GenerateFromPassword(passwordKey(reg.PasswordHash), a.bcryptCost)
	if err != nil {
		a.Logf("Could not calculate hash {%v}", err)
		return apperr.Validation("password can not be hashed")
	}

	err = a.store.Transaction(ctx, func(r *data.Repositories) error {
		user := &entity.User{
			Name:   reg.Name,
			Secret: entity.UserSecret{UserName: reg.Name, Hash: string(hash)},
		}
		if err := r.Users.Create(user); err != nil {
			if apperr.KindOf(err) == apperr.KindConflict {
				return apperr.Conflict("name " + reg.Name + " is taken")
			}
			return err
		}
		if err := r.Profiles.Create(&entity.Profile{Name: reg.Name, Image: reg.Avatar}); err != nil {
			return err
		}
		return openSession(r, reg.Name, reg.PublicKey, reg.Address)
	})
	if err != nil {
		a.Logf("Registration of %s failed {%v}", reg.Name, err)
		return storageError("account.Register", err)
	}
	a.Logf("User %s correctly registered", reg.Name)
	return nil
}

func (a *localAccountService) Login(ctx context.Context, name, passwordHash, publicKey, address string) error {
	u, err := a.store.Read(ctx).Users.GetForLogin(name)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return ErrBadCredentials
		}
		return storageError("account.Login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Secret.Hash), passwordKey(passwordHash)); err != nil {
		a.Logf("Wrong credentials for %s", name)
		return ErrBadCredentials
	}
	if err := a.sessions.Open(ctx, name, publicKey, address); err != nil {
		return err
	}
	a.Logf("User %s correctly logged in", name)
	return nil
}

// Logout closes the session at address and returns who owned it
func (a *localAccountService) Logout(ctx context.Context, address string) (string, error) {
	name, err := a.sessions.IdentityOf(ctx, address)
	if err != nil {
		return "", err
	}
	return name, a.sessions.Close(ctx, address)
}

// DeleteProfile erases every trace of name: dialogs (by the usual deletion rule), relations in both
// directions, pending requests, sessions, profile and account.
func (a *localAccountService) DeleteProfile(ctx context.Context, name string) ([]string, error) {
	err := a.store.Transaction(ctx, func(r *data.Repositories) error {
		if err := requireUser(r, name); err != nil {
			return err
		}
		dialogs, err := r.Relation.List(name, entity.RelationDialog)
		if err != nil {
			return err
		}
		for _, key := range dialogs {
			id, err := strconv.ParseUint(key, 10, 64)
			if err != nil {
				return err
			}
			if _, err := removeDialog(r, id, name); err != nil {
				return err
			}
		}
		if err := r.Relation.DeleteOwnedBy(name); err != nil {
			return err
		}
		err = r.Relation.DeleteTargeting(name, entity.RelationFriend, entity.RelationFavorite, entity.RelationBlacklist)
		if err != nil {
			return err
		}
		if err := r.Requests.DeleteInvolving(name); err != nil {
			return err
		}
		if err := r.Sessions.DeleteByUser(name); err != nil {
			return err
		}
		if err := r.Profiles.Delete(name); err != nil {
			return err
		}
		return r.Users.Delete(name)
	})
	if err != nil {
		a.Logf("Deletion of %s failed {%v}", name, err)
		return nil, storageError("account.DeleteProfile", err)
	}
	a.Logf("User %s deleted", name)

	remaining, err := a.store.Read(ctx).Users.Names()
	return remaining, storageError("account.DeleteProfile", err)
}

// Profile returns user's profile, unless user blacklisted caller
func (a *localAccountService) Profile(ctx context.Context, caller, user string) (*entity.Profile, error) {
	r := a.store.Read(ctx)
	if err := requireUser(r, user); err != nil {
		return nil, storageError("account.Profile", err)
	}
	blacklisted, err := isBlacklisted(r, caller, user)
	if err != nil {
		return nil, storageError("account.Profile", err)
	}
	if blacklisted {
		return nil, ErrBlacklisted
	}
	profile, err := r.Profiles.Get(user)
	return profile, storageError("account.Profile", err)
}

func (a *localAccountService) ChangeSection(ctx context.Context, name string, section entity.ProfileSection, value any) error {
	column, ok := section.Column()
	if !ok {
		return apperr.Validationf("unknown profile section %d", section)
	}

	var stored any
	if section == entity.SectionBirthday {
		birthday, ok := asInteger(value)
		if !ok {
			return apperr.Validation("birthday must be an integer")
		}
		stored = birthday
	} else {
		text, ok := value.(string)
		if !ok {
			return apperr.Validationf("profile section %s must be text", column)
		}
		stored = text
	}
	return storageError("account.ChangeSection", a.store.Read(ctx).Profiles.UpdateColumn(name, column, stored))
}

func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		// 2^63 is the first float64 past MaxInt64
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

// SetImage replaces the profile image with the base64 encoded one
func (a *localAccountService) SetImage(ctx context.Context, name, encoded string) error {
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return apperr.Validation("image is not valid base64")
	}
	return storageError("account.SetImage", a.store.Read(ctx).Profiles.SetImage(name, image))
}
