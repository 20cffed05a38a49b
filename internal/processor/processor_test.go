/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package processor

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/channel"
	"github.com/MoarCatz/chat-server/internal/metrics"
	"github.com/MoarCatz/chat-server/internal/nlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack(t *testing.T) {
	packed, err := Pack(int(ServerSearchList), "ab", [][]any{{"bob", true}})
	require.NoError(t, err)
	assert.Equal(t, `4,"ab",[["bob",true]]`, string(packed))

	packed, err = Pack()
	require.NoError(t, err)
	assert.Empty(t, packed)

	packed, err = Pack("<b>&", "é")
	require.NoError(t, err)
	assert.Equal(t, `"<b>&","é"`, string(packed))
}

func TestCodes(t *testing.T) {
	assert.Equal(t, 23, int(ClientDeleteDialog))
	assert.Equal(t, 22, int(ClientSetImage))
	assert.Equal(t, 29, int(ServerSetImageSucc))
	assert.Equal(t, 30, int(ServerDeleteDialogSucc))
	assert.Equal(t, "register", ClientRegister.String())
	assert.Equal(t, "delete_dialog", ClientDeleteDialog.String())
	assert.Equal(t, "client_code_99", ClientCode(99).String())
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	resp, err := h.p.Register(h.ctx, "r1", at("alice"), "alice", "pw", h.nextKey())
	require.NoError(t, err)
	assert.Equal(t, `3,"r1"`, string(resp))

	for id, attempt := range map[string][2]string{
		"taken":    {"alice", h.nextKey()},
		"bad nick": {" x", h.nextKey()},
		"bad key":  {"bob", "nope"},
	} {
		resp, err := h.p.Register(h.ctx, id, "elsewhere:1", attempt[0], "pw", attempt[1])
		require.NoError(t, err, id)
		assert.Equal(t, `1,"`+id+`"`, string(resp))
	}
	assert.Equal(t, []string{metrics.OutcomeOK, metrics.OutcomeSoftError, metrics.OutcomeSoftError, metrics.OutcomeSoftError},
		h.recorder.Outcomes("register"))
}

func TestLoginAndLogout(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "alice", "bob")
	h.befriend(t, "alice", "bob")

	resp, err := h.p.Logout(h.ctx, "o1", at("alice"))
	require.NoError(t, err)
	assert.Equal(t, `17,"o1"`, string(resp))
	assert.Equal(t, []notification{{"bob", int(ServerFriendsGroupUpdate)}}, h.notifier.Take())

	_, err = h.p.Logout(h.ctx, "o2", at("alice"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	resp, err = h.p.Login(h.ctx, "l1", at("alice"), "alice", "wrong", h.nextKey())
	require.NoError(t, err)
	assert.Equal(t, `0,"l1"`, string(resp))
	assert.Empty(t, h.notifier.Take())
	_, err = h.p.SearchList(h.ctx, "s", at("alice"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	resp, err = h.p.Login(h.ctx, "l2", at("alice"), "alice", "pw-alice", h.nextKey())
	require.NoError(t, err)
	assert.Equal(t, `2,"l2"`, string(resp))
	assert.Equal(t, []notification{{"bob", int(ServerFriendsGroupUpdate)}}, h.notifier.Take())

	// The address is taken by alice's session now
	resp, err = h.p.Login(h.ctx, "l3", at("alice"), "bob", "pw-bob", h.nextKey())
	require.NoError(t, err)
	assert.Equal(t, `0,"l3"`, string(resp))
}

func TestEncryption(t *testing.T) {
	server, client := testKeys(t)
	h := newHarness(t)
	resp, err := h.p.Register(h.ctx, "r", at("alice"), "alice", "pw", channel.FormatPublicKey(&client.PublicKey))
	require.NoError(t, err)
	require.Equal(t, `3,"r"`, string(resp))
	assert.Equal(t, channel.FormatPublicKey(&server.PublicKey), h.p.ServerPublicKey())

	clientSide := channel.NewCryptoChannel(client, nlog.Discard, metrics.Nop{})

	t.Run("reply", func(t *testing.T) {
		env, err := h.p.Encrypt(h.ctx, at("alice"), []byte(`2,"l"`))
		require.NoError(t, err)
		body, key, ok := strings.Cut(env.String(), ":")
		require.True(t, ok)
		plain, err := clientSide.UnwrapRequest(body, key)
		require.NoError(t, err)
		assert.Equal(t, `2,"l"`, string(plain))

		_, err = h.p.Encrypt(h.ctx, "nowhere:1", []byte("x"))
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("reply without session", func(t *testing.T) {
		env, err := h.p.EncryptFor(channel.FormatPublicKey(&client.PublicKey), []byte(`0,"l"`))
		require.NoError(t, err)
		body, key, _ := strings.Cut(env.String(), ":")
		plain, err := clientSide.UnwrapRequest(body, key)
		require.NoError(t, err)
		assert.Equal(t, `0,"l"`, string(plain))
	})

	t.Run("request", func(t *testing.T) {
		env, err := clientSide.WrapResponse([]byte(`{"code":2}`), &server.PublicKey)
		require.NoError(t, err)
		body, key, _ := strings.Cut(env.String(), ":")
		plain, err := h.p.Decrypt(body, key)
		require.NoError(t, err)
		assert.Equal(t, `{"code":2}`, string(plain))

		_, err = h.p.Decrypt(body, "AAAA")
		assert.ErrorIs(t, err, apperr.ErrCryptoFailure)
	})

	t.Run("signature", func(t *testing.T) {
		body := []byte("signed request")
		digest := sha256.Sum256(body)
		signature, err := rsa.SignPKCS1v15(rand.Reader, client, crypto.SHA256, digest[:])
		require.NoError(t, err)

		assert.NoError(t, h.p.Verify(h.ctx, at("alice"), body, signature))
		assert.ErrorIs(t, h.p.Verify(h.ctx, at("alice"), []byte("tampered"), signature), apperr.ErrCryptoFailure)
	})
}

func TestFriendRequestFlow(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "alice", "bob", "carol")

	resp, err := h.p.SendRequest(h.ctx, "s1", at("alice"), "bob", "hi")
	require.NoError(t, err)
	assert.Equal(t, `13,"s1"`, string(resp))
	assert.Equal(t, []notification{{"bob", int(ServerNewAddRequest)}}, h.notifier.Take())

	resp, err = h.p.AddRequests(h.ctx, "a1", at("bob"))
	require.NoError(t, err)
	assert.Equal(t, `27,"a1",[[["alice","hi",true]],[]]`, string(resp))

	resp, err = h.p.ConfirmAddRequest(h.ctx, "c1", at("bob"), "alice")
	require.NoError(t, err)
	assert.Equal(t, `22,"c1"`, string(resp))
	assert.Equal(t, []notification{{"alice", int(ServerAddRequestConfirm)}}, h.notifier.Take())

	resp, err = h.p.FriendsGroup(h.ctx, "f1", at("alice"))
	require.NoError(t, err)
	assert.Equal(t, `5,"f1",[[],[["bob",true]],[],[]]`, string(resp))

	resp, err = h.p.AddToFavorites(h.ctx, "fav", at("alice"), "bob")
	require.NoError(t, err)
	assert.Equal(t, `23,"fav"`, string(resp))
	resp, err = h.p.FriendsGroup(h.ctx, "f2", at("alice"))
	require.NoError(t, err)
	assert.Equal(t, `5,"f2",[[["bob",true]],[["bob",true]],[],[]]`, string(resp))

	resp, err = h.p.SearchList(h.ctx, "sl", at("alice"))
	require.NoError(t, err)
	assert.Equal(t, `4,"sl",[["carol",true]]`, string(resp))

	_, err = h.p.SendRequest(h.ctx, "s2", at("alice"), "carol", "")
	require.NoError(t, err)
	h.notifier.Take()
	resp, err = h.p.DeclineAddRequest(h.ctx, "d", at("carol"), "alice")
	require.NoError(t, err)
	assert.Equal(t, `28,"d"`, string(resp))
	assert.Equal(t, []notification{{"alice", int(ServerAddRequestDecline)}}, h.notifier.Take())

	_, err = h.p.SendRequest(h.ctx, "s3", at("alice"), "carol", "")
	require.NoError(t, err)
	h.notifier.Take()
	resp, err = h.p.TakeRequestBack(h.ctx, "t", at("alice"), "carol")
	require.NoError(t, err)
	assert.Equal(t, `21,"t"`, string(resp))
	assert.Equal(t, []notification{{"carol", int(ServerFriendsGroupUpdate)}}, h.notifier.Take())

	resp, err = h.p.AddToBlacklist(h.ctx, "b", at("alice"), "carol")
	require.NoError(t, err)
	assert.Equal(t, `11,"b"`, string(resp))
	assert.Equal(t, []notification{{"carol", int(ServerFriendsGroupUpdate)}}, h.notifier.Take())
	resp, err = h.p.RemoveFromBlacklist(h.ctx, "ub", at("alice"), "carol")
	require.NoError(t, err)
	assert.Equal(t, `20,"ub"`, string(resp))

	resp, err = h.p.RemoveFromFavorites(h.ctx, "uf", at("alice"), "bob")
	require.NoError(t, err)
	assert.Equal(t, `26,"uf"`, string(resp))
	h.notifier.Take()
	resp, err = h.p.DeleteFromFriends(h.ctx, "df", at("alice"), "bob")
	require.NoError(t, err)
	assert.Equal(t, `12,"df"`, string(resp))
	assert.Equal(t, []notification{{"bob", int(ServerFriendsGroupUpdate)}}, h.notifier.Take())

	_, err = h.p.AddToBlacklist(h.ctx, "self", at("alice"), "alice")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, h.notifier.Take())
	assert.Equal(t, []string{metrics.OutcomeOK, metrics.OutcomeRejected}, h.recorder.Outcomes("add_to_blacklist"))

	_, err = h.p.SearchList(h.ctx, "x", "nowhere:1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDialogFlow(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "alice", "bob")
	h.befriend(t, "alice", "bob")

	resp, err := h.p.CreateDialog(h.ctx, "cd", at("alice"), "bob")
	require.NoError(t, err)
	assert.Equal(t, `18,"cd",1`, string(resp))

	// Dialog ids come from decoded JSON as float64
	resp, err = h.p.SendMessage(h.ctx, "m1", at("alice"), "hello", 100, float64(1))
	require.NoError(t, err)
	assert.Equal(t, `7,"m1"`, string(resp))
	assert.Equal(t, []notification{{"bob", int(ServerNewMessage)}}, h.notifier.Take())
	_, err = h.p.SendMessage(h.ctx, "m2", at("bob"), "hi <alice>", 101, 1)
	require.NoError(t, err)

	resp, err = h.p.MessageHistory(h.ctx, "h", at("bob"), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, `6,"h",[["hello",100,"alice"],["hi <alice>",101,"bob"]]`, string(resp))
	resp, err = h.p.MessageHistory(h.ctx, "h1", at("bob"), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, `6,"h1",[["hi <alice>",101,"bob"]]`, string(resp))

	resp, err = h.p.SearchMessages(h.ctx, "sr", at("alice"), 1, "hel", 0, 200)
	require.NoError(t, err)
	assert.Equal(t, `25,"sr",[["hello",100,"alice"]]`, string(resp))

	t.Run("rejections", func(t *testing.T) {
		_, err := h.p.MessageHistory(h.ctx, "x", at("bob"), -1, 1)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		_, err = h.p.MessageHistory(h.ctx, "x", at("bob"), 0, "1")
		assert.ErrorIs(t, err, apperr.ErrValidation)
		_, err = h.p.MessageHistory(h.ctx, "x", at("bob"), 0, 2)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		// The range is checked before anything else, even the caller's session
		_, err = h.p.SearchMessages(h.ctx, "x", "nowhere:1", 1, "", 5, 4)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		_, err = h.p.SendMessage(h.ctx, "x", at("alice"), strings.Repeat("x", 1001), 102, 1)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		_, err = h.p.SendMessage(h.ctx, "x", at("alice"), strings.Repeat("x", 1000), 102, 1)
		assert.NoError(t, err)
	})

	h.notifier.Take()
	_, err = h.p.AddToBlacklist(h.ctx, "bl", at("bob"), "alice")
	require.NoError(t, err)
	_, err = h.p.SendMessage(h.ctx, "m3", at("alice"), "still there?", 103, 1)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = h.p.SendMessage(h.ctx, "m4", at("bob"), "go away", 104, 1)
	assert.NoError(t, err)

	resp, err = h.p.DeleteDialog(h.ctx, "dd", at("alice"), 1)
	require.NoError(t, err)
	assert.Equal(t, `30,"dd",1`, string(resp))
	_, err = h.p.MessageHistory(h.ctx, "h2", at("alice"), 0, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	resp, err = h.p.MessageHistory(h.ctx, "h3", at("bob"), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, `6,"h3",[["go away",104,"bob"]]`, string(resp))
	resp, err = h.p.SearchMessages(h.ctx, "s", at("bob"), 1, "hello", 0, 200)
	require.NoError(t, err)
	assert.Equal(t, `25,"s",[["hello",100,"~alice"]]`, string(resp))
}

func TestProfileFlow(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "alice", "bob")

	resp, err := h.p.ProfileInfo(h.ctx, "p1", at("bob"), "alice")
	require.NoError(t, err)
	assert.Equal(t, `19,"p1","","",0,"","cG5n"`, string(resp))

	resp, err = h.p.ChangeProfileSection(h.ctx, "c1", at("alice"), 0, "away")
	require.NoError(t, err)
	assert.Equal(t, `9,"c1"`, string(resp))
	_, err = h.p.ChangeProfileSection(h.ctx, "c2", at("alice"), 2, float64(20000101))
	require.NoError(t, err)
	_, err = h.p.ChangeProfileSection(h.ctx, "c3", at("alice"), 2, "soon")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = h.p.ChangeProfileSection(h.ctx, "c4", at("alice"), 7, "x")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	resp, err = h.p.SetImage(h.ctx, "i", at("alice"), "AQID")
	require.NoError(t, err)
	assert.Equal(t, `29,"i"`, string(resp))

	resp, err = h.p.ProfileInfo(h.ctx, "p2", at("bob"), "alice")
	require.NoError(t, err)
	assert.Equal(t, `19,"p2","away","",20000101,"","AQID"`, string(resp))

	_, err = h.p.AddToBlacklist(h.ctx, "bl", at("alice"), "bob")
	require.NoError(t, err)
	_, err = h.p.ProfileInfo(h.ctx, "p3", at("bob"), "alice")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestDeleteProfile(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "alice", "bob", "carol")
	h.befriend(t, "alice", "bob")
	_, err := h.p.CreateDialog(h.ctx, "cd", at("alice"), "bob")
	require.NoError(t, err)
	_, err = h.p.SendMessage(h.ctx, "m", at("alice"), "bye", 1, 1)
	require.NoError(t, err)
	h.notifier.Take()

	resp, err := h.p.DeleteProfile(h.ctx, "del", at("alice"))
	require.NoError(t, err)
	assert.Equal(t, `16,"del"`, string(resp))
	assert.Equal(t, []notification{
		{"bob", int(ServerFriendsGroupUpdate)},
		{"carol", int(ServerFriendsGroupUpdate)},
	}, h.notifier.Take())

	_, err = h.p.FriendsGroup(h.ctx, "f", at("alice"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	resp, err = h.p.FriendsGroup(h.ctx, "f", at("bob"))
	require.NoError(t, err)
	assert.Equal(t, `5,"f",[[],[],[],[]]`, string(resp))
	resp, err = h.p.MessageHistory(h.ctx, "h", at("bob"), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, `6,"h",[["bye",1,"~alice"]]`, string(resp))
}

func TestCleanUp(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "alice", "bob")
	h.befriend(t, "alice", "bob")

	require.NoError(t, h.p.Touch(h.ctx, at("alice")))
	require.NoError(t, h.p.CleanUp(h.ctx, at("alice")))
	assert.Equal(t, []notification{{"bob", int(ServerFriendsGroupUpdate)}}, h.notifier.Take())

	require.NoError(t, h.p.CleanUp(h.ctx, at("alice")))
	assert.Empty(t, h.notifier.Take())

	resp, err := h.p.FriendsGroup(h.ctx, "f", at("bob"))
	require.NoError(t, err)
	assert.Equal(t, `5,"f",[[],[],[["alice",false]],[]]`, string(resp))
}
