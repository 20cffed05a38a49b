/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package processor

import "strconv"

// ClientCode is the kind of a request sent by a client
type ClientCode int

const (
	ClientRegister ClientCode = iota
	ClientLogin
	ClientGetSearchList
	ClientFriendsGroup
	ClientGetMessageHistory
	ClientSendMessage
	ClientChangeProfileSection
	ClientAddToBlacklist
	ClientDeleteFromFriends
	ClientSendRequest
	ClientDeleteProfile
	ClientLogout
	ClientCreateDialog
	ClientGetProfileInfo
	ClientRemoveFromBlacklist
	ClientTakeRequestBack
	ClientConfirmAddRequest
	ClientAddToFavorites
	ClientSearchMessages
	ClientRemoveFromFavorites
	ClientGetAddRequests
	ClientDeclineAddRequest
	ClientSetImage
	ClientDeleteDialog
)

var clientCodeNames = [...]string{
	"register",
	"login",
	"get_search_list",
	"friends_group",
	"get_message_history",
	"send_message",
	"change_profile_section",
	"add_to_blacklist",
	"delete_from_friends",
	"send_request",
	"delete_profile",
	"logout",
	"create_dialog",
	"get_profile_info",
	"remove_from_blacklist",
	"take_request_back",
	"confirm_add_request",
	"add_to_favorites",
	"search_msg",
	"remove_from_favorites",
	"get_add_requests",
	"decline_add_request",
	"set_image",
	"delete_dialog",
}

func (c ClientCode) String() string {
	if c < 0 || int(c) >= len(clientCodeNames) {
		return "client_code_" + strconv.Itoa(int(c))
	}
	return clientCodeNames[c]
}

// ServerCode tags every reply and push notification sent by the server
type ServerCode int

const (
	ServerLoginError ServerCode = iota
	ServerRegisterError
	ServerLoginSucc
	ServerRegisterSucc
	ServerSearchList
	ServerFriendsGroupResponse
	ServerMessageHistory
	ServerMessageReceived
	ServerNewMessage // push
	ServerChangeProfileSectionSucc
	ServerFriendsGroupUpdate // push
	ServerAddToBlacklistSucc
	ServerDeleteFromFriendsSucc
	ServerSendRequestSucc
	ServerNewAddRequest     // push
	ServerAddRequestConfirm // push
	ServerDeleteProfileSucc
	ServerLogoutSucc
	ServerCreateDialogSucc
	ServerProfileInfo
	ServerRemoveFromBlacklistSucc
	ServerTakeRequestBackSucc
	ServerConfirmAddRequestSucc
	ServerAddToFavoritesSucc
	ServerAddRequestDecline // push
	ServerSearchMessagesResult
	ServerRemoveFromFavoritesSucc
	ServerAddRequests
	ServerDeclineAddRequestSucc
	ServerSetImageSucc
	ServerDeleteDialogSucc
)
