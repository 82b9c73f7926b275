package domain

import "direct_message_service/pkg"

// Action websocket request action
type Action string

const (
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// OpenConversation websocket action open_conversation
	// 打開對話即視為把對方的未讀全部確認
	OpenConversation Action = "open_conversation"
	// MarkSeen websocket action mark_seen
	MarkSeen Action = "mark_seen"
	// Sidebar websocket action sidebar
	Sidebar Action = "sidebar"
	// OnlineUsers websocket action online_users
	OnlineUsers Action = "online_users"

	// NotifyMessage pushed event notify_message
	NotifyMessage Action = "notify_message"
	// MessageSent pushed event message_sent (sender 其他裝置的回聲)
	MessageSent Action = "message_sent"
	// NotifyPresence pushed event notify_presence
	NotifyPresence Action = "notify_presence"
)

var clientActions = []string{
	string(SendMessage),
	string(OpenConversation),
	string(MarkSeen),
	string(Sidebar),
	string(OnlineUsers),
}

// IsClientAction 判斷是否為 client 可主動發起的 action
// (notify_* / message_sent 只能由 server 推，client 帶進來一律擋掉)
func IsClientAction(a string) bool {
	return pkg.Contains(clientActions, a)
}

// WSRequest websocket Request
type WSRequest struct {
	Action    string `json:"action"`
	PeerID    string `json:"peer_id"`
	Text      string `json:"text"`
	Image     string `json:"image"` // base64 data URL
	MessageID string `json:"message_id"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// PresenceEvent 上下線事件
type PresenceEvent struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}
