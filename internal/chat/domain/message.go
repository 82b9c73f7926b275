package domain

// DirectMessage 表示兩個使用者之間的一則訊息
// seen 只會從 false 翻成 true，不會反向
type DirectMessage struct {
	ID         string `bson:"_id" json:"id"`
	SenderID   string `bson:"sender_id" json:"sender_id"`
	ReceiverID string `bson:"receiver_id" json:"receiver_id"`
	Text       string `bson:"text,omitempty" json:"text,omitempty"`
	Image      string `bson:"image,omitempty" json:"image,omitempty"` // opaque asset reference
	Seen       bool   `bson:"seen" json:"seen"`
	CreatedAt  int64  `bson:"created_at" json:"created_at"`
}

// MessagePayload 新訊息內容，text / image 擇一
type MessagePayload struct {
	Text  string
	Image string
}

// Validate 檢查 payload 恰好帶一種內容
func (p MessagePayload) Validate() error {
	if p.Text == "" && p.Image == "" {
		return ErrInvalidPayload
	}
	if p.Text != "" && p.Image != "" {
		return ErrInvalidPayload
	}
	return nil
}

// ConversationView open conversation 的回傳值
// UnseenResolved 是這次 open 清掉的未讀數，不是剩餘未讀數（清完必為 0）
type ConversationView struct {
	History        []DirectMessage `json:"history"`
	UnseenResolved int64           `json:"unseen_resolved"`
}

// PeerUnseenInfo definition unseen count by peer
type PeerUnseenInfo struct {
	PeerID              string `bson:"_id" json:"peer_id"`
	UnseenCount         int64  `bson:"unseen_count" json:"unseen_count"`
	LastUnseenTimeStamp int64  `bson:"last_unseen_timestamp" json:"last_unseen_timestamp"`
}
