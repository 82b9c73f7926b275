package app

import "direct_message_service/internal/chat/domain"

// SessionGuard server 端權威檢查
// client 端重複做同樣的檢查只是省一次往返，不是安全邊界
type SessionGuard struct{}

// AssertDistinctParticipants 不能拿自己當對話對象
func (SessionGuard) AssertDistinctParticipants(actingUserID, targetUserID string) error {
	if actingUserID == targetUserID {
		return domain.ErrSelfTarget
	}
	return nil
}

// AssertOwnsInbox seen 只能由收件人翻
func (SessionGuard) AssertOwnsInbox(actingUserID string, msg *domain.DirectMessage) error {
	if msg.ReceiverID != actingUserID {
		return domain.ErrForbidden
	}
	return nil
}
