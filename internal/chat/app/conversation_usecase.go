package app

import (
	"context"

	"direct_message_service/internal/chat/domain"
	"direct_message_service/internal/chat/repository"
)

// ConversationUseCase 對話視圖：歷史 + 未讀
type ConversationUseCase struct {
	msgRepo repository.MessageRepository
	guard   SessionGuard
}

// NewConversationUseCase init conversation use case
func NewConversationUseCase(msgRepo repository.MessageRepository) *ConversationUseCase {
	return &ConversationUseCase{msgRepo: msgRepo}
}

// Open 打開對話 = 把 peer 寄來的未讀全部確認
// 回傳的 UnseenResolved 是這次清掉的數量；open 完 unseen 必為 0
func (uc *ConversationUseCase) Open(ctx context.Context, ownerID, peerID string) (*domain.ConversationView, error) {
	if err := uc.guard.AssertDistinctParticipants(ownerID, peerID); err != nil {
		return nil, err
	}

	history, err := uc.msgRepo.History(ctx, ownerID, peerID)
	if err != nil {
		return nil, err
	}

	resolved, err := uc.msgRepo.MarkAllSeen(ctx, ownerID, peerID)
	if err != nil {
		return nil, err
	}

	// 回傳的視圖反映 mark 之後的狀態
	for i := range history {
		if history[i].ReceiverID == ownerID {
			history[i].Seen = true
		}
	}

	return &domain.ConversationView{
		History:        history,
		UnseenResolved: resolved,
	}, nil
}

// SidebarSummary 每個 peer 的未讀數，零的不出現
// 每次都從 store 重新算，不維護另一份計數器
func (uc *ConversationUseCase) SidebarSummary(ctx context.Context, ownerID string) (map[string]int64, error) {
	infos, err := uc.msgRepo.UnseenByPeer(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]int64, len(infos))
	for _, info := range infos {
		summary[info.PeerID] = info.UnseenCount
	}
	return summary, nil
}
