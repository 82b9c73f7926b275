package app

import (
	"context"
	"encoding/json"
	"time"

	"direct_message_service/internal/chat/domain"
	"direct_message_service/internal/chat/repository"
	"direct_message_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AuditProducer kafka writer 的邊界
type AuditProducer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// SendMessageUseCase 負責訊息落地與推播
type SendMessageUseCase struct {
	msgRepo repository.MessageRepository
	assets  repository.AssetRepository
	router  *DeliveryRouter
	audit   AuditProducer
	guard   SessionGuard
}

// NewSendMessageUseCase init send message use case
func NewSendMessageUseCase(
	msgRepo repository.MessageRepository,
	assets repository.AssetRepository,
	router *DeliveryRouter,
	audit AuditProducer,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		msgRepo: msgRepo,
		assets:  assets,
		router:  router,
		audit:   audit,
	}
}

// Execute send message
// Append 回傳成功後訊息就是 durable 的，後面推播成敗都不影響
func (uc *SendMessageUseCase) Execute(ctx context.Context, senderID, receiverID, text string, image []byte, origin ClientConn) (*domain.DirectMessage, error) {
	if err := uc.guard.AssertDistinctParticipants(senderID, receiverID); err != nil {
		return nil, err
	}

	// 內容檢查放在圖片上傳前，免得白傳一張圖
	if text == "" && len(image) == 0 {
		return nil, domain.ErrInvalidPayload
	}
	if text != "" && len(image) > 0 {
		return nil, domain.ErrInvalidPayload
	}

	payload := domain.MessagePayload{Text: text}
	if len(image) > 0 {
		ref, err := uc.assets.StoreImage(ctx, receiverID, image)
		if err != nil {
			return nil, err
		}
		payload.Image = ref
	}

	msg, err := uc.msgRepo.Append(ctx, senderID, receiverID, payload)
	if err != nil {
		return nil, err
	}

	uc.publishAudit(msg)

	// best-effort push，receiver 離線就留在 store 等他拉
	if uc.router != nil {
		uc.router.Deliver(msg, origin)
	}

	return msg, nil
}

// MarkSeen 單則訊息已讀，只有收件人能翻，翻過再翻是 no-op
func (uc *SendMessageUseCase) MarkSeen(ctx context.Context, messageID, actingUserID string) error {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := uc.guard.AssertOwnsInbox(actingUserID, msg); err != nil {
		return err
	}
	if msg.Seen {
		return nil
	}
	return uc.msgRepo.SetSeen(ctx, messageID)
}

// publishAudit 訊息事件丟進 kafka，失敗只記 log 不影響送信
func (uc *SendMessageUseCase) publishAudit(msg *domain.DirectMessage) {
	if uc.audit == nil {
		return
	}
	event := map[string]interface{}{
		"message_id":  msg.ID,
		"sender_id":   msg.SenderID,
		"receiver_id": msg.ReceiverID,
		"has_image":   msg.Image != "",
		"created_at":  msg.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Warn("audit marshal err", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := uc.audit.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ID),
		Value: data,
	}); err != nil {
		logger.Log.Warn("audit publish err", zap.String("message_id", msg.ID), zap.Error(err))
	}
}
