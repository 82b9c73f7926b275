package app

import (
	"context"

	"direct_message_service/internal/chat/domain"
	"direct_message_service/internal/chat/repository"
	"direct_message_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeliveryRouter best-effort 推播
// durable 寫入在 usecase 完成後才會走到這裡，推不到不影響訊息存在
type DeliveryRouter struct {
	hub    *PresenceHub
	pubsub repository.MemberPubSub // nil 時僅單節點推播
	nodeID string
}

// NewDeliveryRouter create DeliveryRouter
func NewDeliveryRouter(hub *PresenceHub, pubsub repository.MemberPubSub) *DeliveryRouter {
	return &DeliveryRouter{
		hub:    hub,
		pubsub: pubsub,
		nodeID: uuid.New().String(),
	}
}

// NodeID 本實例識別，跨節點事件靠它去重
func (r *DeliveryRouter) NodeID() string {
	return r.nodeID
}

// FromThisNode 判斷 pubsub 事件是否本節點發出（已經在本地推過）
func (r *DeliveryRouter) FromThisNode(resp domain.WSResponse) bool {
	origin, ok := resp.Payload["origin_node"].(string)
	return ok && origin == r.nodeID
}

func messagePayload(msg *domain.DirectMessage, originNode string) map[string]interface{} {
	return map[string]interface{}{
		"message_id":  msg.ID,
		"sender_id":   msg.SenderID,
		"receiver_id": msg.ReceiverID,
		"text":        msg.Text,
		"image":       msg.Image,
		"created_at":  msg.CreatedAt,
		"origin_node": originNode,
	}
}

// Deliver 推給 receiver 的所有連線，並回聲給 sender 自己的其他裝置
// receiver 離線不算錯，訊息已落地，之後 history 拉得到
func (r *DeliveryRouter) Deliver(msg *domain.DirectMessage, origin ClientConn) {
	notify := domain.WSResponse{
		Action:  string(domain.NotifyMessage),
		Success: true,
		Payload: messagePayload(msg, r.nodeID),
	}
	for _, c := range r.hub.ConnsFor(msg.ReceiverID) {
		r.push(c, notify)
	}

	echo := domain.WSResponse{
		Action:  string(domain.MessageSent),
		Success: true,
		Payload: messagePayload(msg, r.nodeID),
	}
	for _, c := range r.hub.ConnsFor(msg.SenderID) {
		if c == origin {
			continue // 發話的那條連線已拿到同步回覆
		}
		r.push(c, echo)
	}

	// 其他節點的連線靠 pubsub 收到同一份事件
	if r.pubsub != nil {
		if err := r.pubsub.Publish(repository.UserChannel(msg.ReceiverID), notify); err != nil {
			logger.Log.Warn("publish notify err", zap.String("message_id", msg.ID), zap.Error(err))
		}
		if err := r.pubsub.Publish(repository.UserChannel(msg.SenderID), echo); err != nil {
			logger.Log.Warn("publish echo err", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
}

// BroadcastPresence 上下線事件廣播給受影響者以外的所有連線
func (r *DeliveryRouter) BroadcastPresence(userID string, online bool) {
	resp := domain.WSResponse{
		Action:  string(domain.NotifyPresence),
		Success: true,
		Payload: map[string]interface{}{
			"user_id":     userID,
			"online":      online,
			"origin_node": r.nodeID,
		},
	}
	for _, c := range r.hub.AllConnsExcept(userID) {
		r.push(c, resp)
	}

	if r.pubsub != nil {
		if err := r.pubsub.Publish(repository.PresenceChannel, resp); err != nil {
			logger.Log.Warn("publish presence err", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// StartPresenceRelay 訂閱 presence channel，每個節點只訂一次
// 其他節點的上下線事件進來後經 hub 推給本地所有連線（受影響者除外）
func (r *DeliveryRouter) StartPresenceRelay(ctx context.Context) error {
	if r.pubsub == nil {
		return nil
	}
	return r.pubsub.Subscribe(ctx, repository.PresenceChannel, func(resp domain.WSResponse) {
		if r.FromThisNode(resp) {
			return
		}
		uid, _ := resp.Payload["user_id"].(string)
		for _, c := range r.hub.AllConnsExcept(uid) {
			r.push(c, resp)
		}
	})
}

// push 單條連線推播，失敗只記 log，不重試
func (r *DeliveryRouter) push(c ClientConn, resp domain.WSResponse) {
	if err := c.Push(resp); err != nil {
		logger.Log.Debug("push skipped", zap.String("action", resp.Action), zap.Error(err))
	}
}
