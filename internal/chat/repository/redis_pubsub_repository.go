package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"direct_message_service/internal/chat/domain"
	"direct_message_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// UserChannel 單一使用者的訊息推播 channel
func UserChannel(userID string) string {
	return "dm:user:" + userID
}

// PresenceChannel 全體上下線事件 channel
const PresenceChannel = "dm:presence"

// MemberPubSub 跨節點推播的邊界，delivery 靠它把事件送到其他實例
type MemberPubSub interface {
	Publish(channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler func(resp domain.WSResponse)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish 將 message 序列化後，發布到指定 channel
func (r *RedisPubSub) Publish(channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, channel, data).Err()
}

// Subscribe 訂閱 channel，收到訊息後呼叫 handler 處理
// ctx 取消時關閉訂閱
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(resp domain.WSResponse)) error {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var resp domain.WSResponse
				if err := json.Unmarshal([]byte(m.Payload), &resp); err != nil {
					logger.Log.Error("pubsub payload err :", zap.String("err", fmt.Sprintf("failed to unmarshal event: %v", err)))
					continue
				}
				handler(resp)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
