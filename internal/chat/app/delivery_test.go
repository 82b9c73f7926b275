package app

import (
	"context"
	"testing"

	"direct_message_service/internal/chat/domain"
	"direct_message_service/internal/chat/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// 測試 Deliver 推給收件人所有連線，回聲給 sender 其他裝置
func TestDeliveryRouter_Deliver(t *testing.T) {
	hub := NewPresenceHub()
	senderID := uuid.New().String()
	receiverID := uuid.New().String()

	origin := &fakeConn{}
	senderOther := &fakeConn{}
	receiverConnA := &fakeConn{}
	receiverConnB := &fakeConn{}

	hub.Connect(senderID, origin)
	hub.Connect(senderID, senderOther)
	hub.Connect(receiverID, receiverConnA)
	hub.Connect(receiverID, receiverConnB)

	mockPubSub := new(MockMemberPubSub)
	mockPubSub.On("Publish", repository.UserChannel(receiverID), mock.Anything).Return(nil)
	mockPubSub.On("Publish", repository.UserChannel(senderID), mock.Anything).Return(nil)

	router := NewDeliveryRouter(hub, mockPubSub)
	msg := &domain.DirectMessage{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       "hi",
		CreatedAt:  100,
	}
	router.Deliver(msg, origin)

	// 收件人兩條連線都收到 notify
	for _, c := range []*fakeConn{receiverConnA, receiverConnB} {
		got := c.received()
		assert.Len(t, got, 1)
		assert.Equal(t, string(domain.NotifyMessage), got[0].Action)
		assert.Equal(t, msg.ID, got[0].Payload["message_id"])
	}

	// sender 的其他裝置收到回聲，發話的那條連線沒有
	got := senderOther.received()
	assert.Len(t, got, 1)
	assert.Equal(t, string(domain.MessageSent), got[0].Action)
	assert.Empty(t, origin.received())

	mockPubSub.AssertExpectations(t)
}

// 測試 Deliver 收件人離線只走 pubsub，不報錯
func TestDeliveryRouter_DeliverOffline(t *testing.T) {
	hub := NewPresenceHub()
	senderID := uuid.New().String()
	receiverID := uuid.New().String()

	mockPubSub := new(MockMemberPubSub)
	mockPubSub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	router := NewDeliveryRouter(hub, mockPubSub)
	msg := &domain.DirectMessage{ID: uuid.New().String(), SenderID: senderID, ReceiverID: receiverID, Text: "hi"}
	router.Deliver(msg, nil)

	mockPubSub.AssertNumberOfCalls(t, "Publish", 2)
}

// 測試發佈的事件帶本節點 id，FromThisNode 能認出來
func TestDeliveryRouter_FromThisNode(t *testing.T) {
	hub := NewPresenceHub()
	receiverID := uuid.New().String()
	receiverConn := &fakeConn{}
	hub.Connect(receiverID, receiverConn)

	router := NewDeliveryRouter(hub, nil)
	msg := &domain.DirectMessage{ID: uuid.New().String(), SenderID: uuid.New().String(), ReceiverID: receiverID, Text: "hi"}
	router.Deliver(msg, nil)

	got := receiverConn.received()
	assert.Len(t, got, 1)
	assert.True(t, router.FromThisNode(got[0]))

	other := NewDeliveryRouter(NewPresenceHub(), nil)
	assert.False(t, other.FromThisNode(got[0]))
}

// 測試 BroadcastPresence 廣播給當事人以外的所有連線
func TestDeliveryRouter_BroadcastPresence(t *testing.T) {
	hub := NewPresenceHub()
	userID := uuid.New().String()
	otherID := uuid.New().String()

	selfConn := &fakeConn{}
	otherConn := &fakeConn{}
	hub.Connect(userID, selfConn)
	hub.Connect(otherID, otherConn)

	mockPubSub := new(MockMemberPubSub)
	mockPubSub.On("Publish", repository.PresenceChannel, mock.Anything).Return(nil)

	router := NewDeliveryRouter(hub, mockPubSub)
	router.BroadcastPresence(userID, true)

	got := otherConn.received()
	assert.Len(t, got, 1)
	assert.Equal(t, string(domain.NotifyPresence), got[0].Action)
	assert.Equal(t, userID, got[0].Payload["user_id"])
	assert.Equal(t, true, got[0].Payload["online"])

	// 當事人自己不收
	assert.Empty(t, selfConn.received())
	mockPubSub.AssertExpectations(t)
}

// 測試 presence relay：整個節點只訂一次，外來事件推給當事人以外的本地連線
func TestDeliveryRouter_PresenceRelay(t *testing.T) {
	hub := NewPresenceHub()
	userID := uuid.New().String()
	otherID := uuid.New().String()

	selfConn := &fakeConn{}
	otherConn := &fakeConn{}
	hub.Connect(userID, selfConn)
	hub.Connect(otherID, otherConn)

	var handler func(domain.WSResponse)
	mockPubSub := new(MockMemberPubSub)
	mockPubSub.On("Subscribe", mock.Anything, repository.PresenceChannel, mock.Anything).
		Run(func(args mock.Arguments) {
			handler = args.Get(2).(func(domain.WSResponse))
		}).Return(nil)

	router := NewDeliveryRouter(hub, mockPubSub)
	assert.NoError(t, router.StartPresenceRelay(context.Background()))
	mockPubSub.AssertNumberOfCalls(t, "Subscribe", 1)

	// 其他節點來的事件：推給當事人以外的所有連線
	handler(domain.WSResponse{
		Action:  string(domain.NotifyPresence),
		Success: true,
		Payload: map[string]interface{}{
			"user_id":     userID,
			"online":      true,
			"origin_node": "other-node",
		},
	})
	assert.Len(t, otherConn.received(), 1)
	assert.Empty(t, selfConn.received())

	// 本節點自己發的事件已經在本地推過，直接丟掉
	handler(domain.WSResponse{
		Action:  string(domain.NotifyPresence),
		Success: true,
		Payload: map[string]interface{}{
			"user_id":     userID,
			"online":      false,
			"origin_node": router.NodeID(),
		},
	})
	assert.Len(t, otherConn.received(), 1)
}

// 測試單條連線推播失敗不影響其他連線
func TestDeliveryRouter_PushFailureIsolated(t *testing.T) {
	hub := NewPresenceHub()
	receiverID := uuid.New().String()

	broken := &fakeConn{err: assert.AnError}
	healthy := &fakeConn{}
	hub.Connect(receiverID, broken)
	hub.Connect(receiverID, healthy)

	router := NewDeliveryRouter(hub, nil)
	msg := &domain.DirectMessage{ID: uuid.New().String(), SenderID: uuid.New().String(), ReceiverID: receiverID, Text: "hi"}
	router.Deliver(msg, nil)

	assert.Len(t, healthy.received(), 1)
}
