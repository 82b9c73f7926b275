package app

import (
	"context"
	"sync"

	"direct_message_service/internal/chat/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Append moke append direct message
func (m *MockMessageRepository) Append(ctx context.Context, senderID, receiverID string, payload domain.MessagePayload) (*domain.DirectMessage, error) {
	args := m.Called(ctx, senderID, receiverID, payload)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.DirectMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID moke find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.DirectMessage, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.DirectMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// SetSeen moke set message seen
func (m *MockMessageRepository) SetSeen(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// MarkAllSeen moke mark all seen
func (m *MockMessageRepository) MarkAllSeen(ctx context.Context, ownerID, peerID string) (int64, error) {
	args := m.Called(ctx, ownerID, peerID)
	return args.Get(0).(int64), args.Error(1)
}

// History moke conversation history
func (m *MockMessageRepository) History(ctx context.Context, userA, userB string) ([]domain.DirectMessage, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.DirectMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// CountUnseen moke count unseen by peer
func (m *MockMessageRepository) CountUnseen(ctx context.Context, ownerID, peerID string) (int64, error) {
	args := m.Called(ctx, ownerID, peerID)
	return args.Get(0).(int64), args.Error(1)
}

// UnseenByPeer moke unseen grouped by peer
func (m *MockMessageRepository) UnseenByPeer(ctx context.Context, ownerID string) ([]domain.PeerUnseenInfo, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.PeerUnseenInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAssetRepository Mock AssetRepository
type MockAssetRepository struct {
	mock.Mock
}

// StoreImage moke store image bytes
func (m *MockAssetRepository) StoreImage(ctx context.Context, receiverID string, data []byte) (string, error) {
	args := m.Called(ctx, receiverID, data)
	return args.String(0), args.Error(1)
}

// MockMemberPubSub Mock MemberPubSub
type MockMemberPubSub struct {
	mock.Mock
}

// Publish moke publish
func (m *MockMemberPubSub) Publish(channel string, message interface{}) error {
	args := m.Called(channel, message)
	return args.Error(0)
}

// Subscribe moke subscribe
func (m *MockMemberPubSub) Subscribe(ctx context.Context, channel string, handler func(domain.WSResponse)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

// MockAuditProducer Mock AuditProducer
type MockAuditProducer struct {
	mock.Mock
}

// WriteMessages moke kafka write
func (m *MockAuditProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

// fakeConn 收集推播內容的假連線
type fakeConn struct {
	mu     sync.Mutex
	pushed []domain.WSResponse
	err    error
}

func (c *fakeConn) Push(resp domain.WSResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.pushed = append(c.pushed, resp)
	return nil
}

func (c *fakeConn) received() []domain.WSResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.WSResponse, len(c.pushed))
	copy(out, c.pushed)
	return out
}
