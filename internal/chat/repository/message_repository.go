package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"direct_message_service/internal/chat/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition direct message store
// Append / MarkAllSeen 各自是單一 mongo 操作，對讀取方而言不會看到半套結果
type MessageRepository interface {
	// Append 驗證後落地一則新訊息，id 和 created_at 在這裡指定
	Append(ctx context.Context, senderID, receiverID string, payload domain.MessagePayload) (*domain.DirectMessage, error)
	// FindByID 查單則訊息
	FindByID(ctx context.Context, messageID string) (*domain.DirectMessage, error)
	// SetSeen 把一則訊息的 seen 翻成 true
	SetSeen(ctx context.Context, messageID string) error
	// MarkAllSeen 把 peer 寄給 owner 的未讀一次翻完，回傳翻掉的筆數
	MarkAllSeen(ctx context.Context, ownerID, peerID string) (int64, error)
	// History 兩人之間的完整對話，(created_at, _id) 升冪
	History(ctx context.Context, userA, userB string) ([]domain.DirectMessage, error)
	// CountUnseen peer 寄給 owner 且未讀的筆數，每次都重新掃，不做快取
	CountUnseen(ctx context.Context, ownerID, peerID string) (int64, error)
	// UnseenByPeer owner 的未讀數按 peer 分組，只回傳非零的
	UnseenByPeer(ctx context.Context, ownerID string) ([]domain.PeerUnseenInfo, error)
}

type directMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &directMessageRepository{
		coll: db.Collection("direct_messages"),
	}
}

// storeErr 驅動層錯誤統一包成 ErrStoreUnavailable（唯一可重試的一類）
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (r *directMessageRepository) Append(ctx context.Context, senderID, receiverID string, payload domain.MessagePayload) (*domain.DirectMessage, error) {
	if senderID == receiverID {
		return nil, domain.ErrSelfMessage
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	msg := &domain.DirectMessage{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       payload.Text,
		Image:      payload.Image,
		Seen:       false,
		CreatedAt:  time.Now().UnixMilli(),
	}

	// 單一 document insert，要嘛整筆落地要嘛整筆失敗
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return nil, storeErr(err)
	}
	return msg, nil
}

func (r *directMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.DirectMessage, error) {
	var msg domain.DirectMessage
	err := r.coll.FindOne(ctx, bson.M{"_id": messageID}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return &msg, nil
}

func (r *directMessageRepository) SetSeen(ctx context.Context, messageID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkAllSeen 單一 UpdateMany，讀取方不會觀察到半套批次
func (r *directMessageRepository) MarkAllSeen(ctx context.Context, ownerID, peerID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"sender_id": peerID, "receiver_id": ownerID, "seen": false},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.ModifiedCount, nil
}

func (r *directMessageRepository) History(ctx context.Context, userA, userB string) ([]domain.DirectMessage, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": userA, "receiver_id": userB},
			{"sender_id": userB, "receiver_id": userA},
		},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1}, // 同毫秒用 id 決定順序
	})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(err)
	}

	messages := []domain.DirectMessage{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, storeErr(err)
	}
	return messages, nil
}

func (r *directMessageRepository) CountUnseen(ctx context.Context, ownerID, peerID string) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"sender_id":   peerID,
		"receiver_id": ownerID,
		"seen":        false,
	})
	if err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}

func (r *directMessageRepository) UnseenByPeer(ctx context.Context, ownerID string) ([]domain.PeerUnseenInfo, error) {
	pipeline := mongo.Pipeline{
		// 1. 只看寄給 owner 且未讀的
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "receiver_id", Value: ownerID},
			{Key: "seen", Value: false},
		}}},
		// 2. 按 sender 分組計數，沒有未讀的 peer 不會出現在結果裡
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$sender_id"},
			{Key: "unseen_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "last_unseen_timestamp", Value: bson.D{{Key: "$max", Value: "$created_at"}}},
		}}},
		// 3. 最近有未讀的排前面
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "last_unseen_timestamp", Value: -1},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storeErr(err)
	}

	var results []domain.PeerUnseenInfo
	if err := cur.All(ctx, &results); err != nil {
		return nil, storeErr(err)
	}

	return results, nil
}
