package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"direct_message_service/pkg/database"

	"github.com/google/uuid"
)

// 圖片 reference 的有效期，到期後由 history 重新換發
const assetURLExpiry = 7 * 24 * time.Hour

// AssetRepository 存放圖片 payload，回傳不透明 reference
// core 不解讀 reference 內容
type AssetRepository interface {
	StoreImage(ctx context.Context, receiverID string, data []byte) (string, error)
}

type minioAssetRepository struct {
	mc *database.MinIOClient
}

// NewMinIOAssetRepository create an AssetRepository
func NewMinIOAssetRepository(mc *database.MinIOClient) AssetRepository {
	return &minioAssetRepository{mc: mc}
}

// StoreImage 上傳圖片並回傳可讀取的 presigned URL
func (r *minioAssetRepository) StoreImage(ctx context.Context, receiverID string, data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	objectName := fmt.Sprintf("dm/%s/%s", receiverID, uuid.New().String())

	if err := r.mc.UploadBytes(ctx, objectName, data, contentType); err != nil {
		return "", fmt.Errorf("upload image failed: %w", err)
	}

	url, err := r.mc.PresignGetURL(ctx, objectName, assetURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign image url failed: %w", err)
	}
	return url, nil
}
