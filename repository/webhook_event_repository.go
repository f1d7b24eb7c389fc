package repository

import (
	"context"
	"strings"

	"github.com/ulixes/xad-sub000/models"
	"gorm.io/gorm"
)

// WebhookEventRepositoryImpl implements WebhookEventRepository
type WebhookEventRepositoryImpl struct {
	*BaseRepository[models.WebhookEvent, models.WebhookEventFilter]
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &WebhookEventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.WebhookEvent, models.WebhookEventFilter](db),
	}
}

func (r *WebhookEventRepositoryImpl) ByTxHash(ctx context.Context, txHash string) ([]*models.WebhookEvent, error) {
	db := r.getDB(ctx)
	var events []*models.WebhookEvent
	if err := db.Where("tx_hash = ?", strings.ToLower(txHash)).Order("id ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
