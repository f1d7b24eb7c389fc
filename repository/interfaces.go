// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/ulixes/xad-sub000/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// BrandRepository defines operations for brands and their registered wallets
type BrandRepository interface {
	Repository[models.Brand, models.BrandFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Brand, error)
	ByWalletAddress(ctx context.Context, address string) (*models.Brand, error)
	RegisterWallet(ctx context.Context, wallet *models.BrandWallet) error
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByCampaignID(ctx context.Context, campaignID string) (*models.Campaign, error)
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	// SaveWithActionsAndPayment persists the campaign, its actions, and the
	// funding payment as one atomic unit.
	SaveWithActionsAndPayment(ctx context.Context, campaign *models.Campaign, actions []*models.CampaignAction, payment *models.Payment) error
	// Activate promotes the campaign and all of its actions to active.
	Activate(ctx context.Context, campaignID uint) error
}

// CampaignActionRepository defines operations for campaign actions
type CampaignActionRepository interface {
	Repository[models.CampaignAction, models.CampaignActionFilter]
	ByCampaignID(ctx context.Context, campaignID uint) ([]*models.CampaignAction, error)
}

// PaymentRepository defines operations for payments
type PaymentRepository interface {
	Repository[models.Payment, models.PaymentFilter]
	ByTxHash(ctx context.Context, txHash string) (*models.Payment, error)
}

// WebhookEventRepository defines operations for webhook audit events
type WebhookEventRepository interface {
	Repository[models.WebhookEvent, models.WebhookEventFilter]
	ByTxHash(ctx context.Context, txHash string) ([]*models.WebhookEvent, error)
}
