package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ulixes/xad-sub000/utils"
	"gorm.io/gorm"
)

// Webhook processing outcomes recorded for the audit trail
const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeIgnored   = "ignored"
	WebhookOutcomeFailed    = "failed"
)

// WebhookEvent is an audit row for every webhook delivery the pipeline acted on.
// It is informational only and never consulted for idempotency decisions.
type WebhookEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_webhook_events_uuid" json:"uuid"`
	TxHash     string    `gorm:"type:varchar(80);index:idx_webhook_events_tx_hash" json:"tx_hash"`
	CampaignID string    `gorm:"type:varchar(128)" json:"campaign_id"`
	Outcome    string    `gorm:"type:varchar(32);not null" json:"outcome"`
	Detail     *string   `gorm:"type:text" json:"detail,omitempty"`
	SourceIP   string    `gorm:"type:varchar(64)" json:"source_ip"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_webhook_events_created_at" json:"created_at"`
}

// TableName returns the table name for the model
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// BeforeCreate is called before creating a new record
func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.UTCNow()
	}
	return nil
}

// WebhookEventFilter represents filter criteria for webhook events
type WebhookEventFilter struct {
	TxHash  *string `json:"tx_hash,omitempty"`
	Outcome *string `json:"outcome,omitempty"`
}
