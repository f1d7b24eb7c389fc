package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ulixes/xad-sub000/utils"
	"gorm.io/gorm"
)

// CampaignStatus represents the status of a campaign
type CampaignStatus string

const (
	CampaignStatusPendingPayment CampaignStatus = "pending_payment"
	CampaignStatusActive         CampaignStatus = "active"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusPendingPayment, CampaignStatusActive:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// TargetingRequirements is the audience filter a brand attached to the deposit,
// denormalized onto the campaign row
type TargetingRequirements struct {
	VerifiedOnly   bool   `json:"verified_only"`
	MinFollowers   uint64 `json:"min_followers"`
	MinUniqueViews uint64 `json:"min_unique_views"`
	LocationFilter string `json:"location_filter,omitempty"`
	LanguageFilter string `json:"language_filter,omitempty"`
}

// Value implements the driver.Valuer interface for TargetingRequirements
func (r TargetingRequirements) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements the sql.Scanner interface for TargetingRequirements
func (r *TargetingRequirements) Scan(value any) error {
	if value == nil {
		*r = TargetingRequirements{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TargetingRequirements", value)
	}

	return json.Unmarshal(bytes, r)
}

// Campaign represents a funded engagement campaign. CampaignID is the external
// identifier the brand committed on-chain and is globally unique.
type Campaign struct {
	ID                   uint                  `gorm:"primaryKey" json:"id"`
	UUID                 uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	CampaignID           string                `gorm:"type:varchar(128);not null;uniqueIndex:uk_campaigns_campaign_id" json:"campaign_id"`
	BrandID              uint                  `gorm:"not null;index:idx_campaigns_brand_id" json:"brand_id"`
	SenderWalletAddress  string                `gorm:"type:varchar(64);not null" json:"sender_wallet_address"`
	Requirements         TargetingRequirements `gorm:"type:jsonb;not null" json:"requirements"`
	TotalBudgetMinor     uint64                `gorm:"not null" json:"total_budget_minor"`
	RemainingBudgetMinor uint64                `gorm:"not null" json:"remaining_budget_minor"`
	Status               CampaignStatus        `gorm:"type:varchar(32);not null;default:'pending_payment';index:idx_campaigns_status" json:"status"`
	IsActive             bool                  `gorm:"not null;default:false" json:"is_active"`
	CreatedAt            time.Time             `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt            *time.Time            `json:"updated_at,omitempty"`

	// Relations
	Brand    *Brand           `gorm:"foreignKey:BrandID;references:ID" json:"brand,omitempty"`
	Actions  []CampaignAction `gorm:"foreignKey:CampaignID;references:ID" json:"actions,omitempty"`
	Payments []Payment        `gorm:"foreignKey:CampaignID;references:ID" json:"payments,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusPendingPayment
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint           `json:"id,omitempty"`
	UUID          *uuid.UUID      `json:"uuid,omitempty"`
	CampaignID    *string         `json:"campaign_id,omitempty"`
	BrandID       *uint           `json:"brand_id,omitempty"`
	Status        *CampaignStatus `json:"status,omitempty"`
	IsActive      *bool           `json:"is_active,omitempty"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
}
