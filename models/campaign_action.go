package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ulixes/xad-sub000/utils"
	"gorm.io/gorm"
)

// ActionType represents the engagement type of a campaign action
type ActionType string

const (
	ActionTypeFollow ActionType = "follow"
	ActionTypeLike   ActionType = "like"
)

// String returns the string representation of the action type
func (t ActionType) String() string {
	return string(t)
}

// Valid checks if the action type is valid
func (t ActionType) Valid() bool {
	switch t {
	case ActionTypeFollow, ActionTypeLike:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ActionType
func (t *ActionType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = ActionType(v)
	case []byte:
		*t = ActionType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ActionType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ActionType
func (t ActionType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid ActionType: %s", t)
	}
	return string(t), nil
}

// CampaignAction is one purchasable engagement unit of a campaign: a follow on a
// single target or likes on a single post. Target holds the decoded,
// human-readable identifier.
type CampaignAction struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	UUID                uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_campaign_actions_uuid" json:"uuid"`
	CampaignID          uint       `gorm:"not null;index:idx_campaign_actions_campaign_id" json:"campaign_id"`
	ActionType          ActionType `gorm:"type:varchar(16);not null" json:"action_type"`
	Target              string     `gorm:"type:varchar(512);not null" json:"target"`
	PricePerActionMinor uint64     `gorm:"not null" json:"price_per_action_minor"`
	MaxVolume           uint64     `gorm:"not null" json:"max_volume"`
	CurrentVolume       uint64     `gorm:"not null;default:0" json:"current_volume"`
	IsActive            bool       `gorm:"not null;default:false" json:"is_active"`
	CreatedAt           time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`

	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (CampaignAction) TableName() string {
	return "campaign_actions"
}

// BeforeCreate is called before creating a new record
func (a *CampaignAction) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (a *CampaignAction) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// HasCapacity reports whether the action can still be fulfilled
func (a *CampaignAction) HasCapacity() bool {
	return a.CurrentVolume < a.MaxVolume
}

// CampaignActionFilter represents filter criteria for campaign actions
type CampaignActionFilter struct {
	ID         *uint       `json:"id,omitempty"`
	CampaignID *uint       `json:"campaign_id,omitempty"`
	ActionType *ActionType `json:"action_type,omitempty"`
	IsActive   *bool       `json:"is_active,omitempty"`
}
