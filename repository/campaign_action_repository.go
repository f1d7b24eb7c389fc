package repository

import (
	"context"

	"github.com/ulixes/xad-sub000/models"
	"gorm.io/gorm"
)

// CampaignActionRepositoryImpl implements CampaignActionRepository
type CampaignActionRepositoryImpl struct {
	*BaseRepository[models.CampaignAction, models.CampaignActionFilter]
}

// NewCampaignActionRepository creates a new campaign action repository
func NewCampaignActionRepository(db *gorm.DB) CampaignActionRepository {
	return &CampaignActionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignAction, models.CampaignActionFilter](db),
	}
}

func (r *CampaignActionRepositoryImpl) ByCampaignID(ctx context.Context, campaignID uint) ([]*models.CampaignAction, error) {
	db := r.getDB(ctx)
	var actions []*models.CampaignAction
	if err := db.Where("campaign_id = ?", campaignID).Order("id ASC").Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}
