package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ulixes/xad-sub000/models"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements CampaignRepository
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

func (r *CampaignRepositoryImpl) ByCampaignID(ctx context.Context, campaignID string) (*models.Campaign, error) {
	db := r.getDB(ctx)
	var campaign models.Campaign
	if err := db.Where("campaign_id = ?", campaignID).Last(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

func (r *CampaignRepositoryImpl) ByUUID(ctx context.Context, u string) (*models.Campaign, error) {
	db := r.getDB(ctx)
	var campaign models.Campaign
	if err := db.Where("uuid = ?", u).Last(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// SaveWithActionsAndPayment persists the campaign graph as one atomic unit.
// Either every row lands or none do; a campaign without its actions is not an
// acceptable end state.
func (r *CampaignRepositoryImpl) SaveWithActionsAndPayment(ctx context.Context, campaign *models.Campaign, actions []*models.CampaignAction, payment *models.Payment) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	if err = db.Create(campaign).Error; err != nil {
		return fmt.Errorf("failed to save campaign %s: %w", campaign.CampaignID, err)
	}
	for _, action := range actions {
		action.CampaignID = campaign.ID
	}
	if len(actions) > 0 {
		if err = db.Create(actions).Error; err != nil {
			return fmt.Errorf("failed to save actions for campaign %s: %w", campaign.CampaignID, err)
		}
	}
	payment.CampaignID = campaign.ID
	if err = db.Create(payment).Error; err != nil {
		return fmt.Errorf("failed to save payment %s: %w", payment.TxHash, err)
	}
	return nil
}

// Activate promotes the campaign and its actions to active in one statement pair.
func (r *CampaignRepositoryImpl) Activate(ctx context.Context, campaignID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Campaign{}).
		Where("id = ?", campaignID).
		Updates(map[string]any{"status": string(models.CampaignStatusActive), "is_active": true}).Error
	if err != nil {
		return fmt.Errorf("failed to activate campaign %d: %w", campaignID, err)
	}
	err = db.Model(&models.CampaignAction{}).
		Where("campaign_id = ?", campaignID).
		Update("is_active", true).Error
	if err != nil {
		return fmt.Errorf("failed to activate actions for campaign %d: %w", campaignID, err)
	}
	return nil
}
