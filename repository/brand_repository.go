package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/ulixes/xad-sub000/models"
	"gorm.io/gorm"
)

// BrandRepositoryImpl implements BrandRepository
type BrandRepositoryImpl struct {
	*BaseRepository[models.Brand, models.BrandFilter]
}

// NewBrandRepository creates a new brand repository
func NewBrandRepository(db *gorm.DB) BrandRepository {
	return &BrandRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Brand, models.BrandFilter](db),
	}
}

func (r *BrandRepositoryImpl) ByUUID(ctx context.Context, u string) (*models.Brand, error) {
	db := r.getDB(ctx)
	var brand models.Brand
	if err := db.Where("uuid = ?", u).Last(&brand).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &brand, nil
}

// ByWalletAddress resolves the brand owning the given wallet address. The
// lookup is case-insensitive; wallet rows are stored lower-cased.
func (r *BrandRepositoryImpl) ByWalletAddress(ctx context.Context, address string) (*models.Brand, error) {
	db := r.getDB(ctx)
	var wallet models.BrandWallet
	err := db.Where("address = ?", strings.ToLower(address)).Last(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var brand models.Brand
	if err := db.Last(&brand, wallet.BrandID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &brand, nil
}

func (r *BrandRepositoryImpl) RegisterWallet(ctx context.Context, wallet *models.BrandWallet) error {
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
	err = db.Create(wallet).Error
	return err
}
