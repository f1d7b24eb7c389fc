package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/ulixes/xad-sub000/models"
	"gorm.io/gorm"
)

// PaymentRepositoryImpl implements PaymentRepository
type PaymentRepositoryImpl struct {
	*BaseRepository[models.Payment, models.PaymentFilter]
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &PaymentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Payment, models.PaymentFilter](db),
	}
}

// ByTxHash finds a payment by its transaction hash, case-insensitively.
func (r *PaymentRepositoryImpl) ByTxHash(ctx context.Context, txHash string) (*models.Payment, error) {
	db := r.getDB(ctx)
	var payment models.Payment
	if err := db.Where("tx_hash = ?", strings.ToLower(txHash)).Last(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}
