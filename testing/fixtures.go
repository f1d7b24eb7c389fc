package testing

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/google/uuid"

	"github.com/ulixes/xad-sub000/models"
	"github.com/ulixes/xad-sub000/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// RandomWalletAddress generates a syntactically valid, unique hex address
func RandomWalletAddress() string {
	buf := make([]byte, 20)
	rand.Read(buf)
	return fmt.Sprintf("0x%x", buf)
}

// RandomTxHash generates a unique transaction hash
func RandomTxHash() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return fmt.Sprintf("0x%x", buf)
}

// CreateTestBrand creates an active brand with one registered wallet address
func (tf *TestFixtures) CreateTestBrand(walletAddress string) (*models.Brand, error) {
	suffix := rand.Intn(1000000)
	brand := &models.Brand{
		UUID:         uuid.New(),
		Name:         fmt.Sprintf("Test Brand %d", suffix),
		ContactEmail: fmt.Sprintf("brand.%d@example.com", suffix),
		IsActive:     utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(brand).Error; err != nil {
		return nil, fmt.Errorf("failed to create test brand: %w", err)
	}

	wallet := &models.BrandWallet{
		BrandID: brand.ID,
		Address: walletAddress,
		Chain:   utils.BaseChainName,
	}
	if err := tf.DB.DB.Create(wallet).Error; err != nil {
		return nil, fmt.Errorf("failed to register test brand wallet: %w", err)
	}
	brand.Wallets = []models.BrandWallet{*wallet}

	return brand, nil
}

// CreateInactiveTestBrand creates a brand that must not be able to fund campaigns
func (tf *TestFixtures) CreateInactiveTestBrand(walletAddress string) (*models.Brand, error) {
	brand, err := tf.CreateTestBrand(walletAddress)
	if err != nil {
		return nil, err
	}
	if err := tf.DB.DB.Model(brand).Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test brand: %w", err)
	}
	brand.IsActive = utils.ToPtr(false)
	return brand, nil
}

// CreateTestCampaign creates an active campaign for the brand with one follow action
func (tf *TestFixtures) CreateTestCampaign(brand *models.Brand, campaignID string, budgetMinor uint64) (*models.Campaign, error) {
	sender := RandomWalletAddress()
	if len(brand.Wallets) > 0 {
		sender = brand.Wallets[0].Address
	}

	campaign := &models.Campaign{
		UUID:                uuid.New(),
		CampaignID:          campaignID,
		BrandID:             brand.ID,
		SenderWalletAddress: sender,
		Requirements: models.TargetingRequirements{
			MinFollowers: 100,
		},
		TotalBudgetMinor:     budgetMinor,
		RemainingBudgetMinor: budgetMinor,
		Status:               models.CampaignStatusActive,
		IsActive:             true,
	}
	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	action := &models.CampaignAction{
		UUID:                uuid.New(),
		CampaignID:          campaign.ID,
		ActionType:          models.ActionTypeFollow,
		Target:              "test_handle",
		PricePerActionMinor: 100,
		MaxVolume:           10,
		IsActive:            true,
	}
	if err := tf.DB.DB.Create(action).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign action: %w", err)
	}
	campaign.Actions = []models.CampaignAction{*action}

	return campaign, nil
}

// CreateTestPayment records a completed payment against the campaign
func (tf *TestFixtures) CreateTestPayment(campaign *models.Campaign, txHash string, amountMinor uint64) (*models.Payment, error) {
	payment := &models.Payment{
		UUID:        uuid.New(),
		CampaignID:  campaign.ID,
		BrandID:     campaign.BrandID,
		FromAddress: campaign.SenderWalletAddress,
		ToAddress:   RandomWalletAddress(),
		AmountMinor: amountMinor,
		Currency:    utils.UsdcCurrency,
		TxHash:      txHash,
		BlockNumber: 1000 + uint64(rand.Intn(100000)),
		Status:      models.PaymentStatusCompleted,
		PaidAt:      utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test payment: %w", err)
	}
	return payment, nil
}

// UsdcBaseUnits converts whole tokens to base units at 6 decimals
func UsdcBaseUnits(tokens int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(tokens), big.NewInt(1_000_000))
}
