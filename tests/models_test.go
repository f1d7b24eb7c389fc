package tests

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ulixes/xad-sub000/models"
	testingutil "github.com/ulixes/xad-sub000/testing"
)

func TestCampaignStatusEnum(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, models.CampaignStatusPendingPayment.Valid())
		assert.True(t, models.CampaignStatusActive.Valid())
		assert.False(t, models.CampaignStatus("archived").Valid())
	})

	t.Run("Scan", func(t *testing.T) {
		var status models.CampaignStatus
		require.NoError(t, status.Scan("active"))
		assert.Equal(t, models.CampaignStatusActive, status)

		require.NoError(t, status.Scan([]byte("pending_payment")))
		assert.Equal(t, models.CampaignStatusPendingPayment, status)

		assert.Error(t, status.Scan(42))
	})

	t.Run("Value", func(t *testing.T) {
		value, err := models.CampaignStatusActive.Value()
		require.NoError(t, err)
		assert.Equal(t, "active", value)

		_, err = models.CampaignStatus("bogus").Value()
		assert.Error(t, err)
	})
}

func TestActionTypeEnum(t *testing.T) {
	assert.True(t, models.ActionTypeFollow.Valid())
	assert.True(t, models.ActionTypeLike.Valid())
	assert.False(t, models.ActionType("retweet").Valid())

	var actionType models.ActionType
	require.NoError(t, actionType.Scan("like"))
	assert.Equal(t, models.ActionTypeLike, actionType)
}

func TestTargetingRequirementsScanValue(t *testing.T) {
	requirements := models.TargetingRequirements{
		VerifiedOnly:   true,
		MinFollowers:   1000,
		MinUniqueViews: 5000,
		LocationFilter: "US",
	}

	value, err := requirements.Value()
	require.NoError(t, err)

	var scanned models.TargetingRequirements
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, requirements, scanned)
}

func TestCampaignActionHasCapacity(t *testing.T) {
	action := models.CampaignAction{MaxVolume: 2, CurrentVolume: 0}
	assert.True(t, action.HasCapacity())

	action.CurrentVolume = 2
	assert.False(t, action.HasCapacity())
}

func TestPaymentNormalizationOnCreate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		brand, err := fixtures.CreateTestBrand(testingutil.RandomWalletAddress())
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(brand, "cmp_norm", 1000)
		require.NoError(t, err)

		mixed := "0x" + strings.ToUpper(testingutil.RandomTxHash()[2:])
		payment, err := fixtures.CreateTestPayment(campaign, mixed, 1000)
		require.NoError(t, err)

		assert.Equal(t, strings.ToLower(mixed), payment.TxHash)
		assert.Equal(t, strings.ToLower(payment.FromAddress), payment.FromAddress)

		return nil
	})
	require.NoError(t, err)
}

func TestBrandWalletNormalizationOnCreate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		mixed := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
		brand, err := fixtures.CreateTestBrand(mixed)
		require.NoError(t, err)

		var wallet models.BrandWallet
		require.NoError(t, testDB.DB.Where("brand_id = ?", brand.ID).First(&wallet).Error)
		assert.Equal(t, strings.ToLower(mixed), wallet.Address)

		return nil
	})
	require.NoError(t, err)
}
