// Package tests contains test cases for models, repository, and business flow packages to avoid circular imports
package tests

import (
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ulixes/xad-sub000/app/services"
	businessflow "github.com/ulixes/xad-sub000/business_flow"
	"github.com/ulixes/xad-sub000/config"
	"github.com/ulixes/xad-sub000/models"
	testingutil "github.com/ulixes/xad-sub000/testing"
	"github.com/ulixes/xad-sub000/utils"
)

const flowTestContract = "0x1a9c8182c09f50c8318d769245bea52c32be35bc"

func newTestFlow(testDB *testingutil.TestDB) (businessflow.CampaignPaymentFlow, services.TargetCodec) {
	codec := services.NewTargetCodec(services.CodecVersionV1)
	flow := businessflow.NewCampaignPaymentFlow(
		newBrandRepo(testDB),
		newCampaignRepo(testDB),
		newCampaignActionRepo(testDB),
		newPaymentRepo(testDB),
		newWebhookEventRepo(testDB),
		codec,
		nil,
		testDB.DB,
		config.BlockchainConfig{
			ContractAddress: flowTestContract,
			WebhookSecret:   "unused",
			TokenDecimals:   6,
			TokenSymbol:     utils.UsdcCurrency,
			CodecVersion:    services.CodecVersionV1,
		},
		config.PricingConfig{FollowPriceMinor: 100, LikePriceMinor: 50},
		config.CacheConfig{},
	)
	return flow, codec
}

func paymentIntent(campaignID string, codec services.TargetCodec) *services.DecodedPaymentIntent {
	return &services.DecodedPaymentIntent{
		CampaignID: campaignID,
		Requirements: services.CampaignRequirements{
			VerifiedOnly: true,
			MinFollowers: 100,
		},
		ActionSpec: services.CampaignActionSpec{
			FollowTarget:       codec.Encode("brand_handle"),
			FollowCount:        10,
			LikeTargets:        []string{codec.Encode("post_1"), codec.Encode("post_2")},
			LikeCountPerTarget: 5,
		},
	}
}

func confirmedPayment(sender, txHash string, amountBaseUnits *big.Int) *services.ConfirmedPayment {
	return &services.ConfirmedPayment{
		CampaignID:      "",
		SenderAddress:   sender,
		AmountBaseUnits: amountBaseUnits,
		Timestamp:       utils.UTCNow(),
		TxHash:          txHash,
		ToAddress:       flowTestContract,
		BlockNumber:     77,
	}
}

func countRows(t *testing.T, testDB *testingutil.TestDB, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, testDB.DB.Model(model).Count(&count).Error)
	return count
}

func TestCampaignPaymentFlowHappyPath(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, codec := newTestFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		wallet := testingutil.RandomWalletAddress()
		brand, err := fixtures.CreateTestBrand(wallet)
		require.NoError(t, err)

		txHash := testingutil.RandomTxHash()
		intent := paymentIntent("cmp_happy", codec)
		payment := confirmedPayment(wallet, txHash, testingutil.UsdcBaseUnits(25))

		campaign, err := flow.HandleConfirmedPayment(ctx, intent, payment, businessflow.NewClientMetadata("10.0.0.1", "tenderly"))
		require.NoError(t, err)
		require.NotNil(t, campaign)

		assert.Equal(t, "cmp_happy", campaign.CampaignID)
		assert.Equal(t, brand.ID, campaign.BrandID)
		assert.Equal(t, models.CampaignStatusActive, campaign.Status)
		assert.True(t, campaign.IsActive)
		assert.Equal(t, uint64(25000), campaign.TotalBudgetMinor)
		assert.Equal(t, uint64(25000), campaign.RemainingBudgetMinor)
		assert.Equal(t, strings.ToLower(wallet), campaign.SenderWalletAddress)

		// Persisted graph: one campaign, three actions, one payment
		assert.Equal(t, int64(1), countRows(t, testDB, &models.Campaign{}))
		assert.Equal(t, int64(3), countRows(t, testDB, &models.CampaignAction{}))
		assert.Equal(t, int64(1), countRows(t, testDB, &models.Payment{}))

		var actions []models.CampaignAction
		require.NoError(t, testDB.DB.Order("id").Find(&actions).Error)
		assert.Equal(t, models.ActionTypeFollow, actions[0].ActionType)
		assert.Equal(t, "brand_handle", actions[0].Target)
		assert.Equal(t, uint64(100), actions[0].PricePerActionMinor)
		assert.Equal(t, uint64(10), actions[0].MaxVolume)
		assert.True(t, actions[0].IsActive)
		assert.Equal(t, models.ActionTypeLike, actions[1].ActionType)
		assert.Equal(t, "post_1", actions[1].Target)
		assert.Equal(t, uint64(50), actions[1].PricePerActionMinor)
		assert.Equal(t, uint64(5), actions[1].MaxVolume)
		assert.Equal(t, "post_2", actions[2].Target)

		var persisted models.Payment
		require.NoError(t, testDB.DB.First(&persisted).Error)
		assert.Equal(t, strings.ToLower(txHash), persisted.TxHash)
		assert.Equal(t, uint64(25000), persisted.AmountMinor)
		assert.Equal(t, utils.UsdcCurrency, persisted.Currency)
		assert.Equal(t, campaign.ID, persisted.CampaignID)
		assert.Equal(t, brand.ID, persisted.BrandID)

		var events []models.WebhookEvent
		require.NoError(t, testDB.DB.Find(&events).Error)
		require.Len(t, events, 1)
		assert.Equal(t, models.WebhookOutcomeProcessed, events[0].Outcome)
		assert.Equal(t, "10.0.0.1", events[0].SourceIP)

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignPaymentFlowIdempotentRedelivery(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, codec := newTestFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		wallet := testingutil.RandomWalletAddress()
		_, err := fixtures.CreateTestBrand(wallet)
		require.NoError(t, err)

		txHash := testingutil.RandomTxHash()
		intent := paymentIntent("cmp_dup", codec)
		payment := confirmedPayment(wallet, txHash, testingutil.UsdcBaseUnits(10))

		first, err := flow.HandleConfirmedPayment(ctx, intent, payment, nil)
		require.NoError(t, err)

		second, err := flow.HandleConfirmedPayment(ctx, intent, payment, nil)
		require.NoError(t, err)
		assert.Equal(t, first.CampaignID, second.CampaignID)
		assert.Equal(t, first.ID, second.ID)

		assert.Equal(t, int64(1), countRows(t, testDB, &models.Campaign{}))
		assert.Equal(t, int64(1), countRows(t, testDB, &models.Payment{}))
		assert.Equal(t, int64(3), countRows(t, testDB, &models.CampaignAction{}))

		var outcomes []string
		require.NoError(t, testDB.DB.Model(&models.WebhookEvent{}).Order("id").Pluck("outcome", &outcomes).Error)
		assert.Equal(t, []string{models.WebhookOutcomeProcessed, models.WebhookOutcomeDuplicate}, outcomes)

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignPaymentFlowDuplicateCampaignID(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, codec := newTestFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		wallet := testingutil.RandomWalletAddress()
		_, err := fixtures.CreateTestBrand(wallet)
		require.NoError(t, err)

		intent := paymentIntent("cmp_same_id", codec)

		first, err := flow.HandleConfirmedPayment(ctx, intent, confirmedPayment(wallet, testingutil.RandomTxHash(), testingutil.UsdcBaseUnits(10)), nil)
		require.NoError(t, err)

		// A different transaction claiming the same campaign id resolves to the
		// existing campaign without another payment row.
		second, err := flow.HandleConfirmedPayment(ctx, intent, confirmedPayment(wallet, testingutil.RandomTxHash(), testingutil.UsdcBaseUnits(10)), nil)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		assert.Equal(t, int64(1), countRows(t, testDB, &models.Campaign{}))
		assert.Equal(t, int64(1), countRows(t, testDB, &models.Payment{}))

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignPaymentFlowBrandNotRegistered(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, codec := newTestFlow(testDB)
		ctx := testingutil.CreateTestContext()

		intent := paymentIntent("cmp_nobrand", codec)
		payment := confirmedPayment(testingutil.RandomWalletAddress(), testingutil.RandomTxHash(), testingutil.UsdcBaseUnits(10))

		campaign, err := flow.HandleConfirmedPayment(ctx, intent, payment, nil)
		assert.Nil(t, campaign)
		require.Error(t, err)
		assert.True(t, businessflow.IsBrandNotRegistered(err))

		// The flow never creates brands and leaves nothing behind.
		assert.Equal(t, int64(0), countRows(t, testDB, &models.Brand{}))
		assert.Equal(t, int64(0), countRows(t, testDB, &models.Campaign{}))
		assert.Equal(t, int64(0), countRows(t, testDB, &models.Payment{}))

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignPaymentFlowInactiveBrand(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, codec := newTestFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		wallet := testingutil.RandomWalletAddress()
		_, err := fixtures.CreateInactiveTestBrand(wallet)
		require.NoError(t, err)

		intent := paymentIntent("cmp_inactive", codec)
		payment := confirmedPayment(wallet, testingutil.RandomTxHash(), testingutil.UsdcBaseUnits(10))

		campaign, err := flow.HandleConfirmedPayment(ctx, intent, payment, nil)
		assert.Nil(t, campaign)
		require.Error(t, err)
		assert.True(t, businessflow.IsBrandInactive(err))

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignPaymentFlowActionDerivation(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, codec := newTestFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		wallet := testingutil.RandomWalletAddress()
		_, err := fixtures.CreateTestBrand(wallet)
		require.NoError(t, err)

		// Zero follow count and one empty like target: only two likes survive.
		intent := &services.DecodedPaymentIntent{
			CampaignID: "cmp_actions",
			ActionSpec: services.CampaignActionSpec{
				FollowTarget:       codec.Encode("ignored_handle"),
				FollowCount:        0,
				LikeTargets:        []string{codec.Encode("post_a"), "", codec.Encode("post_b")},
				LikeCountPerTarget: 3,
			},
		}
		payment := confirmedPayment(wallet, testingutil.RandomTxHash(), testingutil.UsdcBaseUnits(5))

		campaign, err := flow.HandleConfirmedPayment(ctx, intent, payment, nil)
		require.NoError(t, err)

		var actions []models.CampaignAction
		require.NoError(t, testDB.DB.Where("campaign_id = ?", campaign.ID).Order("id").Find(&actions).Error)
		require.Len(t, actions, 2)
		assert.Equal(t, models.ActionTypeLike, actions[0].ActionType)
		assert.Equal(t, "post_a", actions[0].Target)
		assert.Equal(t, models.ActionTypeLike, actions[1].ActionType)
		assert.Equal(t, "post_b", actions[1].Target)

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignPaymentFlowNoActions(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, _ := newTestFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		wallet := testingutil.RandomWalletAddress()
		_, err := fixtures.CreateTestBrand(wallet)
		require.NoError(t, err)

		// An action spec that derives nothing is a warning, not an error.
		intent := &services.DecodedPaymentIntent{
			CampaignID: "cmp_empty",
			ActionSpec: services.CampaignActionSpec{},
		}
		payment := confirmedPayment(wallet, testingutil.RandomTxHash(), testingutil.UsdcBaseUnits(5))

		campaign, err := flow.HandleConfirmedPayment(ctx, intent, payment, nil)
		require.NoError(t, err)
		assert.Equal(t, models.CampaignStatusActive, campaign.Status)
		assert.Equal(t, int64(0), countRows(t, testDB, &models.CampaignAction{}))
		assert.Equal(t, int64(1), countRows(t, testDB, &models.Payment{}))

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignPaymentFlowZeroAmount(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, codec := newTestFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		wallet := testingutil.RandomWalletAddress()
		_, err := fixtures.CreateTestBrand(wallet)
		require.NoError(t, err)

		intent := paymentIntent("cmp_dust", codec)
		payment := confirmedPayment(wallet, testingutil.RandomTxHash(), big.NewInt(1))

		campaign, err := flow.HandleConfirmedPayment(ctx, intent, payment, nil)
		assert.Nil(t, campaign)
		require.Error(t, err)
		assert.True(t, businessflow.IsPaymentAmountZero(err))

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignPaymentFlowConcurrentRedelivery(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, codec := newTestFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		wallet := testingutil.RandomWalletAddress()
		_, err := fixtures.CreateTestBrand(wallet)
		require.NoError(t, err)

		txHash := testingutil.RandomTxHash()
		intent := paymentIntent("cmp_race", codec)
		payment := confirmedPayment(wallet, txHash, testingutil.UsdcBaseUnits(10))

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = flow.HandleConfirmedPayment(ctx, intent, payment, nil)
			}(i)
		}
		wg.Wait()

		// Both deliveries succeed; the loser of the insert race converts the
		// unique violation into the winner's campaign.
		assert.NoError(t, results[0])
		assert.NoError(t, results[1])
		assert.Equal(t, int64(1), countRows(t, testDB, &models.Campaign{}))
		assert.Equal(t, int64(1), countRows(t, testDB, &models.Payment{}))

		return nil
	})
	require.NoError(t, err)
}
