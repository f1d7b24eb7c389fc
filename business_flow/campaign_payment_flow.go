package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ulixes/xad-sub000/app/services"
	"github.com/ulixes/xad-sub000/config"
	"github.com/ulixes/xad-sub000/models"
	"github.com/ulixes/xad-sub000/repository"
	"github.com/ulixes/xad-sub000/utils"
)

// CampaignPaymentFlow turns a decoded, confirmed on-chain deposit into the
// campaign graph: campaign, actions, and payment, exactly once per transaction.
type CampaignPaymentFlow interface {
	HandleConfirmedPayment(ctx context.Context, intent *services.DecodedPaymentIntent, payment *services.ConfirmedPayment, metadata *ClientMetadata) (*models.Campaign, error)
}

// CampaignPaymentFlowImpl implements CampaignPaymentFlow
type CampaignPaymentFlowImpl struct {
	brandRepo     repository.BrandRepository
	campaignRepo  repository.CampaignRepository
	actionRepo    repository.CampaignActionRepository
	paymentRepo   repository.PaymentRepository
	eventRepo     repository.WebhookEventRepository
	codec         services.TargetCodec
	cache         *redis.Client
	db            *gorm.DB
	blockchainCfg config.BlockchainConfig
	pricingCfg    config.PricingConfig
	cacheCfg      config.CacheConfig
}

func NewCampaignPaymentFlow(
	brandRepo repository.BrandRepository,
	campaignRepo repository.CampaignRepository,
	actionRepo repository.CampaignActionRepository,
	paymentRepo repository.PaymentRepository,
	eventRepo repository.WebhookEventRepository,
	codec services.TargetCodec,
	cache *redis.Client,
	db *gorm.DB,
	blockchainCfg config.BlockchainConfig,
	pricingCfg config.PricingConfig,
	cacheCfg config.CacheConfig,
) CampaignPaymentFlow {
	return &CampaignPaymentFlowImpl{
		brandRepo:     brandRepo,
		campaignRepo:  campaignRepo,
		actionRepo:    actionRepo,
		paymentRepo:   paymentRepo,
		eventRepo:     eventRepo,
		codec:         codec,
		cache:         cache,
		db:            db,
		blockchainCfg: blockchainCfg,
		pricingCfg:    pricingCfg,
		cacheCfg:      cacheCfg,
	}
}

// HandleConfirmedPayment materializes the campaign graph for one confirmed
// deposit. Re-deliveries of the same transaction return the already-persisted
// campaign; the database unique constraints on tx hash and campaign id are the
// idempotency authority, the redis cache is only a fast path in front of them.
func (f *CampaignPaymentFlowImpl) HandleConfirmedPayment(ctx context.Context, intent *services.DecodedPaymentIntent, payment *services.ConfirmedPayment, metadata *ClientMetadata) (*models.Campaign, error) {
	if intent == nil || intent.CampaignID == "" {
		return nil, ErrCampaignIDRequired
	}
	if payment == nil || payment.SenderAddress == "" {
		return nil, ErrSenderWalletMissing
	}

	txHash := strings.ToLower(payment.TxHash)

	if f.isAlreadyProcessedCached(ctx, txHash) {
		if campaign, err := f.campaignRepo.ByCampaignID(ctx, intent.CampaignID); err == nil && campaign != nil {
			log.Printf("campaign payment: tx %s already processed (cache hit), returning campaign %s", txHash, campaign.CampaignID)
			f.audit(ctx, txHash, intent.CampaignID, models.WebhookOutcomeDuplicate, "cache hit", metadata)
			return campaign, nil
		}
		// Cache claims processed but the database disagrees; fall through and
		// let the constraints decide.
	}

	amountMinor := services.ToMinorUnits(payment.AmountBaseUnits, f.blockchainCfg.TokenDecimals)
	if amountMinor == 0 {
		return nil, NewBusinessErrorf("PAYMENT_AMOUNT_ZERO", "deposit %s converts to zero minor units", ErrPaymentAmountZero, txHash)
	}

	var result *models.Campaign
	outcome := models.WebhookOutcomeProcessed

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		existingPayment, err := f.paymentRepo.ByTxHash(txCtx, txHash)
		if err != nil {
			return err
		}
		if existingPayment != nil {
			campaign, err := f.campaignRepo.ByID(txCtx, existingPayment.CampaignID)
			if err != nil {
				return err
			}
			if campaign == nil {
				return NewBusinessErrorf("CAMPAIGN_MISSING_FOR_PAYMENT", "payment %s exists but campaign %d does not", ErrCampaignNotFound, txHash, existingPayment.CampaignID)
			}
			result = campaign
			outcome = models.WebhookOutcomeDuplicate
			return nil
		}

		existingCampaign, err := f.campaignRepo.ByCampaignID(txCtx, intent.CampaignID)
		if err != nil {
			return err
		}
		if existingCampaign != nil {
			result = existingCampaign
			outcome = models.WebhookOutcomeDuplicate
			return nil
		}

		brand, err := f.brandRepo.ByWalletAddress(txCtx, payment.SenderAddress)
		if err != nil {
			return err
		}
		if brand == nil {
			return NewBusinessErrorf("BRAND_NOT_REGISTERED", "wallet %s has no registered brand", ErrBrandNotRegistered, payment.SenderAddress)
		}
		if !utils.IsTrue(brand.IsActive) {
			return NewBusinessErrorf("BRAND_INACTIVE", "brand %d is inactive", ErrBrandInactive, brand.ID)
		}

		actions := f.deriveActions(intent.ActionSpec)
		if len(actions) == 0 {
			log.Printf("campaign payment: campaign %s funded with no derivable actions (tx %s)", intent.CampaignID, txHash)
		}

		campaign := &models.Campaign{
			UUID:                uuid.New(),
			CampaignID:          intent.CampaignID,
			BrandID:             brand.ID,
			SenderWalletAddress: strings.ToLower(payment.SenderAddress),
			Requirements: models.TargetingRequirements{
				VerifiedOnly:   intent.Requirements.VerifiedOnly,
				MinFollowers:   intent.Requirements.MinFollowers,
				MinUniqueViews: intent.Requirements.MinUniqueViews,
				LocationFilter: intent.Requirements.LocationFilter,
				LanguageFilter: intent.Requirements.LanguageFilter,
			},
			TotalBudgetMinor:     amountMinor,
			RemainingBudgetMinor: amountMinor,
			Status:               models.CampaignStatusPendingPayment,
		}

		paymentRow := &models.Payment{
			UUID:        uuid.New(),
			BrandID:     brand.ID,
			FromAddress: payment.SenderAddress,
			ToAddress:   payment.ToAddress,
			AmountMinor: amountMinor,
			Currency:    f.blockchainCfg.TokenSymbol,
			TxHash:      txHash,
			BlockNumber: payment.BlockNumber,
			Status:      models.PaymentStatusCompleted,
			PaidAt:      payment.Timestamp,
		}

		if err := f.campaignRepo.SaveWithActionsAndPayment(txCtx, campaign, actions, paymentRow); err != nil {
			return err
		}
		if err := f.campaignRepo.Activate(txCtx, campaign.ID); err != nil {
			return err
		}

		// Return the persisted state, not the in-memory rows we staged.
		activated, err := f.campaignRepo.ByID(txCtx, campaign.ID)
		if err != nil {
			return err
		}
		if activated == nil {
			return NewBusinessErrorf("CAMPAIGN_MISSING_AFTER_ACTIVATE", "campaign %d vanished after activation", ErrCampaignNotFound, campaign.ID)
		}
		persisted, err := f.actionRepo.ByCampaignID(txCtx, activated.ID)
		if err != nil {
			return err
		}
		log.Printf("campaign payment: activated campaign %s with %d actions (tx %s)", activated.CampaignID, len(persisted), txHash)
		result = activated
		return nil
	})

	if err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost a concurrent race for the same transaction. The winner's
			// rows are the outcome we wanted; report them as a duplicate.
			campaign, lookupErr := f.campaignRepo.ByCampaignID(ctx, intent.CampaignID)
			if lookupErr == nil && campaign != nil {
				log.Printf("campaign payment: lost insert race for tx %s, returning winner's campaign", txHash)
				f.audit(ctx, txHash, intent.CampaignID, models.WebhookOutcomeDuplicate, "lost insert race", metadata)
				f.markProcessedCached(ctx, txHash)
				return campaign, nil
			}
		}
		f.audit(ctx, txHash, intent.CampaignID, models.WebhookOutcomeFailed, err.Error(), metadata)
		return nil, err
	}

	f.audit(ctx, txHash, intent.CampaignID, outcome, "", metadata)
	f.markProcessedCached(ctx, txHash)
	return result, nil
}

// deriveActions expands the on-chain action spec into campaign action rows.
// Targets come out of the codec; an empty decoded target or a zero count drops
// the action rather than persisting an unfulfillable row.
func (f *CampaignPaymentFlowImpl) deriveActions(spec services.CampaignActionSpec) []*models.CampaignAction {
	var actions []*models.CampaignAction

	if spec.FollowCount > 0 {
		if target := f.codec.Decode(spec.FollowTarget); target != "" {
			actions = append(actions, &models.CampaignAction{
				UUID:                uuid.New(),
				ActionType:          models.ActionTypeFollow,
				Target:              target,
				PricePerActionMinor: f.pricingCfg.FollowPriceMinor,
				MaxVolume:           spec.FollowCount,
			})
		}
	}

	if spec.LikeCountPerTarget > 0 {
		for _, encoded := range spec.LikeTargets {
			target := f.codec.Decode(encoded)
			if target == "" {
				continue
			}
			actions = append(actions, &models.CampaignAction{
				UUID:                uuid.New(),
				ActionType:          models.ActionTypeLike,
				Target:              target,
				PricePerActionMinor: f.pricingCfg.LikePriceMinor,
				MaxVolume:           spec.LikeCountPerTarget,
			})
		}
	}

	return actions
}

// audit records the delivery outcome. Auditing is best-effort: a failed insert
// is logged and swallowed, it never changes the flow result.
func (f *CampaignPaymentFlowImpl) audit(ctx context.Context, txHash, campaignID, outcome, detail string, metadata *ClientMetadata) {
	event := &models.WebhookEvent{
		UUID:       uuid.New(),
		TxHash:     txHash,
		CampaignID: campaignID,
		Outcome:    outcome,
	}
	if detail != "" {
		event.Detail = utils.ToPtr(detail)
	}
	if metadata != nil {
		event.SourceIP = metadata.IPAddress
	}
	if err := f.eventRepo.Save(ctx, event); err != nil {
		log.Printf("campaign payment: failed to record webhook audit event for tx %s: %v", txHash, err)
	}
}

func (f *CampaignPaymentFlowImpl) isAlreadyProcessedCached(ctx context.Context, txHash string) bool {
	if f.cache == nil {
		return false
	}
	err := f.cache.Get(ctx, f.processedTxKey(txHash)).Err()
	if err != nil {
		if err != redis.Nil {
			log.Printf("campaign payment: cache lookup failed for tx %s: %v", txHash, err)
		}
		return false
	}
	return true
}

func (f *CampaignPaymentFlowImpl) markProcessedCached(ctx context.Context, txHash string) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, f.processedTxKey(txHash), "1", f.cacheCfg.DefaultTTL).Err(); err != nil {
		log.Printf("campaign payment: failed to cache processed tx %s: %v", txHash, err)
	}
}

func (f *CampaignPaymentFlowImpl) processedTxKey(txHash string) string {
	return fmt.Sprintf("%s:processed_tx:%s", f.cacheCfg.RedisPrefix, txHash)
}
