// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/ulixes/xad-sub000/app/dto"
	"github.com/ulixes/xad-sub000/app/middleware"
	"github.com/ulixes/xad-sub000/app/services"
	businessflow "github.com/ulixes/xad-sub000/business_flow"
	"github.com/ulixes/xad-sub000/config"
	"github.com/ulixes/xad-sub000/utils"
)

// WebhookHandlerInterface defines the contract for webhook handlers
type WebhookHandlerInterface interface {
	HandleCampaignPayment(c fiber.Ctx) error
	VerifyEndpoint(c fiber.Ctx) error
	Health(c fiber.Ctx) error
}

// WebhookHandler handles Tenderly webhook deliveries for campaign payments
type WebhookHandler struct {
	flow      businessflow.CampaignPaymentFlow
	decoder   *services.CampaignDepositDecoder
	validator *validator.Validate
	cfg       config.BlockchainConfig
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(flow businessflow.CampaignPaymentFlow, decoder *services.CampaignDepositDecoder, cfg config.BlockchainConfig) *WebhookHandler {
	return &WebhookHandler{
		flow:      flow,
		decoder:   decoder,
		validator: validator.New(),
		cfg:       cfg,
	}
}

// HandleCampaignPayment processes a campaign payment alert
// @Summary Campaign Payment Webhook
// @Description Receives Tenderly transaction alerts, verifies the signature, decodes the deposit, and materializes the campaign
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookAck "Delivery handled (including duplicates and ignored events)"
// @Failure 401 {object} dto.WebhookError "Missing or invalid signature"
// @Failure 500 {object} dto.WebhookError "Decode or persistence failure; the provider should retry"
// @Router /webhooks/campaign-payments [post]
func (h *WebhookHandler) HandleCampaignPayment(c fiber.Ctx) error {
	rawBody := c.Body()
	signature := c.Get(dto.HeaderTenderlySignature)
	timestamp := c.Get(dto.HeaderTenderlyDate)

	// The signature gate comes before any parsing. Nothing about the payload
	// is logged on rejection.
	if signature == "" || timestamp == "" {
		middleware.CountWebhookDelivery("rejected")
		return c.Status(fiber.StatusUnauthorized).JSON(dto.WebhookError{Error: "Missing signature"})
	}
	if !services.VerifyWebhookSignature(rawBody, signature, timestamp, []byte(h.cfg.WebhookSecret)) {
		middleware.CountWebhookDelivery("rejected")
		return c.Status(fiber.StatusUnauthorized).JSON(dto.WebhookError{Error: "Invalid signature"})
	}

	var payload dto.TenderlyWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		log.Printf("webhook: malformed payload: %v", err)
		middleware.CountWebhookDelivery("failed")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.WebhookError{Error: "Internal server error"})
	}
	// Non-alert deliveries and alerts without a transaction are acknowledged
	// so the provider stops retrying something we will never process.
	if payload.EventType != dto.EventTypeAlert || payload.Transaction == nil {
		log.Printf("webhook: ignoring %s delivery without transaction", payload.EventType)
		middleware.CountWebhookDelivery("ignored")
		return c.Status(fiber.StatusOK).JSON(dto.WebhookAck{Success: true})
	}

	if err := h.validator.Struct(&payload); err != nil {
		log.Printf("webhook: payload failed validation: %v", err)
		middleware.CountWebhookDelivery("failed")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.WebhookError{Error: "Internal server error"})
	}

	tx := payload.Transaction
	if !strings.EqualFold(tx.To, h.cfg.ContractAddress) {
		log.Printf("webhook: ignoring tx %s to foreign contract %s", tx.Hash, tx.To)
		middleware.CountWebhookDelivery("ignored")
		return c.Status(fiber.StatusOK).JSON(dto.WebhookAck{Success: true})
	}

	intent, payment, err := h.decoder.DecodeTransaction(tx)
	if err != nil {
		log.Printf("webhook: failed to decode tx %s: %v", tx.Hash, err)
		middleware.CountWebhookDelivery("failed")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.WebhookError{Error: "Internal server error"})
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	campaign, err := h.flow.HandleConfirmedPayment(h.requestCtx(c, "/webhooks/campaign-payments"), intent, payment, metadata)
	if err != nil {
		// ErrBrandNotRegistered lands here on purpose: a 500 makes the
		// provider redeliver after the brand registers its wallet.
		log.Printf("webhook: failed to materialize campaign for tx %s: %v", tx.Hash, err)
		middleware.CountWebhookDelivery("failed")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.WebhookError{Error: "Internal server error"})
	}

	log.Printf("webhook: handled tx %s for campaign %s", tx.Hash, campaign.CampaignID)
	middleware.CountWebhookDelivery("processed")
	return c.Status(fiber.StatusOK).JSON(dto.WebhookAck{Success: true})
}

// VerifyEndpoint answers Tenderly's reachability probe
// @Summary Webhook Verification Probe
// @Description Unconditional OK so the provider can verify the endpoint exists
// @Tags Webhooks
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /webhooks/campaign-payments [get]
func (h *WebhookHandler) VerifyEndpoint(c fiber.Ctx) error {
	return c.SendString("OK")
}

// Health reports service liveness
// @Summary Health Check
// @Description Returns service status and current time
// @Tags Webhooks
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /webhooks/health [get]
func (h *WebhookHandler) Health(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(dto.HealthResponse{
		Status:    "healthy",
		Timestamp: utils.UTCNow(),
	})
}

func (h *WebhookHandler) requestCtx(c fiber.Ctx, endpoint string) context.Context {
	return context.WithValue(c.Context(), utils.EndpointKey, endpoint)
}
