// Package dto contains request and response structures for the webhook API
package dto

import "time"

// Tenderly alert event types. Only ALERT deliveries carry a transaction.
const EventTypeAlert = "ALERT"

// Tenderly header names, lowercased the way fiber normalizes them.
const (
	HeaderTenderlySignature = "x-tenderly-signature"
	HeaderTenderlyDate      = "date"
)

// TenderlyWebhookPayload is the alert envelope Tenderly posts on each matched
// transaction. Fields the pipeline never reads are left out on purpose; the
// envelope is parsed only after the raw-body signature check passed.
type TenderlyWebhookPayload struct {
	ID          string              `json:"id"`
	EventType   string              `json:"event_type" validate:"required"`
	Transaction *WebhookTransaction `json:"transaction" validate:"omitempty"`
}

// WebhookTransaction is the confirmed transaction inside an ALERT delivery.
type WebhookTransaction struct {
	Hash        string            `json:"hash" validate:"required"`
	From        string            `json:"from" validate:"required"`
	To          string            `json:"to" validate:"required"`
	Input       string            `json:"input" validate:"required"`
	BlockNumber uint64            `json:"block_number"`
	Logs        []WebhookLogEntry `json:"logs" validate:"omitempty,dive"`
}

// WebhookLogEntry is one event log emitted during the transaction.
type WebhookLogEntry struct {
	Address string   `json:"address" validate:"required"`
	Topics  []string `json:"topics" validate:"required,min=1"`
	Data    string   `json:"data"`
}

// WebhookAck acknowledges a handled delivery. Duplicates and ignored events
// acknowledge the same way as first deliveries so the provider stops retrying.
type WebhookAck struct {
	Success bool `json:"success"`
}

// WebhookError is the error body for rejected or failed deliveries.
type WebhookError struct {
	Error string `json:"error"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
