// Package services contains external-facing integrations: webhook authentication,
// on-chain call decoding, and the target identifier codec.
package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyWebhookSignature authenticates a Tenderly webhook delivery. The
// signature is an HMAC-SHA256 over the raw request body followed by the date
// header, hex-encoded. Comparison is constant-time. It returns false on any
// missing input without computing the hash, and never returns an error: a bad
// signature is a terminal rejection for that exact body.
func VerifyWebhookSignature(rawBody []byte, signatureHeader, timestampHeader string, secret []byte) bool {
	if len(rawBody) == 0 || signatureHeader == "" || timestampHeader == "" || len(secret) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(rawBody)
	mac.Write([]byte(timestampHeader))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}
