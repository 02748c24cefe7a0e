package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
)

// ComputeSignature returns the hex HMAC-SHA256 of "orderID|paymentID" under
// the shared processor secret. This is the sole trust boundary for "money
// received": both client-submitted confirmations and webhooks are verified
// against it.
func ComputeSignature(secret, orderID, processorPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + processorPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares a supplied signature against the expected one in
// constant time.
func VerifySignature(secret, orderID, processorPaymentID, signature string) bool {
	expected := ComputeSignature(secret, orderID, processorPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// AmountWithinTolerance checks a caller-supplied amount in major currency
// units against the stored fee in minor units. Anything under one minor
// unit is rounding noise; a full minor unit off is a mismatch.
func AmountWithinTolerance(feeMinor int64, claimed float64) bool {
	return math.Abs(claimed*100-float64(feeMinor)) < 1
}
