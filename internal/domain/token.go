package domain

import "time"

// Token status values. A pending token transitions to paid exactly once,
// when a matching capture event arrives; it never transitions back.
const (
	TokenStatusPending = "pending"
	TokenStatusPaid    = "paid"
)

// PendingToken is a pre-registered order awaiting payment. The token number
// is the correlation key the gateway echoes back in the webhook notes, used
// to recover item details the webhook payload does not carry.
type PendingToken struct {
	TokenNumber string    `json:"token_number"`
	Amount      float64   `json:"amount"`
	Items       []string  `json:"items"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegisterTokenRequest is the order-registration payload.
type RegisterTokenRequest struct {
	TokenNumber string   `json:"token_number"`
	Amount      float64  `json:"amount"`
	Items       []string `json:"items"`
}

// Validation bounds for token registration.
const (
	MaxTokenNumberLen = 12
	MaxTokenAmount    = 100000
	MaxTokenItems     = 25
	MaxTokenItemLen   = 100
)
