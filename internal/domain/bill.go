package domain

import "time"

// Bill is one captured payment awaiting physical print confirmation.
// PaymentID is the gateway-assigned identifier and the primary key:
// the same payment is never ingested twice.
type Bill struct {
	PaymentID   string   `json:"payment_id"`
	OrderID     string   `json:"order_id,omitempty"`
	TokenNumber string   `json:"token_number,omitempty"`
	Amount      float64  `json:"amount"`
	Items       []string `json:"items"`
	Method      string   `json:"method,omitempty"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Printed flips false→true exactly once, only through confirmation.
	Printed          bool       `json:"printed"`
	PrintAttempts    int        `json:"print_attempts"`
	LastPrintAttempt *time.Time `json:"last_print_attempt,omitempty"`
	PrintConfirmedAt *time.Time `json:"print_confirmed_at,omitempty"`
}

// ConfirmRequest is the print client's confirmation payload.
type ConfirmRequest struct {
	PaymentID string `json:"payment_id"`
}

// ConfirmResponse reports a confirmation plus the current queue depth.
type ConfirmResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"payment_id"`
	Remaining int    `json:"remaining"`
}

// Bounds applied to customer fields carried on a bill. Webhook payloads are
// attacker-influenced, so everything str-valued is truncated on ingestion.
const (
	MaxCustomerNameLen  = 64
	MaxCustomerEmailLen = 128
	MaxCustomerPhoneLen = 20
)
