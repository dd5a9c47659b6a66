package domain

// WebhookEnvelope is the gateway's notification payload. Signature
// verification happens over the raw wire bytes before this is decoded.
type WebhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// EventPaymentCaptured is the only event kind that produces a bill.
const EventPaymentCaptured = "payment.captured"

// PaymentEntity is the captured-payment record inside a webhook envelope.
// Amount is in minor currency units (paise), as the gateway sends it.
type PaymentEntity struct {
	ID      string            `json:"id"`
	OrderID string            `json:"order_id"`
	Amount  int64             `json:"amount"`
	Method  string            `json:"method"`
	Email   string            `json:"email"`
	Contact string            `json:"contact"`
	Notes   map[string]string `json:"notes"`
}

// Keys the gateway echoes back inside entity notes.
const (
	NoteCustomerName = "customer_name"
	NoteTokenNumber  = "token_number"
	NoteItems        = "items"
)

// CreateOrderRequest is the inbound payload for the order-creation endpoint.
type CreateOrderRequest struct {
	Amount         float64  `json:"amount"`
	Currency       string   `json:"currency,omitempty"`
	CustomerName   string   `json:"customer_name,omitempty"`
	Items          []string `json:"items,omitempty"`
	TokenNumber    string   `json:"token_number,omitempty"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

// GatewayOrder is the gateway's response to createOrder. CheckoutKey is the
// public key the browser checkout widget needs.
type GatewayOrder struct {
	OrderID     string  `json:"order_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	CheckoutKey string  `json:"checkout_key"`
}
