package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/crisvalt/billrelay-go/internal/config"
	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/infra/observability"
	"github.com/crisvalt/billrelay-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// IngestService turns signed gateway webhooks into stored bills, exactly
// once per payment identifier.
type IngestService struct {
	bills      port.BillStore
	tokens     port.TokenStore
	secret     []byte
	itemSource string
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewIngestService creates the webhook ingestion service. itemSource selects
// how bill items are recovered (config.ItemSourceMetadata or
// config.ItemSourceToken).
func NewIngestService(
	bills port.BillStore,
	tokens port.TokenStore,
	webhookSecret string,
	itemSource string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		bills:      bills,
		tokens:     tokens,
		secret:     []byte(webhookSecret),
		itemSource: itemSource,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *IngestService) WithClock(now func() time.Time) *IngestService {
	s.now = now
	return s
}

// Ingest verifies and processes one raw webhook delivery.
//
// Signature verification runs over the exact wire bytes — any transformation
// of the body before the HMAC check would invalidate it. Events that are
// authentic but not a payment capture, and duplicate deliveries of a known
// payment, return nil so the gateway sees success and stops retrying.
func (s *IngestService) Ingest(ctx context.Context, rawBody []byte, signature string) error {
	ctx, span := tracer.Start(ctx, "IngestService.Ingest")
	defer span.End()

	if err := s.verifySignature(rawBody, signature); err != nil {
		s.metrics.IncrWebhookEvent(observability.WebhookRejected)
		return err
	}

	var envelope domain.WebhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		s.metrics.IncrWebhookEvent(observability.WebhookRejected)
		return &domain.ErrValidation{Field: "body", Message: "malformed webhook payload"}
	}

	if envelope.Event != domain.EventPaymentCaptured {
		s.logger.Debug("ignoring webhook event", zap.String("event", envelope.Event))
		s.metrics.IncrWebhookEvent(observability.WebhookIgnored)
		return nil
	}

	entity := envelope.Payload.Payment.Entity
	if entity.ID == "" {
		s.metrics.IncrWebhookEvent(observability.WebhookRejected)
		return &domain.ErrValidation{Field: "payload.payment.entity.id", Message: "payment id is required"}
	}
	span.SetAttributes(attribute.String("payment.id", entity.ID))

	if _, exists := s.bills.Get(entity.ID); exists {
		s.logger.Info("duplicate webhook delivery, ignoring",
			zap.String("payment_id", entity.ID),
		)
		s.metrics.IncrWebhookEvent(observability.WebhookDuplicate)
		return nil
	}

	bill := s.buildBill(&entity)

	// A racing duplicate delivery can still lose here; insert-if-absent is
	// the authoritative dedupe point.
	if !s.bills.InsertIfAbsent(bill) {
		s.metrics.IncrWebhookEvent(observability.WebhookDuplicate)
		return nil
	}

	// The token transitions only once the insert has won. A delivery that
	// loses the insert race leaves the registry untouched, so the consumed
	// token's items always sit on the stored bill.
	if s.itemSource == config.ItemSourceToken && bill.TokenNumber != "" {
		if _, ok := s.tokens.MarkPaid(bill.TokenNumber); ok {
			s.metrics.IncrTokenEvent("consumed")
			s.logger.Info("pending token consumed",
				zap.String("token_number", bill.TokenNumber),
				zap.String("payment_id", bill.PaymentID),
			)
		}
	}

	s.metrics.IncrWebhookEvent(observability.WebhookAccepted)
	s.logger.Info("bill ingested",
		zap.String("payment_id", bill.PaymentID),
		zap.String("order_id", bill.OrderID),
		zap.Float64("amount", bill.Amount),
		zap.Int("items", len(bill.Items)),
	)
	return nil
}

// verifySignature checks the hex HMAC-SHA256 of the raw body under
// constant-time comparison.
func (s *IngestService) verifySignature(rawBody []byte, signature string) error {
	if signature == "" {
		return &domain.ErrUnauthorized{Message: "missing webhook signature"}
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(expected, got) {
		return &domain.ErrUnauthorized{Message: "invalid webhook signature"}
	}
	return nil
}

func (s *IngestService) buildBill(entity *domain.PaymentEntity) *domain.Bill {
	bill := &domain.Bill{
		PaymentID:     entity.ID,
		OrderID:       entity.OrderID,
		Amount:        float64(entity.Amount) / 100,
		Items:         []string{},
		Method:        entity.Method,
		CustomerName:  truncate(entity.Notes[domain.NoteCustomerName], domain.MaxCustomerNameLen),
		CustomerEmail: truncate(entity.Email, domain.MaxCustomerEmailLen),
		CustomerPhone: truncate(entity.Contact, domain.MaxCustomerPhoneLen),
		CreatedAt:     s.now(),
	}

	switch s.itemSource {
	case config.ItemSourceToken:
		tokenNumber := entity.Notes[domain.NoteTokenNumber]
		if tokenNumber == "" {
			break
		}
		bill.TokenNumber = tokenNumber
		// Read-only lookup; the pending→paid transition happens after the
		// bill insert, in Ingest.
		if token, ok := s.tokens.Get(tokenNumber); ok && token.Status == domain.TokenStatusPending {
			bill.Items = append([]string(nil), token.Items...)
		} else {
			s.logger.Warn("no pending token for capture event",
				zap.String("token_number", tokenNumber),
				zap.String("payment_id", entity.ID),
			)
		}
	default:
		if raw := entity.Notes[domain.NoteItems]; raw != "" {
			bill.Items = splitItems(raw)
		}
	}

	return bill
}
