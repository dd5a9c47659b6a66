package service

import (
	"context"
	"time"

	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/infra/observability"
	"github.com/crisvalt/billrelay-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PrintService serves the print client: oldest-first delivery of unprinted
// bills with at-least-once semantics, and idempotent confirmation.
type PrintService struct {
	bills     port.BillStore
	retention time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewPrintService creates the delivery/confirmation service. retention bounds
// how long a bill survives, printed or not.
func NewPrintService(bills port.BillStore, retention time.Duration, metrics *observability.Metrics, logger *zap.Logger) *PrintService {
	return &PrintService{
		bills:     bills,
		retention: retention,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *PrintService) WithClock(now func() time.Time) *PrintService {
	s.now = now
	return s
}

// Poll returns the oldest unprinted bill with its attempt counter already
// incremented, or (nil, nil) when the queue is empty. The bill stays in the
// queue until a confirmation retires it: a client that crashes after
// receiving a bill gets the same bill again on its next poll.
//
// Eviction of expired bills runs synchronously here before selection, so a
// polling client always observes retention bounds even if the background
// reaper is disabled.
func (s *PrintService) Poll(ctx context.Context) (*domain.Bill, error) {
	_, span := tracer.Start(ctx, "PrintService.Poll")
	defer span.End()

	now := s.now()
	s.Sweep(now)

	bill, ok := s.bills.NextForPrint(now)
	if !ok {
		s.metrics.IncrPoll(observability.PollEmpty)
		return nil, nil
	}

	s.metrics.IncrPoll(observability.PollDelivered)
	span.SetAttributes(
		attribute.String("payment.id", bill.PaymentID),
		attribute.Int("print.attempts", bill.PrintAttempts),
	)
	s.logger.Info("bill handed to print client",
		zap.String("payment_id", bill.PaymentID),
		zap.Int("attempt", bill.PrintAttempts),
	)
	return bill, nil
}

// Confirm marks the bill printed and returns the remaining unprinted count.
// Re-confirming an already-printed bill succeeds without further effect.
func (s *PrintService) Confirm(ctx context.Context, paymentID string) (int, error) {
	_, span := tracer.Start(ctx, "PrintService.Confirm")
	defer span.End()

	if paymentID == "" {
		return 0, &domain.ErrValidation{Field: "payment_id", Message: "payment id is required"}
	}
	span.SetAttributes(attribute.String("payment.id", paymentID))

	remaining, err := s.bills.ConfirmPrinted(paymentID, s.now())
	if err != nil {
		return remaining, err
	}

	s.metrics.IncrConfirmed()
	s.logger.Info("bill confirmed printed",
		zap.String("payment_id", paymentID),
		zap.Int("remaining", remaining),
	)
	return remaining, nil
}

// Sweep evicts bills older than the retention window as of now.
func (s *PrintService) Sweep(now time.Time) int {
	evicted := s.bills.EvictBefore(now.Add(-s.retention))
	if evicted > 0 {
		s.metrics.AddEvicted(evicted)
		s.logger.Info("evicted expired bills", zap.Int("count", evicted))
	}
	return evicted
}

// UnprintedCount reports the current queue depth.
func (s *PrintService) UnprintedCount() int {
	return s.bills.UnprintedCount()
}
