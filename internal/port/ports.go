// Package port defines the interfaces (ports) for the service layer's
// dependencies. Following hexagonal architecture, these ports decouple the
// domain/service layer from concrete implementations, so the in-memory stores
// can be swapped for a persistent backing store without touching the services.
package port

import (
	"context"
	"time"

	"github.com/crisvalt/billrelay-go/internal/domain"
)

// BillStore owns the paymentID → Bill mapping. Every compound operation is
// atomic with respect to the others; callers never receive references into
// the store's internal state.
type BillStore interface {
	// InsertIfAbsent stores the bill unless one with the same payment ID
	// already exists. Returns false, with no mutation, on a duplicate.
	InsertIfAbsent(bill *domain.Bill) bool

	// Get returns a copy of the bill, if present.
	Get(paymentID string) (*domain.Bill, bool)

	// NextForPrint selects the oldest unprinted bill (ties by insertion
	// order), records a delivery attempt on it, and returns a copy.
	// It does NOT mark the bill printed.
	NextForPrint(now time.Time) (*domain.Bill, bool)

	// ConfirmPrinted idempotently marks the bill printed. The first call
	// stamps printConfirmedAt; later calls change nothing. Returns the
	// remaining unprinted count, or ErrNotFound for an unknown ID.
	ConfirmPrinted(paymentID string, now time.Time) (int, error)

	// EvictBefore deletes every bill created at or before cutoff, printed or not.
	EvictBefore(cutoff time.Time) int

	UnprintedCount() int
	Len() int
}

// TokenStore owns the tokenNumber → PendingToken mapping.
type TokenStore interface {
	// InsertIfAbsent registers the token unless a pending one with the same
	// number exists.
	InsertIfAbsent(token *domain.PendingToken) bool

	// Get returns a copy of the token, if present.
	Get(tokenNumber string) (*domain.PendingToken, bool)

	// MarkPaid transitions a pending token to paid and returns a copy of it.
	// A token that is absent or already paid yields ok == false.
	MarkPaid(tokenNumber string) (*domain.PendingToken, bool)

	// ListPending returns copies of all pending tokens, oldest first.
	ListPending() []*domain.PendingToken

	// EvictBefore deletes tokens created at or before cutoff, pending or paid.
	EvictBefore(cutoff time.Time) int

	Len() int
}

// OrderCreator creates a payment order at the external gateway.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountMinorUnits int64, currency string, notes map[string]string) (*domain.GatewayOrder, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
