// Package memstore provides the in-memory stores backing the bill pipeline.
// State does not survive a restart; that is an accepted property of this
// deployment, not an oversight — bills are evicted within hours anyway.
package memstore

import (
	"sync"
	"time"

	"github.com/crisvalt/billrelay-go/internal/domain"
)

type billEntry struct {
	bill *domain.Bill
	seq  uint64 // insertion order, breaks createdAt ties
}

// BillStore is a mutex-guarded map of paymentID → Bill. All read-modify-write
// sequences run under one lock so insert-if-absent, select-oldest-and-mark-
// attempt and confirm are atomic with respect to each other, as the
// at-least-once and idempotency guarantees require under concurrent pollers.
type BillStore struct {
	mu      sync.Mutex
	bills   map[string]*billEntry
	nextSeq uint64
}

// NewBillStore creates an empty bill store.
func NewBillStore() *BillStore {
	return &BillStore{bills: make(map[string]*billEntry)}
}

// InsertIfAbsent stores the bill unless the payment ID is already known.
// The bill is copied in; the caller's pointer never aliases store state.
func (s *BillStore) InsertIfAbsent(bill *domain.Bill) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bills[bill.PaymentID]; exists {
		return false
	}
	s.nextSeq++
	s.bills[bill.PaymentID] = &billEntry{bill: copyBill(bill), seq: s.nextSeq}
	return true
}

// Get returns a copy of the bill with the given payment ID.
func (s *BillStore) Get(paymentID string) (*domain.Bill, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.bills[paymentID]
	if !ok {
		return nil, false
	}
	return copyBill(e.bill), true
}

// NextForPrint selects the unprinted bill with the smallest createdAt (ties
// broken by insertion order), increments its attempt counter, stamps the
// attempt time, and returns a copy. Printed is left untouched: the bill stays
// eligible until a confirmation retires it.
func (s *BillStore) NextForPrint(now time.Time) (*domain.Bill, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *billEntry
	for _, e := range s.bills {
		if e.bill.Printed {
			continue
		}
		if oldest == nil || e.bill.CreatedAt.Before(oldest.bill.CreatedAt) ||
			(e.bill.CreatedAt.Equal(oldest.bill.CreatedAt) && e.seq < oldest.seq) {
			oldest = e
		}
	}
	if oldest == nil {
		return nil, false
	}

	oldest.bill.PrintAttempts++
	t := now
	oldest.bill.LastPrintAttempt = &t
	return copyBill(oldest.bill), true
}

// ConfirmPrinted marks the bill printed. Confirming an already-printed bill
// succeeds and leaves printConfirmedAt at the time of the first confirmation.
func (s *BillStore) ConfirmPrinted(paymentID string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.bills[paymentID]
	if !ok {
		return s.unprintedLocked(), &domain.ErrNotFound{Resource: "bill", ID: paymentID}
	}
	if !e.bill.Printed {
		e.bill.Printed = true
		t := now
		e.bill.PrintConfirmedAt = &t
	}
	return s.unprintedLocked(), nil
}

// EvictBefore removes every bill created at or before cutoff, regardless of
// its printed state, and returns how many were removed.
func (s *BillStore) EvictBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.bills {
		if !e.bill.CreatedAt.After(cutoff) {
			delete(s.bills, id)
			evicted++
		}
	}
	return evicted
}

// UnprintedCount returns the number of bills still awaiting confirmation.
func (s *BillStore) UnprintedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unprintedLocked()
}

// Len returns the total number of stored bills.
func (s *BillStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bills)
}

func (s *BillStore) unprintedLocked() int {
	n := 0
	for _, e := range s.bills {
		if !e.bill.Printed {
			n++
		}
	}
	return n
}

func copyBill(b *domain.Bill) *domain.Bill {
	c := *b
	c.Items = append([]string(nil), b.Items...)
	if b.LastPrintAttempt != nil {
		t := *b.LastPrintAttempt
		c.LastPrintAttempt = &t
	}
	if b.PrintConfirmedAt != nil {
		t := *b.PrintConfirmedAt
		c.PrintConfirmedAt = &t
	}
	return &c
}
