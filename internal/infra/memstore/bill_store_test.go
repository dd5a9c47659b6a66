package memstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/infra/memstore"
)

func newBill(id string, createdAt time.Time) *domain.Bill {
	return &domain.Bill{
		PaymentID: id,
		Amount:    120.0,
		Items:     []string{"Tea"},
		CreatedAt: createdAt,
	}
}

func TestBillStore_InsertIfAbsent(t *testing.T) {
	s := memstore.NewBillStore()
	now := time.Now()

	if !s.InsertIfAbsent(newBill("pay_1", now)) {
		t.Fatal("expected first insert to succeed")
	}
	if s.InsertIfAbsent(newBill("pay_1", now)) {
		t.Fatal("expected duplicate insert to be rejected")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 bill, got %d", s.Len())
	}
}

func TestBillStore_GetReturnsCopy(t *testing.T) {
	s := memstore.NewBillStore()
	s.InsertIfAbsent(newBill("pay_1", time.Now()))

	b1, ok := s.Get("pay_1")
	if !ok {
		t.Fatal("expected bill to exist")
	}
	b1.Items[0] = "mutated"
	b1.PrintAttempts = 99

	b2, _ := s.Get("pay_1")
	if b2.Items[0] != "Tea" || b2.PrintAttempts != 0 {
		t.Error("mutating a returned bill must not affect stored state")
	}
}

func TestBillStore_NextForPrint_OldestFirst(t *testing.T) {
	s := memstore.NewBillStore()
	base := time.Now()

	// Inserted newest-first to prove selection is by createdAt, not map order.
	s.InsertIfAbsent(newBill("pay_new", base.Add(time.Minute)))
	s.InsertIfAbsent(newBill("pay_old", base))

	bill, ok := s.NextForPrint(base.Add(2 * time.Minute))
	if !ok {
		t.Fatal("expected a bill")
	}
	if bill.PaymentID != "pay_old" {
		t.Errorf("expected oldest bill first, got %s", bill.PaymentID)
	}
	if bill.PrintAttempts != 1 {
		t.Errorf("expected attempt counter 1, got %d", bill.PrintAttempts)
	}
	if bill.LastPrintAttempt == nil {
		t.Error("expected last attempt timestamp to be set")
	}
	if bill.Printed {
		t.Error("a poll must never mark the bill printed")
	}

	// Only the returned bill's counter moves.
	other, _ := s.Get("pay_new")
	if other.PrintAttempts != 0 {
		t.Errorf("expected untouched bill attempts 0, got %d", other.PrintAttempts)
	}
}

func TestBillStore_NextForPrint_TieBreakByInsertionOrder(t *testing.T) {
	s := memstore.NewBillStore()
	at := time.Now()

	s.InsertIfAbsent(newBill("pay_first", at))
	s.InsertIfAbsent(newBill("pay_second", at))

	bill, _ := s.NextForPrint(at)
	if bill.PaymentID != "pay_first" {
		t.Errorf("expected insertion-order tie break, got %s", bill.PaymentID)
	}
}

func TestBillStore_NextForPrint_RedeliversUntilConfirmed(t *testing.T) {
	s := memstore.NewBillStore()
	now := time.Now()
	s.InsertIfAbsent(newBill("pay_1", now))

	b1, _ := s.NextForPrint(now)
	b2, _ := s.NextForPrint(now)

	if b1.PaymentID != "pay_1" || b2.PaymentID != "pay_1" {
		t.Fatal("expected same bill on re-poll before confirmation")
	}
	if b2.PrintAttempts != 2 {
		t.Errorf("expected attempts 2 on second poll, got %d", b2.PrintAttempts)
	}
}

func TestBillStore_NextForPrint_Empty(t *testing.T) {
	s := memstore.NewBillStore()

	if _, ok := s.NextForPrint(time.Now()); ok {
		t.Fatal("expected no bill from empty store")
	}
}

func TestBillStore_ConfirmPrinted_Idempotent(t *testing.T) {
	s := memstore.NewBillStore()
	now := time.Now()
	s.InsertIfAbsent(newBill("pay_1", now))

	remaining, err := s.ConfirmPrinted("pay_1", now)
	if err != nil {
		t.Fatalf("expected confirm to succeed, got %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", remaining)
	}

	first, _ := s.Get("pay_1")

	// Second confirm at a later time succeeds but changes nothing.
	if _, err := s.ConfirmPrinted("pay_1", now.Add(time.Hour)); err != nil {
		t.Fatalf("expected re-confirm to succeed, got %v", err)
	}
	second, _ := s.Get("pay_1")
	if !second.PrintConfirmedAt.Equal(*first.PrintConfirmedAt) {
		t.Error("re-confirm must not move printConfirmedAt")
	}
}

func TestBillStore_ConfirmPrinted_Unknown(t *testing.T) {
	s := memstore.NewBillStore()

	_, err := s.ConfirmPrinted("pay_missing", time.Now())
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBillStore_ConfirmedBillLeavesQueue(t *testing.T) {
	s := memstore.NewBillStore()
	base := time.Now()
	s.InsertIfAbsent(newBill("pay_1", base))
	s.InsertIfAbsent(newBill("pay_2", base.Add(time.Second)))

	s.ConfirmPrinted("pay_1", base)

	bill, ok := s.NextForPrint(base)
	if !ok || bill.PaymentID != "pay_2" {
		t.Fatalf("expected pay_2 after pay_1 confirmed, got %+v", bill)
	}
}

func TestBillStore_EvictBefore(t *testing.T) {
	s := memstore.NewBillStore()
	base := time.Now()

	s.InsertIfAbsent(newBill("pay_old", base.Add(-3*time.Hour)))
	s.InsertIfAbsent(newBill("pay_new", base))
	// Eviction ignores printed state.
	s.ConfirmPrinted("pay_old", base)

	evicted := s.EvictBefore(base.Add(-2 * time.Hour))
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, ok := s.Get("pay_old"); ok {
		t.Error("expected old bill to be gone")
	}
	if _, ok := s.Get("pay_new"); !ok {
		t.Error("expected recent bill to survive")
	}
}

func TestBillStore_UnprintedCount(t *testing.T) {
	s := memstore.NewBillStore()
	now := time.Now()
	s.InsertIfAbsent(newBill("pay_1", now))
	s.InsertIfAbsent(newBill("pay_2", now))

	if got := s.UnprintedCount(); got != 2 {
		t.Fatalf("expected 2 unprinted, got %d", got)
	}
	s.ConfirmPrinted("pay_1", now)
	if got := s.UnprintedCount(); got != 1 {
		t.Fatalf("expected 1 unprinted after confirm, got %d", got)
	}
}
