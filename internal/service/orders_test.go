package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/crisvalt/billrelay-go/internal/config"
	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/infra/cache"
	"github.com/crisvalt/billrelay-go/internal/infra/memstore"
	"github.com/crisvalt/billrelay-go/internal/infra/observability"
	"github.com/crisvalt/billrelay-go/internal/service"

	"go.uber.org/zap"
)

// fakeGateway records createOrder calls and returns canned orders.
type fakeGateway struct {
	calls int
	fail  bool
	notes map[string]string
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, currency string, notes map[string]string) (*domain.GatewayOrder, error) {
	f.calls++
	f.notes = notes
	if f.fail {
		return nil, &domain.ErrExternalService{Service: "payment-gateway", Err: errors.New("boom")}
	}
	return &domain.GatewayOrder{
		OrderID:     fmt.Sprintf("order_%d", f.calls),
		Amount:      float64(amountMinorUnits) / 100,
		Currency:    currency,
		CheckoutKey: "rzp_test_key",
	}, nil
}

func newOrderFixture(itemSource string) (*service.OrderService, *fakeGateway, *cache.TTL[*domain.GatewayOrder]) {
	gw := &fakeGateway{}
	orderCache := cache.New[*domain.GatewayOrder](time.Minute)
	metrics := observability.NewMetrics(nil)
	tokenSvc := service.NewTokenService(memstore.NewTokenStore(), 24*time.Hour, metrics, zap.NewNop())
	svc := service.NewOrderService(gw, tokenSvc, orderCache, itemSource, "INR", metrics, zap.NewNop())
	return svc, gw, orderCache
}

func TestCreateOrder_ConvertsToMinorUnits(t *testing.T) {
	svc, gw, c := newOrderFixture(config.ItemSourceMetadata)
	defer c.Stop()

	order, err := svc.CreateOrder(context.Background(), &domain.CreateOrderRequest{Amount: 120.00})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if order.Amount != 120.00 || order.Currency != "INR" {
		t.Errorf("unexpected order: %+v", order)
	}
	if gw.calls != 1 {
		t.Errorf("expected 1 gateway call, got %d", gw.calls)
	}
}

func TestCreateOrder_InvalidAmount(t *testing.T) {
	svc, gw, c := newOrderFixture(config.ItemSourceMetadata)
	defer c.Stop()

	_, err := svc.CreateOrder(context.Background(), &domain.CreateOrderRequest{Amount: 0})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if gw.calls != 0 {
		t.Error("validation failure must not reach the gateway")
	}
}

func TestCreateOrder_IdempotencyKeyReplay(t *testing.T) {
	svc, gw, c := newOrderFixture(config.ItemSourceMetadata)
	defer c.Stop()

	req := &domain.CreateOrderRequest{Amount: 50, IdempotencyKey: "idem-1"}
	first, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if first.OrderID != second.OrderID {
		t.Errorf("expected replay to return the same order, got %s and %s", first.OrderID, second.OrderID)
	}
	if gw.calls != 1 {
		t.Errorf("expected a single gateway call, got %d", gw.calls)
	}
}

func TestCreateOrder_ItemsTravelInNotes(t *testing.T) {
	svc, gw, c := newOrderFixture(config.ItemSourceMetadata)
	defer c.Stop()

	_, err := svc.CreateOrder(context.Background(), &domain.CreateOrderRequest{
		Amount: 35,
		Items:  []string{"Tea", "Samosa"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if gw.notes[domain.NoteItems] != "Tea|Samosa" {
		t.Errorf("expected items note, got %q", gw.notes[domain.NoteItems])
	}
}

func TestCreateOrder_TokenModeRegistersBeforeGatewayCall(t *testing.T) {
	svc, gw, c := newOrderFixture(config.ItemSourceToken)
	defer c.Stop()

	_, err := svc.CreateOrder(context.Background(), &domain.CreateOrderRequest{
		Amount:      150,
		TokenNumber: "42",
		Items:       []string{"Veg Thali"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if gw.notes[domain.NoteTokenNumber] != "42" {
		t.Errorf("expected token number note, got %q", gw.notes[domain.NoteTokenNumber])
	}

	// Re-registering the same token proves it was stored.
	_, err = svc.CreateOrder(context.Background(), &domain.CreateOrderRequest{
		Amount:      150,
		TokenNumber: "42",
	})
	var duplicate *domain.ErrDuplicate
	if !errors.As(err, &duplicate) {
		t.Fatalf("expected ErrDuplicate on token reuse, got %v", err)
	}
}

func TestCreateOrder_GatewayFailure(t *testing.T) {
	svc, gw, c := newOrderFixture(config.ItemSourceMetadata)
	defer c.Stop()
	gw.fail = true

	_, err := svc.CreateOrder(context.Background(), &domain.CreateOrderRequest{Amount: 10})
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}
