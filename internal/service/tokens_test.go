package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/infra/memstore"
	"github.com/crisvalt/billrelay-go/internal/infra/observability"
	"github.com/crisvalt/billrelay-go/internal/service"

	"go.uber.org/zap"
)

func newTokenFixture() (*service.TokenService, *memstore.TokenStore) {
	tokens := memstore.NewTokenStore()
	svc := service.NewTokenService(tokens, 24*time.Hour, observability.NewMetrics(nil), zap.NewNop())
	return svc, tokens
}

func TestRegisterToken_Valid(t *testing.T) {
	svc, _ := newTokenFixture()

	token, err := svc.Register(context.Background(), &domain.RegisterTokenRequest{
		TokenNumber: "A42",
		Amount:      150,
		Items:       []string{"Veg Thali"},
	})
	if err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}
	if token.Status != domain.TokenStatusPending {
		t.Errorf("expected pending status, got %s", token.Status)
	}
}

func TestRegisterToken_Validation(t *testing.T) {
	svc, _ := newTokenFixture()

	cases := []struct {
		name string
		req  domain.RegisterTokenRequest
	}{
		{"empty token", domain.RegisterTokenRequest{Amount: 10}},
		{"non-alphanumeric token", domain.RegisterTokenRequest{TokenNumber: "42!", Amount: 10}},
		{"token too long", domain.RegisterTokenRequest{TokenNumber: "1234567890123", Amount: 10}},
		{"zero amount", domain.RegisterTokenRequest{TokenNumber: "42"}},
		{"negative amount", domain.RegisterTokenRequest{TokenNumber: "42", Amount: -5}},
		{"amount too large", domain.RegisterTokenRequest{TokenNumber: "42", Amount: 1e9}},
		{"too many items", domain.RegisterTokenRequest{TokenNumber: "42", Amount: 10, Items: make([]string, 26)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tc.req)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRegisterToken_Duplicate(t *testing.T) {
	svc, _ := newTokenFixture()

	req := &domain.RegisterTokenRequest{TokenNumber: "42", Amount: 10}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Register(context.Background(), req)
	var duplicate *domain.ErrDuplicate
	if !errors.As(err, &duplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestListPending_EvictsExpired(t *testing.T) {
	svc, tokens := newTokenFixture()
	base := time.Now()

	tokens.InsertIfAbsent(&domain.PendingToken{
		TokenNumber: "stale",
		Status:      domain.TokenStatusPending,
		CreatedAt:   base.Add(-25 * time.Hour),
	})
	tokens.InsertIfAbsent(&domain.PendingToken{
		TokenNumber: "fresh",
		Status:      domain.TokenStatusPending,
		CreatedAt:   base,
	})

	svc.WithClock(func() time.Time { return base })

	pending, err := svc.ListPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].TokenNumber != "fresh" {
		t.Fatalf("expected only the fresh token, got %+v", pending)
	}
}

func TestSweep_CountsEveryEvictedToken(t *testing.T) {
	metrics := observability.NewMetrics(nil)
	tokens := memstore.NewTokenStore()
	svc := service.NewTokenService(tokens, 24*time.Hour, metrics, zap.NewNop())

	base := time.Now()
	for _, number := range []string{"1", "2", "3"} {
		tokens.InsertIfAbsent(&domain.PendingToken{
			TokenNumber: number,
			Status:      domain.TokenStatusPending,
			CreatedAt:   base.Add(-25 * time.Hour),
		})
	}

	if evicted := svc.Sweep(base); evicted != 3 {
		t.Fatalf("expected 3 evictions, got %d", evicted)
	}

	families, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var got float64
	for _, fam := range families {
		if fam.GetName() != "billrelay_tokens_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "event" && label.GetValue() == "evicted" {
					got = m.GetCounter().GetValue()
				}
			}
		}
	}
	if got != 3 {
		t.Errorf("expected evicted counter at 3, got %v", got)
	}
}
