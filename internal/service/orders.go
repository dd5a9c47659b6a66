package service

import (
	"context"
	"math"
	"strings"

	"github.com/crisvalt/billrelay-go/internal/config"
	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/infra/observability"
	"github.com/crisvalt/billrelay-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderService builds outbound create-order requests to the payment gateway
// and, in token-correlated mode, registers the pending token before the
// order response leaves the process.
type OrderService struct {
	gateway    port.OrderCreator
	tokenSvc   *TokenService
	orderCache port.Cache[*domain.GatewayOrder]
	itemSource string
	currency   string
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewOrderService creates the order-creation service.
func NewOrderService(
	gateway port.OrderCreator,
	tokenSvc *TokenService,
	orderCache port.Cache[*domain.GatewayOrder],
	itemSource string,
	currency string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		gateway:    gateway,
		tokenSvc:   tokenSvc,
		orderCache: orderCache,
		itemSource: itemSource,
		currency:   currency,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateOrder validates the request, registers the pending token when the
// pipeline runs in token mode, then creates the gateway order. A replayed
// idempotency key returns the previously created order without another
// gateway call.
func (s *OrderService) CreateOrder(ctx context.Context, req *domain.CreateOrderRequest) (*domain.GatewayOrder, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.Amount <= 0 || req.Amount > domain.MaxTokenAmount {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive and within bounds"}
	}

	idemKey := req.IdempotencyKey
	if idemKey == "" {
		idemKey = uuid.New().String()
	} else if cached, ok := s.orderCache.Get(idemKey); ok {
		s.logger.Info("order replay served from idempotency cache",
			zap.String("idempotency_key", idemKey),
		)
		return cached, nil
	}
	span.SetAttributes(attribute.String("order.idempotency_key", idemKey))

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	notes := map[string]string{}
	if req.CustomerName != "" {
		notes[domain.NoteCustomerName] = truncate(req.CustomerName, domain.MaxCustomerNameLen)
	}

	// The token must be registered, and visible to a racing webhook, before
	// this call returns the order the client will pay against.
	if s.itemSource == config.ItemSourceToken && req.TokenNumber != "" {
		if _, err := s.tokenSvc.Register(ctx, &domain.RegisterTokenRequest{
			TokenNumber: req.TokenNumber,
			Amount:      req.Amount,
			Items:       req.Items,
		}); err != nil {
			return nil, err
		}
		notes[domain.NoteTokenNumber] = req.TokenNumber
	} else if len(req.Items) > 0 {
		notes[domain.NoteItems] = strings.Join(req.Items, "|")
	}

	amountMinor := int64(math.Round(req.Amount * 100))
	order, err := s.gateway.CreateOrder(ctx, amountMinor, currency, notes)
	if err != nil {
		s.metrics.IncrGatewayError()
		return nil, err
	}

	s.orderCache.Set(idemKey, order)
	s.logger.Info("gateway order created",
		zap.String("order_id", order.OrderID),
		zap.Float64("amount", order.Amount),
		zap.String("currency", order.Currency),
	)
	return order, nil
}
