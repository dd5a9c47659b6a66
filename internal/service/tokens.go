package service

import (
	"context"
	"regexp"
	"time"

	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/infra/observability"
	"github.com/crisvalt/billrelay-go/internal/port"

	"go.uber.org/zap"
)

var tokenNumberRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// TokenService manages the pending-token registry: orders registered before
// payment so the capture webhook can recover their item details.
type TokenService struct {
	tokens    port.TokenStore
	retention time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewTokenService creates the registry service. retention bounds how long an
// unpaid token waits before it is abandoned.
func NewTokenService(tokens port.TokenStore, retention time.Duration, metrics *observability.Metrics, logger *zap.Logger) *TokenService {
	return &TokenService{
		tokens:    tokens,
		retention: retention,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Register validates and stores a pending token. The registration must be
// visible before the corresponding order response reaches the client that
// will trigger payment, so this runs synchronously in the order path.
func (s *TokenService) Register(ctx context.Context, req *domain.RegisterTokenRequest) (*domain.PendingToken, error) {
	_, span := tracer.Start(ctx, "TokenService.Register")
	defer span.End()

	if req.TokenNumber == "" || len(req.TokenNumber) > domain.MaxTokenNumberLen || !tokenNumberRegex.MatchString(req.TokenNumber) {
		return nil, &domain.ErrValidation{Field: "token_number", Message: "must be 1-12 alphanumeric characters"}
	}
	if req.Amount <= 0 || req.Amount > domain.MaxTokenAmount {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive and within bounds"}
	}
	if len(req.Items) > domain.MaxTokenItems {
		return nil, &domain.ErrValidation{Field: "items", Message: "too many items"}
	}
	items := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if len([]rune(item)) > domain.MaxTokenItemLen {
			return nil, &domain.ErrValidation{Field: "items", Message: "item name too long"}
		}
		items = append(items, item)
	}

	token := &domain.PendingToken{
		TokenNumber: req.TokenNumber,
		Amount:      req.Amount,
		Items:       items,
		Status:      domain.TokenStatusPending,
		CreatedAt:   s.now(),
	}

	if !s.tokens.InsertIfAbsent(token) {
		return nil, &domain.ErrDuplicate{Key: req.TokenNumber}
	}

	s.metrics.IncrTokenEvent("registered")
	s.logger.Info("pending token registered",
		zap.String("token_number", token.TokenNumber),
		zap.Float64("amount", token.Amount),
	)
	return token, nil
}

// ListPending evicts expired tokens, then returns all still-pending ones,
// oldest first.
func (s *TokenService) ListPending(ctx context.Context) ([]*domain.PendingToken, error) {
	_, span := tracer.Start(ctx, "TokenService.ListPending")
	defer span.End()

	s.Sweep(s.now())
	return s.tokens.ListPending(), nil
}

// Sweep evicts tokens older than the retention window as of now.
func (s *TokenService) Sweep(now time.Time) int {
	evicted := s.tokens.EvictBefore(now.Add(-s.retention))
	if evicted > 0 {
		s.metrics.AddTokenEvents("evicted", evicted)
		s.logger.Info("evicted expired tokens", zap.Int("count", evicted))
	}
	return evicted
}
