package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Orders — POST /v1/orders
// ============================================================

func createOrderHandler(orderSvc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/orders")
		defer span.End()

		var req domain.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		order, err := orderSvc.CreateOrder(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, order)
	}
}

// ============================================================
// Pending tokens — POST /v1/tokens, GET /v1/tokens/pending
// ============================================================

func registerTokenHandler(tokenSvc *service.TokenService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tokens")
		defer span.End()

		var req domain.RegisterTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, err := tokenSvc.Register(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, token)
	}
}

// listPendingTokensHandler is deliberately unauthenticated: it exposes only
// token numbers and item names for the pickup display.
func listPendingTokensHandler(tokenSvc *service.TokenService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tokens/pending")
		defer span.End()

		tokens, err := tokenSvc.ListPending(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
	}
}
