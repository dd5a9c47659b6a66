package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Print client — GET /v1/print/poll, POST /v1/print/confirm
// ============================================================

// pollHandler hands the oldest unprinted bill to the print client. An empty
// queue is 204 No Content, which is distinct from every error path.
func pollHandler(printSvc *service.PrintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/print/poll")
		defer span.End()

		bill, err := printSvc.Poll(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if bill == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, bill)
	}
}

func confirmHandler(printSvc *service.PrintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/print/confirm")
		defer span.End()

		var req domain.ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		remaining, err := printSvc.Confirm(ctx, req.PaymentID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ConfirmResponse{
			Success:   true,
			PaymentID: req.PaymentID,
			Remaining: remaining,
		})
	}
}
