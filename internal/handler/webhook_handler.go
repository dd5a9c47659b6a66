package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/crisvalt/billrelay-go/internal/infra/observability"
	"github.com/crisvalt/billrelay-go/internal/service"

	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Razorpay-Signature"

// webhookHandler accepts asynchronous payment notifications from the gateway.
// The body is read once and passed to the service untouched: verification
// must run over the exact wire bytes, so nothing may re-serialize them first.
func webhookHandler(ingestSvc *service.IngestService, maxBody int64, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /webhook/payment")
		defer span.End()

		start := time.Now()

		rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "body too large")
			return
		}

		if err := ingestSvc.Ingest(ctx, rawBody, r.Header.Get(SignatureHeader)); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		metrics.RecordRequestDuration("webhook", time.Since(start))
		logger.Debug("webhook processed", zap.Duration("latency", time.Since(start)))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
