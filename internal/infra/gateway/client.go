// Package gateway implements the payment-gateway order API client. The
// gateway later echoes the created order's ID and notes in the capture
// webhook consumed by the ingestion service.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("infra/gateway")

// Client calls the gateway's order API with retry, circuit breaking, and a
// bulkhead capping concurrent outbound calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
}

// NewClient creates a gateway client.
func NewClient(httpClient *http.Client, baseURL, keyID, keySecret string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 10
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(maxConc),
		cfg:        cfg,
	}
}

type createOrderPayload struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrder creates a payment order for the given amount in minor currency
// units. The notes map travels to the gateway and comes back verbatim inside
// the capture webhook.
func (c *Client) CreateOrder(ctx context.Context, amountMinorUnits int64, currency string, notes map[string]string) (*domain.GatewayOrder, error) {
	ctx, span := tracer.Start(ctx, "Gateway.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.amount_minor", amountMinorUnits),
		attribute.String("order.currency", currency),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "gateway order slot"}
	}
	defer c.bulkhead.Release()

	var orderResp orderResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(createOrderPayload{
				Amount:   amountMinorUnits,
				Currency: currency,
				Notes:    notes,
			})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/orders", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.SetBasicAuth(c.keyID, c.keySecret)

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("gateway order API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&orderResp)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &orderResp, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &domain.ErrCircuitOpen{Service: "payment-gateway"}
		}
		return nil, &domain.ErrExternalService{Service: "payment-gateway", Err: err}
	}

	o := result.(*orderResponse)
	return &domain.GatewayOrder{
		OrderID:     o.ID,
		Amount:      float64(o.Amount) / 100,
		Currency:    o.Currency,
		CheckoutKey: c.keyID,
	}, nil
}
