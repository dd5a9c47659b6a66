package observability

import (
	"time"

	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Webhook event result labels.
const (
	WebhookAccepted  = "accepted"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookRejected  = "rejected"
)

// Poll result labels.
const (
	PollDelivered = "delivered"
	PollEmpty     = "empty"
)

// Metrics holds all Prometheus metrics for the bill relay.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
	printPolls      *prometheus.CounterVec
	billsConfirmed  prometheus.Counter
	billsEvicted    prometheus.Counter
	tokensEvents    *prometheus.CounterVec
	gatewayErrors   prometheus.Counter
	queueDepth      prometheus.GaugeFunc
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
// unprinted reports the current queue depth for the gauge; nil is allowed.
func NewMetrics(unprinted func() int) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billrelay_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		webhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billrelay_webhook_events_total",
				Help: "Webhook deliveries by outcome.",
			},
			[]string{"result"},
		),
		printPolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billrelay_print_polls_total",
				Help: "Print client polls by outcome.",
			},
			[]string{"result"},
		),
		billsConfirmed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "billrelay_bills_confirmed_total",
				Help: "Bills confirmed printed.",
			},
		),
		billsEvicted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "billrelay_bills_evicted_total",
				Help: "Bills removed by retention eviction.",
			},
		),
		tokensEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billrelay_tokens_total",
				Help: "Pending token registry events.",
			},
			[]string{"event"},
		),
		gatewayErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "billrelay_gateway_errors_total",
				Help: "Errors from the payment gateway order API.",
			},
		),
	}

	if unprinted != nil {
		m.queueDepth = factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "billrelay_queue_depth",
				Help: "Bills awaiting print confirmation.",
			},
			func() float64 { return float64(unprinted()) },
		)
	}

	return m
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrWebhookEvent counts a webhook delivery outcome.
func (m *Metrics) IncrWebhookEvent(result string) {
	m.webhookEvents.WithLabelValues(result).Inc()
}

// IncrPoll counts a print-client poll outcome.
func (m *Metrics) IncrPoll(result string) {
	m.printPolls.WithLabelValues(result).Inc()
}

// IncrConfirmed counts a confirmed bill.
func (m *Metrics) IncrConfirmed() {
	m.billsConfirmed.Inc()
}

// AddEvicted counts evicted bills.
func (m *Metrics) AddEvicted(n int) {
	m.billsEvicted.Add(float64(n))
}

// IncrTokenEvent counts a token registry event (registered, consumed, evicted).
func (m *Metrics) IncrTokenEvent(event string) {
	m.tokensEvents.WithLabelValues(event).Inc()
}

// AddTokenEvents counts n token registry events of the same kind.
func (m *Metrics) AddTokenEvents(event string, n int) {
	m.tokensEvents.WithLabelValues(event).Add(float64(n))
}

// IncrGatewayError counts a failed gateway call.
func (m *Metrics) IncrGatewayError() {
	m.gatewayErrors.Inc()
}

// QueueSnapshot returns a snapshot of pipeline metrics for the
// GET /v1/metrics/queue endpoint. depth is read live from the store.
func (m *Metrics) QueueSnapshot(depth int) *domain.QueueMetrics {
	accepted := getCounterValue(m.webhookEvents, WebhookAccepted)
	duplicates := getCounterValue(m.webhookEvents, WebhookDuplicate)
	delivered := getCounterValue(m.printPolls, PollDelivered)
	empty := getCounterValue(m.printPolls, PollEmpty)
	confirmed := readCounter(m.billsConfirmed)
	evicted := readCounter(m.billsEvicted)

	duplicateRate := float64(0)
	if accepted+duplicates > 0 {
		duplicateRate = duplicates / (accepted + duplicates)
	}

	return &domain.QueueMetrics{
		BillsIngested:   int64(accepted),
		DuplicateEvents: int64(duplicates),
		PollsTotal:      int64(delivered + empty),
		PollsEmpty:      int64(empty),
		BillsConfirmed:  int64(confirmed),
		BillsEvicted:    int64(evicted),
		QueueDepth:      depth,
		DuplicateRate:   duplicateRate,
		Period:          "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	return readCounter(counter)
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
