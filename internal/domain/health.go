package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual component.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// QueueMetrics is returned by GET /v1/metrics/queue.
type QueueMetrics struct {
	BillsIngested   int64   `json:"billsIngested"`
	DuplicateEvents int64   `json:"duplicateEvents"`
	PollsTotal      int64   `json:"pollsTotal"`
	PollsEmpty      int64   `json:"pollsEmpty"`
	BillsConfirmed  int64   `json:"billsConfirmed"`
	BillsEvicted    int64   `json:"billsEvicted"`
	QueueDepth      int     `json:"queueDepth"`
	DuplicateRate   float64 `json:"duplicateRate"`
	Period          string  `json:"period"`
}
