package models

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "healthy", "degraded" or "starting"
	Uptime string `json:"uptime"`

	// LatestSeq is the sequence number of the published snapshot, 0 before
	// the first successful cycle.
	LatestSeq uint64 `json:"latest_seq"`

	// LastSuccess and LastError describe the most recent cycles.
	LastSuccess string `json:"last_success,omitempty"`
	LastError   string `json:"last_error,omitempty"`

	Cycles  CycleStats `json:"cycles"`
	Version string     `json:"version"`
}

// CycleStats counts cycle outcomes since process start.
type CycleStats struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}
