package domain

// EngineMetrics is an aggregated view of query-engine health exposed on
// GET /v1/metrics/engine for the operations dashboard.
type EngineMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	ExportsTotal  int64   `json:"exports_total"`
	ExportsFailed int64   `json:"exports_failed"`
	CoreErrors    int64   `json:"core_errors"`
	Period        string  `json:"period"`
}
