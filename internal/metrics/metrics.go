package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLayoutRun records a finished simulation
func (r *Registry) RecordLayoutRun(outcome string, duration time.Duration) {
	r.LayoutRunsTotal.WithLabelValues(outcome).Inc()
	r.LayoutDuration.Observe(duration.Seconds())
}

// RecordTick counts one applied layout frame
func (r *Registry) RecordTick() {
	r.LayoutTicksTotal.Inc()
}

// RecordRejected counts a payload refused before rendering
func (r *Registry) RecordRejected(reason string) {
	r.GraphRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordAssetFallback counts a render drawn without the signal icon
func (r *Registry) RecordAssetFallback() {
	r.AssetFallbacksTotal.Inc()
}

// SetSessionsActive sets the live session gauge
func (r *Registry) SetSessionsActive(n int) {
	r.SessionsActive.Set(float64(n))
}
