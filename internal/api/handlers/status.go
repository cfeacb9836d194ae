package handlers

import (
	"net/http"

	"github.com/wonny/optsignals/internal/analyzer"
	"github.com/wonny/optsignals/internal/scheduler"
)

// serviceName is reported by /health and /api/status
const serviceName = "market-signals-api"

// Version is the API version reported by /api/status
const Version = "2.0.0"

// JobReporter exposes scheduler statistics
type JobReporter interface {
	GetJobStats() map[string]scheduler.JobStats
}

// StatusHandler serves health, status and the landing page
type StatusHandler struct {
	svc             *analyzer.Service
	jobs            JobReporter
	refreshInterval string
	apiKey          bool
}

// NewStatusHandler creates a status handler. jobs may be nil.
func NewStatusHandler(svc *analyzer.Service, jobs JobReporter, refreshInterval string, apiKeyConfigured bool) *StatusHandler {
	return &StatusHandler{
		svc:             svc,
		jobs:            jobs,
		refreshInterval: refreshInterval,
		apiKey:          apiKeyConfigured,
	}
}

// Health answers liveness probes
// GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Status describes the service and its data source
// GET /api/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"service":            serviceName,
		"version":            Version,
		"data_source":        h.svc.DataSource(),
		"api_key_configured": h.apiKey,
		"symbols":            h.svc.Registry().Names(),
		"refresh_interval":   h.refreshInterval,
		"thresholds":         h.svc.DefaultThresholds(),
	}
	if h.jobs != nil {
		body["jobs"] = h.jobs.GetJobStats()
	}
	respondJSON(w, http.StatusOK, body)
}

// Index serves a small HTML page listing the endpoints
// GET /
func (h *StatusHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Market Signals API</title></head>
<body>
<h1>Market Signals API</h1>
<p>STRONG BUY option signals for NIFTY, BANKNIFTY and SENSEX.</p>
<ul>
<li><a href="/health">/health</a></li>
<li><a href="/api/connection">/api/connection</a></li>
<li><a href="/auth/login">/auth/login</a></li>
<li><a href="/api/signal?symbol=NIFTY">/api/signal?symbol=NIFTY</a></li>
<li><a href="/api/signals?symbols=NIFTY,BANKNIFTY,SENSEX">/api/signals</a></li>
<li><a href="/api/symbols">/api/symbols</a></li>
<li><a href="/api/status">/api/status</a></li>
<li><a href="/api/greeks?spot=20000&amp;strike=20000&amp;iv=0.25">/api/greeks</a></li>
<li>/ws/signals (WebSocket)</li>
</ul>
</body>
</html>
`
