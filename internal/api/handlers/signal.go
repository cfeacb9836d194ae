package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wonny/optsignals/internal/analyzer"
	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/pkg/logger"
)

// count bounds for /api/signals
const (
	minBatchCount = 1
	maxBatchCount = 10
)

// HistoryStore reads persisted signals
type HistoryStore interface {
	Recent(ctx context.Context, symbol string, limit int) ([]*contracts.Signal, error)
}

// SignalHandler serves signal endpoints
// ⭐ SSOT: 시그널 API 핸들러는 이 구조체에서만
type SignalHandler struct {
	svc     *analyzer.Service
	history HistoryStore
	logger  *logger.Logger
}

// NewSignalHandler creates a signal handler. history may be nil.
func NewSignalHandler(svc *analyzer.Service, history HistoryStore, log *logger.Logger) *SignalHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &SignalHandler{
		svc:     svc,
		history: history,
		logger:  log,
	}
}

// GetSignal returns the best STRONG BUY signal for one symbol, or null
// GET /api/signal?symbol=NIFTY&vega_min=...
func (h *SignalHandler) GetSignal(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		symbol = "NIFTY"
	}
	if !h.svc.Registry().Has(symbol) {
		respondError(w, http.StatusBadRequest, "Invalid symbol")
		return
	}

	th, err := parseThresholds(r, h.svc.DefaultThresholds())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	signal, err := h.svc.Analyze(r.Context(), symbol, th)
	if err != nil {
		h.respondAnalyzeError(w, symbol, err)
		return
	}

	if signal == nil {
		h.logger.WithField("symbol", symbol).Debug("No STRONG BUY signal, criteria not met")
	}
	respondJSON(w, http.StatusOK, signal)
}

// GetSignals analyzes several symbols with the default thresholds
// GET /api/signals?symbols=NIFTY,BANKNIFTY&count=1
func (h *SignalHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	names := splitSymbols(r.URL.Query().Get("symbols"))
	if len(names) == 0 {
		names = h.svc.Registry().Names()
	}

	count, err := queryInt(r, "count", 1)
	if err != nil || count < minBatchCount || count > maxBatchCount {
		respondError(w, http.StatusBadRequest, "count must be between 1 and 10")
		return
	}

	signals, err := h.svc.AnalyzeMany(r.Context(), names, h.svc.DefaultThresholds(), count)
	if err != nil {
		h.respondAnalyzeError(w, strings.Join(names, ","), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"signals": signals,
		"count":   len(signals),
	})
}

// GetHistory returns persisted signals
// GET /api/signals/history?symbol=NIFTY&limit=50
func (h *SignalHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "Signal history is not enabled")
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol != "" && !h.svc.Registry().Has(symbol) {
		respondError(w, http.StatusBadRequest, "Invalid symbol")
		return
	}

	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	signals, err := h.history.Recent(r.Context(), symbol, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load signal history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve signal history")
		return
	}
	if signals == nil {
		signals = []*contracts.Signal{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"signals": signals,
		"count":   len(signals),
	})
}

// GetSymbols lists configured symbols
// GET /api/symbols
func (h *SignalHandler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":     h.svc.Registry().Names(),
		"description": "Available index options with live Zerodha data",
	})
}

// GetConnection reports broker connectivity
// GET /api/connection
func (h *SignalHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.ConnectionStatus())
}

func (h *SignalHandler) respondAnalyzeError(w http.ResponseWriter, symbol string, err error) {
	switch {
	case errors.Is(err, analyzer.ErrUnknownSymbol):
		respondError(w, http.StatusBadRequest, "Invalid symbol")
	case errors.Is(err, analyzer.ErrInvalidThresholds):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "Analysis timed out")
	default:
		h.logger.WithError(err).WithField("symbol", symbol).Error("Signal analysis failed")
		respondError(w, http.StatusBadGateway, "Failed to analyze market data")
	}
}
