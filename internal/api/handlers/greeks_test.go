package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetGreeks(t *testing.T) {
	rec := httptest.NewRecorder()
	GetGreeks(rec, httptest.NewRequest("GET", "/api/greeks?spot=20000&strike=20000&iv=0.25", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0.038, body["t"])
	assert.Equal(t, 0.5253, body["delta"])
	assert.Equal(t, 0.000408, body["gamma"])
	assert.Equal(t, -22.2656, body["theta"])
	assert.Equal(t, 15.5225, body["vega"])
}

func TestGetGreeks_Validation(t *testing.T) {
	queries := []string{
		"",
		"spot=20000&strike=20000",
		"spot=x&strike=1&iv=0.2",
		"spot=1&strike=1&iv=0.2&t=abc",
		"spot=NaN&strike=20000&iv=0.25",
		"spot=20000&strike=Inf&iv=0.25",
		"spot=20000&strike=20000&iv=-Inf",
		"spot=20000&strike=20000&iv=0.25&t=Inf",
		"spot=20000&strike=20000&iv=0.25&t=%2BInf",
	}
	for _, query := range queries {
		rec := httptest.NewRecorder()
		GetGreeks(rec, httptest.NewRequest("GET", "/api/greeks?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		assert.Contains(t, rec.Body.String(), "error", query)
	}
}

func TestGetGreeks_Degenerate(t *testing.T) {
	rec := httptest.NewRecorder()
	GetGreeks(rec, httptest.NewRequest("GET", "/api/greeks?spot=20000&strike=20000&iv=0&t=0.038", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body["delta"])
	assert.Zero(t, body["vega"])
}
