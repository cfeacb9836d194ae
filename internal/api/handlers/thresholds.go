package handlers

import (
	"fmt"
	"math"
	"net/http"

	"github.com/wonny/optsignals/internal/contracts"
)

// thresholdParam binds a query key (and its legacy alias) to a field
type thresholdParam struct {
	key   string
	alias string
	set   func(*contracts.Thresholds, float64)
}

var thresholdParams = []thresholdParam{
	{key: "vega_min", set: func(t *contracts.Thresholds, v float64) { t.VegaMin = v }},
	{key: "gamma_min", set: func(t *contracts.Thresholds, v float64) { t.GammaMin = v }},
	{key: "theta_max", alias: "theta_min", set: func(t *contracts.Thresholds, v float64) { t.ThetaMax = v }},
	{key: "delta_min", set: func(t *contracts.Thresholds, v float64) { t.DeltaMin = v }},
	{key: "oi_min", alias: "iv_call_oi_min", set: func(t *contracts.Thresholds, v float64) { t.OIMin = int64(math.Round(v)) }},
	{key: "iv_min", set: func(t *contracts.Thresholds, v float64) { t.IVMin = v }},
	{key: "confidence_min", set: func(t *contracts.Thresholds, v float64) { t.ConfidenceMin = v }},
}

// parseThresholds overlays query parameters on the defaults. The canonical
// key wins over its alias when both are present.
func parseThresholds(r *http.Request, defaults contracts.Thresholds) (contracts.Thresholds, error) {
	th := defaults

	for _, p := range thresholdParams {
		keys := []string{p.alias, p.key}
		for _, key := range keys {
			if key == "" {
				continue
			}
			v, ok, err := queryFloat(r, key)
			if err != nil {
				return th, fmt.Errorf("invalid %s", key)
			}
			if ok {
				p.set(&th, v)
			}
		}
	}

	if err := th.Validate(); err != nil {
		return th, err
	}
	return th, nil
}
