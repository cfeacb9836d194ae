package contracts

import "fmt"

// Thresholds configure the STRONG BUY gates.
// All fields are independently overridable.
type Thresholds struct {
	VegaMin       float64 `json:"vega_min" yaml:"vega_min"`
	GammaMin      float64 `json:"gamma_min" yaml:"gamma_min"`
	ThetaMax      float64 `json:"theta_max" yaml:"theta_max"` // theta is negative
	DeltaMin      float64 `json:"delta_min" yaml:"delta_min"`
	OIMin         int64   `json:"oi_min" yaml:"oi_min"`
	IVMin         float64 `json:"iv_min" yaml:"iv_min"`
	ConfidenceMin float64 `json:"confidence_min" yaml:"confidence_min"`
}

// DefaultThresholds returns the authoritative defaults
func DefaultThresholds() Thresholds {
	return Thresholds{
		VegaMin:       0.3,
		GammaMin:      0.05,
		ThetaMax:      -0.5,
		DeltaMin:      0.4,
		OIMin:         50000,
		IVMin:         0.20,
		ConfidenceMin: 0.80,
	}
}

// Validate checks every field against its natural domain
func (t Thresholds) Validate() error {
	switch {
	case t.VegaMin < 0:
		return fmt.Errorf("vega_min must be >= 0, got %v", t.VegaMin)
	case t.GammaMin < 0:
		return fmt.Errorf("gamma_min must be >= 0, got %v", t.GammaMin)
	case t.DeltaMin < 0:
		return fmt.Errorf("delta_min must be >= 0, got %v", t.DeltaMin)
	case t.IVMin < 0:
		return fmt.Errorf("iv_min must be >= 0, got %v", t.IVMin)
	case t.OIMin < 0:
		return fmt.Errorf("oi_min must be >= 0, got %d", t.OIMin)
	case t.ConfidenceMin < 0 || t.ConfidenceMin > 1:
		return fmt.Errorf("confidence_min must be within [0,1], got %v", t.ConfidenceMin)
	}
	return nil
}
