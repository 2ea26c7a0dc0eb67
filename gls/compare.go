package gls

import (
	"fmt"

	"bitbucket.org/Davydov/pgls/dist"
)

// Comparison is the result of a likelihood-ratio test between a
// null and an alternative fit.
type Comparison struct {
	// Statistic is the likelihood-ratio statistic,
	// 2 (lnL1 - lnL0), clamped at zero.
	Statistic float64 `json:"statistic"`
	// Df is the difference in the number of estimated
	// parameters.
	Df int `json:"df"`
	// PValue is the chi-squared upper tail probability.
	PValue float64 `json:"pValue"`
}

// equalNames compares two design column name lists.
func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Compare performs a likelihood-ratio test of a null fit against an
// alternative fit. The fits must use the same estimation method, and
// REML fits must share the same fixed effects; the alternative must
// not have fewer parameters than the null.
func Compare(null, alt *Fit) (*Comparison, error) {
	if null.Method != alt.Method {
		return nil, fmt.Errorf("%w: %v vs %v",
			ErrMethodMismatch, null.MethodName, alt.MethodName)
	}
	if null.Method == REML && !equalNames(null.CoefNames, alt.CoefNames) {
		return nil, ErrFixedEffectsMismatch
	}
	df := alt.NParameters() - null.NParameters()
	if df < 0 {
		return nil, fmt.Errorf("null model has more parameters (%d) than the alternative (%d)",
			null.NParameters(), alt.NParameters())
	}

	c := &Comparison{Df: df}
	c.Statistic = 2 * (alt.LnL - null.LnL)
	if c.Statistic < 0 {
		// The models are nested, so a negative statistic only
		// reflects incomplete convergence.
		log.Warningf("negative likelihood-ratio statistic %v, clamping to 0", c.Statistic)
		c.Statistic = 0
	}
	if df == 0 {
		c.PValue = 1
	} else {
		c.PValue = dist.PValueChi2(c.Statistic, float64(df))
	}
	return c, nil
}
