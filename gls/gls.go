// Package gls implements the phylogenetic generalized least squares
// estimator. A Model ties a bound dataset to a residual correlation
// structure and an estimation method; it satisfies
// optimize.Optimizable so the shape parameters can be maximized
// numerically, and Fit extracts coefficients, standard errors and
// the log-likelihood at the current parameter values.
package gls

import (
	"errors"
	"fmt"

	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("gls")

var (
	// ErrSingularCovariance is returned when the residual
	// covariance matrix is not positive definite.
	ErrSingularCovariance = errors.New("residual covariance matrix is singular")
	// ErrRankDeficientDesign is returned when the design matrix
	// columns are linearly dependent.
	ErrRankDeficientDesign = errors.New("design matrix is rank deficient")
	// ErrMethodMismatch is returned when comparing fits estimated
	// with different methods.
	ErrMethodMismatch = errors.New("fits use different estimation methods")
	// ErrFixedEffectsMismatch is returned when comparing REML
	// fits with different fixed effects.
	ErrFixedEffectsMismatch = errors.New("REML likelihoods are only comparable for identical fixed effects")
	// ErrTooFewObservations is returned when there are not enough
	// observations for the design.
	ErrTooFewObservations = errors.New("fewer observations than design columns")
)

// Method is the estimation method.
type Method int

const (
	// ML is maximum likelihood.
	ML Method = iota
	// REML is restricted maximum likelihood.
	REML
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case ML:
		return "ML"
	case REML:
		return "REML"
	}
	return "unknown"
}

// MethodFromString parses a method name.
func MethodFromString(s string) (Method, error) {
	switch s {
	case "ML", "ml":
		return ML, nil
	case "REML", "reml":
		return REML, nil
	}
	return ML, fmt.Errorf("unknown estimation method %q", s)
}
