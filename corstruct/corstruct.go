// Package corstruct provides the residual correlation structures
// for phylogenetic generalized least squares. The set of structures
// is closed: Independence, Brownian, Pagel and OrnsteinUhlenbeck.
// Every structure is a pure mapping from a tree and its parameters
// to a correlation matrix.
package corstruct

import (
	"errors"
	"fmt"
	"math"

	"bitbucket.org/Davydov/pgls/optimize"
	"bitbucket.org/Davydov/pgls/tree"
	"bitbucket.org/Davydov/pgls/vcv"
)

var (
	// ErrInvalidLambda is returned for lambda outside the valid
	// range.
	ErrInvalidLambda = errors.New("lambda outside the valid range")
	// ErrInvalidAlpha is returned for a non-positive
	// Ornstein-Uhlenbeck strength.
	ErrInvalidAlpha = errors.New("alpha must be positive")
)

// MaxExtendedLambda is the upper lambda bound when the extended
// range is enabled.
const MaxExtendedLambda = 1.5

// MaxAlpha is the upper bound used when estimating the
// Ornstein-Uhlenbeck strength numerically.
const MaxAlpha = 100

// Structure is a residual correlation structure. The addParameters
// method is unexported on purpose: the set of structures is closed
// and BindParameters dispatches over it.
type Structure interface {
	// Name returns the structure name.
	Name() string
	// Correlation returns the correlation matrix for the tree at
	// the current parameter values.
	Correlation(t *tree.Tree) (*vcv.Matrix, error)
	// Parameters returns the current shape parameter values.
	Parameters() map[string]float64
	// Copy returns an independent copy of the structure.
	Copy() Structure

	addParameters(fpg optimize.FloatParameterGenerator, ps *optimize.FloatParameters, onChange func())
}

// BindParameters registers the free parameters of a structure with a
// parameter collection; onChange is called whenever a parameter
// value changes.
func BindParameters(s Structure, fpg optimize.FloatParameterGenerator, ps *optimize.FloatParameters, onChange func()) {
	s.addParameters(fpg, ps, onChange)
}

// NFreeParameters returns the number of parameters BindParameters
// would register.
func NFreeParameters(s Structure) int {
	var ps optimize.FloatParameters
	s.addParameters(optimize.BasicFloatParameterGenerator, &ps, nil)
	return len(ps)
}

// Independence is the identity correlation: residuals are
// uncorrelated and PGLS collapses to ordinary least squares.
type Independence struct{}

// NewIndependence creates an Independence structure.
func NewIndependence() *Independence {
	return &Independence{}
}

// Name returns the structure name.
func (s *Independence) Name() string { return "Independence" }

// Correlation returns the identity matrix for the tree tips.
func (s *Independence) Correlation(t *tree.Tree) (*vcv.Matrix, error) {
	m := vcv.NewMatrix(t.TipNames())
	for i := 0; i < m.Dim(); i++ {
		m.Set(i, i, 1)
	}
	return m, nil
}

// Parameters returns the shape parameters (none).
func (s *Independence) Parameters() map[string]float64 { return nil }

// Copy returns an independent copy.
func (s *Independence) Copy() Structure { return &Independence{} }

func (s *Independence) addParameters(optimize.FloatParameterGenerator, *optimize.FloatParameters, func()) {
}

// Brownian is the full phylogenetic correlation under Brownian
// motion: shared ancestry time divided by the tree height.
type Brownian struct{}

// NewBrownian creates a Brownian structure.
func NewBrownian() *Brownian {
	return &Brownian{}
}

// Name returns the structure name.
func (s *Brownian) Name() string { return "Brownian" }

// Correlation returns the Brownian-motion correlation matrix. The
// tree must be ultrametric.
func (s *Brownian) Correlation(t *tree.Tree) (*vcv.Matrix, error) {
	return vcv.Correlation(t, vcv.RequireUltrametric)
}

// Parameters returns the shape parameters (none).
func (s *Brownian) Parameters() map[string]float64 { return nil }

// Copy returns an independent copy.
func (s *Brownian) Copy() Structure { return &Brownian{} }

func (s *Brownian) addParameters(optimize.FloatParameterGenerator, *optimize.FloatParameters, func()) {
}

// Pagel scales the off-diagonal Brownian correlation by lambda; the
// diagonal stays 1. Lambda of 0 is Independence, lambda of 1 is
// Brownian. Extended enables the lambda>1 extension up to
// MaxExtendedLambda.
type Pagel struct {
	Lambda   float64
	Extended bool
}

// NewPagel creates a Pagel structure with the given lambda.
func NewPagel(lambda float64) *Pagel {
	return &Pagel{Lambda: lambda}
}

// Name returns the structure name.
func (s *Pagel) Name() string { return "Pagel" }

// maxLambda returns the current upper lambda bound.
func (s *Pagel) maxLambda() float64 {
	if s.Extended {
		return MaxExtendedLambda
	}
	return 1
}

// Correlation returns the lambda-scaled correlation matrix.
func (s *Pagel) Correlation(t *tree.Tree) (*vcv.Matrix, error) {
	if s.Lambda < 0 || s.Lambda > s.maxLambda() {
		return nil, fmt.Errorf("%w: lambda=%v, range [0, %v]",
			ErrInvalidLambda, s.Lambda, s.maxLambda())
	}
	m, err := vcv.Correlation(t, vcv.RequireUltrametric)
	if err != nil {
		return nil, err
	}
	n := m.Dim()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.Set(i, j, m.At(i, j)*s.Lambda)
		}
	}
	return m, nil
}

// Parameters returns the shape parameters.
func (s *Pagel) Parameters() map[string]float64 {
	return map[string]float64{"lambda": s.Lambda}
}

// Copy returns an independent copy.
func (s *Pagel) Copy() Structure {
	return &Pagel{Lambda: s.Lambda, Extended: s.Extended}
}

func (s *Pagel) addParameters(fpg optimize.FloatParameterGenerator, ps *optimize.FloatParameters, onChange func()) {
	par := fpg(&s.Lambda, "lambda")
	par.SetMin(0)
	par.SetMax(s.maxLambda())
	par.SetOnChange(onChange)
	ps.Append(par)
}

// OrnsteinUhlenbeck models stabilizing selection: the correlation
// between two tips decays exponentially with the phylogenetic
// distance between them, rho = exp(-2 alpha (T - t)), where T is the
// tree height and t the depth of the most recent common ancestor.
// The tree must be ultrametric.
type OrnsteinUhlenbeck struct {
	Alpha float64
}

// NewOrnsteinUhlenbeck creates an OrnsteinUhlenbeck structure with
// the given strength.
func NewOrnsteinUhlenbeck(alpha float64) *OrnsteinUhlenbeck {
	return &OrnsteinUhlenbeck{Alpha: alpha}
}

// Name returns the structure name.
func (s *OrnsteinUhlenbeck) Name() string { return "OrnsteinUhlenbeck" }

// Correlation returns the Ornstein-Uhlenbeck correlation matrix.
func (s *OrnsteinUhlenbeck) Correlation(t *tree.Tree) (*vcv.Matrix, error) {
	if s.Alpha <= 0 {
		return nil, fmt.Errorf("%w: alpha=%v", ErrInvalidAlpha, s.Alpha)
	}
	cov, err := vcv.Covariance(t)
	if err != nil {
		return nil, err
	}
	if !t.IsUltrametric(tree.UltrametricTol) {
		return nil, fmt.Errorf("%w: Ornstein-Uhlenbeck requires equal root-to-tip distances",
			vcv.ErrNotUltrametric)
	}
	h := t.Height()
	m := vcv.NewMatrix(cov.Names())
	n := m.Dim()
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
		for j := i + 1; j < n; j++ {
			m.Set(i, j, math.Exp(-2*s.Alpha*(h-cov.At(i, j))))
		}
	}
	return m, nil
}

// Parameters returns the shape parameters.
func (s *OrnsteinUhlenbeck) Parameters() map[string]float64 {
	return map[string]float64{"alpha": s.Alpha}
}

// Copy returns an independent copy.
func (s *OrnsteinUhlenbeck) Copy() Structure {
	return &OrnsteinUhlenbeck{Alpha: s.Alpha}
}

func (s *OrnsteinUhlenbeck) addParameters(fpg optimize.FloatParameterGenerator, ps *optimize.FloatParameters, onChange func()) {
	par := fpg(&s.Alpha, "alpha")
	par.SetMin(1e-6)
	par.SetMax(MaxAlpha)
	par.SetOnChange(onChange)
	ps.Append(par)
}
