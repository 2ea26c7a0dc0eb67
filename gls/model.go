package gls

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/pgls/corstruct"
	"bitbucket.org/Davydov/pgls/data"
	"bitbucket.org/Davydov/pgls/optimize"
)

// Model is a phylogenetic regression model: a bound dataset, a
// residual correlation structure and an estimation method. The
// structure's shape parameters are the model's free parameters; the
// coefficients and the residual variance are profiled out of the
// likelihood analytically.
type Model struct {
	data      *data.Bound
	structure corstruct.Structure
	method    Method

	parameters optimize.FloatParameters

	// upToDate is true if the likelihood was computed since the
	// last parameter change.
	upToDate bool
	lnL      float64
}

// NewModel creates a model for the dataset with the given
// correlation structure and estimation method.
func NewModel(b *data.Bound, structure corstruct.Structure, method Method) (*Model, error) {
	n, p := b.X.Dims()
	if n <= p {
		return nil, ErrTooFewObservations
	}
	m := &Model{
		data:      b,
		structure: structure,
		method:    method,
	}
	m.setupParameters()
	return m, nil
}

// setupParameters registers the shape parameters of the correlation
// structure.
func (m *Model) setupParameters() {
	fpg := optimize.BasicFloatParameterGenerator
	corstruct.BindParameters(m.structure, fpg, &m.parameters, m.update)
}

// update invalidates the cached likelihood.
func (m *Model) update() {
	m.upToDate = false
}

// GetFloatParameters returns the free shape parameters.
func (m *Model) GetFloatParameters() optimize.FloatParameters {
	return m.parameters
}

// Copy returns an independent copy of the model.
func (m *Model) Copy() optimize.Optimizable {
	newM := &Model{
		data:      m.data,
		structure: m.structure.Copy(),
		method:    m.method,
	}
	newM.setupParameters()
	return newM
}

// Structure returns the correlation structure.
func (m *Model) Structure() corstruct.Structure {
	return m.structure
}

// Method returns the estimation method.
func (m *Model) Method() Method {
	return m.method
}

// Data returns the bound dataset.
func (m *Model) Data() *data.Bound {
	return m.data
}

// solution holds the generalized least squares solve at the current
// shape parameter values.
type solution struct {
	beta        *mat.VecDense
	rss         float64
	logDetSigma float64
	logDetXtWX  float64
	cholXtWX    mat.Cholesky
}

// solve factorizes the residual correlation matrix at the current
// shape parameter values and solves the generalized normal
// equations.
func (m *Model) solve() (*solution, error) {
	corr, err := m.structure.Correlation(m.data.Tree)
	if err != nil {
		return nil, err
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(corr.Sym()); !ok {
		return nil, ErrSingularCovariance
	}

	n, p := m.data.X.Dims()
	y := mat.NewVecDense(n, m.data.Y)

	// a = Sigma^-1 X, b = Sigma^-1 y.
	a := mat.NewDense(n, p, nil)
	if err := chol.SolveTo(a, m.data.X); err != nil {
		return nil, ErrSingularCovariance
	}
	b := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(b, y); err != nil {
		return nil, ErrSingularCovariance
	}

	// XtWX = X' Sigma^-1 X, symmetrized against round-off.
	prod := mat.NewDense(p, p, nil)
	prod.Mul(m.data.X.T(), a)
	xtwx := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			xtwx.SetSym(i, j, (prod.At(i, j)+prod.At(j, i))/2)
		}
	}

	xtb := mat.NewVecDense(p, nil)
	xtb.MulVec(m.data.X.T(), b)

	sol := &solution{logDetSigma: chol.LogDet()}
	if ok := sol.cholXtWX.Factorize(xtwx); !ok {
		return nil, ErrRankDeficientDesign
	}
	sol.logDetXtWX = sol.cholXtWX.LogDet()

	sol.beta = mat.NewVecDense(p, nil)
	if err := sol.cholXtWX.SolveVecTo(sol.beta, xtb); err != nil {
		return nil, ErrRankDeficientDesign
	}

	sol.rss = mat.Dot(y, b) - mat.Dot(sol.beta, xtb)
	if sol.rss < 0 {
		sol.rss = 0
	}
	return sol, nil
}

// logLikelihood computes the profile log-likelihood of a solution.
func (m *Model) logLikelihood(sol *solution) float64 {
	n, p := m.data.X.Dims()
	nf := float64(n)
	switch m.method {
	case REML:
		df := nf - float64(p)
		sigma2 := sol.rss / df
		return -0.5 * (df*math.Log(2*math.Pi*sigma2) +
			sol.logDetSigma + sol.logDetXtWX + df)
	default:
		return -0.5 * (nf*math.Log(2*math.Pi*sol.rss/nf) +
			sol.logDetSigma + nf)
	}
}

// Likelihood computes the profile log-likelihood at the current
// shape parameter values. Invalid parameter values and singular
// matrices yield negative infinity so optimizers step away from
// them.
func (m *Model) Likelihood() float64 {
	if m.upToDate {
		return m.lnL
	}
	sol, err := m.solve()
	if err != nil {
		log.Debugf("likelihood undefined: %v", err)
		m.lnL = math.Inf(-1)
	} else {
		m.lnL = m.logLikelihood(sol)
	}
	m.upToDate = true
	return m.lnL
}
