package gls

import (
	"bytes"
	"fmt"
	"math"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/pgls/corstruct"
	"bitbucket.org/Davydov/pgls/dist"
)

// Coefficient is a single estimated regression coefficient.
type Coefficient struct {
	// Name is the design column name.
	Name string `json:"name"`
	// Estimate is the point estimate.
	Estimate float64 `json:"estimate"`
	// StdErr is the standard error.
	StdErr float64 `json:"stdErr"`
	// TValue is the t statistic, Estimate / StdErr.
	TValue float64 `json:"tValue"`
	// PValue is the two-sided p-value on n-p degrees of freedom.
	PValue float64 `json:"pValue"`
}

// Fit is the result of a generalized least squares fit at fixed
// shape parameter values.
type Fit struct {
	// Method is the estimation method.
	Method Method `json:"-"`
	// MethodName is the estimation method name.
	MethodName string `json:"method"`
	// Structure is the correlation structure name.
	Structure string `json:"structure"`
	// ShapeParameters holds the shape parameter values the fit
	// was computed at.
	ShapeParameters map[string]float64 `json:"shapeParameters,omitempty"`
	// NShapeFree is the number of numerically estimated shape
	// parameters.
	NShapeFree int `json:"nShapeFree"`
	// Coefficients are the estimated coefficients in design
	// column order.
	Coefficients []Coefficient `json:"coefficients"`
	// CoefNames are the design column names.
	CoefNames []string `json:"-"`
	// Sigma2 is the residual variance estimate, RSS / (n - p).
	Sigma2 float64 `json:"sigma2"`
	// LnL is the log-likelihood at the estimates.
	LnL float64 `json:"lnL"`
	// NObservations is the number of observations.
	NObservations int `json:"nObservations"`
	// NCoef is the number of design columns.
	NCoef int `json:"nCoef"`
	// ConvergenceFailure is set by the caller when the shape
	// parameter optimization did not converge; the fit then
	// reflects the best point found, not a maximum.
	ConvergenceFailure bool `json:"convergenceFailure,omitempty"`
}

// NParameters returns the number of estimated parameters: the
// coefficients, the free shape parameters and the residual
// variance.
func (f *Fit) NParameters() int {
	return f.NCoef + f.NShapeFree + 1
}

// String formats the fit as a coefficient table.
func (f *Fit) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s fit, %s correlation, lnL=%f\n",
		f.MethodName, f.Structure, f.LnL)
	for name, value := range f.ShapeParameters {
		fmt.Fprintf(&buf, "%s=%f\n", name, value)
	}
	fmt.Fprintf(&buf, "sigma2=%f, n=%d\n", f.Sigma2, f.NObservations)
	w := tabwriter.NewWriter(&buf, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "coefficient\testimate\tstderr\tt\tp")
	for _, c := range f.Coefficients {
		fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\n",
			c.Name, c.Estimate, c.StdErr, c.TValue, c.PValue)
	}
	w.Flush()
	return buf.String()
}

// Fit solves the generalized least squares problem at the current
// shape parameter values and returns the coefficient estimates with
// their standard errors and the log-likelihood.
func (m *Model) Fit() (*Fit, error) {
	sol, err := m.solve()
	if err != nil {
		return nil, err
	}

	n, p := m.data.X.Dims()
	df := float64(n - p)
	// The standard errors use the unbiased variance estimate for
	// both methods, so an Independence fit reproduces ordinary
	// least squares exactly.
	sigma2 := sol.rss / df

	cov := mat.NewSymDense(p, nil)
	if err := sol.cholXtWX.InverseTo(cov); err != nil {
		return nil, ErrRankDeficientDesign
	}

	f := &Fit{
		Method:          m.method,
		MethodName:      m.method.String(),
		Structure:       m.structure.Name(),
		ShapeParameters: m.structure.Parameters(),
		NShapeFree:      corstruct.NFreeParameters(m.structure),
		Coefficients:    make([]Coefficient, p),
		CoefNames:       m.data.CoefNames,
		Sigma2:          sigma2,
		LnL:             m.logLikelihood(sol),
		NObservations:   n,
		NCoef:           p,
	}

	for j := 0; j < p; j++ {
		c := &f.Coefficients[j]
		c.Name = m.data.CoefNames[j]
		c.Estimate = sol.beta.AtVec(j)
		c.StdErr = math.Sqrt(sigma2 * cov.At(j, j))
		if c.StdErr > 0 {
			c.TValue = c.Estimate / c.StdErr
			c.PValue = dist.PValueT(c.TValue, df)
		} else {
			c.PValue = math.NaN()
		}
	}
	return f, nil
}
