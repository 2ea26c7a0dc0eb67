package gls

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/pgls/corstruct"
	"bitbucket.org/Davydov/pgls/data"
	"bitbucket.org/Davydov/pgls/optimize"
	"bitbucket.org/Davydov/pgls/tree"
)

const (
	treeFiveTips = "(((a:0.15,b:0.15):0.4,c:0.55):0.5,(d:0.25,e:0.25):0.8);"
	treeStar     = "(a:1,b:1,c:1,d:1,e:1);"
	treeTwins    = "((a:0,b:0):1,c:1);"
)

func parse(t *testing.T, s string) *tree.Tree {
	phy, err := tree.ParseNewick(bytes.NewBufferString(s))
	require.NoError(t, err)
	return phy
}

// bound builds a dataset with an intercept and a single slope.
func bound(t *testing.T, newick string, x, y []float64) *data.Bound {
	phy := parse(t, newick)
	n := len(y)
	design := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, x[i])
	}
	return &data.Bound{
		Tree:      phy,
		Y:         y,
		X:         design,
		CoefNames: []string{"(Intercept)", "x"},
	}
}

var (
	xVals = []float64{1, 2, 3, 4, 5}
	yVals = []float64{2.1, 3.9, 6.2, 7.8, 10.1}
)

// ols computes simple linear regression in closed form.
func ols(x, y []float64) (intercept, slope, rss, seSlope float64) {
	n := float64(len(x))
	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	mx, my := sx/n, sy/n
	var sxx, sxy float64
	for i := range x {
		sxx += (x[i] - mx) * (x[i] - mx)
		sxy += (x[i] - mx) * (y[i] - my)
	}
	slope = sxy / sxx
	intercept = my - slope*mx
	for i := range x {
		r := y[i] - intercept - slope*x[i]
		rss += r * r
	}
	seSlope = math.Sqrt(rss / (n - 2) / sxx)
	return
}

func TestIndependenceMatchesOLS(t *testing.T) {
	b := bound(t, treeFiveTips, xVals, yVals)
	m, err := NewModel(b, corstruct.NewIndependence(), ML)
	require.NoError(t, err)

	f, err := m.Fit()
	require.NoError(t, err)

	intercept, slope, rss, seSlope := ols(xVals, yVals)
	assert.InDelta(t, intercept, f.Coefficients[0].Estimate, 1e-10)
	assert.InDelta(t, slope, f.Coefficients[1].Estimate, 1e-10)
	assert.InDelta(t, seSlope, f.Coefficients[1].StdErr, 1e-10)
	assert.InDelta(t, rss/3, f.Sigma2, 1e-10)

	n := 5.0
	lnL := -0.5 * (n*math.Log(2*math.Pi*rss/n) + n)
	assert.InDelta(t, lnL, f.LnL, 1e-10)
	assert.InDelta(t, lnL, m.Likelihood(), 1e-10)
}

func TestPagelZeroIsIndependence(t *testing.T) {
	b := bound(t, treeFiveTips, xVals, yVals)
	mInd, err := NewModel(b, corstruct.NewIndependence(), ML)
	require.NoError(t, err)
	mPagel, err := NewModel(b, corstruct.NewPagel(0), ML)
	require.NoError(t, err)

	assert.InDelta(t, mInd.Likelihood(), mPagel.Likelihood(), 1e-10)

	fInd, err := mInd.Fit()
	require.NoError(t, err)
	fPagel, err := mPagel.Fit()
	require.NoError(t, err)
	for j := range fInd.Coefficients {
		assert.InDelta(t, fInd.Coefficients[j].Estimate,
			fPagel.Coefficients[j].Estimate, 1e-10)
		assert.InDelta(t, fInd.Coefficients[j].StdErr,
			fPagel.Coefficients[j].StdErr, 1e-10)
	}
}

func TestPagelOneIsBrownian(t *testing.T) {
	b := bound(t, treeFiveTips, xVals, yVals)
	mBM, err := NewModel(b, corstruct.NewBrownian(), ML)
	require.NoError(t, err)
	mPagel, err := NewModel(b, corstruct.NewPagel(1), ML)
	require.NoError(t, err)
	assert.InDelta(t, mBM.Likelihood(), mPagel.Likelihood(), 1e-10)
}

func TestStarTreeBrownianIsOLS(t *testing.T) {
	// On a star tree the Brownian correlation is the identity.
	b := bound(t, treeStar, xVals, yVals)
	m, err := NewModel(b, corstruct.NewBrownian(), ML)
	require.NoError(t, err)
	f, err := m.Fit()
	require.NoError(t, err)

	_, slope, _, seSlope := ols(xVals, yVals)
	assert.InDelta(t, slope, f.Coefficients[1].Estimate, 1e-10)
	assert.InDelta(t, seSlope, f.Coefficients[1].StdErr, 1e-10)
}

func TestSingularCovariance(t *testing.T) {
	// Zero-length sister branches make two tips perfectly
	// correlated.
	b := bound(t, treeTwins, []float64{1, 2, 3}, []float64{1.5, 2.5, 3.5})
	b.X = mat.NewDense(3, 1, []float64{1, 1, 1})
	b.CoefNames = []string{"(Intercept)"}
	m, err := NewModel(b, corstruct.NewBrownian(), ML)
	require.NoError(t, err)

	_, err = m.Fit()
	assert.ErrorIs(t, err, ErrSingularCovariance)
	assert.True(t, math.IsInf(m.Likelihood(), -1))
}

func TestRankDeficientDesign(t *testing.T) {
	b := bound(t, treeFiveTips, xVals, yVals)
	// Duplicate the slope column.
	design := mat.NewDense(5, 3, nil)
	for i := 0; i < 5; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, xVals[i])
		design.Set(i, 2, xVals[i])
	}
	b.X = design
	b.CoefNames = []string{"(Intercept)", "x", "x2"}
	m, err := NewModel(b, corstruct.NewIndependence(), ML)
	require.NoError(t, err)

	_, err = m.Fit()
	assert.ErrorIs(t, err, ErrRankDeficientDesign)
}

func TestTooFewObservations(t *testing.T) {
	b := bound(t, treeTwins, []float64{1, 2, 3}, []float64{1, 2, 3})
	b.X = mat.NewDense(3, 3, []float64{1, 1, 0, 1, 2, 1, 1, 3, 0})
	b.CoefNames = []string{"a", "b", "c"}
	_, err := NewModel(b, corstruct.NewIndependence(), ML)
	assert.ErrorIs(t, err, ErrTooFewObservations)
}

func TestGoldenLambda(t *testing.T) {
	// Phylogenetically structured response: sister pairs take
	// similar values.
	y := []float64{2.0, 2.1, 3.0, 1.0, 1.2}
	b := bound(t, treeFiveTips, xVals, y)
	b.X = mat.NewDense(5, 1, []float64{1, 1, 1, 1, 1})
	b.CoefNames = []string{"(Intercept)"}

	m, err := NewModel(b, corstruct.NewPagel(0.5), ML)
	require.NoError(t, err)

	g := optimize.NewGolden()
	g.Quiet = true
	g.SetOptimizable(m)
	g.Run(200)

	maxL := g.GetMaxLikelihood()
	pars := g.GetMaxLikelihoodParameters()
	lambda := pars["lambda"]
	assert.GreaterOrEqual(t, lambda, 0.0)
	assert.LessOrEqual(t, lambda, 1.0)

	// The optimum must dominate a parameter grid.
	for _, l := range []float64{0, 0.25, 0.5, 0.75, 1} {
		grid, err := NewModel(b, corstruct.NewPagel(l), ML)
		require.NoError(t, err)
		assert.LessOrEqual(t, grid.Likelihood(), maxL+1e-7,
			"grid point %v beats the optimum", l)
	}
}

func TestREML(t *testing.T) {
	b := bound(t, treeFiveTips, xVals, yVals)
	mML, err := NewModel(b, corstruct.NewBrownian(), ML)
	require.NoError(t, err)
	mREML, err := NewModel(b, corstruct.NewBrownian(), REML)
	require.NoError(t, err)

	fML, err := mML.Fit()
	require.NoError(t, err)
	fREML, err := mREML.Fit()
	require.NoError(t, err)

	// The point estimates agree; only the likelihood differs.
	for j := range fML.Coefficients {
		assert.InDelta(t, fML.Coefficients[j].Estimate,
			fREML.Coefficients[j].Estimate, 1e-10)
	}
	assert.NotEqual(t, fML.LnL, fREML.LnL)
	assert.Equal(t, "REML", fREML.MethodName)
}

func TestCompare(t *testing.T) {
	b := bound(t, treeFiveTips, xVals, yVals)
	m0, err := NewModel(b, corstruct.NewIndependence(), ML)
	require.NoError(t, err)
	m1, err := NewModel(b, corstruct.NewPagel(1), ML)
	require.NoError(t, err)

	f0, err := m0.Fit()
	require.NoError(t, err)
	f1, err := m1.Fit()
	require.NoError(t, err)

	c, err := Compare(f0, f1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Df)
	assert.GreaterOrEqual(t, c.Statistic, 0.0)
	assert.True(t, c.PValue >= 0 && c.PValue <= 1)

	// Self comparison: zero statistic, unit p-value.
	self, err := Compare(f0, f0)
	require.NoError(t, err)
	assert.Equal(t, 0, self.Df)
	assert.Equal(t, 0.0, self.Statistic)
	assert.Equal(t, 1.0, self.PValue)
}

func TestCompareMethodMismatch(t *testing.T) {
	b := bound(t, treeFiveTips, xVals, yVals)
	mML, err := NewModel(b, corstruct.NewBrownian(), ML)
	require.NoError(t, err)
	mREML, err := NewModel(b, corstruct.NewBrownian(), REML)
	require.NoError(t, err)

	fML, err := mML.Fit()
	require.NoError(t, err)
	fREML, err := mREML.Fit()
	require.NoError(t, err)

	_, err = Compare(fML, fREML)
	assert.ErrorIs(t, err, ErrMethodMismatch)
}

func TestCompareREMLFixedEffects(t *testing.T) {
	b := bound(t, treeFiveTips, xVals, yVals)
	m1, err := NewModel(b, corstruct.NewBrownian(), REML)
	require.NoError(t, err)
	f1, err := m1.Fit()
	require.NoError(t, err)

	b0 := bound(t, treeFiveTips, xVals, yVals)
	b0.X = mat.NewDense(5, 1, []float64{1, 1, 1, 1, 1})
	b0.CoefNames = []string{"(Intercept)"}
	m0, err := NewModel(b0, corstruct.NewBrownian(), REML)
	require.NoError(t, err)
	f0, err := m0.Fit()
	require.NoError(t, err)

	_, err = Compare(f0, f1)
	assert.ErrorIs(t, err, ErrFixedEffectsMismatch)
}

func TestModelCopy(t *testing.T) {
	b := bound(t, treeFiveTips, xVals, yVals)
	m, err := NewModel(b, corstruct.NewPagel(0.3), ML)
	require.NoError(t, err)

	cp := m.Copy()
	assert.InDelta(t, m.Likelihood(), cp.Likelihood(), 1e-12)

	// The copy's parameters are independent.
	cp.GetFloatParameters()[0].Set(0.9)
	assert.InDelta(t, 0.3, m.GetFloatParameters()[0].Get(), 1e-12)
	assert.NotEqual(t, m.Likelihood(), cp.Likelihood())
}
