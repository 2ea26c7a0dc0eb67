package vcv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/pgls/tree"
)

const (
	treeFiveTips = "(((a:0.15,b:0.15):0.4,c:0.55):0.5,(d:0.25,e:0.25):0.8);"
	treeSkewed   = "((a:1,b:2):1,c:3);"
	treeOneTip   = "a:0.7;"
)

func parse(t *testing.T, s string) *tree.Tree {
	phy, err := tree.ParseNewick(bytes.NewBufferString(s))
	require.NoError(t, err)
	return phy
}

func TestCovarianceWorkedExample(t *testing.T) {
	phy := parse(t, treeFiveTips)
	m, err := Covariance(phy)
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b", "c", "d", "e"}, m.Names())

	expected := [][]float64{
		{1.05, 0.9, 0.5, 0, 0},
		{0.9, 1.05, 0.5, 0, 0},
		{0.5, 0.5, 1.05, 0, 0},
		{0, 0, 0, 1.05, 0.8},
		{0, 0, 0, 0.8, 1.05},
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			assert.InDelta(t, expected[i][j], m.At(i, j), 1e-12,
				"entry (%d, %d)", i, j)
		}
	}
}

func TestCovarianceSymmetricPositiveDefinite(t *testing.T) {
	phy := parse(t, treeFiveTips)
	m, err := Covariance(phy)
	require.NoError(t, err)

	for i := 0; i < m.Dim(); i++ {
		for j := 0; j < m.Dim(); j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
		}
	}

	var chol mat.Cholesky
	assert.True(t, chol.Factorize(m.Sym()),
		"covariance matrix should be positive definite for a tree with distinct tips")
}

func TestCorrelationUltrametric(t *testing.T) {
	phy := parse(t, treeFiveTips)
	m, err := Correlation(phy, RequireUltrametric)
	require.NoError(t, err)

	for i := 0; i < m.Dim(); i++ {
		assert.InDelta(t, 1.0, m.At(i, i), 1e-12)
	}
	assert.InDelta(t, 0.9/1.05, m.At(0, 1), 1e-12)
	assert.InDelta(t, 0.5/1.05, m.At(0, 2), 1e-12)
}

func TestCorrelationNonUltrametric(t *testing.T) {
	phy := parse(t, treeSkewed)
	_, err := Correlation(phy, RequireUltrametric)
	assert.ErrorIs(t, err, ErrNotUltrametric)

	// Explicit policy overrides the check.
	m, err := Correlation(phy, NormalizeByHeight)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.At(2, 2), 1e-12)
}

func TestCorrelationRoundTrip(t *testing.T) {
	phy := parse(t, treeFiveTips)
	cov, err := Covariance(phy)
	require.NoError(t, err)
	cor, err := Correlation(phy, RequireUltrametric)
	require.NoError(t, err)

	back := cor.Rescale(phy.Height())
	for i := 0; i < cov.Dim(); i++ {
		for j := 0; j < cov.Dim(); j++ {
			assert.InDelta(t, cov.At(i, j), back.At(i, j), 1e-12)
		}
	}
}

func TestCovarianceSingleTip(t *testing.T) {
	phy := parse(t, treeOneTip)
	m, err := Covariance(phy)
	require.NoError(t, err)
	require.Equal(t, 1, m.Dim())
	assert.InDelta(t, 0.7, m.At(0, 0), 1e-12)
}

func TestCovarianceZeroLengthEdges(t *testing.T) {
	phy := parse(t, "((a:1,b:1):0,c:1);")
	m, err := Covariance(phy)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, m.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, m.At(0, 0), 1e-12)
}
