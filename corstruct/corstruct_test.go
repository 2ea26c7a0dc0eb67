package corstruct

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/pgls/tree"
	"bitbucket.org/Davydov/pgls/vcv"
)

const treeFiveTips = "(((a:0.15,b:0.15):0.4,c:0.55):0.5,(d:0.25,e:0.25):0.8);"

func parse(t *testing.T, s string) *tree.Tree {
	phy, err := tree.ParseNewick(bytes.NewBufferString(s))
	require.NoError(t, err)
	return phy
}

func TestIndependence(t *testing.T) {
	phy := parse(t, treeFiveTips)
	m, err := NewIndependence().Correlation(phy)
	require.NoError(t, err)
	for i := 0; i < m.Dim(); i++ {
		for j := 0; j < m.Dim(); j++ {
			if i == j {
				assert.Equal(t, 1.0, m.At(i, j))
			} else {
				assert.Equal(t, 0.0, m.At(i, j))
			}
		}
	}
}

func TestPagelZeroIsIndependence(t *testing.T) {
	phy := parse(t, treeFiveTips)
	pagel, err := NewPagel(0).Correlation(phy)
	require.NoError(t, err)
	ident, err := NewIndependence().Correlation(phy)
	require.NoError(t, err)
	for i := 0; i < pagel.Dim(); i++ {
		for j := 0; j < pagel.Dim(); j++ {
			assert.InDelta(t, ident.At(i, j), pagel.At(i, j), 1e-15)
		}
	}
}

func TestPagelOneIsBrownian(t *testing.T) {
	phy := parse(t, treeFiveTips)
	pagel, err := NewPagel(1).Correlation(phy)
	require.NoError(t, err)
	bm, err := NewBrownian().Correlation(phy)
	require.NoError(t, err)
	for i := 0; i < pagel.Dim(); i++ {
		for j := 0; j < pagel.Dim(); j++ {
			assert.InDelta(t, bm.At(i, j), pagel.At(i, j), 1e-15)
		}
	}
}

func TestPagelRange(t *testing.T) {
	phy := parse(t, treeFiveTips)
	_, err := NewPagel(1.2).Correlation(phy)
	assert.ErrorIs(t, err, ErrInvalidLambda)

	ext := &Pagel{Lambda: 1.2, Extended: true}
	_, err = ext.Correlation(phy)
	assert.NoError(t, err)

	_, err = NewPagel(-0.1).Correlation(phy)
	assert.ErrorIs(t, err, ErrInvalidLambda)
}

func TestOrnsteinUhlenbeck(t *testing.T) {
	phy := parse(t, treeFiveTips)
	m, err := NewOrnsteinUhlenbeck(1).Correlation(phy)
	require.NoError(t, err)

	for i := 0; i < m.Dim(); i++ {
		assert.Equal(t, 1.0, m.At(i, i))
	}
	// Closer relatives are more correlated: cor(a,b) > cor(a,c) > cor(a,d).
	assert.Greater(t, m.At(0, 1), m.At(0, 2))
	assert.Greater(t, m.At(0, 2), m.At(0, 3))

	_, err = NewOrnsteinUhlenbeck(0).Correlation(phy)
	assert.ErrorIs(t, err, ErrInvalidAlpha)
}

func TestOrnsteinUhlenbeckNonUltrametric(t *testing.T) {
	phy := parse(t, "((a:1,b:2):1,c:3);")
	_, err := NewOrnsteinUhlenbeck(1).Correlation(phy)
	assert.ErrorIs(t, err, vcv.ErrNotUltrametric)
}

func TestFreeParameters(t *testing.T) {
	assert.Equal(t, 0, NFreeParameters(NewIndependence()))
	assert.Equal(t, 0, NFreeParameters(NewBrownian()))
	assert.Equal(t, 1, NFreeParameters(NewPagel(1)))
	assert.Equal(t, 1, NFreeParameters(NewOrnsteinUhlenbeck(1)))
}
