package data

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/pgls/tree"
)

const (
	treeFiveTips = "(((a:0.15,b:0.15):0.4,c:0.55):0.5,(d:0.25,e:0.25):0.8);"

	tableFull = `id,mass,habitat,speed
a,1.2,forest,10
b,1.6,forest,12
c,2.1,open,20
d,0.9,open,18
e,1.1,forest,15
`

	tableMismatch = `id,mass,speed
a,1.2,10
b,1.6,12
c,2.1,20
x,5.0,99
d,NA,18
`
)

func parse(t *testing.T, s string) *tree.Tree {
	phy, err := tree.ParseNewick(bytes.NewBufferString(s))
	require.NoError(t, err)
	return phy
}

func TestReadTable(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(tableFull), ',')
	require.NoError(t, err)

	assert.Equal(t, 5, tbl.NIDs())

	mass, ok := tbl.Column("mass")
	require.True(t, ok)
	assert.Equal(t, Numeric, mass.Kind)
	assert.InDelta(t, 1.2, mass.Values[0], 1e-12)

	habitat, ok := tbl.Column("habitat")
	require.True(t, ok)
	assert.Equal(t, Categorical, habitat.Kind)
	assert.Equal(t, "open", habitat.Labels[2])

	_, ok = tbl.Column("nope")
	assert.False(t, ok)
}

func TestBindFull(t *testing.T) {
	phy := parse(t, treeFiveTips)
	tbl, err := ReadTable(strings.NewReader(tableFull), ',')
	require.NoError(t, err)

	b, err := Bind(phy, tbl, &Spec{Response: "speed", Predictors: []string{"mass", "habitat"}})
	require.NoError(t, err)

	assert.Equal(t, 0, b.DroppedTips)
	assert.Equal(t, 0, b.DroppedRows)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, b.Tree.TipNames())
	assert.Equal(t, []float64{10, 12, 20, 18, 15}, b.Y)
	assert.Equal(t, []string{"(Intercept)", "mass", "habitatopen"}, b.CoefNames)

	// Row order follows the tip order; c is in the open habitat.
	assert.Equal(t, 1.0, b.X.At(2, 2))
	assert.Equal(t, 0.0, b.X.At(0, 2))
	assert.InDelta(t, 2.1, b.X.At(2, 1), 1e-12)
}

func TestBindMismatch(t *testing.T) {
	phy := parse(t, treeFiveTips)
	tbl, err := ReadTable(strings.NewReader(tableMismatch), ',')
	require.NoError(t, err)

	b, err := Bind(phy, tbl, &Spec{Response: "speed", Predictors: []string{"mass"}})
	require.NoError(t, err)

	// e has no row, d has a missing value, x has no tip.
	assert.Equal(t, []string{"a", "b", "c"}, b.Tree.TipNames())
	assert.Equal(t, 2, b.DroppedTips)
	assert.Equal(t, 2, b.DroppedRows)
	assert.Equal(t, []float64{10, 12, 20}, b.Y)
}

func TestBindErrors(t *testing.T) {
	phy := parse(t, treeFiveTips)
	tbl, err := ReadTable(strings.NewReader(tableFull), ',')
	require.NoError(t, err)

	_, err = Bind(phy, tbl, &Spec{Response: "nope"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Bind(phy, tbl, &Spec{Response: "habitat"})
	assert.ErrorIs(t, err, ErrResponseKind)

	_, err = Bind(phy, tbl, &Spec{Response: "speed", Predictors: []string{"nope"}})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestReadTableErrors(t *testing.T) {
	_, err := ReadTable(strings.NewReader("id,x\n"), ',')
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = ReadTable(strings.NewReader("id,x\na,1\na,2\n"), ',')
	assert.Error(t, err)
}
