package data

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/pgls/tree"
)

// Spec is a structured model specification: a named numeric response
// and an ordered list of named predictors. There is no formula
// language; columns are referenced by name and typed by the table.
type Spec struct {
	// Response is the response column name.
	Response string
	// Predictors is the ordered list of predictor column names.
	Predictors []string
	// NoIntercept drops the intercept column from the design.
	NoIntercept bool
}

// Bound is a dataset bound to a tree: the response and the design
// matrix in tip order, with the tree pruned to the common
// identifier set.
type Bound struct {
	// Tree is an independent copy of the input tree pruned to the
	// identifiers used.
	Tree *tree.Tree
	// Y is the response in tip order.
	Y []float64
	// X is the design matrix in tip order.
	X *mat.Dense
	// CoefNames are the design column names.
	CoefNames []string
	// DroppedTips is the number of tree tips without a usable
	// table row.
	DroppedTips int
	// DroppedRows is the number of table rows without a tree tip.
	DroppedRows int
}

// columns resolves and validates the columns used by a
// specification.
func (spec *Spec) columns(tbl *Table) (response *Column, predictors []*Column, err error) {
	response, ok := tbl.Column(spec.Response)
	if !ok {
		return nil, nil, fmt.Errorf("%w: response %q", ErrUnknownColumn, spec.Response)
	}
	if response.Kind != Numeric {
		return nil, nil, fmt.Errorf("%w: %q is %v", ErrResponseKind, spec.Response, response.Kind)
	}
	predictors = make([]*Column, len(spec.Predictors))
	for i, name := range spec.Predictors {
		c, ok := tbl.Column(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: predictor %q", ErrUnknownColumn, name)
		}
		predictors[i] = c
	}
	return response, predictors, nil
}

// Bind intersects the tree tips with the table identifiers, prunes a
// copy of the tree to the identifiers which have complete data for
// the specification, and lays out the response and the design matrix
// in tip order. Tips and rows without a match are dropped with a
// warning, not an error. Categorical predictors are expanded into
// treatment-coded indicator columns, the first sorted level being
// the baseline.
func Bind(t *tree.Tree, tbl *Table, spec *Spec) (*Bound, error) {
	response, predictors, err := spec.columns(tbl)
	if err != nil {
		return nil, err
	}

	used := append([]*Column{response}, predictors...)

	// Identifiers usable for this specification.
	keep := make(map[string]bool)
	incomplete := 0
	droppedTips := 0
	for _, tip := range t.Tips() {
		row, ok := tbl.Row(tip.Name)
		if !ok {
			droppedTips++
			log.Warningf("tip %q has no row in the table, dropping", tip.Name)
			continue
		}
		complete := true
		for _, c := range used {
			if c.missing(row) {
				complete = false
				break
			}
		}
		if !complete {
			incomplete++
			log.Warningf("tip %q has missing values, dropping", tip.Name)
			continue
		}
		keep[tip.Name] = true
	}
	droppedRows := 0
	for _, id := range tbl.IDs() {
		if !keep[id] {
			droppedRows++
		}
	}
	if droppedRows > 0 {
		log.Warningf("%d table rows have no matching tip", droppedRows)
	}

	if len(keep) == 0 {
		return nil, fmt.Errorf("%w: no identifiers shared by tree and table", ErrEmptyTable)
	}

	pruned := t.Copy()
	if err := pruned.Prune(keep); err != nil {
		return nil, err
	}

	tips := pruned.Tips()
	n := len(tips)

	b := &Bound{
		Tree:        pruned,
		Y:           make([]float64, n),
		DroppedTips: droppedTips + incomplete,
		DroppedRows: droppedRows,
	}

	for i, tip := range tips {
		row, _ := tbl.Row(tip.Name)
		b.Y[i] = response.Values[row]
	}

	// Design columns: intercept, then predictors in specification
	// order.
	type designColumn struct {
		name string
		fill func(row int) float64
	}
	var cols []designColumn

	if !spec.NoIntercept {
		cols = append(cols, designColumn{
			name: "(Intercept)",
			fill: func(int) float64 { return 1 },
		})
	}

	for _, c := range predictors {
		c := c
		switch c.Kind {
		case Numeric:
			cols = append(cols, designColumn{
				name: c.Name,
				fill: func(row int) float64 { return c.Values[row] },
			})
		case Categorical:
			for _, level := range levels(c, tbl, keep)[1:] {
				level := level
				cols = append(cols, designColumn{
					name: c.Name + level,
					fill: func(row int) float64 {
						if c.Labels[row] == level {
							return 1
						}
						return 0
					},
				})
			}
		}
	}

	b.CoefNames = make([]string, len(cols))
	b.X = mat.NewDense(n, len(cols), nil)
	for j, col := range cols {
		b.CoefNames[j] = col.name
		for i, tip := range tips {
			row, _ := tbl.Row(tip.Name)
			b.X.Set(i, j, col.fill(row))
		}
	}

	log.Infof("Bound %d observations, %d design columns", n, len(cols))
	return b, nil
}

// levels returns the sorted distinct labels of a categorical column
// among the kept identifiers.
func levels(c *Column, tbl *Table, keep map[string]bool) []string {
	seen := make(map[string]bool)
	for _, id := range tbl.IDs() {
		if !keep[id] {
			continue
		}
		row, _ := tbl.Row(id)
		if c.Labels[row] != "" {
			seen[c.Labels[row]] = true
		}
	}
	ls := make([]string, 0, len(seen))
	for l := range seen {
		ls = append(ls, l)
	}
	sort.Strings(ls)
	return ls
}
