// Package vcv computes phylogenetic variance-covariance and
// correlation matrices from a rooted tree with branch lengths.
package vcv

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/Davydov/pgls/tree"
)

var (
	// ErrNotUltrametric is returned when a correlation matrix is
	// requested for a tree with unequal root-to-tip distances and
	// no explicit normalization policy.
	ErrNotUltrametric = errors.New("tree is not ultrametric")
	// ErrZeroHeight is returned when the correlation is
	// ill-defined because the tree has zero height.
	ErrZeroHeight = errors.New("tree height is zero")
)

// NormalizePolicy tells Correlation how to handle non-ultrametric
// trees.
type NormalizePolicy int

const (
	// RequireUltrametric fails with ErrNotUltrametric unless all
	// root-to-tip distances are equal. This is the only
	// normalization which yields a proper correlation matrix.
	RequireUltrametric NormalizePolicy = iota
	// NormalizeByHeight divides by the maximum root-to-tip
	// distance regardless of ultrametricity. The caller takes
	// responsibility for the per-tip variance differences this
	// ignores.
	NormalizeByHeight
)

// Matrix is a square symmetric matrix indexed by tip name. The
// row/column order is the tree's tip order.
type Matrix struct {
	names []string
	sym   *mat.SymDense
}

// NewMatrix creates a matrix of zeros for the given tip names.
func NewMatrix(names []string) *Matrix {
	return &Matrix{
		names: names,
		sym:   mat.NewSymDense(len(names), nil),
	}
}

// Names returns the tip names in row order.
func (m *Matrix) Names() []string {
	return m.names
}

// Dim returns the matrix dimension.
func (m *Matrix) Dim() int {
	return len(m.names)
}

// At returns the matrix entry.
func (m *Matrix) At(i, j int) float64 {
	return m.sym.At(i, j)
}

// Set sets the entry for a pair of tips (both triangles).
func (m *Matrix) Set(i, j int, v float64) {
	m.sym.SetSym(i, j, v)
}

// Sym returns the underlying symmetric matrix.
func (m *Matrix) Sym() *mat.SymDense {
	return m.sym
}

// Copy creates an independent copy of the matrix.
func (m *Matrix) Copy() *Matrix {
	names := make([]string, len(m.names))
	copy(names, m.names)
	nm := &Matrix{names: names, sym: mat.NewSymDense(m.sym.Symmetric(), nil)}
	nm.sym.CopySym(m.sym)
	return nm
}

// Scale multiplies every entry by x and returns a new matrix.
func (m *Matrix) Scale(x float64) *Matrix {
	nm := m.Copy()
	n := nm.Dim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			nm.sym.SetSym(i, j, nm.sym.At(i, j)*x)
		}
	}
	return nm
}

// String returns a tab-separated representation with a header row.
func (m *Matrix) String() (s string) {
	for i, name := range m.names {
		if i != 0 {
			s += "\t"
		}
		s += name
	}
	s += "\n"
	for i := range m.names {
		for j := range m.names {
			if j != 0 {
				s += "\t"
			}
			s += fmt.Sprintf("%g", m.sym.At(i, j))
		}
		s += "\n"
	}
	return
}

// Covariance computes the phylogenetic covariance matrix of a rooted
// tree: entry (i, j) is the root-to-MRCA path length of tips i and
// j, entry (i, i) the root-to-tip distance of tip i. The matrix is
// symmetric and positive semidefinite by construction.
func Covariance(t *tree.Tree) (*Matrix, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	tips := t.Tips()
	m := NewMatrix(t.TipNames())

	// A single-tip tree is its own root; the covariance is the
	// tip's branch length.
	if t.Node.IsTerminal() {
		m.Set(0, 0, t.Node.BranchLength)
		return m, nil
	}

	dist := t.RootDistances()

	for i, tip := range tips {
		m.Set(i, i, dist[tip.ID])
	}

	// Post-order accumulation of tip sets: pairs of tips from
	// distinct child subtrees of a node have that node as their
	// MRCA. This covers every pair exactly once.
	tipsOf := make([][]int, t.NNodes())
	for _, tip := range tips {
		tipsOf[tip.ID] = []int{tip.LeafID}
	}
	for _, node := range t.NodeOrder() {
		children := node.ChildNodes()
		for a := 0; a < len(children); a++ {
			for b := a + 1; b < len(children); b++ {
				for _, i := range tipsOf[children[a].ID] {
					for _, j := range tipsOf[children[b].ID] {
						m.Set(i, j, dist[node.ID])
					}
				}
			}
		}
		merged := make([]int, 0, len(tips))
		for _, child := range children {
			merged = append(merged, tipsOf[child.ID]...)
			tipsOf[child.ID] = nil
		}
		tipsOf[node.ID] = merged
	}

	return m, nil
}

// Correlation computes the phylogenetic correlation matrix: the
// covariance divided by the tree height, so the diagonal is 1. For
// non-ultrametric trees this normalization is only performed under
// an explicit NormalizeByHeight policy; the default policy fails
// with ErrNotUltrametric.
func Correlation(t *tree.Tree, policy NormalizePolicy) (*Matrix, error) {
	cov, err := Covariance(t)
	if err != nil {
		return nil, err
	}
	if policy == RequireUltrametric && !t.IsUltrametric(tree.UltrametricTol) {
		return nil, fmt.Errorf("%w: root-to-tip distances differ by more than %g of the height",
			ErrNotUltrametric, tree.UltrametricTol)
	}
	h := t.Height()
	if h == 0 {
		return nil, ErrZeroHeight
	}
	return cov.Scale(1 / h), nil
}

// Rescale turns a correlation matrix back into a covariance matrix
// given the tree height.
func (m *Matrix) Rescale(height float64) *Matrix {
	return m.Scale(height)
}
