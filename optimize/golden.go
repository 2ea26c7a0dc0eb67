package optimize

import "math"

// invPhi is the inverse golden ratio.
var invPhi = (math.Sqrt(5) - 1) / 2

// Golden is a golden-section maximizer for a single bounded
// parameter. It is derivative-free and guaranteed to converge for a
// unimodal likelihood; both interval ends are evaluated explicitly,
// so boundary maxima (e.g. lambda=0 or lambda=1) are found exactly.
type Golden struct {
	BaseOptimizer
	// Tol is the absolute tolerance on the parameter.
	Tol float64
}

// NewGolden creates a new golden-section optimizer.
func NewGolden() *Golden {
	return &Golden{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
			method:    "golden",
		},
		Tol: 1e-8,
	}
}

// eval computes the likelihood at x for the single parameter.
func (g *Golden) eval(par FloatParameter, x float64) float64 {
	par.Set(x)
	l := g.Likelihood()
	g.recordCall(l)
	return l
}

// Run starts the optimization. The model must have exactly one free
// parameter with finite bounds.
func (g *Golden) Run(iterations int) {
	if len(g.parameters) != 1 {
		log.Fatalf("golden-section requires exactly one free parameter, got %d", len(g.parameters))
	}
	par := g.parameters[0]
	a, b := par.GetMin(), par.GetMax()
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		log.Fatalf("golden-section requires finite bounds for %s", par.Name())
	}

	g.start()
	g.PrintHeader(g.parameters)

	// Interval ends first: the maximum can sit on the boundary.
	g.eval(par, a)
	g.eval(par, b)

	x1 := b - invPhi*(b-a)
	x2 := a + invPhi*(b-a)
	f1 := g.eval(par, x1)
	f2 := g.eval(par, x2)

	for g.i = 1; g.i <= iterations; g.i++ {
		if b-a < g.Tol {
			break
		}
		if f1 > f2 {
			b = x2
			x2, f2 = x1, f1
			x1 = b - invPhi*(b-a)
			f1 = g.eval(par, x1)
		} else {
			a = x1
			x1, f1 = x2, f2
			x2 = a + invPhi*(b-a)
			f2 = g.eval(par, x2)
		}
		if g.repPeriod > 0 && g.i%g.repPeriod == 0 {
			g.PrintLine(g.parameters, g.l)
		}
		g.saveCheckpoint(false)
		g.checkSignals()
	}

	if b-a >= g.Tol {
		log.Warningf("golden-section did not converge after %d iterations (interval %g)",
			g.i-1, b-a)
		g.failed = true
	}

	g.parameters.SetValues(g.maxLPar)
	g.PrintLine(g.parameters, g.maxL)
	g.saveCheckpoint(true)
}
