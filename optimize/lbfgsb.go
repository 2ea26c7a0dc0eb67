package optimize

import (
	"fmt"
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// LBFGSB is the limited-memory Broyden-Fletcher-Goldfarb-Shanno
// optimizer with bound constraints. Gradients are estimated with
// central finite differences on independent model copies.
type LBFGSB struct {
	BaseOptimizer
	dH     float64
	grad   []float64
	status string
}

// NewLBFGSB creates a new LBFGSB optimizer.
func NewLBFGSB() *LBFGSB {
	return &LBFGSB{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
			method:    "lbfgsb",
		},
		dH: 1e-6,
	}
}

// Logger is called by the lbfgsb library on every iteration.
func (l *LBFGSB) Logger(info *lbfgsb.OptimizationIterationInformation) {
	l.i = info.Iteration
	l.parameters.SetValues(info.X)
	if l.repPeriod > 0 && info.Iteration%l.repPeriod == 0 {
		l.PrintLine(l.parameters, -info.F)
	}
	l.saveCheckpoint(false)
	l.checkSignals()
}

// EvaluateFunction computes the negative log-likelihood for the
// minimizer.
func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	if !l.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}

	l.parameters.SetValues(x)
	L := l.Likelihood()
	l.recordCall(L)
	return -L
}

// EvaluateGradient computes the gradient of the negative
// log-likelihood with central differences.
func (l *LBFGSB) EvaluateGradient(x []float64) (grad []float64) {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
	}
	grad = l.grad
	for i := range x {
		no1 := l.Optimizable.Copy()
		par1 := no1.GetFloatParameters()
		par1.SetValues(x)
		par1[i].Set(x[i] - l.dH)
		l1 := -no1.Likelihood()
		l.calls++

		no2 := l.Optimizable.Copy()
		par2 := no2.GetFloatParameters()
		par2.SetValues(x)
		par2[i].Set(x[i] + l.dH)
		l2 := -no2.Likelihood()
		l.calls++

		grad[i] = (l2 - l1) / 2 / l.dH
	}
	l.checkSignals()
	return
}

// Run starts the optimization.
func (l *LBFGSB) Run(iterations int) {
	l.start()
	l.PrintHeader(l.parameters)

	startL := l.Likelihood()
	l.recordCall(startL)

	bounds := make([][2]float64, len(l.parameters))
	for i, par := range l.parameters {
		bounds[i][0] = par.GetMin()
		bounds[i][1] = par.GetMax()
	}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)

	opt.SetBounds(bounds)
	opt.SetLogger(l.Logger)

	_, exitStatus := opt.Minimize(l, l.parameters.Values(nil))
	l.status = fmt.Sprintf("%v", exitStatus)
	log.Info("Exit status: ", l.status)

	// Some builds can return a point worse than the start; treat
	// this as a convergence failure and keep the best point seen.
	if l.maxL < startL {
		l.failed = true
	}

	l.parameters.SetValues(l.maxLPar)
	l.saveCheckpoint(true)
}

// Summary returns the optimization summary.
func (l *LBFGSB) Summary() Summary {
	s := l.BaseOptimizer.Summary()
	s.Status = l.status
	return s
}
