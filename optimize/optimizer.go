// Package optimize provides a small likelihood-maximization
// framework: models expose bounded float parameters and a likelihood
// function, optimizers maximize it.
package optimize

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"

	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("optimize")

// Optimizable is something which can be optimized: it has float
// parameters and a likelihood.
type Optimizable interface {
	GetFloatParameters() FloatParameters
	Copy() Optimizable
	Likelihood() float64
}

// Optimizer is a likelihood maximizer.
type Optimizer interface {
	SetOptimizable(Optimizable)
	SetTrajectoryOutput(io.Writer)
	SetReportPeriod(period int)
	WatchSignals(...os.Signal)
	SetCheckpointSaver(CheckpointSaver)
	Run(iterations int)
	GetMaxLikelihood() float64
	GetMaxLikelihoodParameters() map[string]float64
	Summary() Summary
	PrintResults()
}

// CheckpointSaver persists the optimization state so a long run can
// be resumed.
type CheckpointSaver interface {
	// Save stores the current best point. final marks the end of
	// the optimization.
	Save(parameters map[string]float64, lnL float64, iter int, final bool) error
	// Stale returns true when enough time has passed since the
	// last save.
	Stale() bool
}

// Summary stores the results of an optimization.
type Summary struct {
	// Method is the optimization method name.
	Method string `json:"method"`
	// MaxLnL is the maximum log-likelihood found.
	MaxLnL float64 `json:"maxLnL"`
	// MaxLParameters is the parameter values at the maximum.
	MaxLParameters map[string]float64 `json:"maxLParameters"`
	// Iterations is the number of iterations performed.
	Iterations int `json:"iterations"`
	// LikelihoodCalls is the number of likelihood evaluations.
	LikelihoodCalls int `json:"likelihoodCalls"`
	// Status is an optimizer-specific exit status.
	Status string `json:"status,omitempty"`
	// ConvergenceFailure is set when the optimizer stopped
	// without converging; MaxLnL is then the best value found,
	// not a maximum.
	ConvergenceFailure bool `json:"convergenceFailure,omitempty"`
}

// BaseOptimizer implements the bookkeeping shared by all the
// optimizers.
type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	i          int
	calls      int
	l          float64
	maxL       float64
	maxLPar    []float64
	repPeriod  int
	output     io.Writer
	sig        chan os.Signal
	saver      CheckpointSaver
	failed     bool
	method     string
	// Quiet suppresses the trajectory output.
	Quiet bool
}

// SetOptimizable sets the model to optimize.
func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
}

// SetTrajectoryOutput sets the writer for the trajectory output.
func (o *BaseOptimizer) SetTrajectoryOutput(w io.Writer) {
	o.output = w
}

// SetReportPeriod sets the number of iterations between trajectory
// lines.
func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// WatchSignals makes the optimizer stop the process on the given
// signals.
func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

// SetCheckpointSaver sets an optional checkpoint saver.
func (o *BaseOptimizer) SetCheckpointSaver(s CheckpointSaver) {
	o.saver = s
}

// checkSignals aborts the process if a watched signal arrived.
func (o *BaseOptimizer) checkSignals() {
	if o.sig == nil {
		return
	}
	select {
	case s := <-o.sig:
		log.Fatal("Received signal, exiting:", s)
	default:
	}
}

// saveCheckpoint stores the best point if a saver is configured and
// enough time has passed (or the run finished).
func (o *BaseOptimizer) saveCheckpoint(final bool) {
	if o.saver == nil {
		return
	}
	if !final && !o.saver.Stale() {
		return
	}
	err := o.saver.Save(o.GetMaxLikelihoodParameters(), o.maxL, o.i, final)
	if err != nil {
		log.Error("Error saving checkpoint:", err)
	}
}

// recordCall registers a likelihood evaluation and updates the
// maximum.
func (o *BaseOptimizer) recordCall(l float64) {
	o.calls++
	o.l = l
	if l > o.maxL {
		o.maxL = l
		o.maxLPar = o.parameters.Values(o.maxLPar)
	}
}

// out returns the trajectory writer, standard output by default.
func (o *BaseOptimizer) out() io.Writer {
	if o.output == nil {
		return os.Stdout
	}
	return o.output
}

// PrintHeader prints the trajectory header.
func (o *BaseOptimizer) PrintHeader(parameters FloatParameters) {
	if !o.Quiet {
		fmt.Fprintf(o.out(), "iteration\tlikelihood\t%s\n", parameters.NamesString())
	}
}

// PrintLine prints a trajectory line.
func (o *BaseOptimizer) PrintLine(parameters FloatParameters, l float64) {
	if !o.Quiet {
		fmt.Fprintf(o.out(), "%d\t%f\t%s\n", o.i, l, parameters.ValuesString())
	}
}

// PrintResults logs the optimization results.
func (o *BaseOptimizer) PrintResults() {
	if o.Quiet {
		return
	}
	log.Noticef("Maximum likelihood: %v", o.maxL)
	log.Infof("Likelihood function calls: %v", o.calls)
	for name, value := range o.GetMaxLikelihoodParameters() {
		log.Noticef("%s=%v", name, value)
	}
}

// GetMaxLikelihood returns the maximum likelihood found.
func (o *BaseOptimizer) GetMaxLikelihood() float64 {
	return o.maxL
}

// GetMaxLikelihoodParameters returns the parameter values at the
// maximum as a name-value map.
func (o *BaseOptimizer) GetMaxLikelihoodParameters() map[string]float64 {
	res := make(map[string]float64, len(o.parameters))
	names := o.parameters.Names(nil)
	if o.maxLPar == nil {
		for i, name := range names {
			res[name] = o.parameters[i].Get()
		}
		return res
	}
	for i, name := range names {
		res[name] = o.maxLPar[i]
	}
	return res
}

// Summary returns the optimization summary.
func (o *BaseOptimizer) Summary() Summary {
	return Summary{
		Method:             o.method,
		MaxLnL:             o.maxL,
		MaxLParameters:     o.GetMaxLikelihoodParameters(),
		Iterations:         o.i,
		LikelihoodCalls:    o.calls,
		ConvergenceFailure: o.failed,
	}
}

// start initializes the counters before a run.
func (o *BaseOptimizer) start() {
	o.maxL = math.Inf(-1)
	o.failed = false
	o.i = 0
	o.calls = 0
}
