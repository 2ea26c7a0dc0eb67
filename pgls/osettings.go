package main

import (
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/pgls/checkpoint"
	"bitbucket.org/Davydov/pgls/gls"
	"bitbucket.org/Davydov/pgls/optimize"
)

// optimizerSettings stores settings for creation of a new optimizer.
type optimizerSettings struct {
	method string
	model  *gls.Model

	iterations int
	report     int

	trajF *os.File

	db       *bolt.DB
	saverKey string
}

// newOptimizerSettings creates optimizerSettings from the command
// line parameters (global variables).
func newOptimizerSettings(model *gls.Model) *optimizerSettings {
	return &optimizerSettings{
		method: *method,
		model:  model,

		iterations: *iterations,
		report:     *report,

		trajF: trajF,
	}
}

// getOptimizer returns an optimizer from settings.
func (o *optimizerSettings) getOptimizer() (optimize.Optimizer, error) {
	switch o.method {
	case "golden":
		return optimize.NewGolden(), nil
	case "lbfgsb":
		return optimize.NewLBFGSB(), nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("Unknown optimization method: %s", o.method)
}

// create creates and initializes a new optimizer from settings.
func (o *optimizerSettings) create() (optimize.Optimizer, error) {
	// Shape-free structures have nothing to maximize.
	if len(o.model.GetFloatParameters()) == 0 && o.method != "none" {
		log.Info("No free parameters, skipping optimization")
		o.method = "none"
	}

	opt, err := o.getOptimizer()
	if err != nil {
		return nil, err
	}
	log.Infof("Using %s optimization.", o.method)

	opt.SetTrajectoryOutput(o.trajF)
	opt.SetOptimizable(o.model)
	opt.SetReportPeriod(o.report)
	opt.WatchSignals(os.Interrupt)

	if o.db != nil {
		period := time.Duration(*checkpointSeconds * float64(time.Second))
		saver := checkpoint.NewStore(o.db, o.saverKey, period)
		if rec, err := saver.Load(); err != nil {
			log.Error("Error reading checkpoint:", err)
		} else if rec != nil && !rec.Final {
			log.Noticef("Resuming from checkpoint (iter=%v, lnL=%v)", rec.Iter, rec.LnL)
			fp := o.model.GetFloatParameters()
			fp.SetByName(rec.Parameters)
		}
		opt.SetCheckpointSaver(saver)
	}

	return opt, nil
}
