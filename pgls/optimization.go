package main

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/pgls/checkpoint"
	"bitbucket.org/Davydov/pgls/gls"
)

// openCheckpointDB opens the checkpoint database if one was
// requested.
func openCheckpointDB() *bolt.DB {
	if *checkpointFileName == "" {
		return nil
	}
	db, err := checkpoint.Open(*checkpointFileName)
	if err != nil {
		log.Fatal("Error opening checkpoint database:", err)
	}
	return db
}

// runOptimization maximizes the model likelihood and extracts the
// fit at the optimum. start overrides the starting point if not
// nil.
func runOptimization(m *gls.Model, o *optimizerSettings, start map[string]float64) (res OptimizationSummary) {
	startTime := time.Now()

	if start != nil {
		par := m.GetFloatParameters()
		par.SetByName(start)
		if !par.InRange() {
			log.Fatal("Initial parameters are not in the range")
		}
	}

	log.Infof("Model has %d free parameter(s).", len(m.GetFloatParameters()))

	opt, err := o.create()
	if err != nil {
		log.Fatal(err)
	}

	opt.Run(o.iterations)
	res.Optimizer = opt.Summary()
	opt.PrintResults()

	// The optimizer leaves the model at the maximum; extract the
	// coefficients there.
	fit, err := m.Fit()
	if err != nil {
		log.Fatal("Error extracting the fit at the optimum:", err)
	}
	fit.ConvergenceFailure = res.Optimizer.ConvergenceFailure
	fmt.Print(fit)

	res.Structure = fit.Structure
	res.Method = fit.MethodName
	res.Fit = fit
	res.Time = time.Since(startTime).Seconds()
	log.Noticef("Optimization time: %v", time.Since(startTime))
	return res
}

// runFit implements the fit command.
func runFit() *OptimizationSummary {
	b, err := newData()
	if err != nil {
		log.Fatal(err)
	}

	ms := newModelSettings(b)
	m, err := ms.createInitialized()
	if err != nil {
		log.Fatal(err)
	}

	o := newOptimizerSettings(m)
	o.db = openCheckpointDB()
	if o.db != nil {
		defer o.db.Close()
		o.saverKey = "fit"
	}

	res := runOptimization(m, o, nil)
	return &res
}
