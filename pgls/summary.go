package main

import (
	"bitbucket.org/Davydov/pgls/gls"
	"bitbucket.org/Davydov/pgls/optimize"
)

// CallSummary stores the whole program run summary.
type CallSummary struct {
	// Version stores pgls version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// TotalTime is the computations time in seconds.
	TotalTime float64 `json:"time"`
	// Fit is the fit command result.
	Fit *OptimizationSummary `json:"fit,omitempty"`
	// Test is the test command result.
	Test *TestSummary `json:"test,omitempty"`
	// Profile is the profile command result.
	Profile *ProfileSummary `json:"profile,omitempty"`
}

// OptimizationSummary stores a single optimization run.
type OptimizationSummary struct {
	// Structure is the correlation structure name.
	Structure string `json:"structure"`
	// Method is the estimation method name.
	Method string `json:"method"`
	// Time is the computations time in seconds.
	Time float64 `json:"optimizationTime"`
	// Fit is the fit at the likelihood maximum.
	Fit *gls.Fit `json:"fit"`
	// Optimizer is the optimizer summary.
	Optimizer optimize.Summary `json:"optimizer"`
	// Hypothesis is H0 or H1.
	Hypothesis string `json:"hypothesis,omitempty"`
}

// TestSummary stores summary information for a hypothesis test.
type TestSummary struct {
	// H0 is the result of the H0 run.
	H0 HypSummary `json:"H0"`
	// H1 is the result of the H1 run.
	H1 HypSummary `json:"H1"`
	// Comparison is the likelihood-ratio test result.
	Comparison *gls.Comparison `json:"comparison"`
	// Runs stores all the runs.
	Runs []OptimizationSummary `json:"runs"`
}

// HypSummary stores information on one hypothesis.
type HypSummary struct {
	// MaxLnL is the maximum log likelihood.
	MaxLnL float64 `json:"maxLnL"`
	// MaxLParameters is the maximum likelihood parameter values.
	MaxLParameters map[string]float64 `json:"maxLParameters"`
	// Fit is the fit at the maximum.
	Fit *gls.Fit `json:"fit"`
}
