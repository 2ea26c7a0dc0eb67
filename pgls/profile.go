package main

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ProfilePoint is a single profile grid point.
type ProfilePoint struct {
	// Value is the shape parameter value.
	Value float64 `json:"value"`
	// LnL is the log-likelihood at Value.
	LnL float64 `json:"lnL"`
}

// ProfileSummary stores the likelihood profile of the shape
// parameter.
type ProfileSummary struct {
	// Parameter is the shape parameter name.
	Parameter string `json:"parameter"`
	// Points are the grid points.
	Points []ProfilePoint `json:"points"`
}

// runProfile implements the profile command: the likelihood is
// tabulated on a grid over the shape parameter range.
func runProfile() *ProfileSummary {
	b, err := newData()
	if err != nil {
		log.Fatal(err)
	}

	ms := newModelSettings(b)
	m, err := ms.createInitialized()
	if err != nil {
		log.Fatal(err)
	}

	par := m.GetFloatParameters()
	if len(par) != 1 {
		log.Fatalf("The %s structure has %d free parameters, profiling needs exactly one",
			ms.structure, len(par))
	}
	p := par[0]

	n := *profilePoints
	if n < 2 {
		log.Fatalf("Need at least two grid points, got %d", n)
	}

	summary := &ProfileSummary{Parameter: p.Name()}
	min, max := p.GetMin(), p.GetMax()

	fmt.Printf("%s\tlnL\n", p.Name())
	for i := 0; i < n; i++ {
		v := min + (max-min)*float64(i)/float64(n-1)
		p.Set(v)
		l := m.Likelihood()
		fmt.Printf("%g\t%g\n", v, l)
		summary.Points = append(summary.Points, ProfilePoint{Value: v, LnL: l})
	}

	if *profilePlotF != "" {
		if err := plotProfile(summary, *profilePlotF); err != nil {
			log.Error("Error writing profile plot:", err)
		}
	}
	return summary
}

// plotProfile writes the profile as a line plot.
func plotProfile(summary *ProfileSummary, fn string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.X.Label.Text = summary.Parameter
	p.Y.Label.Text = "lnL"

	pts := make(plotter.XYs, 0, len(summary.Points))
	for _, pt := range summary.Points {
		// Singular grid points have no likelihood.
		if math.IsInf(pt.LnL, -1) {
			continue
		}
		pts = append(pts, plotter.XY{X: pt.Value, Y: pt.LnL})
	}

	if err := plotutil.AddLinePoints(p, "profile", pts); err != nil {
		return err
	}
	return p.Save(4*vg.Inch, 4*vg.Inch, fn)
}
