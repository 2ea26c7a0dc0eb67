package main

import (
	"fmt"

	"bitbucket.org/Davydov/pgls/vcv"
)

// runVCV implements the vcv command: it prints the phylogenetic
// covariance matrix, or the correlation matrix with --normalize.
func runVCV() {
	t := readTree()

	var m *vcv.Matrix
	var err error
	if *vcvNormalize {
		m, err = vcv.Correlation(t, vcv.RequireUltrametric)
	} else {
		m, err = vcv.Covariance(t)
	}
	if err != nil {
		log.Fatal(err)
	}

	fmt.Print(m)
}
