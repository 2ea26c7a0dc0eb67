package main

import (
	"bufio"
	"fmt"
	"os"

	"bitbucket.org/Davydov/pgls/corstruct"
	"bitbucket.org/Davydov/pgls/data"
	"bitbucket.org/Davydov/pgls/gls"
)

// modelSettings stores settings for creation of a new model.
type modelSettings struct {
	structure string
	lambda    float64
	extended  bool
	alpha     float64

	method gls.Method

	startF    string
	randomize bool

	data *data.Bound
}

// newModelSettings creates modelSettings from the command line
// parameters (global variables).
func newModelSettings(b *data.Bound) *modelSettings {
	method, err := gls.MethodFromString(*methodName)
	if err != nil {
		log.Fatal(err)
	}
	return &modelSettings{
		structure: *corName,
		lambda:    *lambdaStart,
		extended:  *extendedLambda,
		alpha:     *alphaStart,

		method: method,

		startF:    *startF,
		randomize: *randomize,

		data: b,
	}
}

// getStructure returns a correlation structure from settings.
func (ms *modelSettings) getStructure() (corstruct.Structure, error) {
	switch ms.structure {
	case "independence":
		log.Info("Using independence correlation")
		return corstruct.NewIndependence(), nil
	case "brownian":
		log.Info("Using Brownian motion correlation")
		return corstruct.NewBrownian(), nil
	case "lambda":
		log.Info("Using Pagel's lambda correlation")
		s := corstruct.NewPagel(ms.lambda)
		s.Extended = ms.extended
		return s, nil
	case "ou":
		log.Info("Using Ornstein-Uhlenbeck correlation")
		return corstruct.NewOrnsteinUhlenbeck(ms.alpha), nil
	}
	return nil, fmt.Errorf("unknown correlation structure: %s", ms.structure)
}

// lastLine returns the last line of a file content.
func lastLine(fn string) (line string, err error) {
	f, err := os.Open(fn)
	if err != nil {
		return line, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line = scanner.Text()
	}
	err = scanner.Err()
	return line, err
}

// createInitialized creates a model and sets its starting point.
func (ms *modelSettings) createInitialized() (*gls.Model, error) {
	s, err := ms.getStructure()
	if err != nil {
		return nil, err
	}

	m, err := gls.NewModel(ms.data, s, ms.method)
	if err != nil {
		return nil, err
	}
	log.Infof("%s estimation, %d free shape parameter(s)",
		ms.method, corstruct.NFreeParameters(s))

	if ms.startF != "" {
		l, err := lastLine(ms.startF)
		par := m.GetFloatParameters()
		if err == nil {
			err = par.ReadLine(l)
		}
		if err != nil {
			log.Debug("Reading start file as JSON")
			err2 := par.ReadFromJSON(ms.startF)
			// startF is neither trajectory nor correct JSON
			if err2 != nil {
				log.Error("Error reading start position from JSON:", err2)
				log.Fatal("Error reading start position from trajectory file:", err)
			}
		}
		if !par.InRange() {
			log.Fatal("Initial parameters are not in the range")
		}
	} else if ms.randomize {
		log.Info("Using uniform (in the boundaries) random starting point")
		par := m.GetFloatParameters()
		par.Randomize()
	}

	return m, nil
}
