/*

Pgls fits phylogenetic generalized least squares regressions: trait
values measured on the tips of a phylogenetic tree are regressed on
other traits while the residuals stay correlated according to the
shared evolutionary history.

The basic usage looks like this:

	pgls fit --tree tree.nwk --data traits.csv --response mass --predictor temperature

, this will estimate a regression of mass on temperature with
Pagel's lambda correlation and a default optimizer (golden section).

You can change the correlation structure and the estimation method:

	pgls fit --cor ou --method REML --tree tree.nwk --data traits.csv --response mass

The test command compares two correlation structures with a
likelihood-ratio test:

	pgls test --null independence --tree tree.nwk --data traits.csv --response mass

To see all the options run:

	pgls help

*/
package main

import (
	"encoding/json"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/op/go-logging"
	"gopkg.in/alecthomas/kingpin.v2"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = "branch: " + gitbranch + ", revision: " + githash + ", build time: " + buildstamp

// Logger settings.
var log = logging.MustGetLogger("pgls")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("pgls", "phylogenetic generalized least squares").Version(version)

	// input
	treeFileName  = app.Flag("tree", "phylogenetic tree in newick format").Short('t').Required().ExistingFile()
	dataFileName  = app.Flag("data", "trait table (delimited text with a header, first column holds tip names)").Short('d').ExistingFile()
	separator     = app.Flag("sep", "trait table field separator").Default(",").String()
	responseName  = app.Flag("response", "response column name").Short('y').String()
	predictorList = app.Flag("predictor", "predictor column name (repeat for multiple predictors)").Short('x').Strings()
	noIntercept   = app.Flag("nointercept", "do not include an intercept in the design").Bool()

	// correlation structure
	corName = app.Flag("cor", "residual correlation structure "+
		"(independence, brownian, lambda, ou)").
		Default("lambda").
		Enum("independence", "brownian", "lambda", "ou")
	lambdaStart    = app.Flag("lambda", "starting value of Pagel's lambda").Default("0.5").Float64()
	extendedLambda = app.Flag("extlambda", "allow lambda above one (up to the matrix validity bound)").Bool()
	alphaStart     = app.Flag("alpha", "starting value of the Ornstein-Uhlenbeck strength").Default("1").Float64()

	// estimation
	methodName = app.Flag("estimation", "estimation method (ML or REML)").
			Default("ML").Enum("ML", "ml", "REML", "reml")

	// optimizer parameters
	randomize = app.Flag("randomize", "use a uniformly distributed random starting point").Bool()
	iterations = app.Flag("iter", "number of iterations").Default("10000").Int()
	report     = app.Flag("report", "report every N iterations").Default("10").Int()
	method     = app.Flag("method", "optimization method to use "+
		"(golden: golden-section search for a single shape parameter, "+
		"lbfgsb: limited-memory Broyden-Fletcher-Goldfarb-Shanno with bounding constraints, "+
		"none: just compute the likelihood, no optimization"+
		")").Default("golden").Enum("golden", "lbfgsb", "none")

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	outF     = app.Flag("out", "write optimization trajectory to a file").String()
	startF   = app.Flag("start", "read start position from the trajectory or JSON file").ExistingFile()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()

	// checkpoints
	checkpointFileName = app.Flag("checkpoint", "checkpoint database filename").String()
	checkpointSeconds  = app.Flag("checkpointtime", "checkpoint save interval in seconds").Default("30").Float64()

	// commands
	fitCmd = app.Command("fit", "estimate regression coefficients under a correlation structure")

	testCmd     = app.Command("test", "likelihood-ratio test of a correlation structure against a simpler one")
	nullCorName = testCmd.Flag("null", "null correlation structure (independence or brownian)").
			Default("independence").Enum("independence", "brownian")

	vcvCmd       = app.Command("vcv", "print the phylogenetic covariance matrix of the tree")
	vcvNormalize = vcvCmd.Flag("normalize", "normalize to a correlation matrix (requires an ultrametric tree)").Bool()

	profileCmd    = app.Command("profile", "tabulate the likelihood over the shape parameter range")
	profilePoints = profileCmd.Flag("points", "number of grid points").Default("21").Int()
	profilePlotF  = profileCmd.Flag("plot", "write a profile plot to a PNG file").String()
)

// trajF is the trajectory output file.
var trajF = os.Stdout

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, pkg := range []string{"pgls", "gls", "data", "optimize", "checkpoint"} {
		logging.SetLevel(level, pkg)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	rand.Seed(*seed)
	if *nThreads > 0 {
		runtime.GOMAXPROCS(*nThreads)
	}

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if *outF != "" {
		trajF, err = os.Create(*outF)
		if err != nil {
			log.Fatal("Error creating trajectory file:", err)
		}
		defer trajF.Close()
	}

	startTime := time.Now()

	summary := &CallSummary{
		Version:     version,
		CommandLine: os.Args,
		Seed:        *seed,
		NThreads:    effectiveNThreads,
	}

	switch cmd {
	case fitCmd.FullCommand():
		summary.Fit = runFit()
	case testCmd.FullCommand():
		summary.Test = runTest()
	case vcvCmd.FullCommand():
		runVCV()
	case profileCmd.FullCommand():
		summary.Profile = runProfile()
	}

	summary.TotalTime = time.Since(startTime).Seconds()
	log.Noticef("Running time: %v", time.Since(startTime))

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
