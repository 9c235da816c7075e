/*

Rwmetro runs random-walk Metropolis scale parameter sweeps over a
catalogue of synthetic target distributions. For every scale value on
a grid it simulates one chain with a symmetric proposal and records
the acceptance rate and the expected squared jumping distance (ESJD);
the scale maximizing ESJD is reported and used for the diagnostic
plots.

The basic usage of rwmetro looks like this:

	rwmetro --target MultivariateNormal --proposal Normal --dim 20

, this will sweep 40 scale values between 0.01 and 3.5.

You can run several studies in a row from a YAML suite:

	rwmetro --suite studies.yaml

To see all the options run:

	rwmetro -h

*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	"gonum.org/v1/gonum/stat"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/mcmclab/rwmetro/mcmc"
	"bitbucket.org/mcmclab/rwmetro/plots"
	"bitbucket.org/mcmclab/rwmetro/study"
	"bitbucket.org/mcmclab/rwmetro/target"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("rwmetro")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("rwmetro", "random-walk Metropolis scale parameter sweeps").Version(version)

	// experiment
	targetName = app.Flag("target", "target distribution ("+
		strings.Join(target.Names, ", ")+")").Default("MultivariateNormal").String()
	proposalName = app.Flag("proposal", "proposal distribution (Normal, Laplace or UniformRadius)").
		Default("Normal").String()
	dim        = app.Flag("dim", "target dimension").Default("20").Int()
	iterations = app.Flag("iter", "number of iterations per simulation").Default("100000").Int()
	burnIn     = app.Flag("burnin", "burn-in period").Default("1000").Int()
	gridPoints = app.Flag("grid", "number of scale values").Default("40").Int()
	scaleMin   = app.Flag("scale-min", "minimum scale parameter value").Default("0.01").Float64()
	varMax     = app.Flag("varmax", "maximum scale parameter value").Default("3.5").Float64()
	noPrealloc = app.Flag("no-prealloc", "use the list backed sampler variant").Bool()

	// proposal parameters
	laplaceWeights = app.Flag("laplace-weights",
		"comma separated variance multipliers for the anisotropic Laplace proposal").String()

	// target family parameters
	hybridN1 = app.Flag("hybrid-n1", "block length for HybridRosenbrock").Default("3").Int()
	hybridN2 = app.Flag("hybrid-n2", "number of blocks for HybridRosenbrock").Default("5").Int()

	funnelMuV  = app.Flag("funnel-mu-v", "mean of the v variable for NealFunnel").Default("0").Float64()
	funnelVarV = app.Flag("funnel-var-v", "variance of the v variable for NealFunnel").Default("9").Float64()
	funnelMuZ  = app.Flag("funnel-mu-z", "mean of the z variables for NealFunnel").Default("0").Float64()

	superJ            = app.Flag("super-j", "number of groups for SuperFunnel").Default("5").Int()
	superK            = app.Flag("super-k", "number of features for SuperFunnel").Default("3").Int()
	superN            = app.Flag("super-n", "observations per group for SuperFunnel").Default("20").Int()
	superHypermeanStd = app.Flag("super-hypermean-std", "hypermean prior scale for SuperFunnel").
		Default("10").Float64()
	superTauScale = app.Flag("super-tau-scale", "half-Cauchy scale for SuperFunnel").
		Default("2.5").Float64()
	dataSeed = app.Flag("data-seed", "seed for the SuperFunnel synthetic data").Default("42").Uint64()

	// technical
	seed       = app.Flag("seed", "random generator seed, -1 for time based").Default("42").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// input/output
	outLogF = app.Flag("log", "write log to a file").String()
	outDir  = app.Flag("out", "write sweep results to a directory").Default("data").String()
	plotsD  = app.Flag("plots", "write diagnostic plots to a directory").Default("images").String()
	htmlF   = app.Flag("html", "write an HTML report to a file").String()
	suiteF  = app.Flag("suite", "YAML file with several studies to run").ExistingFile()

	checkpointF        = app.Flag("checkpoint", "checkpoint file name").String()
	checkpointInterval = app.Flag("checkpoint-interval", "checkpoint saving interval in seconds").
		Default("30").Float64()

	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
)

// getWeightsFromString parses comma separated variance multipliers.
func getWeightsFromString(weightsString string) ([]float64, error) {
	parts := strings.Split(weightsString, ",")
	weights := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("Invalid laplace weights: %s", weightsString)
		}
		weights = append(weights, v)
	}
	return weights, nil
}

// buildConfig assembles a study configuration from the command line.
func buildConfig() study.Config {
	cfg := study.Config{
		Target:        *targetName,
		Proposal:      *proposalName,
		Dim:           *dim,
		NumIterations: *iterations,
		BurnIn:        *burnIn,
		Seed:          *seed,
		GridPoints:    *gridPoints,
		ScaleMin:      *scaleMin,
		ScaleMax:      *varMax,
		NoPreallocate: *noPrealloc,
		HybridN1:      *hybridN1,
		HybridN2:      *hybridN2,
		FunnelMuV:     *funnelMuV,
		FunnelVarV:    *funnelVarV,
		FunnelMuZ:     *funnelMuZ,
		Groups:        *superJ,
		Features:      *superK,
		PerGroup:      *superN,
		HypermeanStd:  *superHypermeanStd,
		TauScale:      *superTauScale,
		DataSeed:      *dataSeed,
	}
	// An explicit zero burn-in would be replaced by the standard
	// value; a negative one is clamped to zero instead.
	if cfg.BurnIn == 0 {
		cfg.BurnIn = -1
	}
	if *laplaceWeights != "" {
		weights, err := getWeightsFromString(*laplaceWeights)
		if err != nil {
			log.Fatal(err)
		}
		cfg.LaplaceWeights = weights
	}
	return cfg
}

// runStudy executes one sweep, saves its result and renders the
// diagnostics.
func runStudy(cfg study.Config, db *bolt.DB) (*study.Result, error) {
	s, err := study.New(cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		s.SetCheckpoint(db, *checkpointInterval)
	}

	eff := s.Config()
	log.Noticef("Target: %s, Dimension: %d, Proposal: %s", eff.Target, eff.Dim, eff.Proposal)
	log.Noticef("Samples: %d, Burn-in: %d, Seed: %d", eff.NumIterations, eff.BurnIn, eff.Seed)

	r, err := s.Run()
	if err != nil {
		return nil, err
	}

	log.Notice("Final Results:")
	log.Noticef("   Total time: %.1f seconds", r.Time)
	log.Noticef("   Average time per configuration: %.1f seconds", stat.Mean(r.Times, nil))
	log.Noticef("   Maximum ESJD: %.6f", r.MaxESJD)
	log.Noticef("   Optimal acceptance rate: %.3f", r.MaxAcceptanceRate)
	log.Noticef("   Optimal scale parameter: %.6f", r.MaxScaleParam)

	if *outDir != "" {
		if err = os.MkdirAll(*outDir, 0755); err != nil {
			return nil, err
		}
		path, err := r.Save(*outDir)
		if err != nil {
			return nil, err
		}
		log.Noticef("   Results saved to: %s", path)
	}

	if *plotsD != "" {
		if err = renderPlots(s, r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// renderPlots reruns one simulation at the optimal scale and writes
// the diagnostic images.
func renderPlots(s *study.Study, r *study.Result) error {
	if err := os.MkdirAll(*plotsD, 0755); err != nil {
		return err
	}

	cfg := s.Config()
	log.Noticef("Generating diagnostics with optimal %s scale parameter (%.6f)",
		cfg.Proposal, r.MaxScaleParam)

	pcfg, err := cfg.ProposalConfig(r.MaxScaleParam)
	if err != nil {
		return err
	}
	sim, err := mcmc.New(mcmc.Config{
		Dim:           cfg.Dim,
		Target:        s.Target(),
		Proposal:      pcfg,
		NumIterations: cfg.NumIterations,
		BurnIn:        cfg.BurnIn,
		Seed:          cfg.Seed,
		Symmetric:     true,
		Preallocate:   !cfg.NoPreallocate,
		Initial:       target.InitialState(s.Target()),
	})
	if err != nil {
		return err
	}
	chain, err := sim.Run()
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(r.Filename(), ".json")

	tracePath := filepath.Join(*plotsD, "traceplot_"+stem+".png")
	if err = plots.Traceplot(tracePath, chain, cfg.BurnIn, 3); err != nil {
		return err
	}
	log.Noticef("   Traceplot saved as: %s", tracePath)

	histPath := filepath.Join(*plotsD, "histogram_"+stem+".png")
	if err = plots.Histogram(histPath, chain, cfg.BurnIn, 0, s.Target()); err != nil {
		return err
	}
	log.Noticef("   Histogram saved as: %s", histPath)

	if cfg.Dim >= 2 {
		densPath := filepath.Join(*plotsD, "density2D_"+stem+".png")
		if err = plots.DensityMap(densPath, chain, cfg.BurnIn, s.Target()); err != nil {
			return err
		}
		log.Noticef("   2D density visualization saved as: %s", densPath)
	}

	esjdPath, accPath, err := plots.SweepCurves(*plotsD, r)
	if err != nil {
		return err
	}
	log.Noticef("   Sweep curves saved as: %s, %s", esjdPath, accPath)
	return nil
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

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
	logging.SetLevel(level, "rwmetro")
	logging.SetLevel(level, "mcmc")
	logging.SetLevel(level, "study")
	logging.SetLevel(level, "checkpoint")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	var db *bolt.DB
	if *checkpointF != "" {
		db, err = bolt.Open(*checkpointF, 0600, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint file:", err)
		}
		defer db.Close()
	}

	var cfgs []study.Config
	if *suiteF != "" {
		cfgs, err = study.LoadSuite(*suiteF)
		if err != nil {
			log.Fatal("Error loading suite:", err)
		}
		log.Noticef("Loaded %d studies from %s", len(cfgs), *suiteF)
	} else {
		cfgs = []study.Config{buildConfig()}
	}

	results := make([]*study.Result, 0, len(cfgs))
	for _, cfg := range cfgs {
		r, err := runStudy(cfg, db)
		if err != nil {
			log.Fatal(err)
		}
		results = append(results, r)
	}

	if *htmlF != "" {
		f, err := os.Create(*htmlF)
		if err != nil {
			log.Fatal("Error creating report file:", err)
		}
		if err = plots.WriteReport(f, results...); err != nil {
			f.Close()
			log.Fatal("Error writing report:", err)
		}
		if err = f.Close(); err != nil {
			log.Fatal(err)
		}
		log.Noticef("HTML report saved to: %s", *htmlF)
	}
}
