/*

Rwmreport regenerates sweep curves and the HTML report from saved
rwmetro result files, without rerunning any simulations.

The basic usage of rwmreport looks like this:

	rwmreport data/MultivariateNormal_Normal_rwm_dim20_100000iters_seed42.json

, this will recreate the ESJD and acceptance rate plots. Several
result files can be combined into a single report:

	rwmreport --html report.html data/*.json

To see all the options run:

	rwmreport -h

*/
package main

import (
	"fmt"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	"bitbucket.org/mcmclab/rwmetro/plots"
	"bitbucket.org/mcmclab/rwmetro/study"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("rwmreport")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	app = kingpin.New("rwmreport", "sweep plots and reports from saved results").Version(version)

	resultFiles = app.Arg("results", "saved sweep result files").Required().ExistingFiles()

	plotsD   = app.Flag("plots", "write sweep curves to a directory").Default("images").String()
	htmlF    = app.Flag("html", "write an HTML report to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)
	logging.SetBackend(logging.NewLogBackend(os.Stderr, "", 0))

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "rwmreport")

	log.Info(version)
	log.Info("Command line:", os.Args)

	results := make([]*study.Result, 0, len(*resultFiles))
	for _, fn := range *resultFiles {
		r, err := study.Load(fn)
		if err != nil {
			log.Fatal("Error reading results: ", err)
		}
		log.Infof("Loaded %s (max ESJD %.6f at scale %.6f)", fn, r.MaxESJD, r.MaxScaleParam)
		results = append(results, r)
	}

	if *plotsD != "" {
		if err = os.MkdirAll(*plotsD, 0755); err != nil {
			log.Fatal(err)
		}
		for _, r := range results {
			esjdPath, accPath, err := plots.SweepCurves(*plotsD, r)
			if err != nil {
				log.Fatal("Error plotting sweep curves: ", err)
			}
			log.Noticef("Sweep curves saved as: %s, %s", esjdPath, accPath)
		}
	}

	if *htmlF != "" {
		f, err := os.Create(*htmlF)
		if err != nil {
			log.Fatal("Error creating report file: ", err)
		}
		if err = plots.WriteReport(f, results...); err != nil {
			f.Close()
			log.Fatal("Error writing report: ", err)
		}
		if err = f.Close(); err != nil {
			log.Fatal(err)
		}
		log.Noticef("HTML report saved to: %s", *htmlF)
	}
}
