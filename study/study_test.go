package study

import (
	"errors"
	"math"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/mcmclab/rwmetro/mcmc"
)

// smallDiff is a threshold for floating point comparison.
const smallDiff = 1e-12

func init() {
	logging.SetLevel(logging.ERROR, "study")
	logging.SetLevel(logging.ERROR, "mcmc")
	logging.SetLevel(logging.ERROR, "checkpoint")
}

func TestDefaults(tst *testing.T) {
	cfg := Config{Target: "MultivariateNormal", Proposal: "Normal"}
	cfg.ApplyDefaults()
	if cfg.Dim != 20 || cfg.NumIterations != 100000 || cfg.BurnIn != 1000 {
		tst.Error("Wrong defaults:", cfg)
	}
	if cfg.Seed != 42 || cfg.GridPoints != 40 {
		tst.Error("Wrong defaults:", cfg)
	}
	if cfg.ScaleMin != 0.01 || cfg.ScaleMax != 3.5 {
		tst.Error("Wrong scale range defaults:", cfg.ScaleMin, cfg.ScaleMax)
	}
}

func TestZeroBurnIn(tst *testing.T) {
	// A negative burn-in is the way to ask for zero explicitly,
	// since a zero field picks up the standard value.
	s, err := New(Config{Target: "MultivariateNormal", Proposal: "Normal", Dim: 2,
		NumIterations: 100, BurnIn: -1, GridPoints: 2, ScaleMin: 0.5, ScaleMax: 1})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if s.Config().BurnIn != 0 {
		tst.Error("Negative burn-in not folded to zero:", s.Config().BurnIn)
	}
}

func TestGrid(tst *testing.T) {
	cfg := Config{Target: "MultivariateNormal", Proposal: "Normal"}
	cfg.ApplyDefaults()
	grid := cfg.Grid()
	if len(grid) != 40 {
		tst.Error("Wrong grid size:", len(grid))
	}
	if grid[0] != 0.01 {
		tst.Error("Wrong grid start:", grid[0])
	}
	if math.Abs(grid[len(grid)-1]-3.5) > smallDiff {
		tst.Error("Wrong grid end:", grid[len(grid)-1])
	}
	step := grid[1] - grid[0]
	for i := 2; i < len(grid); i++ {
		if math.Abs(grid[i]-grid[i-1]-step) > smallDiff {
			tst.Error("Uneven grid spacing at point", i)
		}
	}
}

func TestProposalMapping(tst *testing.T) {
	cfg := Config{Proposal: "Normal", Dim: 4}
	pcfg, err := cfg.ProposalConfig(2)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if pcfg.Name != "Normal" || pcfg.Variance != 1 {
		tst.Error("Wrong normal mapping:", pcfg)
	}

	cfg = Config{Proposal: "Laplace", Dim: 2, LaplaceWeights: []float64{1, 2}}
	pcfg, err = cfg.ProposalConfig(3)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if pcfg.Variance != 4.5 {
		tst.Error("Wrong laplace variance:", pcfg.Variance)
	}
	if len(pcfg.VarianceVector) != 2 ||
		pcfg.VarianceVector[0] != 4.5 || pcfg.VarianceVector[1] != 9 {
		tst.Error("Wrong laplace variance vector:", pcfg.VarianceVector)
	}

	cfg = Config{Proposal: "UniformRadius", Dim: 7}
	pcfg, err = cfg.ProposalConfig(3)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if pcfg.Radius != 3 {
		tst.Error("Wrong radius:", pcfg.Radius)
	}

	cfg = Config{Proposal: "NoSuchProposal", Dim: 2}
	if _, err := cfg.ProposalConfig(1); err == nil {
		tst.Error("No error for unknown proposal")
	}
}

func TestDerivedDimensions(tst *testing.T) {
	s, err := New(Config{Target: "HybridRosenbrock", Proposal: "Normal", NumIterations: 10})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if s.Config().Dim != 11 || s.Target().Dim() != 11 {
		tst.Error("Wrong hybrid dimension:", s.Config().Dim)
	}

	s, err = New(Config{Target: "SuperFunnel", Proposal: "Normal", NumIterations: 10})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if s.Config().Dim != 26 || s.Target().Dim() != 26 {
		tst.Error("Wrong super funnel dimension:", s.Config().Dim)
	}

	s, err = New(Config{Target: "HybridRosenbrock", Proposal: "Normal", NumIterations: 10,
		HybridN1: 4, HybridN2: 2})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if s.Config().Dim != 7 {
		tst.Error("Wrong hybrid dimension:", s.Config().Dim)
	}
}

func TestSweepAcceptanceMonotone(tst *testing.T) {
	s, err := New(Config{
		Target:        "MultivariateNormal",
		Proposal:      "Normal",
		Dim:           2,
		NumIterations: 3000,
		BurnIn:        300,
		GridPoints:    3,
		ScaleMin:      0.3,
		ScaleMax:      3.3,
	})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	r, err := s.Run()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if len(r.AcceptanceRates) != 3 || len(r.ESJD) != 3 || len(r.Times) != 3 {
		tst.Fatal("Wrong result lengths")
	}
	if r.AcceptanceRates[0] <= r.AcceptanceRates[1] ||
		r.AcceptanceRates[1] <= r.AcceptanceRates[2] {
		tst.Error("Acceptance rates not decreasing in scale:", r.AcceptanceRates)
	}
	for i, e := range r.ESJD {
		if e <= 0 {
			tst.Error("Nonpositive ESJD at point", i)
		}
	}
}

func TestSweepOptimum(tst *testing.T) {
	s, err := New(Config{
		Target:        "MultivariateNormal",
		Proposal:      "Normal",
		Dim:           2,
		NumIterations: 4000,
		BurnIn:        500,
		GridPoints:    8,
		ScaleMin:      0.1,
		ScaleMax:      5,
	})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	r, err := s.Run()
	if err != nil {
		tst.Fatal("Error: ", err)
	}

	best := 0
	for i, e := range r.ESJD {
		if e > r.ESJD[best] {
			best = i
		}
	}
	if best == 0 || best == len(r.ESJD)-1 {
		tst.Error("ESJD optimum on the grid boundary:", best)
	}
	if r.MaxESJD != r.ESJD[best] {
		tst.Error("Wrong MaxESJD:", r.MaxESJD)
	}
	if r.MaxScaleParam != r.ScaleParams[best] {
		tst.Error("Wrong MaxScaleParam:", r.MaxScaleParam)
	}
	if r.MaxAcceptanceRate != r.AcceptanceRates[best] {
		tst.Error("Wrong MaxAcceptanceRate:", r.MaxAcceptanceRate)
	}
	if r.Time <= 0 {
		tst.Error("Nonpositive total time:", r.Time)
	}
}

func TestSweepLaplaceWeights(tst *testing.T) {
	s, err := New(Config{
		Target:         "MultivariateNormal",
		Proposal:       "Laplace",
		Dim:            2,
		NumIterations:  200,
		BurnIn:         20,
		GridPoints:     2,
		ScaleMin:       0.5,
		ScaleMax:       2,
		LaplaceWeights: []float64{1, 3},
	})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	r, err := s.Run()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	for i, a := range r.AcceptanceRates {
		if a <= 0 || a > 1 {
			tst.Error("Acceptance rate out of range at point", i, ":", a)
		}
	}
}

func TestStudyRunTwice(tst *testing.T) {
	s, err := New(Config{Target: "MultivariateNormal", Proposal: "Normal", Dim: 2,
		NumIterations: 100, BurnIn: 10, GridPoints: 2, ScaleMin: 0.5, ScaleMax: 1})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	r, err := s.Run()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err := s.Run(); !errors.Is(err, mcmc.ErrAlreadyRun) {
		tst.Error("Expected already run error, got", err)
	}
	if s.Result() != r {
		tst.Error("Result accessor mismatch")
	}
}

func TestNewErrors(tst *testing.T) {
	good := Config{Target: "MultivariateNormal", Proposal: "Normal", Dim: 2,
		NumIterations: 100, GridPoints: 2, ScaleMin: 0.5, ScaleMax: 1}

	cases := []func(c *Config){
		func(c *Config) { c.Target = "NoSuchTarget" },
		func(c *Config) { c.Proposal = "NoSuchProposal" },
		func(c *Config) { c.GridPoints = 1 },
		func(c *Config) { c.ScaleMin = -0.5 },
		func(c *Config) { c.ScaleMax = 0.2 },
		func(c *Config) { c.NumIterations = -5 },
		func(c *Config) { c.Proposal = "Laplace"; c.LaplaceWeights = []float64{1} },
		func(c *Config) { c.Proposal = "Laplace"; c.LaplaceWeights = []float64{1, -1} },
	}
	for i, mod := range cases {
		cfg := good
		mod(&cfg)
		if _, err := New(cfg); err == nil {
			tst.Errorf("No error for invalid config %d", i)
		}
	}

	// Weights on a non-Laplace proposal are ignored, not an error.
	cfg := good
	cfg.LaplaceWeights = []float64{1, 2}
	if _, err := New(cfg); err != nil {
		tst.Error("Error: ", err)
	}
}
