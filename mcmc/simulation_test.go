package mcmc

import (
	"errors"
	"math"
	"testing"

	"bitbucket.org/mcmclab/rwmetro/proposal"
	"bitbucket.org/mcmclab/rwmetro/target"
)

// gaussianConfig returns the standard two-dimensional test
// configuration.
func gaussianConfig(tst *testing.T) Config {
	dist, err := target.NewGaussian(2)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return Config{
		Dim:           2,
		Target:        dist,
		Proposal:      proposal.Config{Name: "Normal", Variance: 1},
		NumIterations: 10000,
		BurnIn:        1000,
		Seed:          42,
		Symmetric:     true,
		Preallocate:   true,
	}
}

func TestGaussianRun(tst *testing.T) {
	sim, err := New(gaussianConfig(tst))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	chain, err := sim.Run()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if chain.Len() != 10001 {
		tst.Error("Wrong chain length:", chain.Len())
	}
	if sim.State() != Completed {
		tst.Error("Wrong state after run:", sim.State())
	}
	acc, err := sim.AcceptanceRate()
	if err != nil {
		tst.Error("Error: ", err)
	}
	if acc < 0.3 || acc > 0.7 {
		tst.Error("Implausible acceptance rate for a unit proposal:", acc)
	}
	if want := float64(sim.sampler.Accepted()) / 10000; acc != want {
		tst.Error("Acceptance rate is not the accepted fraction:", acc, want)
	}
	esjd, err := sim.ESJD()
	if err != nil {
		tst.Error("Error: ", err)
	}
	if esjd <= 0 || esjd >= 4 {
		tst.Error("Implausible jump distance:", esjd)
	}
}

func TestStateErrors(tst *testing.T) {
	sim, err := New(gaussianConfig(tst))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err := sim.AcceptanceRate(); !errors.Is(err, ErrNotRun) {
		tst.Error("Expected ErrNotRun, got", err)
	}
	if _, err := sim.ESJD(); !errors.Is(err, ErrNotRun) {
		tst.Error("Expected ErrNotRun, got", err)
	}
	if _, err := sim.Run(); err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err := sim.Run(); !errors.Is(err, ErrAlreadyRun) {
		tst.Error("Expected ErrAlreadyRun, got", err)
	}
}

func TestResetReproduces(tst *testing.T) {
	sim, err := New(gaussianConfig(tst))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	chain, err := sim.Run()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	acc1, _ := sim.AcceptanceRate()
	last1 := append([]float64(nil), chain.Last()...)

	sim.Reset()
	if sim.HasRun() || sim.State() != Initialized {
		tst.Error("Wrong state after reset")
	}
	if sim.Chain().Len() != 1 {
		tst.Error("Chain not truncated by reset:", sim.Chain().Len())
	}
	chain, err = sim.Run()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	acc2, _ := sim.AcceptanceRate()
	if acc1 != acc2 {
		tst.Error("Acceptance rate changed after reset:", acc1, acc2)
	}
	if chain.Last()[0] != last1[0] || chain.Last()[1] != last1[1] {
		tst.Error("Re-run did not reproduce the chain:", chain.Last(), last1)
	}
}

// runChain runs a fresh simulation and returns its chain.
func runChain(tst *testing.T, cfg Config) *Chain {
	sim, err := New(cfg)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	chain, err := sim.Run()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return chain
}

func TestVariantsIdentical(tst *testing.T) {
	for _, pcfg := range []proposal.Config{
		{Name: "Normal", Variance: 0.8},
		{Name: "Laplace", Variance: 0.8},
		{Name: "UniformRadius", Radius: 1.2},
	} {
		cfg := gaussianConfig(tst)
		cfg.NumIterations = 2000
		cfg.Proposal = pcfg
		cfg.Preallocate = true
		fast := runChain(tst, cfg)
		cfg.Preallocate = false
		ref := runChain(tst, cfg)
		if fast.Len() != ref.Len() {
			tst.Fatal("Variant chain lengths differ:", fast.Len(), ref.Len())
		}
		for i := 0; i < fast.Len(); i++ {
			a, b := fast.At(i), ref.At(i)
			if a[0] != b[0] || a[1] != b[1] {
				tst.Fatalf("%s chains diverge at state %d: %v != %v", pcfg.Name, i, a, b)
			}
		}
	}
}

func TestSeedMatters(tst *testing.T) {
	cfg := gaussianConfig(tst)
	cfg.NumIterations = 500
	a := runChain(tst, cfg)
	cfg.Seed = 43
	b := runChain(tst, cfg)
	same := true
	for i := 0; i < a.Len() && same; i++ {
		if a.At(i)[0] != b.At(i)[0] || a.At(i)[1] != b.At(i)[1] {
			same = false
		}
	}
	if same {
		tst.Error("Different seeds gave identical chains")
	}
}

func TestBurnInClamp(tst *testing.T) {
	cfg := gaussianConfig(tst)
	cfg.NumIterations = 5
	cfg.BurnIn = 10
	sim, err := New(cfg)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if sim.BurnIn() != 4 {
		tst.Error("Burn-in not clamped:", sim.BurnIn())
	}
	if _, err := sim.Run(); err != nil {
		tst.Fatal("Error: ", err)
	}
	esjd, err := sim.ESJD()
	if err != nil {
		tst.Error("Error: ", err)
	}
	if esjd != 0 {
		tst.Error("Expected zero jump distance for a fully burnt chain, got", esjd)
	}

	cfg.BurnIn = -3
	sim, err = New(cfg)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if sim.BurnIn() != 0 {
		tst.Error("Negative burn-in not clamped:", sim.BurnIn())
	}
}

func TestConfigErrors(tst *testing.T) {
	good := gaussianConfig(tst)

	cases := []func(c *Config){
		func(c *Config) { c.Target = nil },
		func(c *Config) { c.Dim = 0 },
		func(c *Config) { c.Dim = 3 },
		func(c *Config) { c.NumIterations = 0 },
		func(c *Config) { c.Symmetric = false },
		func(c *Config) { c.Initial = []float64{1} },
		func(c *Config) { c.Proposal = proposal.Config{Name: "NoSuchProposal"} },
		func(c *Config) { c.Proposal = proposal.Config{Name: "Normal", Variance: -1} },
	}
	for i, mod := range cases {
		cfg := good
		mod(&cfg)
		if _, err := New(cfg); err == nil {
			tst.Errorf("No error for invalid config %d", i)
		}
	}
}

func TestDegenerateStart(tst *testing.T) {
	// the origin is outside the gamma support, so the very first
	// finite candidate has to be accepted
	dist, err := target.NewIIDGamma(2, 2, 3)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	cfg := Config{
		Dim:           2,
		Target:        dist,
		Proposal:      proposal.Config{Name: "Normal", Variance: 1},
		NumIterations: 500,
		BurnIn:        100,
		Seed:          42,
		Symmetric:     true,
		Preallocate:   true,
	}
	sim, err := New(cfg)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	chain, err := sim.Run()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	acc, _ := sim.AcceptanceRate()
	if acc == 0 {
		tst.Error("Chain never escaped the degenerate start")
	}
	if l := dist.LogDensity(chain.Last()); math.IsInf(l, -1) || math.IsNaN(l) {
		tst.Error("Chain did not end inside the support:", chain.Last())
	}
}
