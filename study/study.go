// Package study orchestrates scale parameter sweeps for the
// random-walk Metropolis experiments. A study runs one simulation per
// grid point, records acceptance rate and expected squared jumping
// distance, and selects the scale maximizing the latter.
package study

import (
	"fmt"
	"time"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/floats"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/mcmclab/rwmetro/checkpoint"
	"bitbucket.org/mcmclab/rwmetro/mcmc"
	"bitbucket.org/mcmclab/rwmetro/proposal"
	"bitbucket.org/mcmclab/rwmetro/target"
)

// log is the global logging variable.
var log = logging.MustGetLogger("study")

// Config describes one scale sweep over a target and proposal pair.
// Zero valued fields take the standard experiment setup, see
// ApplyDefaults.
type Config struct {
	// Name is an optional label used in logs.
	Name string `yaml:"name,omitempty"`
	// Target is the target distribution name.
	Target string `yaml:"target"`
	// Proposal is the proposal family name.
	Proposal string `yaml:"proposal"`
	// Dim is the target dimension. HybridRosenbrock and SuperFunnel
	// derive the dimension from their structure parameters instead.
	Dim int `yaml:"dim,omitempty"`
	// NumIterations is the chain length at every grid point.
	NumIterations int `yaml:"iterations,omitempty"`
	// BurnIn is the number of initial states excluded from ESJD.
	BurnIn int `yaml:"burn_in,omitempty"`
	// Seed seeds the simulation of every grid point.
	Seed int64 `yaml:"seed,omitempty"`
	// GridPoints is the number of scale values.
	GridPoints int `yaml:"grid_points,omitempty"`
	// ScaleMin and ScaleMax bound the scale grid.
	ScaleMin float64 `yaml:"scale_min,omitempty"`
	ScaleMax float64 `yaml:"scale_max,omitempty"`
	// NoPreallocate switches to the list backed sampler variant.
	NoPreallocate bool `yaml:"no_preallocate,omitempty"`
	// LaplaceWeights are per-coordinate variance multipliers for the
	// anisotropic Laplace proposal.
	LaplaceWeights []float64 `yaml:"laplace_weights,omitempty"`

	// HybridN1 is the block length and HybridN2 the number of blocks
	// for HybridRosenbrock.
	HybridN1 int `yaml:"hybrid_n1,omitempty"`
	HybridN2 int `yaml:"hybrid_n2,omitempty"`
	// FunnelMuV, FunnelVarV and FunnelMuZ parametrize NealFunnel.
	FunnelMuV  float64 `yaml:"funnel_mu_v,omitempty"`
	FunnelVarV float64 `yaml:"funnel_var_v,omitempty"`
	FunnelMuZ  float64 `yaml:"funnel_mu_z,omitempty"`
	// Groups (J), Features (K) and PerGroup are the SuperFunnel data
	// sizes.
	Groups   int `yaml:"groups,omitempty"`
	Features int `yaml:"features,omitempty"`
	PerGroup int `yaml:"per_group,omitempty"`
	// HypermeanStd and TauScale are the SuperFunnel prior scales.
	HypermeanStd float64 `yaml:"hypermean_std,omitempty"`
	TauScale     float64 `yaml:"tau_scale,omitempty"`
	// DataSeed seeds the SuperFunnel synthetic data generator.
	DataSeed uint64 `yaml:"data_seed,omitempty"`
}

// ApplyDefaults replaces zero valued fields by the standard
// experiment setup: dimension 20, 100000 iterations, burn-in 1000,
// seed 42 and 40 scale values between 0.01 and 3.5.
func (c *Config) ApplyDefaults() {
	if c.Dim == 0 {
		c.Dim = 20
	}
	if c.NumIterations == 0 {
		c.NumIterations = 100000
	}
	if c.BurnIn == 0 {
		c.BurnIn = 1000
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.GridPoints == 0 {
		c.GridPoints = 40
	}
	if c.ScaleMin == 0 {
		c.ScaleMin = 0.01
	}
	if c.ScaleMax == 0 {
		c.ScaleMax = 3.5
	}
}

// Grid returns the scale parameter values of the sweep, linearly
// spaced over [ScaleMin, ScaleMax].
func (c *Config) Grid() []float64 {
	return floats.Span(make([]float64, c.GridPoints), c.ScaleMin, c.ScaleMax)
}

// ProposalConfig maps a scale parameter to a proposal configuration.
// Normal and Laplace use displacement variance scale^2/dim, the
// Laplace variances optionally multiplied per coordinate by
// LaplaceWeights. UniformRadius uses the scale directly as the ball
// radius.
func (c *Config) ProposalConfig(scale float64) (proposal.Config, error) {
	switch c.Proposal {
	case "Normal", "Laplace":
		v := scale * scale / float64(c.Dim)
		cfg := proposal.Config{Name: c.Proposal, Variance: v}
		if c.Proposal == "Laplace" && len(c.LaplaceWeights) > 0 {
			vec := make([]float64, len(c.LaplaceWeights))
			for i, w := range c.LaplaceWeights {
				vec[i] = w * v
			}
			cfg.VarianceVector = vec
		}
		return cfg, nil
	case "UniformRadius":
		return proposal.Config{Name: "UniformRadius", Radius: scale}, nil
	}
	return proposal.Config{}, fmt.Errorf("unknown proposal distribution: %s", c.Proposal)
}

// targetOptions builds the target options from the configuration.
func (c *Config) targetOptions() *target.Options {
	o := target.DefaultOptions()
	if c.HybridN1 != 0 {
		o.HybridN1 = c.HybridN1
	}
	if c.HybridN2 != 0 {
		o.HybridN2 = c.HybridN2
	}
	if c.FunnelMuV != 0 {
		o.FunnelMuV = c.FunnelMuV
	}
	if c.FunnelVarV != 0 {
		o.FunnelVarV = c.FunnelVarV
	}
	if c.FunnelMuZ != 0 {
		o.FunnelMuZ = c.FunnelMuZ
	}
	if c.Groups != 0 {
		o.Groups = c.Groups
	}
	if c.Features != 0 {
		o.Features = c.Features
	}
	if c.PerGroup != 0 {
		o.PerGroup = c.PerGroup
	}
	if c.HypermeanStd != 0 {
		o.HypermeanStd = c.HypermeanStd
	}
	if c.TauScale != 0 {
		o.TauScale = c.TauScale
	}
	if c.DataSeed != 0 {
		o.DataSeed = c.DataSeed
	}
	return o
}

// Study runs one scale sweep.
type Study struct {
	cfg    Config
	dist   target.Distribution
	grid   []float64
	cio    *checkpoint.SweepIO
	result *Result
}

// New creates a study and resolves its target distribution. For
// HybridRosenbrock and SuperFunnel the configured dimension is
// replaced by the dimension derived from the structure parameters.
func New(cfg Config) (*Study, error) {
	cfg.ApplyDefaults()
	if cfg.NumIterations < 1 {
		return nil, fmt.Errorf("number of iterations should be positive, got %d", cfg.NumIterations)
	}
	if cfg.GridPoints < 2 {
		return nil, fmt.Errorf("scale grid needs at least two points, got %d", cfg.GridPoints)
	}
	if cfg.ScaleMin <= 0 || cfg.ScaleMax <= cfg.ScaleMin {
		return nil, fmt.Errorf("invalid scale range [%v, %v]", cfg.ScaleMin, cfg.ScaleMax)
	}
	// A negative burn-in stands for an explicit zero, since zero
	// valued fields take the standard setup.
	if cfg.BurnIn < 0 {
		cfg.BurnIn = 0
	}

	opts := cfg.targetOptions()
	switch cfg.Target {
	case "HybridRosenbrock":
		cfg.Dim = target.HybridRosenbrockDim(opts.HybridN1, opts.HybridN2)
		log.Infof("Target %s: n1=%d, n2=%d, actual dimension: %d",
			cfg.Target, opts.HybridN1, opts.HybridN2, cfg.Dim)
	case "SuperFunnel":
		cfg.Dim = target.SuperFunnelDim(opts.Groups, opts.Features)
		log.Infof("Target %s: J=%d, K=%d, actual dimension: %d",
			cfg.Target, opts.Groups, opts.Features, cfg.Dim)
	}
	dist, err := target.New(cfg.Target, cfg.Dim, opts)
	if err != nil {
		return nil, err
	}

	known := false
	for _, name := range proposal.Names {
		if name == cfg.Proposal {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown proposal distribution: %s", cfg.Proposal)
	}
	if len(cfg.LaplaceWeights) > 0 {
		if cfg.Proposal != "Laplace" {
			log.Warningf("Laplace weights have no effect on the %s proposal", cfg.Proposal)
		} else if len(cfg.LaplaceWeights) != cfg.Dim {
			return nil, fmt.Errorf("laplace weights length %d does not match dimension %d",
				len(cfg.LaplaceWeights), cfg.Dim)
		}
		for _, w := range cfg.LaplaceWeights {
			if w <= 0 {
				return nil, fmt.Errorf("laplace weights should be positive, got %v", w)
			}
		}
	}

	return &Study{cfg: cfg, dist: dist, grid: cfg.Grid()}, nil
}

// Config returns the effective configuration after defaulting and
// dimension derivation.
func (s *Study) Config() Config { return s.cfg }

// Target returns the resolved target distribution.
func (s *Study) Target() target.Distribution { return s.dist }

// Grid returns the scale parameter values of the sweep.
func (s *Study) Grid() []float64 { return s.grid }

// Result returns the sweep result, nil before Run.
func (s *Study) Result() *Result { return s.result }

// SetCheckpoint enables saving sweep progress to db so that an
// interrupted sweep resumes after the last finished grid point. Saves
// are throttled to one per the given number of seconds.
func (s *Study) SetCheckpoint(db *bolt.DB, seconds float64) {
	key := runName(s.cfg.Target, s.cfg.Proposal, s.cfg.Dim, s.cfg.NumIterations, s.cfg.Seed)
	s.cio = checkpoint.NewSweepIO(db, []byte(key), seconds)
}

// Run executes one simulation per grid point and selects the scale
// maximizing the expected squared jumping distance. Every grid point
// uses the same seed, so a resumed sweep gives the same result as an
// uninterrupted one.
func (s *Study) Run() (*Result, error) {
	if s.result != nil {
		return nil, mcmc.ErrAlreadyRun
	}
	totalStart := time.Now()

	esjd := make([]float64, 0, len(s.grid))
	accs := make([]float64, 0, len(s.grid))
	times := make([]float64, 0, len(s.grid))
	first := 0
	if s.cio != nil {
		if p := s.loadProgress(); p != nil {
			esjd = append(esjd, p.ESJD...)
			accs = append(accs, p.AcceptanceRates...)
			times = append(times, p.Times...)
			first = p.Done
			log.Noticef("Resuming sweep after %d finished points", p.Done)
		}
	}

	log.Noticef("Running simulations with %d %s proposal scale values", len(s.grid), s.cfg.Proposal)

	for i := first; i < len(s.grid); i++ {
		scale := s.grid[i]
		pcfg, err := s.cfg.ProposalConfig(scale)
		if err != nil {
			return nil, err
		}
		sim, err := mcmc.New(mcmc.Config{
			Dim:           s.cfg.Dim,
			Target:        s.dist,
			Proposal:      pcfg,
			NumIterations: s.cfg.NumIterations,
			BurnIn:        s.cfg.BurnIn,
			Seed:          s.cfg.Seed,
			Symmetric:     true,
			Preallocate:   !s.cfg.NoPreallocate,
			Initial:       target.InitialState(s.dist),
		})
		if err != nil {
			return nil, err
		}

		pointStart := time.Now()
		if _, err := sim.Run(); err != nil {
			return nil, err
		}
		elapsed := time.Since(pointStart).Seconds()

		acc, err := sim.AcceptanceRate()
		if err != nil {
			return nil, err
		}
		jump, err := sim.ESJD()
		if err != nil {
			return nil, err
		}
		esjd = append(esjd, jump)
		accs = append(accs, acc)
		times = append(times, elapsed)

		log.Infof("Point %d/%d: scale=%.6f acceptance=%.3f ESJD=%.6f (%.1fs)",
			i+1, len(s.grid), scale, acc, jump, elapsed)

		if s.cio != nil {
			final := i == len(s.grid)-1
			if final || s.cio.Old() {
				s.cio.Save(&checkpoint.Progress{
					Done:            i + 1,
					ESJD:            esjd,
					AcceptanceRates: accs,
					Times:           times,
					Final:           final,
				})
			}
		}
	}

	best := floats.MaxIdx(esjd)
	s.result = &Result{
		TargetName:        s.cfg.Target,
		ProposalName:      s.cfg.Proposal,
		Dimension:         s.cfg.Dim,
		NumIterations:     s.cfg.NumIterations,
		BurnIn:            s.cfg.BurnIn,
		Seed:              s.cfg.Seed,
		Time:              time.Since(totalStart).Seconds(),
		MaxESJD:           esjd[best],
		MaxAcceptanceRate: accs[best],
		MaxScaleParam:     s.grid[best],
		ESJD:              esjd,
		AcceptanceRates:   accs,
		ScaleParams:       append([]float64(nil), s.grid...),
		Times:             times,
	}
	return s.result, nil
}

// loadProgress returns saved progress compatible with the sweep, nil
// otherwise.
func (s *Study) loadProgress() *checkpoint.Progress {
	p, err := s.cio.Load()
	if err != nil {
		log.Error("Error loading checkpoint: ", err)
		return nil
	}
	if p == nil {
		return nil
	}
	if p.Done > len(s.grid) || len(p.ESJD) != p.Done ||
		len(p.AcceptanceRates) != p.Done || len(p.Times) != p.Done {
		log.Warningf("Ignoring incompatible sweep checkpoint (points=%v)", p.Done)
		return nil
	}
	return p
}
