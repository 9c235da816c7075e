package mcmc

import (
	"errors"
	"fmt"
	"time"

	"github.com/op/go-logging"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"bitbucket.org/mcmclab/rwmetro/proposal"
	"bitbucket.org/mcmclab/rwmetro/target"
)

// log is the global logging variable.
var log = logging.MustGetLogger("mcmc")

var (
	// ErrAlreadyRun is returned when a simulation is run again
	// without a reset.
	ErrAlreadyRun = errors.New("simulation has already been run")
	// ErrNotRun is returned when diagnostics are requested before a
	// completed run.
	ErrNotRun = errors.New("simulation has not been run")
)

// Config fully determines a simulation.
type Config struct {
	// Dim is the state dimension; it has to match the target.
	Dim int
	// Target is the distribution to sample from.
	Target target.Distribution
	// Proposal configures the random-walk proposal.
	Proposal proposal.Config
	// NumIterations is the number of accept/reject steps.
	NumIterations int
	// BurnIn is the number of initial iterations excluded from the
	// jump distance diagnostic. It is clamped to [0, NumIterations-1].
	BurnIn int
	// Seed initializes the random generator.
	Seed int64
	// Symmetric has to be true: only symmetric proposals are
	// supported, the acceptance rule applies no proposal density
	// correction.
	Symmetric bool
	// Preallocate selects the preallocating sampler variant.
	Preallocate bool
	// Initial is the optional starting state; the origin by default.
	Initial []float64
}

// Simulation drives a random-walk Metropolis sampler for a fixed
// number of iterations and computes diagnostics over the resulting
// chain.
type Simulation struct {
	cfg     Config
	burnIn  int
	sampler Sampler
	hasRun  bool

	// AccPeriod is the number of iterations between acceptance rate
	// reports.
	AccPeriod int
	repPeriod int
}

// New validates the configuration and creates a simulation. No
// stepping happens before Run.
func New(cfg Config) (*Simulation, error) {
	if cfg.Target == nil {
		return nil, errors.New("no target distribution given")
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("dimension should be positive, got %d", cfg.Dim)
	}
	if cfg.Dim != cfg.Target.Dim() {
		return nil, fmt.Errorf("dimension %d does not match %s dimension %d",
			cfg.Dim, cfg.Target.Name(), cfg.Target.Dim())
	}
	if cfg.NumIterations <= 0 {
		return nil, fmt.Errorf("number of iterations should be positive, got %d", cfg.NumIterations)
	}
	if !cfg.Symmetric {
		return nil, errors.New("only symmetric proposals are supported")
	}
	initial := cfg.Initial
	if initial == nil {
		initial = make([]float64, cfg.Dim)
	} else if len(initial) != cfg.Dim {
		return nil, fmt.Errorf("initial state length %d does not match dimension %d",
			len(initial), cfg.Dim)
	}
	burnIn := cfg.BurnIn
	if burnIn < 0 {
		log.Warningf("Negative burn-in %d, using 0", burnIn)
		burnIn = 0
	}
	if burnIn > cfg.NumIterations-1 {
		log.Warningf("Burn-in %d too large for %d iterations, using %d",
			burnIn, cfg.NumIterations, cfg.NumIterations-1)
		burnIn = cfg.NumIterations - 1
	}

	seed := uint64(cfg.Seed)
	src := rand.NewSource(seed)
	prop, err := proposal.New(cfg.Proposal, cfg.Dim, src)
	if err != nil {
		return nil, err
	}
	var sampler Sampler
	if cfg.Preallocate {
		sampler = NewFastRandomWalkMH(cfg.Target, prop, src, seed, initial, cfg.NumIterations)
	} else {
		sampler = NewRandomWalkMH(cfg.Target, prop, src, seed, initial)
	}
	return &Simulation{
		cfg:       cfg,
		burnIn:    burnIn,
		sampler:   sampler,
		AccPeriod: 10000,
		repPeriod: 1000,
	}, nil
}

// SetReportPeriod sets the number of iterations between progress
// lines.
func (s *Simulation) SetReportPeriod(period int) {
	s.repPeriod = period
}

// Run performs the configured number of iterations and returns the
// chain. Running again without a Reset gives ErrAlreadyRun.
func (s *Simulation) Run() (*Chain, error) {
	if s.hasRun {
		return nil, ErrAlreadyRun
	}
	start := time.Now()
	lastAcc := 0
	for i := 1; i <= s.cfg.NumIterations; i++ {
		s.sampler.Step()
		if s.AccPeriod > 0 && i%s.AccPeriod == 0 {
			acc := s.sampler.Accepted()
			log.Infof("Acceptance rate %.2f%%", 100*float64(acc-lastAcc)/float64(s.AccPeriod))
			lastAcc = acc
		}
		if s.repPeriod > 0 && i%s.repPeriod == 0 {
			log.Debugf("%d iterations done", i)
		}
	}
	s.sampler.base().state = Completed
	s.hasRun = true
	log.Debugf("Sampling took %v", time.Since(start))
	return s.sampler.Chain(), nil
}

// HasRun reports whether the simulation has completed.
func (s *Simulation) HasRun() bool { return s.hasRun }

// State reports the sampler lifecycle state.
func (s *Simulation) State() RunState { return s.sampler.State() }

// Chain returns the visited states; before a run it holds only the
// initial state.
func (s *Simulation) Chain() *Chain { return s.sampler.Chain() }

// BurnIn returns the clamped burn-in index.
func (s *Simulation) BurnIn() int { return s.burnIn }

// Reset restores the initial state so the simulation can run again;
// the generator is re-seeded, so a re-run reproduces the chain.
func (s *Simulation) Reset() {
	s.sampler.Reset()
	s.hasRun = false
}

// AcceptanceRate returns the fraction of accepted proposals.
func (s *Simulation) AcceptanceRate() (float64, error) {
	if !s.hasRun {
		return 0, ErrNotRun
	}
	return float64(s.sampler.Accepted()) / float64(s.cfg.NumIterations), nil
}

// ESJD returns the expected squared jump distance: the mean squared
// Euclidean distance between consecutive states strictly after the
// burn-in index. With fewer than two post-burn-in states it is 0.
func (s *Simulation) ESJD() (float64, error) {
	if !s.hasRun {
		return 0, ErrNotRun
	}
	chain := s.sampler.Chain()
	n := chain.Len()
	first := s.burnIn + 1
	if first >= n-1 {
		return 0, nil
	}
	sum := 0.0
	for i := first; i < n-1; i++ {
		d := floats.Distance(chain.At(i), chain.At(i+1), 2)
		sum += d * d
	}
	return sum / float64(n-1-first), nil
}
