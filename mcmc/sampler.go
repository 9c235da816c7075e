package mcmc

import (
	"math"

	"golang.org/x/exp/rand"

	"bitbucket.org/mcmclab/rwmetro/proposal"
	"bitbucket.org/mcmclab/rwmetro/target"
)

// Sampler advances a random-walk Metropolis chain one accept/reject
// decision at a time.
type Sampler interface {
	// Step performs one proposal and accept/reject decision.
	Step()
	// Reset restores the initial state and re-seeds the generator, so
	// a following run reproduces the chain exactly.
	Reset()
	// State reports the lifecycle state.
	State() RunState
	// Chain returns the visited states.
	Chain() *Chain
	// Accepted returns the number of accepted proposals.
	Accepted() int
	// Dim returns the state dimension.
	Dim() int

	base() *baseMH
}

// baseMH holds the state shared by the sampler variants.
type baseMH struct {
	dim      int
	dist     target.Distribution
	prop     proposal.Sampler
	src      rand.Source
	rng      *rand.Rand
	seed     uint64
	chain    *Chain
	initial  []float64
	state    RunState
	accepted int
}

func newBase(dist target.Distribution, prop proposal.Sampler, src rand.Source, seed uint64, initial []float64, capStates int) baseMH {
	chain := NewChain(len(initial), capStates)
	chain.Append(initial)
	return baseMH{
		dim:     len(initial),
		dist:    dist,
		prop:    prop,
		src:     src,
		rng:     rand.New(src),
		seed:    seed,
		chain:   chain,
		initial: append([]float64(nil), initial...),
		state:   Initialized,
	}
}

func (b *baseMH) base() *baseMH { return b }

// State reports the lifecycle state.
func (b *baseMH) State() RunState { return b.state }

// Chain returns the visited states.
func (b *baseMH) Chain() *Chain { return b.chain }

// Accepted returns the number of accepted proposals.
func (b *baseMH) Accepted() int { return b.accepted }

// Dim returns the state dimension.
func (b *baseMH) Dim() int { return b.dim }

// reset re-seeds the generator and truncates the chain back to the
// initial state.
func (b *baseMH) reset() {
	b.src.Seed(b.seed)
	b.chain.Truncate(b.initial)
	b.accepted = 0
	b.state = Initialized
}

// finiteLog maps NaN and +Inf log-densities to -Inf so that
// degenerate evaluations behave like zero density.
func finiteLog(l float64) float64 {
	if math.IsNaN(l) || math.IsInf(l, 1) {
		return math.Inf(-1)
	}
	return l
}

// decide applies the Metropolis rule in log space. A degenerate
// candidate is always rejected; a degenerate current state is always
// left.
func decide(lx, ly, u float64) bool {
	if math.IsInf(ly, -1) {
		return false
	}
	if math.IsInf(lx, -1) {
		return true
	}
	logRatio := ly - lx
	if logRatio > 0 {
		logRatio = 0
	}
	return math.Log(u) <= logRatio
}

// RandomWalkMH is the reference random-walk Metropolis sampler. The
// current and candidate log-densities are recomputed on every step.
type RandomWalkMH struct {
	baseMH
	cand []float64
}

// NewRandomWalkMH creates a reference sampler. All randomness flows
// from src; seed re-seeds it on Reset.
func NewRandomWalkMH(dist target.Distribution, prop proposal.Sampler, src rand.Source, seed uint64, initial []float64) (s *RandomWalkMH) {
	s = &RandomWalkMH{
		baseMH: newBase(dist, prop, src, seed, initial, 16),
		cand:   make([]float64, len(initial)),
	}
	return
}

// Step performs one accept/reject transition.
func (s *RandomWalkMH) Step() {
	if s.state == Initialized {
		s.state = Running
	}
	x := s.chain.Last()
	s.prop.Propose(s.cand, x)
	// The uniform draw happens on every step to keep the generator
	// consumption identical across sampler variants.
	u := s.rng.Float64()
	lx := finiteLog(s.dist.LogDensity(x))
	ly := finiteLog(s.dist.LogDensity(s.cand))
	if decide(lx, ly, u) {
		s.chain.Append(s.cand)
		s.accepted++
	} else {
		s.chain.Append(x)
	}
}

// Reset restores the initial state.
func (s *RandomWalkMH) Reset() {
	s.reset()
}

// FastRandomWalkMH is the sampler variant for long runs of known
// length. The chain buffer is allocated up front, the candidate
// buffer is reused and the current log-density is cached, so a step
// costs a single density evaluation. It produces bit-identical chains
// to RandomWalkMH.
type FastRandomWalkMH struct {
	baseMH
	cand []float64
	curL float64
}

// NewFastRandomWalkMH creates a preallocating sampler for a run of
// the given number of iterations.
func NewFastRandomWalkMH(dist target.Distribution, prop proposal.Sampler, src rand.Source, seed uint64, initial []float64, iterations int) (s *FastRandomWalkMH) {
	s = &FastRandomWalkMH{
		baseMH: newBase(dist, prop, src, seed, initial, iterations+1),
		cand:   make([]float64, len(initial)),
	}
	s.curL = finiteLog(dist.LogDensity(initial))
	return
}

// Step performs one accept/reject transition using the cached current
// log-density.
func (s *FastRandomWalkMH) Step() {
	if s.state == Initialized {
		s.state = Running
	}
	x := s.chain.Last()
	s.prop.Propose(s.cand, x)
	u := s.rng.Float64()
	ly := finiteLog(s.dist.LogDensity(s.cand))
	if decide(s.curL, ly, u) {
		s.chain.Append(s.cand)
		s.accepted++
		s.curL = ly
	} else {
		s.chain.Append(x)
	}
}

// Reset restores the initial state and the cached log-density.
func (s *FastRandomWalkMH) Reset() {
	s.reset()
	s.curL = finiteLog(s.dist.LogDensity(s.initial))
}
