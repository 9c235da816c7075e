package proposal

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// UniformRadius draws displacements uniformly from a ball of fixed
// radius.
type UniformRadius struct {
	dim    int
	radius float64
	norm   distuv.Normal
	rng    *rand.Rand
}

// NewUniformRadius creates a uniform ball proposal.
func NewUniformRadius(dim int, radius float64, src rand.Source) *UniformRadius {
	return &UniformRadius{
		dim:    dim,
		radius: radius,
		norm:   distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		rng:    rand.New(src),
	}
}

// Name returns the proposal family name.
func (p *UniformRadius) Name() string { return "UniformRadius" }

// Dim returns the displacement dimension.
func (p *UniformRadius) Dim() int { return p.dim }

// Symmetric returns true: the ball displacement density depends on
// the magnitude only.
func (p *UniformRadius) Symmetric() bool { return true }

// Propose writes x plus a displacement drawn uniformly from the ball
// into dst. The direction comes from a normalized Gaussian vector and
// the magnitude from the radial quantile radius*u^(1/dim).
func (p *UniformRadius) Propose(dst, x []float64) {
	n := 0.0
	for n == 0 {
		for i := range dst {
			dst[i] = p.norm.Rand()
		}
		n = floats.Norm(dst, 2)
	}
	r := p.radius * math.Pow(p.rng.Float64(), 1/float64(p.dim))
	floats.Scale(r/n, dst)
	floats.Add(dst, x)
}
