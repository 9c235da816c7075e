package proposal

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Normal draws independent Gaussian displacements for every
// coordinate.
type Normal struct {
	dims []distuv.Normal
}

// NewNormal creates a Gaussian proposal with the given per-coordinate
// displacement variances.
func NewNormal(variances []float64, src rand.Source) (p *Normal) {
	p = &Normal{dims: make([]distuv.Normal, len(variances))}
	for i, v := range variances {
		p.dims[i] = distuv.Normal{Mu: 0, Sigma: math.Sqrt(v), Src: src}
	}
	return
}

// Name returns the proposal family name.
func (p *Normal) Name() string { return "Normal" }

// Dim returns the displacement dimension.
func (p *Normal) Dim() int { return len(p.dims) }

// Symmetric returns true: a zero-mean Gaussian displacement is
// symmetric.
func (p *Normal) Symmetric() bool { return true }

// Propose writes x plus a Gaussian displacement into dst.
func (p *Normal) Propose(dst, x []float64) {
	for i := range p.dims {
		dst[i] = x[i] + p.dims[i].Rand()
	}
}

// Laplace draws independent Laplace displacements for every
// coordinate.
type Laplace struct {
	dims []distuv.Laplace
}

// NewLaplace creates a Laplace proposal whose displacement variances
// equal the given values. The Laplace scale is sqrt(variance/2).
func NewLaplace(variances []float64, src rand.Source) (p *Laplace) {
	p = &Laplace{dims: make([]distuv.Laplace, len(variances))}
	for i, v := range variances {
		p.dims[i] = distuv.Laplace{Mu: 0, Scale: math.Sqrt(v / 2), Src: src}
	}
	return
}

// Name returns the proposal family name.
func (p *Laplace) Name() string { return "Laplace" }

// Dim returns the displacement dimension.
func (p *Laplace) Dim() int { return len(p.dims) }

// Symmetric returns true: a zero-mean Laplace displacement is
// symmetric.
func (p *Laplace) Symmetric() bool { return true }

// Propose writes x plus a Laplace displacement into dst.
func (p *Laplace) Propose(dst, x []float64) {
	for i := range p.dims {
		dst[i] = x[i] + p.dims[i].Rand()
	}
}
