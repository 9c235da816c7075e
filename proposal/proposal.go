// Package proposal implements the symmetric random-walk proposal
// generators.
package proposal

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Config selects and parametrizes a proposal generator.
type Config struct {
	// Name is the proposal family: Normal, Laplace or UniformRadius.
	Name string
	// Variance is the scalar displacement variance for the Normal and
	// Laplace families.
	Variance float64
	// VarianceVector optionally gives per-coordinate displacement
	// variances; it overrides Variance.
	VarianceVector []float64
	// Radius is the ball radius for the UniformRadius family.
	Radius float64
}

// Sampler draws random-walk candidates.
type Sampler interface {
	// Name returns the proposal family name.
	Name() string
	// Dim returns the displacement dimension.
	Dim() int
	// Symmetric reports whether the proposal density is symmetric
	// under exchanging current state and candidate.
	Symmetric() bool
	// Propose writes a candidate into dst given the current state x.
	Propose(dst, x []float64)
}

// Names lists the known proposal family names.
var Names = []string{"Normal", "Laplace", "UniformRadius"}

// New creates a proposal sampler drawing its randomness from src.
func New(cfg Config, dim int, src rand.Source) (Sampler, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension should be positive, got %d", dim)
	}
	switch cfg.Name {
	case "Normal":
		v, err := varianceVector(cfg, dim)
		if err != nil {
			return nil, err
		}
		return NewNormal(v, src), nil
	case "Laplace":
		v, err := varianceVector(cfg, dim)
		if err != nil {
			return nil, err
		}
		return NewLaplace(v, src), nil
	case "UniformRadius":
		if cfg.Radius <= 0 {
			return nil, fmt.Errorf("radius should be positive, got %v", cfg.Radius)
		}
		return NewUniformRadius(dim, cfg.Radius, src), nil
	}
	return nil, fmt.Errorf("unknown proposal distribution: %s", cfg.Name)
}

// varianceVector resolves the per-coordinate displacement variances
// from a configuration.
func varianceVector(cfg Config, dim int) ([]float64, error) {
	if cfg.VarianceVector != nil {
		if len(cfg.VarianceVector) != dim {
			return nil, fmt.Errorf("variance vector length %d does not match dimension %d",
				len(cfg.VarianceVector), dim)
		}
		v := make([]float64, dim)
		for i, vi := range cfg.VarianceVector {
			if vi <= 0 {
				return nil, fmt.Errorf("variances should be positive, got %v", vi)
			}
			v[i] = vi
		}
		return v, nil
	}
	if cfg.Variance <= 0 {
		return nil, fmt.Errorf("variance should be positive, got %v", cfg.Variance)
	}
	v := make([]float64, dim)
	for i := range v {
		v[i] = cfg.Variance
	}
	return v, nil
}
