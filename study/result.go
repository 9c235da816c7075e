package study

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Result stores the outcome of one scale sweep.
type Result struct {
	// TargetName is the target distribution name.
	TargetName string `json:"targetName"`
	// ProposalName is the proposal family name.
	ProposalName string `json:"proposalName"`
	// Dimension is the target dimension.
	Dimension int `json:"dimension"`
	// NumIterations is the chain length at every grid point.
	NumIterations int `json:"numIterations"`
	// BurnIn is the number of initial states excluded from ESJD.
	BurnIn int `json:"burnIn"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
	// MaxESJD is the largest expected squared jumping distance over
	// the grid.
	MaxESJD float64 `json:"maxESJD"`
	// MaxAcceptanceRate is the acceptance rate at the ESJD optimum.
	MaxAcceptanceRate float64 `json:"maxAcceptanceRate"`
	// MaxScaleParam is the scale value maximizing ESJD.
	MaxScaleParam float64 `json:"maxScaleParam"`
	// ESJD is the expected squared jumping distance per grid point.
	ESJD []float64 `json:"esjd"`
	// AcceptanceRates is the acceptance rate per grid point.
	AcceptanceRates []float64 `json:"acceptanceRate"`
	// ScaleParams is the scale grid.
	ScaleParams []float64 `json:"scaleParam"`
	// Times is the wall-clock seconds spent per grid point.
	Times []float64 `json:"times"`
}

// runName derives the canonical file stem of a sweep.
func runName(targetName, proposalName string, dim, iters int, seed int64) string {
	return fmt.Sprintf("%s_%s_rwm_dim%d_%diters_seed%d",
		targetName, proposalName, dim, iters, seed)
}

// Filename returns the canonical result file name.
func (r *Result) Filename() string {
	return runName(r.TargetName, r.ProposalName, r.Dimension, r.NumIterations, r.Seed) + ".json"
}

// Save writes the result into dir under the canonical name and
// returns the full path.
func (r *Result) Save(dir string) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, r.Filename())
	if err := os.WriteFile(path, b, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a saved sweep result.
func Load(path string) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := &Result{}
	if err := json.Unmarshal(b, r); err != nil {
		return nil, err
	}
	return r, nil
}
