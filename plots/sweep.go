package plots

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/mcmclab/rwmetro/study"
)

// SweepCurves writes the ESJD and acceptance rate curves of a sweep
// result as PNG files into dir and returns their paths.
func SweepCurves(dir string, r *study.Result) (esjdPath, accPath string, err error) {
	if err = checkSeries(r); err != nil {
		return "", "", err
	}
	stem := strings.TrimSuffix(r.Filename(), ".json")

	esjdPath = filepath.Join(dir, "esjd_"+stem+".png")
	if err = sweepCurve(esjdPath,
		fmt.Sprintf("ESJD vs scale, %s (%s)", r.TargetName, r.ProposalName),
		"ESJD", r.ScaleParams, r.ESJD); err != nil {
		return "", "", err
	}

	accPath = filepath.Join(dir, "acceptance_"+stem+".png")
	if err = sweepCurve(accPath,
		fmt.Sprintf("Acceptance rate vs scale, %s (%s)", r.TargetName, r.ProposalName),
		"acceptance rate", r.ScaleParams, r.AcceptanceRates); err != nil {
		return "", "", err
	}
	return esjdPath, accPath, nil
}

// sweepCurve draws one series against the scale grid.
func sweepCurve(path, title, name string, xs, ys []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Scale parameter"
	p.Y.Label.Text = name

	if err := plotutil.AddLinePoints(p, name, xyPairs(xs, ys)); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// checkSeries verifies that all sweep series have the grid length.
func checkSeries(r *study.Result) error {
	n := len(r.ScaleParams)
	if n == 0 || len(r.ESJD) != n || len(r.AcceptanceRates) != n {
		return fmt.Errorf("inconsistent sweep series lengths in %s", r.Filename())
	}
	return nil
}

func xyPairs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}
