// Package plots renders chain diagnostics and sweep curves. PNG
// output goes through gonum/plot, interactive HTML reports through
// go-echarts.
package plots

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/mcmclab/rwmetro/mcmc"
	"bitbucket.org/mcmclab/rwmetro/target"
)

// densityFloor replaces non-finite density evaluations on plot grids.
const densityFloor = 1e-10

// Traceplot draws post burn-in traces of the first chain coordinates,
// at most maxDims of them. A nonpositive maxDims plots every
// coordinate.
func Traceplot(path string, chain *mcmc.Chain, burnIn, maxDims int) error {
	if chain == nil || chain.Len() == 0 {
		return fmt.Errorf("cannot plot an empty chain")
	}
	nd := chain.Dim()
	if maxDims > 0 && nd > maxDims {
		nd = maxDims
	}
	start := suffixStart(chain, burnIn)

	p := plot.New()
	p.Title.Text = "Traceplot"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Value"

	args := make([]interface{}, 0, 2*nd)
	for d := 0; d < nd; d++ {
		pts := make(plotter.XYs, chain.Len()-start)
		for i := start; i < chain.Len(); i++ {
			pts[i-start].X = float64(i)
			pts[i-start].Y = chain.At(i)[d]
		}
		args = append(args, fmt.Sprintf("dimension %d", d+1), pts)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}
	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// Histogram draws a normalized histogram of one chain coordinate. A
// non-nil dist overlays the target density along that coordinate with
// the remaining coordinates frozen at the post burn-in chain mean.
func Histogram(path string, chain *mcmc.Chain, burnIn, axis int, dist target.Distribution) error {
	if chain == nil || chain.Len() == 0 {
		return fmt.Errorf("cannot plot an empty chain")
	}
	if axis < 0 || axis >= chain.Dim() {
		return fmt.Errorf("axis %d out of range for dimension %d", axis, chain.Dim())
	}
	start := suffixStart(chain, burnIn)

	vals := make(plotter.Values, chain.Len()-start)
	for i := start; i < chain.Len(); i++ {
		vals[i-start] = chain.At(i)[axis]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Histogram of dimension %d", axis+1)
	p.X.Label.Text = fmt.Sprintf("Dimension %d", axis+1)
	p.Y.Label.Text = "Density"

	h, err := plotter.NewHist(vals, 50)
	if err != nil {
		return err
	}
	h.Normalize(1)
	p.Add(h)

	if dist != nil {
		f := densityCurve(chain, start, axis, dist)
		p.Add(f)
		p.Legend.Add("target density", f)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// DensityMap draws the target density over the first two coordinates
// as a heat map, overlaid with a thinned subsample of the post
// burn-in chain. The grid covers the chain bounding box with 2%
// padding; remaining coordinates are frozen at the chain mean. A nil
// dist falls back to a flat density.
func DensityMap(path string, chain *mcmc.Chain, burnIn int, dist target.Distribution) error {
	if chain == nil || chain.Len() == 0 {
		return fmt.Errorf("cannot plot an empty chain")
	}
	if chain.Dim() < 2 {
		return fmt.Errorf("density map needs at least two dimensions, got %d", chain.Dim())
	}
	start := suffixStart(chain, burnIn)

	xmin, xmax := columnSpan(chain, start, 0)
	ymin, ymax := columnSpan(chain, start, 1)
	xmin, xmax = pad(xmin, xmax)
	ymin, ymax = pad(ymin, ymax)

	const gridN = 100
	xs := floats.Span(make([]float64, gridN), xmin, xmax)
	ys := floats.Span(make([]float64, gridN), ymin, ymax)

	point := chainMean(chain, start)
	z := mat.NewDense(gridN, gridN, nil)
	buf := make([]float64, chain.Dim())
	for r, y := range ys {
		for c, x := range xs {
			copy(buf, point)
			buf[0], buf[1] = x, y
			d := 1.0
			if dist != nil {
				d = target.Density(dist, buf)
				if math.IsNaN(d) || math.IsInf(d, 0) {
					d = densityFloor
				}
			}
			z.Set(r, c, d)
		}
	}

	p := plot.New()
	p.Title.Text = "Target density with chain samples"
	p.X.Label.Text = "Dimension 1"
	p.Y.Label.Text = "Dimension 2"
	p.Add(plotter.NewHeatMap(densityGrid{xs: xs, ys: ys, z: z}, palette.Heat(16, 1)))

	s, err := plotter.NewScatter(thinned(chain, start, 200))
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = color.RGBA{R: 196, B: 30, A: 255}
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(s)

	return p.Save(7*vg.Inch, 6*vg.Inch, path)
}

// densityGrid adapts a dense density matrix to the heat map plotter.
type densityGrid struct {
	xs, ys []float64
	z      *mat.Dense
}

func (g densityGrid) Dims() (int, int) { return len(g.xs), len(g.ys) }
func (g densityGrid) Z(c, r int) float64 {
	return g.z.At(r, c)
}
func (g densityGrid) X(c int) float64 { return g.xs[c] }
func (g densityGrid) Y(r int) float64 { return g.ys[r] }

// suffixStart returns the index of the first post burn-in state. A
// burn-in exceeding the chain keeps the whole chain, matching the
// visualization behavior of the original experiments.
func suffixStart(chain *mcmc.Chain, burnIn int) int {
	if burnIn > 0 && burnIn < chain.Len() {
		return burnIn
	}
	return 0
}

// chainMean returns the per-coordinate mean over states from start.
func chainMean(chain *mcmc.Chain, start int) []float64 {
	mean := make([]float64, chain.Dim())
	for i := start; i < chain.Len(); i++ {
		floats.Add(mean, chain.At(i))
	}
	floats.Scale(1/float64(chain.Len()-start), mean)
	return mean
}

// columnSpan returns the minimum and maximum of one coordinate over
// states from start.
func columnSpan(chain *mcmc.Chain, start, axis int) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for i := start; i < chain.Len(); i++ {
		v := chain.At(i)[axis]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// pad widens a range by 2% on each side, or by a fixed margin when
// the range collapses to a point.
func pad(min, max float64) (float64, float64) {
	if min == max {
		return min - 0.5, max + 0.5
	}
	d := 0.02 * (max - min)
	return min - d, max + d
}

// thinned returns at most m chain states evenly spread over the post
// burn-in suffix, projected on the first two coordinates.
func thinned(chain *mcmc.Chain, start, m int) plotter.XYs {
	n := chain.Len() - start
	if m > n {
		m = n
	}
	pts := make(plotter.XYs, m)
	for k := 0; k < m; k++ {
		i := start
		if m > 1 {
			i = start + k*(n-1)/(m-1)
		}
		pts[k].X = chain.At(i)[0]
		pts[k].Y = chain.At(i)[1]
	}
	return pts
}

// densityCurve builds the normalized target density along one
// coordinate, the remaining coordinates frozen at the post burn-in
// chain mean.
func densityCurve(chain *mcmc.Chain, start, axis int, dist target.Distribution) *plotter.Function {
	lo, hi := columnSpan(chain, start, axis)
	point := chainMean(chain, start)

	// Normalize numerically over the plotted range.
	const n = 512
	step := (hi - lo) / float64(n-1)
	x := make([]float64, chain.Dim())
	sum := 0.0
	var first, last float64
	for i := 0; i < n; i++ {
		copy(x, point)
		x[axis] = lo + float64(i)*step
		d := finiteDensity(dist, x)
		sum += d
		if i == 0 {
			first = d
		}
		if i == n-1 {
			last = d
		}
	}
	norm := (sum - 0.5*(first+last)) * step

	f := plotter.NewFunction(func(t float64) float64 {
		if norm <= 0 {
			return 0
		}
		xx := make([]float64, len(point))
		copy(xx, point)
		xx[axis] = t
		return finiteDensity(dist, xx) / norm
	})
	f.Samples = 300
	f.Color = color.RGBA{R: 196, B: 30, A: 255}
	return f
}

// finiteDensity evaluates the density, mapping non-finite values to
// zero.
func finiteDensity(dist target.Distribution, x []float64) float64 {
	d := target.Density(dist, x)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}
