package views

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/nfhs-dash/internal/normalize"
)

// Point is one sub-region in the indicator-vs-indicator comparison. A nil
// coordinate means the value was not reported.
type Point struct {
	Region    string   `json:"region"`
	SubRegion string   `json:"sub_region"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
}

// Fit is an ordinary least squares line y = Intercept + Slope*x
type Fit struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"r_squared"`
	N         int     `json:"n"`
}

// RoundScatter is the comparison for one round
type RoundScatter struct {
	Round      string   `json:"round"`
	Label      string   `json:"label"`
	Points     []Point  `json:"points"`
	XMean      *float64 `json:"x_mean,omitempty"`
	YMean      *float64 `json:"y_mean,omitempty"`
	XAbsent    bool     `json:"x_absent"`
	YAbsent    bool     `json:"y_absent"`
	Suppressed bool     `json:"suppressed"`
	Fit        *Fit     `json:"fit,omitempty"`
	Empty      bool     `json:"empty"`
}

// ScatterView compares two indicators across the configured rounds.
// XRange and YRange are shared by the rounds.
type ScatterView struct {
	Regions []string       `json:"regions"`
	X       string         `json:"x"`
	Y       string         `json:"y"`
	XRange  Range          `json:"x_range"`
	YRange  Range          `json:"y_range"`
	Rounds  []RoundScatter `json:"rounds"`
	Empty   bool           `json:"empty"`
}

// Scatter pivots indicators x and y per (region, sub-region) for the given
// raw regions. A round where either indicator is entirely unreported is
// suppressed.
func (b *Builder) Scatter(regions []string, x, y string) ScatterView {
	view := ScatterView{Regions: regions, X: x, Y: y, Empty: true}
	if len(regions) == 0 {
		return view
	}

	want := make(map[string]bool, len(regions))
	for _, r := range regions {
		want[normalize.Key(r)] = true
	}

	var xs, ys []float64
	for _, round := range b.cfg.Rounds {
		rs := b.scatterRound(round, want, x, y)
		if !rs.Empty {
			view.Empty = false
		}
		for _, p := range rs.Points {
			if p.X != nil {
				xs = append(xs, *p.X)
			}
			if p.Y != nil {
				ys = append(ys, *p.Y)
			}
		}
		view.Rounds = append(view.Rounds, rs)
	}

	view.XRange = b.axisRange(xs)
	view.YRange = b.axisRange(ys)
	return view
}

func (b *Builder) scatterRound(round Round, regions map[string]bool, x, y string) RoundScatter {
	rs := RoundScatter{Round: round.ID, Label: round.Label}

	type pair struct{ region, sub string }
	index := make(map[pair]int)

	for _, o := range b.obs {
		if o.Round != round.ID || (o.Indicator != x && o.Indicator != y) || !regions[normalize.Key(o.Region)] {
			continue
		}
		k := pair{o.Region, o.SubRegion}
		i, ok := index[k]
		if !ok {
			i = len(rs.Points)
			index[k] = i
			rs.Points = append(rs.Points, Point{Region: o.Region, SubRegion: o.SubRegion})
		}
		if o.Missing {
			continue
		}
		v := o.Value
		if o.Indicator == x {
			rs.Points[i].X = &v
		}
		if o.Indicator == y {
			rs.Points[i].Y = &v
		}
	}

	rs.Empty = len(rs.Points) == 0

	var px, py, fx, fy []float64
	for _, p := range rs.Points {
		if p.X != nil {
			px = append(px, *p.X)
		}
		if p.Y != nil {
			py = append(py, *p.Y)
		}
		if p.X != nil && p.Y != nil {
			fx = append(fx, *p.X)
			fy = append(fy, *p.Y)
		}
	}

	rs.XAbsent = len(px) == 0
	rs.YAbsent = len(py) == 0
	rs.Suppressed = rs.XAbsent || rs.YAbsent
	if !rs.XAbsent {
		m := stat.Mean(px, nil)
		rs.XMean = &m
	}
	if !rs.YAbsent {
		m := stat.Mean(py, nil)
		rs.YMean = &m
	}

	if !rs.Suppressed {
		rs.Fit = olsFit(fx, fy)
	}
	return rs
}

// olsFit returns nil when the fit is undefined: fewer than two points or
// no variance in x
func olsFit(xs, ys []float64) *Fit {
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return nil
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	if math.IsNaN(r2) {
		// constant y is perfectly explained by a flat line
		r2 = 1
	}
	return &Fit{Intercept: alpha, Slope: beta, RSquared: r2, N: len(xs)}
}

// axisRange scales the extremes by the configured margins
func (b *Builder) axisRange(vs []float64) Range {
	if len(vs) == 0 {
		return Range{}
	}
	return Range{
		Min:   floats.Min(vs) * b.cfg.AxisLow,
		Max:   floats.Max(vs) * b.cfg.AxisHigh,
		Valid: true,
	}
}
