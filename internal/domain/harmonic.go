package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
)

// HarmonicResult holds the fitted constituents, positionally aligned with the
// requested names. Amplitudes are in meters; phases are Greenwich phase lags
// in degrees within [0, 360).
type HarmonicResult struct {
	Start        time.Time `json:"start"`
	Constituents []string  `json:"constituents"`
	Amplitudes   []float64 `json:"amplitudes"`
	Phases       []float64 `json:"phases"`
	Mean         float64   `json:"mean"`
}

// Amplitude returns the amplitude of the named constituent.
func (h HarmonicResult) Amplitude(name string) (float64, bool) {
	i := h.index(name)
	if i < 0 {
		return 0, false
	}
	return h.Amplitudes[i], true
}

// Phase returns the phase of the named constituent.
func (h HarmonicResult) Phase(name string) (float64, bool) {
	i := h.index(name)
	if i < 0 {
		return 0, false
	}
	return h.Phases[i], true
}

func (h HarmonicResult) index(name string) int {
	for i, c := range h.Constituents {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Predict evaluates the fitted tide at t.
func (h HarmonicResult) Predict(t time.Time) float64 {
	hours := t.UTC().Sub(h.Start).Hours()
	level := h.Mean
	for i, name := range h.Constituents {
		c, ok := lookupConstituent(name)
		if !ok {
			continue
		}
		v0, f := c.equilibrium(h.Start)
		theta := (c.speed()*hours + v0 - h.Phases[i]) * math.Pi / 180
		level += f * h.Amplitudes[i] * math.Cos(theta)
	}
	return level
}

// Harmonics fits a mean level plus one sinusoid per named constituent to the
// valid sea levels by least squares. Time is measured from start; both the
// records and start are compared on the UTC timeline, so zoned and UTC inputs
// describing the same instants give the same result. Equilibrium arguments and
// nodal corrections are taken at start.
//
// Names are matched case-insensitively. An unknown name yields a
// *ConstituentNotFoundError. Too few valid observations or a singular design
// yields an error wrapping ErrInsufficientData.
func Harmonics(s TideSeries, names []string, start time.Time) (HarmonicResult, error) {
	cons, err := resolveConstituents(names)
	if err != nil {
		return HarmonicResult{}, err
	}

	start = start.UTC()
	valid := s.DropMissing()
	n := len(valid.Records)
	cols := 1 + 2*len(cons)
	if n < cols {
		return HarmonicResult{}, fmt.Errorf("%d observations for %d unknowns: %w", n, cols, ErrInsufficientData)
	}

	type term struct {
		speed, v0, f float64
	}
	terms := make([]term, len(cons))
	for j, c := range cons {
		v0, f := c.equilibrium(start)
		terms[j] = term{speed: c.speed(), v0: v0, f: f}
	}

	design := mat.NewDense(n, cols, nil)
	obs := mat.NewVecDense(n, nil)
	for i, r := range valid.Records {
		hours := r.Time.UTC().Sub(start).Hours()
		design.Set(i, 0, 1)
		for j, tm := range terms {
			theta := (tm.speed*hours + tm.v0) * math.Pi / 180
			design.Set(i, 1+2*j, tm.f*math.Cos(theta))
			design.Set(i, 2+2*j, tm.f*math.Sin(theta))
		}
		obs.SetVec(i, r.SeaLevel.Meters)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, obs); err != nil {
		return HarmonicResult{}, fmt.Errorf("solve harmonic fit: %v: %w", err, ErrInsufficientData)
	}

	res := HarmonicResult{
		Start:        start,
		Constituents: make([]string, len(cons)),
		Amplitudes:   make([]float64, len(cons)),
		Phases:       make([]float64, len(cons)),
		Mean:         coef.AtVec(0),
	}
	for j, c := range cons {
		a, b := coef.AtVec(1+2*j), coef.AtVec(2+2*j)
		res.Constituents[j] = c.name
		res.Amplitudes[j] = math.Hypot(a, b)
		res.Phases[j] = normalizeDegrees(math.Atan2(b, a) * 180 / math.Pi)
	}
	return res, nil
}
