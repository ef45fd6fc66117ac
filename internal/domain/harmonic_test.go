package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wave struct {
	name      string
	amplitude float64
	phase     float64 // degrees
}

// synthesize builds hourly sea levels from a mean and constituent waves, with
// equilibrium arguments taken at origin.
func synthesize(t *testing.T, origin time.Time, hours int, mean float64, waves ...wave) TideSeries {
	t.Helper()
	type term struct {
		c     constituent
		v0, f float64
		wave  wave
	}
	terms := make([]term, len(waves))
	for i, w := range waves {
		c, ok := lookupConstituent(w.name)
		require.True(t, ok, w.name)
		v0, f := c.equilibrium(origin)
		terms[i] = term{c: c, v0: v0, f: f, wave: w}
	}
	return hourly("synthetic", origin, hours, func(i int) Level {
		level := mean
		for _, tm := range terms {
			theta := (tm.c.speed()*float64(i) + tm.v0 - tm.wave.phase) * math.Pi / 180
			level += tm.f * tm.wave.amplitude * math.Cos(theta)
		}
		return Meters(level)
	})
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b+540, 360) - 180
	return math.Abs(d)
}

func TestHarmonics_RecoversConstituents(t *testing.T) {
	origin := utc(1946, time.January, 1, 0)
	s := synthesize(t, origin, 24*60, 3.0,
		wave{"M2", 1.20, 120},
		wave{"S2", 0.40, 200},
		wave{"K1", 0.12, 35},
	)

	res, err := Harmonics(s, []string{"M2", "S2", "K1"}, origin)
	require.NoError(t, err)

	assert.Equal(t, []string{"M2", "S2", "K1"}, res.Constituents)
	require.Len(t, res.Amplitudes, 3)
	require.Len(t, res.Phases, 3)
	assert.InDelta(t, 3.0, res.Mean, 1e-6)
	assert.InDelta(t, 1.20, res.Amplitudes[0], 1e-6)
	assert.InDelta(t, 0.40, res.Amplitudes[1], 1e-6)
	assert.InDelta(t, 0.12, res.Amplitudes[2], 1e-6)
	assert.InDelta(t, 0, angleDiff(120, res.Phases[0]), 1e-4)
	assert.InDelta(t, 0, angleDiff(200, res.Phases[1]), 1e-4)
	assert.InDelta(t, 0, angleDiff(35, res.Phases[2]), 1e-3)

	for _, p := range res.Phases {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.Less(t, p, 360.0)
	}
}

func TestHarmonics_OrderFollowsRequest(t *testing.T) {
	origin := utc(1946, time.January, 1, 0)
	s := synthesize(t, origin, 24*30, 0, wave{"M2", 1.0, 10}, wave{"S2", 0.3, 50})

	res, err := Harmonics(s, []string{"s2", "m2"}, origin)
	require.NoError(t, err)

	assert.Equal(t, []string{"S2", "M2"}, res.Constituents)
	assert.InDelta(t, 0.3, res.Amplitudes[0], 1e-6)
	assert.InDelta(t, 1.0, res.Amplitudes[1], 1e-6)

	amp, ok := res.Amplitude("M2")
	assert.True(t, ok)
	assert.InDelta(t, 1.0, amp, 1e-6)
	_, ok = res.Phase("K1")
	assert.False(t, ok)
}

func TestHarmonics_PhaseIndependentOfStart(t *testing.T) {
	origin := utc(1946, time.January, 1, 0)
	s := synthesize(t, origin, 24*30, 0, wave{"M2", 1.0, 75})

	a, err := Harmonics(s, []string{"M2"}, origin)
	require.NoError(t, err)
	b, err := Harmonics(s, []string{"M2"}, origin.Add(36*time.Hour))
	require.NoError(t, err)

	assert.InDelta(t, a.Amplitudes[0], b.Amplitudes[0], 1e-3)
	assert.InDelta(t, 0, angleDiff(a.Phases[0], b.Phases[0]), 0.1)
}

func TestHarmonics_TimezoneNormalization(t *testing.T) {
	origin := utc(1946, time.January, 1, 0)
	s := synthesize(t, origin, 24*20, 1, wave{"M2", 0.8, 300}, wave{"S2", 0.2, 10})

	zone := time.FixedZone("EST", -5*60*60)
	zoned := s.Clone()
	for i := range zoned.Records {
		zoned.Records[i].Time = zoned.Records[i].Time.In(zone)
	}

	want, err := Harmonics(s, []string{"M2", "S2"}, origin)
	require.NoError(t, err)
	got, err := Harmonics(zoned, []string{"M2", "S2"}, origin.In(zone))
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestHarmonics_IgnoresMissing(t *testing.T) {
	origin := utc(1946, time.January, 1, 0)
	full := synthesize(t, origin, 24*30, 2, wave{"M2", 1.0, 45})
	gappy := full.Clone()
	for i := range gappy.Records {
		if i%4 == 0 {
			gappy.Records[i].SeaLevel = Level{}
		}
	}

	res, err := Harmonics(gappy, []string{"M2"}, origin)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Amplitudes[0], 1e-6)
	assert.InDelta(t, 2.0, res.Mean, 1e-6)
}

func TestHarmonics_Predict(t *testing.T) {
	origin := utc(1946, time.January, 1, 0)
	s := synthesize(t, origin, 24*30, 3, wave{"M2", 1.1, 140}, wave{"S2", 0.35, 190})

	res, err := Harmonics(s, []string{"M2", "S2"}, origin)
	require.NoError(t, err)

	for _, i := range []int{0, 17, 301, 719} {
		r := s.Records[i]
		assert.InDelta(t, r.SeaLevel.Meters, res.Predict(r.Time), 1e-6)
	}
}

func TestHarmonics_Errors(t *testing.T) {
	origin := utc(1946, time.January, 1, 0)

	t.Run("unknown constituent", func(t *testing.T) {
		s := hourly("x", origin, 100, constant(1))
		_, err := Harmonics(s, []string{"M2", "XYZ"}, origin)

		var cnf *ConstituentNotFoundError
		require.ErrorAs(t, err, &cnf)
		assert.Equal(t, "XYZ", cnf.Name)
		assert.Contains(t, cnf.Available, "M2")
		assert.Contains(t, cnf.Available, "S2")
		assert.True(t, isSortedStrings(cnf.Available))
		assert.Contains(t, err.Error(), "XYZ")
	})

	t.Run("too few observations", func(t *testing.T) {
		s := hourly("x", origin, 4, constant(1))
		_, err := Harmonics(s, []string{"M2", "S2"}, origin)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("all missing", func(t *testing.T) {
		s := hourly("x", origin, 100, func(int) Level { return Level{} })
		_, err := Harmonics(s, []string{"M2"}, origin)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestConstituentSpeeds(t *testing.T) {
	tests := map[string]float64{
		"M2":  28.9841042,
		"S2":  30.0000000,
		"N2":  28.4397295,
		"K2":  30.0821373,
		"K1":  15.0410686,
		"O1":  13.9430356,
		"P1":  14.9589314,
		"Q1":  13.3986609,
		"M4":  57.9682084,
		"MS4": 58.9841042,
		"Mf":  1.0980331,
		"Sa":  0.0410686,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			c, ok := lookupConstituent(name)
			require.True(t, ok)
			assert.InDelta(t, want, c.speed(), 1e-6)
		})
	}
}

func TestAstronomicalArguments_J2000(t *testing.T) {
	args, node := astronomicalArguments(time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC))

	assert.InDelta(t, 218.3164477, args[1], 1e-6)
	assert.InDelta(t, 280.46646, args[2], 1e-6)
	assert.InDelta(t, 83.3532465, args[3], 1e-6)
	assert.InDelta(t, 125.04452, node, 1e-6)
	assert.InDelta(t, normalizeDegrees(15*12+180+280.46646-218.3164477), args[0], 1e-6)
}

func isSortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return false
		}
	}
	return true
}
