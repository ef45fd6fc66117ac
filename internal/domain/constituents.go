package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Rates of the astronomical arguments in degrees per mean solar hour:
// mean lunar time, mean longitudes of moon and sun, lunar perigee, negative
// lunar node, and solar perigee.
var argumentRates = [6]float64{
	14.4920521070,
	0.5490165320,
	0.0410686388,
	0.0046418336,
	0.0022064139,
	0.0000019612,
}

// nodalFunc returns the amplitude factor f and phase correction u (degrees)
// for a longitude of the lunar node given in radians.
type nodalFunc func(node float64) (f, u float64)

type constituent struct {
	name    string
	doodson [6]int
	offset  float64 // degrees
	nodal   nodalFunc
}

// speed returns the angular speed in degrees per hour.
func (c constituent) speed() float64 {
	var w float64
	for i, d := range c.doodson {
		w += float64(d) * argumentRates[i]
	}
	return w
}

// equilibrium returns V0+u in degrees and f at time t.
func (c constituent) equilibrium(t time.Time) (arg, f float64) {
	args, node := astronomicalArguments(t)
	for i, d := range c.doodson {
		arg += float64(d) * args[i]
	}
	f, u := c.nodal(node * math.Pi / 180)
	return math.Mod(arg+c.offset+u, 360), f
}

var constituents = []constituent{
	{"Sa", [6]int{0, 0, 1, 0, 0, 0}, 0, unity},
	{"Ssa", [6]int{0, 0, 2, 0, 0, 0}, 0, unity},
	{"Mm", [6]int{0, 1, 0, -1, 0, 0}, 0, nodalMm},
	{"Msf", [6]int{0, 2, -2, 0, 0, 0}, 0, inverse(nodalM2)},
	{"Mf", [6]int{0, 2, 0, 0, 0, 0}, 0, nodalMf},
	{"Q1", [6]int{1, -2, 0, 1, 0, 0}, -90, nodalO1},
	{"O1", [6]int{1, -1, 0, 0, 0, 0}, -90, nodalO1},
	{"P1", [6]int{1, 1, -2, 0, 0, 0}, -90, unity},
	{"K1", [6]int{1, 1, 0, 0, 0, 0}, 90, nodalK1},
	{"J1", [6]int{1, 2, 0, -1, 0, 0}, 90, nodalJ1},
	{"OO1", [6]int{1, 3, 0, 0, 0, 0}, 90, nodalOO1},
	{"2N2", [6]int{2, -2, 0, 2, 0, 0}, 0, nodalM2},
	{"MU2", [6]int{2, -2, 2, 0, 0, 0}, 0, nodalM2},
	{"N2", [6]int{2, -1, 0, 1, 0, 0}, 0, nodalM2},
	{"NU2", [6]int{2, -1, 2, -1, 0, 0}, 0, nodalM2},
	{"M2", [6]int{2, 0, 0, 0, 0, 0}, 0, nodalM2},
	{"L2", [6]int{2, 1, 0, -1, 0, 0}, 180, nodalM2},
	{"T2", [6]int{2, 2, -3, 0, 0, 1}, 0, unity},
	{"S2", [6]int{2, 2, -2, 0, 0, 0}, 0, unity},
	{"K2", [6]int{2, 2, 0, 0, 0, 0}, 0, nodalK2},
	{"M3", [6]int{3, 0, 0, 0, 0, 0}, 180, power(nodalM2, 1.5)},
	{"MK3", [6]int{3, 1, 0, 0, 0, 0}, 90, product(nodalM2, nodalK1)},
	{"MN4", [6]int{4, -1, 0, 1, 0, 0}, 0, power(nodalM2, 2)},
	{"M4", [6]int{4, 0, 0, 0, 0, 0}, 0, power(nodalM2, 2)},
	{"MS4", [6]int{4, 2, -2, 0, 0, 0}, 0, nodalM2},
	{"S4", [6]int{4, 4, -4, 0, 0, 0}, 0, unity},
	{"M6", [6]int{6, 0, 0, 0, 0, 0}, 0, power(nodalM2, 3)},
	{"M8", [6]int{8, 0, 0, 0, 0, 0}, 0, power(nodalM2, 4)},
}

// lookupConstituent matches names case-insensitively.
func lookupConstituent(name string) (constituent, bool) {
	for _, c := range constituents {
		if strings.EqualFold(c.name, name) {
			return c, true
		}
	}
	return constituent{}, false
}

// ConstituentNames returns the supported constituent names in table order.
func ConstituentNames() []string {
	names := make([]string, len(constituents))
	for i, c := range constituents {
		names[i] = c.name
	}
	return names
}

// resolveConstituents maps names to table entries, failing on the first
// unknown name.
func resolveConstituents(names []string) ([]constituent, error) {
	out := make([]constituent, 0, len(names))
	for _, name := range names {
		c, ok := lookupConstituent(name)
		if !ok {
			return nil, &ConstituentNotFoundError{Name: name, Available: slices.Sorted(slices.Values(ConstituentNames()))}
		}
		out = append(out, c)
	}
	return out, nil
}

// astronomicalArguments returns the six Doodson arguments in degrees at t and
// the longitude of the lunar node in degrees.
func astronomicalArguments(t time.Time) (args [6]float64, node float64) {
	t = t.UTC()
	jd := float64(t.Unix())/86400 + 2440587.5
	T := (jd - 2451545.0) / 36525

	s := 218.3164477 + 481267.88123421*T
	h := 280.46646 + 36000.76983*T
	p := 83.3532465 + 4069.0137287*T
	node = 125.04452 - 1934.136261*T
	p1 := 282.93735 + 1.71946*T

	hours := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	tau := 15*hours + 180 + h - s

	args = [6]float64{tau, s, h, p, -node, p1}
	for i := range args {
		args[i] = normalizeDegrees(args[i])
	}
	return args, normalizeDegrees(node)
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Nodal corrections after Schureman, as tabulated by the IHO.

func unity(float64) (float64, float64) { return 1, 0 }

func nodalM2(n float64) (float64, float64) {
	return 1.0004 - 0.0373*math.Cos(n) + 0.0002*math.Cos(2*n),
		-2.14 * math.Sin(n)
}

func nodalK1(n float64) (float64, float64) {
	return 1.0060 + 0.1150*math.Cos(n) - 0.0088*math.Cos(2*n) + 0.0006*math.Cos(3*n),
		-8.86*math.Sin(n) + 0.68*math.Sin(2*n) - 0.07*math.Sin(3*n)
}

func nodalO1(n float64) (float64, float64) {
	return 1.0089 + 0.1871*math.Cos(n) - 0.0147*math.Cos(2*n) + 0.0014*math.Cos(3*n),
		10.80*math.Sin(n) - 1.34*math.Sin(2*n) + 0.19*math.Sin(3*n)
}

func nodalK2(n float64) (float64, float64) {
	return 1.0241 + 0.2863*math.Cos(n) + 0.0083*math.Cos(2*n) - 0.0015*math.Cos(3*n),
		-17.74*math.Sin(n) + 0.68*math.Sin(2*n) - 0.04*math.Sin(3*n)
}

func nodalJ1(n float64) (float64, float64) {
	return 1.0129 + 0.1676*math.Cos(n) - 0.0170*math.Cos(2*n) + 0.0016*math.Cos(3*n),
		-12.94*math.Sin(n) + 1.34*math.Sin(2*n) - 0.19*math.Sin(3*n)
}

func nodalOO1(n float64) (float64, float64) {
	return 1.1027 + 0.6504*math.Cos(n) + 0.0317*math.Cos(2*n) - 0.0014*math.Cos(3*n),
		-36.68*math.Sin(n) + 4.02*math.Sin(2*n) - 0.57*math.Sin(3*n)
}

func nodalMf(n float64) (float64, float64) {
	return 1.0429 + 0.4135*math.Cos(n) - 0.004*math.Cos(2*n),
		-23.74*math.Sin(n) + 2.68*math.Sin(2*n) - 0.38*math.Sin(3*n)
}

func nodalMm(n float64) (float64, float64) {
	return 1.0 - 0.1300*math.Cos(n) + 0.0013*math.Cos(2*n), 0
}

func power(fn nodalFunc, k float64) nodalFunc {
	return func(n float64) (float64, float64) {
		f, u := fn(n)
		return math.Pow(f, k), k * u
	}
}

func product(a, b nodalFunc) nodalFunc {
	return func(n float64) (float64, float64) {
		fa, ua := a(n)
		fb, ub := b(n)
		return fa * fb, ua + ub
	}
}

func inverse(fn nodalFunc) nodalFunc {
	return func(n float64) (float64, float64) {
		f, u := fn(n)
		return f, -u
	}
}
