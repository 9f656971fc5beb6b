package led

import (
	"math"
	"strings"

	"github.com/jmylchreest/reeflightd/internal/errors"
)

// Curve names a perceptual correction curve.
type Curve string

const (
	CurveCIE1931     Curve = "cie1931"
	CurveGamma       Curve = "gamma"
	CurveLogarithmic Curve = "log"
	CurveExponential Curve = "exp"
	CurveLinear      Curve = "linear"
)

// DefaultCurve is the correction curve used when none is configured.
const DefaultCurve = CurveCIE1931

const gammaExponent = 2.2

// Curves lists every supported curve name.
func Curves() []Curve {
	return []Curve{CurveCIE1931, CurveGamma, CurveLogarithmic, CurveExponential, CurveLinear}
}

// ParseCurve returns the curve named s, case-insensitively.
func ParseCurve(s string) (Curve, error) {
	c := Curve(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Curves() {
		if c == known {
			return c, nil
		}
	}
	return "", errors.InvalidInputf("unknown correction curve %q", s)
}

// Corrector maps power percentages to hardware duties through a
// precomputed 101-entry lookup table.
type Corrector struct {
	curve   Curve
	dutyMax uint16
	table   [MaxPower + 1]uint16
}

// NewCorrector builds the lookup table for curve at full scale dutyMax.
// The table is monotonic non-decreasing with 0 -> 0 and 100 -> dutyMax.
func NewCorrector(curve Curve, dutyMax uint16) (*Corrector, error) {
	if dutyMax == 0 {
		return nil, errors.InvalidInputf("duty max must be positive")
	}
	fn, err := curveFunc(curve, dutyMax)
	if err != nil {
		return nil, err
	}

	c := &Corrector{curve: curve, dutyMax: dutyMax}
	full := float64(dutyMax)
	for p := 1; p < MaxPower; p++ {
		v := math.Round(fn(float64(p)/MaxPower) * full)
		v = math.Max(0, math.Min(v, full))
		duty := uint16(v)
		if duty < c.table[p-1] {
			duty = c.table[p-1]
		}
		c.table[p] = duty
	}
	c.table[0] = 0
	c.table[MaxPower] = dutyMax
	return c, nil
}

// curveFunc returns the normalized transfer function of curve: [0,1] -> [0,1].
func curveFunc(curve Curve, dutyMax uint16) (func(x float64) float64, error) {
	switch curve {
	case CurveCIE1931:
		return cie1931, nil
	case CurveGamma:
		return func(x float64) float64 { return math.Pow(x, gammaExponent) }, nil
	case CurveLogarithmic:
		return func(x float64) float64 { return math.Pow(math.Log(1+x*(math.E-1)), gammaExponent) }, nil
	case CurveExponential:
		// 2^(i/R) reaches dutyMax at full scale; divide back to [0,1]
		full := float64(dutyMax)
		if full <= 1 {
			return func(x float64) float64 { return x }, nil
		}
		r := MaxPower * math.Log10(2) / math.Log10(full)
		return func(x float64) float64 { return math.Pow(2, x*MaxPower/r) / full }, nil
	case CurveLinear:
		return func(x float64) float64 { return x }, nil
	default:
		return nil, errors.InvalidInputf("unknown correction curve %q", string(curve))
	}
}

// cie1931 converts a lightness fraction into a relative luminance fraction.
func cie1931(x float64) float64 {
	l := x * 100
	var y float64
	if l <= 8 {
		y = l / 903.3
	} else {
		y = math.Pow((l+16)/116, 3)
	}
	return y / math.Pow((100.0+16)/116, 3)
}

// Curve returns the curve the table was built for.
func (c *Corrector) Curve() Curve {
	return c.curve
}

// DutyMax returns the full-scale duty.
func (c *Corrector) DutyMax() uint16 {
	return c.dutyMax
}

// Correct maps a single power percentage to a duty. Values above MaxPower
// saturate.
func (c *Corrector) Correct(p uint8) uint16 {
	if p > MaxPower {
		p = MaxPower
	}
	return c.table[p]
}

// Apply maps every channel of color to duties.
func (c *Corrector) Apply(color Color) Duties {
	out := make(Duties, len(color))
	for i, p := range color {
		out[i] = c.Correct(p)
	}
	return out
}
