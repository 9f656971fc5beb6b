package thermal

import "math"

const (
	// PIDScale is the fixed-point divisor of the PID gains
	PIDScale = 100

	// IntegralResetThreshold is the error magnitude below which the
	// integral is cleared instead of accumulated
	IntegralResetThreshold = 3

	// IntegralLimit bounds the integral term in both directions
	IntegralLimit = math.MaxInt32 / 2

	// FanPowerMin is the lowest power the fan runs reliably at; smaller
	// non-zero outputs turn it off
	FanPowerMin = 10

	// OutputMax is the full fan power
	OutputMax = 100
)

// PID is the accumulator of the discrete fan controller.
type PID struct {
	PrevError int32 `json:"prev_error"`
	Integral  int32 `json:"integral"`
}

// Reset clears the accumulator.
func (p *PID) Reset() {
	p.PrevError = 0
	p.Integral = 0
}

// Step advances the controller with a new temperature reading and returns
// the fan power, always 0 or within [FanPowerMin, OutputMax].
func (p *PID) Step(s Settings, temp int) uint8 {
	e := int64(temp) - int64(s.KeepTemp)

	integral := int64(p.Integral)
	if e > -IntegralResetThreshold && e < IntegralResetThreshold {
		integral = 0
	} else {
		integral += e
	}
	integral = min(max(integral, -IntegralLimit), IntegralLimit)

	derivative := e - int64(p.PrevError)

	p.Integral = int32(integral)
	p.PrevError = int32(min(max(e, math.MinInt32), math.MaxInt32))

	raw := (int64(s.Kp)*e + int64(s.Ki)*integral + int64(s.Kd)*derivative) / PIDScale
	return ShapeOutput(raw)
}

// ShapeOutput clamps a raw controller output to [0, OutputMax] and turns
// values in the (0, FanPowerMin) dead band off.
func ShapeOutput(raw int64) uint8 {
	switch {
	case raw > OutputMax:
		return OutputMax
	case raw < FanPowerMin:
		return 0
	default:
		return uint8(raw)
	}
}
