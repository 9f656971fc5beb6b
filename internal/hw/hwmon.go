package hw

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmylchreest/reeflightd/pkg/thermal"
)

// Hwmon reads a temperature from a hwmon temp*_input attribute, which
// reports millidegrees Celsius.
type Hwmon struct {
	path string
}

// NewHwmon returns a sensor reading path. The path is checked once so a
// misconfiguration is reported at startup; later read failures are
// reported as sensor faults.
func NewHwmon(path string) (*Hwmon, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", thermal.ErrSensorFault, err)
	}
	return &Hwmon{path: path}, nil
}

// ReadTemp returns the temperature in °C, rounded to the nearest degree.
func (h *Hwmon) ReadTemp() (int, error) {
	raw, err := os.ReadFile(h.path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", thermal.ErrSensorFault, err)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", thermal.ErrSensorFault, h.path, err)
	}
	if milli < 0 {
		return (milli - 500) / 1000, nil
	}
	return (milli + 500) / 1000, nil
}

// Path returns the attribute the sensor reads.
func (h *Hwmon) Path() string {
	return h.path
}
