// Package hw provides the hardware collaborators of the controllers: LED
// duty outputs, temperature sensors and fans, backed either by sysfs or by
// an in-memory simulated board.
package hw

import (
	"log/slog"

	"github.com/jmylchreest/reeflightd/internal/config"
	"github.com/jmylchreest/reeflightd/pkg/led"
	"github.com/jmylchreest/reeflightd/pkg/thermal"
)

// Board bundles the hardware the daemon drives.
type Board struct {
	Duties led.DutyWriter
	Sensor thermal.Sensor
	Fan    thermal.Fan

	// Sim is set when any part of the board is simulated.
	Sim *SimBoard
}

// New builds the board described by cfg. Drivers that cannot be opened
// fall back to the simulated board so the daemon keeps running; the
// fallback is logged.
func New(logger *slog.Logger, cfg *config.Config) *Board {
	b := &Board{}
	channels := cfg.LED.Channels
	dutyMax := uint16(cfg.LED.DutyMax)

	sim := func() *SimBoard {
		if b.Sim == nil {
			b.Sim = NewSimBoard(logger.With("driver", config.DriverSim), channels, dutyMax)
		}
		return b.Sim
	}

	switch cfg.LED.Driver {
	case config.DriverSysfs:
		pwm, err := NewSysfsPWM(logger, cfg.LED.PWMChip, channels, uint64(cfg.LED.PWMPeriodNs), dutyMax)
		if err != nil {
			logger.Warn("LED PWM output unavailable, using simulated output", "chip", cfg.LED.PWMChip, "error", err)
			b.Duties = sim()
		} else {
			b.Duties = pwm
		}
	default:
		b.Duties = sim()
	}

	switch cfg.Thermal.Sensor {
	case config.DriverHwmon:
		sensor, err := NewHwmon(cfg.Thermal.HwmonPath)
		if err != nil {
			logger.Warn("Hwmon sensor unavailable, using simulated sensor", "path", cfg.Thermal.HwmonPath, "error", err)
			b.Sensor = sim()
		} else {
			b.Sensor = sensor
		}
	default:
		b.Sensor = sim()
	}

	switch cfg.Thermal.Fan {
	case config.DriverSysfs:
		fan, err := NewPWMFan(logger, cfg.Thermal.FanPWMChip, cfg.Thermal.FanPWMChannel, uint64(cfg.LED.PWMPeriodNs))
		if err != nil {
			logger.Warn("Fan PWM output unavailable, using simulated fan", "chip", cfg.Thermal.FanPWMChip, "error", err)
			b.Fan = sim().Fan()
		} else {
			b.Fan = fan
		}
	default:
		b.Fan = sim().Fan()
	}

	logger.Info("Hardware initialized",
		"led_driver", cfg.LED.Driver,
		"sensor", cfg.Thermal.Sensor,
		"fan", cfg.Thermal.Fan,
		"simulated", b.Sim != nil)
	return b
}
