package hw

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/jmylchreest/reeflightd/internal/errors"
	"github.com/jmylchreest/reeflightd/pkg/led"
	"github.com/jmylchreest/reeflightd/pkg/thermal"
)

// sysfsPWMRoot is where the kernel exposes PWM chips.
var sysfsPWMRoot = "/sys/class/pwm"

// pwmChannel is one exported channel of a sysfs PWM chip.
type pwmChannel struct {
	dir string
}

// openPWMChannel exports channel n of chip (if not yet exported), programs
// the period and enables the output.
func openPWMChannel(chip, n int, periodNs uint64) (pwmChannel, error) {
	chipDir := filepath.Join(sysfsPWMRoot, fmt.Sprintf("pwmchip%d", chip))
	if _, err := os.Stat(chipDir); err != nil {
		return pwmChannel{}, errors.DeviceUnavailablef("pwm chip %d: %v", chip, err)
	}

	ch := pwmChannel{dir: filepath.Join(chipDir, fmt.Sprintf("pwm%d", n))}
	if _, err := os.Stat(ch.dir); os.IsNotExist(err) {
		if err := writeSysfs(filepath.Join(chipDir, "export"), strconv.Itoa(n)); err != nil {
			return pwmChannel{}, errors.DeviceUnavailablef("export pwm%d on chip %d: %v", n, chip, err)
		}
	}

	if err := ch.write("period", strconv.FormatUint(periodNs, 10)); err != nil {
		return pwmChannel{}, err
	}
	if err := ch.setDuty(0); err != nil {
		return pwmChannel{}, err
	}
	if err := ch.write("enable", "1"); err != nil {
		return pwmChannel{}, err
	}
	return ch, nil
}

func (c pwmChannel) setDuty(ns uint64) error {
	return c.write("duty_cycle", strconv.FormatUint(ns, 10))
}

func (c pwmChannel) write(attr, value string) error {
	if err := writeSysfs(filepath.Join(c.dir, attr), value); err != nil {
		return errors.DeviceUnavailablef("write %s: %v", attr, err)
	}
	return nil
}

func writeSysfs(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}

// SysfsPWM drives the LED channels through a sysfs PWM chip, one PWM
// channel per LED channel. Duty units are scaled to nanoseconds of the
// configured period.
type SysfsPWM struct {
	logger   *slog.Logger
	periodNs uint64
	dutyMax  uint16

	mu       sync.Mutex
	channels []pwmChannel
	last     []uint64
	written  []bool
	failed   []bool
}

// NewSysfsPWM opens channels 0..count-1 of the given chip.
func NewSysfsPWM(logger *slog.Logger, chip, count int, periodNs uint64, dutyMax uint16) (*SysfsPWM, error) {
	if count < 1 || periodNs == 0 || dutyMax == 0 {
		return nil, errors.InvalidInputf("invalid pwm parameters: channels=%d period=%d duty_max=%d", count, periodNs, dutyMax)
	}

	p := &SysfsPWM{
		logger:   logger,
		periodNs: periodNs,
		dutyMax:  dutyMax,
		channels: make([]pwmChannel, count),
		last:     make([]uint64, count),
		written:  make([]bool, count),
		failed:   make([]bool, count),
	}
	for i := range count {
		ch, err := openPWMChannel(chip, i, periodNs)
		if err != nil {
			return nil, err
		}
		p.channels[i] = ch
	}
	logger.Info("Opened sysfs PWM LED output", "chip", chip, "channels", count, "period_ns", periodNs)
	return p, nil
}

// WriteDuties writes one duty per channel. Unchanged channels are skipped.
// A failing channel is logged once until it recovers.
func (p *SysfsPWM) WriteDuties(duties led.Duties) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, d := range duties {
		if i >= len(p.channels) {
			break
		}
		ns := uint64(d) * p.periodNs / uint64(p.dutyMax)
		if p.written[i] && p.last[i] == ns {
			continue
		}
		if err := p.channels[i].setDuty(ns); err != nil {
			if !p.failed[i] {
				p.logger.Error("Failed to write LED duty", "channel", i, "error", err)
				p.failed[i] = true
			}
			p.written[i] = false
			continue
		}
		if p.failed[i] {
			p.logger.Info("LED channel output recovered", "channel", i)
			p.failed[i] = false
		}
		p.last[i] = ns
		p.written[i] = true
	}
}

// PWMFan is a fan on a single sysfs PWM channel.
type PWMFan struct {
	logger   *slog.Logger
	channel  pwmChannel
	periodNs uint64

	mu     sync.Mutex
	power  uint8
	failed bool
}

// NewPWMFan opens the fan's PWM channel with the fan stopped.
func NewPWMFan(logger *slog.Logger, chip, channel int, periodNs uint64) (*PWMFan, error) {
	ch, err := openPWMChannel(chip, channel, periodNs)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened sysfs PWM fan", "chip", chip, "channel", channel)
	return &PWMFan{logger: logger, channel: ch, periodNs: periodNs}, nil
}

// SetPower sets the fan power in percent. Values above 100 are clamped.
func (f *PWMFan) SetPower(power uint8) {
	power = min(power, led.MaxPower)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.power = power
	if err := f.channel.setDuty(f.periodNs * uint64(power) / led.MaxPower); err != nil {
		if !f.failed {
			f.logger.Error("Failed to set fan power", "power", power, "error", err)
			f.failed = true
		}
		return
	}
	f.failed = false
}

// Power returns the last power set.
func (f *PWMFan) Power() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.power
}

// Status returns the fan state.
func (f *PWMFan) Status() thermal.FanStatus {
	return thermal.FanStatus{Power: f.Power()}
}
