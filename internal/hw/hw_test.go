package hw

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jmylchreest/reeflightd/internal/config"
	"github.com/jmylchreest/reeflightd/internal/errors"
	"github.com/jmylchreest/reeflightd/pkg/led"
	"github.com/jmylchreest/reeflightd/pkg/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePWMChip lays out a sysfs PWM chip with pre-exported channels.
func fakePWMChip(t *testing.T, chip, channels int) string {
	t.Helper()
	root := t.TempDir()
	chipDir := filepath.Join(root, "pwmchip"+strconv.Itoa(chip))
	for i := range channels {
		require.NoError(t, os.MkdirAll(filepath.Join(chipDir, "pwm"+strconv.Itoa(i)), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(chipDir, "export"), nil, 0o644))

	old := sysfsPWMRoot
	sysfsPWMRoot = root
	t.Cleanup(func() { sysfsPWMRoot = old })
	return chipDir
}

func readAttr(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestSysfsPWMWriteDuties(t *testing.T) {
	chipDir := fakePWMChip(t, 0, 2)

	pwm, err := NewSysfsPWM(testLogger(), 0, 2, 1_000_000, 4095)
	require.NoError(t, err)

	for i := range 2 {
		dir := filepath.Join(chipDir, "pwm"+strconv.Itoa(i))
		assert.Equal(t, "1000000", readAttr(t, filepath.Join(dir, "period")))
		assert.Equal(t, "1", readAttr(t, filepath.Join(dir, "enable")))
		assert.Equal(t, "0", readAttr(t, filepath.Join(dir, "duty_cycle")))
	}

	pwm.WriteDuties(led.Duties{4095, 2048, 99})
	assert.Equal(t, "1000000", readAttr(t, filepath.Join(chipDir, "pwm0", "duty_cycle")))
	assert.Equal(t, "500122", readAttr(t, filepath.Join(chipDir, "pwm1", "duty_cycle")))
}

func TestSysfsPWMExportsMissingChannel(t *testing.T) {
	root := t.TempDir()
	chipDir := filepath.Join(root, "pwmchip1")
	require.NoError(t, os.MkdirAll(chipDir, 0o755))
	old := sysfsPWMRoot
	sysfsPWMRoot = root
	t.Cleanup(func() { sysfsPWMRoot = old })

	// export is written, but nothing creates pwm0, so programming fails
	_, err := NewSysfsPWM(testLogger(), 1, 1, 1000, 100)
	require.Error(t, err)
	assert.True(t, errors.IsDeviceUnavailable(err))
	assert.Equal(t, "0", readAttr(t, filepath.Join(chipDir, "export")))
}

func TestSysfsPWMInvalidParameters(t *testing.T) {
	_, err := NewSysfsPWM(testLogger(), 0, 0, 1000, 100)
	assert.True(t, errors.IsInvalidInput(err))

	fakePWMChip(t, 0, 1)
	_, err = NewSysfsPWM(testLogger(), 3, 1, 1000, 100)
	assert.True(t, errors.IsDeviceUnavailable(err))
}

func TestPWMFan(t *testing.T) {
	chipDir := fakePWMChip(t, 0, 3)

	fan, err := NewPWMFan(testLogger(), 0, 2, 40000)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), fan.Power())

	fan.SetPower(25)
	assert.Equal(t, uint8(25), fan.Power())
	assert.Equal(t, thermal.FanStatus{Power: 25}, fan.Status())
	assert.Equal(t, "10000", readAttr(t, filepath.Join(chipDir, "pwm2", "duty_cycle")))

	fan.SetPower(200)
	assert.Equal(t, uint8(100), fan.Power())
}

func TestHwmon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp1_input")
	require.NoError(t, os.WriteFile(path, []byte("47600\n"), 0o644))

	sensor, err := NewHwmon(path)
	require.NoError(t, err)
	temp, err := sensor.ReadTemp()
	require.NoError(t, err)
	assert.Equal(t, 48, temp)

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	_, err = sensor.ReadTemp()
	assert.ErrorIs(t, err, thermal.ErrSensorFault)

	require.NoError(t, os.Remove(path))
	_, err = sensor.ReadTemp()
	assert.ErrorIs(t, err, thermal.ErrSensorFault)

	_, err = NewHwmon(path)
	assert.ErrorIs(t, err, thermal.ErrSensorFault)
}

func TestSimBoardThermalModel(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewSimBoard(testLogger(), 2, 100)
	b.clock = func() time.Time { return now }
	fan := b.Fan()

	temp, err := b.ReadTemp()
	require.NoError(t, err)
	assert.Equal(t, 25, temp)

	b.WriteDuties(led.Duties{100, 100})
	now = now.Add(time.Hour)
	temp, err = b.ReadTemp()
	require.NoError(t, err)
	assert.Equal(t, 65, temp, "settles at ambient + full heat rise")

	fan.SetPower(100)
	now = now.Add(time.Hour)
	temp, err = b.ReadTemp()
	require.NoError(t, err)
	assert.Equal(t, 40, temp)
	assert.Equal(t, uint8(100), fan.Power())

	b.SetSensorFault(true)
	_, err = b.ReadTemp()
	assert.ErrorIs(t, err, thermal.ErrSensorFault)
	b.SetSensorFault(false)

	b.SetTemp(80)
	temp, _ = b.ReadTemp()
	assert.Equal(t, 80, temp)
	assert.Equal(t, led.Duties{100, 100}, b.Duties())
}

func TestNewFallsBackToSim(t *testing.T) {
	old := sysfsPWMRoot
	sysfsPWMRoot = t.TempDir()
	t.Cleanup(func() { sysfsPWMRoot = old })

	cfg := &config.Config{
		LED: config.LEDConfig{
			Channels:    4,
			DutyMax:     4095,
			Driver:      config.DriverSysfs,
			PWMPeriodNs: 1000,
		},
		Thermal: config.ThermalConfig{
			Sensor:    config.DriverHwmon,
			HwmonPath: filepath.Join(t.TempDir(), "missing"),
			Fan:       config.DriverSysfs,
		},
	}

	b := New(testLogger(), cfg)
	require.NotNil(t, b.Sim)
	assert.Same(t, b.Sim, b.Duties)
	assert.Same(t, b.Sim, b.Sensor)
	assert.IsType(t, &SimFan{}, b.Fan)
}

func TestNewUsesHardware(t *testing.T) {
	fakePWMChip(t, 0, 4)
	hwmon := filepath.Join(t.TempDir(), "temp1_input")
	require.NoError(t, os.WriteFile(hwmon, []byte("30000"), 0o644))

	cfg := &config.Config{
		LED: config.LEDConfig{
			Channels:    2,
			DutyMax:     4095,
			Driver:      config.DriverSysfs,
			PWMPeriodNs: 1000,
		},
		Thermal: config.ThermalConfig{
			Sensor:        config.DriverHwmon,
			HwmonPath:     hwmon,
			Fan:           config.DriverSysfs,
			FanPWMChannel: 3,
		},
	}

	b := New(testLogger(), cfg)
	assert.Nil(t, b.Sim)
	assert.IsType(t, &SysfsPWM{}, b.Duties)
	assert.IsType(t, &Hwmon{}, b.Sensor)
	assert.IsType(t, &PWMFan{}, b.Fan)
}
