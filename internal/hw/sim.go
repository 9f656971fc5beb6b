package hw

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jmylchreest/reeflightd/pkg/led"
	"github.com/jmylchreest/reeflightd/pkg/thermal"
)

// Simulated thermal model constants.
const (
	SimAmbient     = 25.0 // °C
	SimLEDHeatRise = 40.0 // °C above ambient at full LED load, fan off
	SimFanCooling  = 25.0 // °C removed at full fan power
	SimTimeConst   = 60 * time.Second
)

// SimBoard is an in-memory board: it accepts LED duties, simulates the
// heat sink temperature as a first-order lag towards an equilibrium set by
// LED load and fan power, and hosts a simulated fan.
type SimBoard struct {
	logger  *slog.Logger
	dutyMax uint16
	clock   func() time.Time

	mu       sync.Mutex
	duties   led.Duties
	temp     float64
	ambient  float64
	fanPower uint8
	fault    bool
	last     time.Time
}

// NewSimBoard creates a simulated board at ambient temperature.
func NewSimBoard(logger *slog.Logger, channels int, dutyMax uint16) *SimBoard {
	return &SimBoard{
		logger:  logger,
		dutyMax: max(dutyMax, 1),
		clock:   time.Now,
		duties:  make(led.Duties, channels),
		temp:    SimAmbient,
		ambient: SimAmbient,
	}
}

// WriteDuties records the duties driving the simulated LEDs.
func (b *SimBoard) WriteDuties(duties led.Duties) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stepLocked(b.clock())
	b.duties = append(b.duties[:0], duties...)
}

// Duties returns the last duties written.
func (b *SimBoard) Duties() led.Duties {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append(led.Duties(nil), b.duties...)
}

// ReadTemp advances the model to now and returns the simulated
// temperature.
func (b *SimBoard) ReadTemp() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fault {
		return 0, thermal.ErrSensorFault
	}
	b.stepLocked(b.clock())
	return int(math.Round(b.temp)), nil
}

// SetAmbient changes the ambient temperature of the model.
func (b *SimBoard) SetAmbient(celsius float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ambient = celsius
}

// SetTemp forces the simulated temperature.
func (b *SimBoard) SetTemp(celsius float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.temp = celsius
	b.last = b.clock()
}

// SetSensorFault makes the simulated sensor fail until cleared.
func (b *SimBoard) SetSensorFault(fault bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fault != b.fault {
		b.logger.Info("Simulated sensor fault changed", "fault", fault)
	}
	b.fault = fault
}

// Fan returns the simulated fan sharing this board's thermal model.
func (b *SimBoard) Fan() *SimFan {
	return &SimFan{board: b}
}

// equilibriumLocked is the temperature the model settles at for the
// current load.
func (b *SimBoard) equilibriumLocked() float64 {
	var load float64
	if len(b.duties) > 0 {
		var sum uint64
		for _, d := range b.duties {
			sum += uint64(d)
		}
		load = float64(sum) / float64(len(b.duties)) / float64(b.dutyMax)
	}
	rise := SimLEDHeatRise*load - SimFanCooling*float64(b.fanPower)/led.MaxPower
	return b.ambient + max(rise, 0)
}

func (b *SimBoard) stepLocked(now time.Time) {
	if b.last.IsZero() || !now.After(b.last) {
		b.last = now
		return
	}
	dt := now.Sub(b.last)
	b.last = now
	target := b.equilibriumLocked()
	b.temp += (target - b.temp) * (1 - math.Exp(-dt.Seconds()/SimTimeConst.Seconds()))
}

// SimFan is the fan of a SimBoard.
type SimFan struct {
	board *SimBoard
}

// SetPower sets the simulated fan power in percent.
func (f *SimFan) SetPower(power uint8) {
	b := f.board
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stepLocked(b.clock())
	b.fanPower = min(power, led.MaxPower)
}

// Power returns the simulated fan power.
func (f *SimFan) Power() uint8 {
	f.board.mu.Lock()
	defer f.board.mu.Unlock()
	return f.board.fanPower
}

// Status returns the simulated fan state.
func (f *SimFan) Status() thermal.FanStatus {
	return thermal.FanStatus{Power: f.Power()}
}
