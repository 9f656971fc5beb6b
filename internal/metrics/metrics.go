// Package metrics exports controller state to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/jmylchreest/reeflightd/internal/events"
	"github.com/jmylchreest/reeflightd/internal/power"
	"github.com/jmylchreest/reeflightd/internal/ticker"
	"github.com/jmylchreest/reeflightd/pkg/led"
	"github.com/jmylchreest/reeflightd/pkg/thermal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reeflight"

// Sources are the snapshot functions the collector reads on each scrape.
// Nil sources are skipped.
type Sources struct {
	LED     func() led.Status
	Thermal func() thermal.Status
	Power   func() power.State
	Tasks   []*ticker.Task
}

func desc(subsystem, name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
}

var (
	ledChannelPower = desc("led", "channel_power", "Output power of an LED channel in percent.", "channel")
	ledChannelDuty  = desc("led", "channel_duty", "PWM duty of an LED channel after correction.", "channel")
	ledMode         = desc("led", "mode", "1 for the active LED mode, 0 otherwise.", "mode")
	ledBlank        = desc("led", "blank", "1 while the LED output is blanked.")
	ledFading       = desc("led", "fading", "1 while a fade is in progress.")

	thermalTemp      = desc("thermal", "temperature_celsius", "Last successful heat sink temperature reading.")
	thermalFault     = desc("thermal", "sensor_fault", "1 while the temperature sensor is faulted.")
	thermalFan       = desc("thermal", "fan_power", "Fan power in percent.")
	thermalOverheats = desc("thermal", "overheat_count", "Consecutive overheated ticks.")

	powerOn        = desc("power", "on", "1 while the power rail is on.")
	powerShutdowns = desc("power", "shutdowns_total", "Emergency shutdowns since start.")

	taskTicks    = desc("loop", "ticks_total", "Ticks run by a control loop.", "task")
	taskOverruns = desc("loop", "overruns_total", "Ticks that took longer than the loop period.", "task")
	taskPanics   = desc("loop", "panics_total", "Ticks that panicked.", "task")
)

// Collector is a prometheus.Collector over live controller snapshots.
type Collector struct {
	src    Sources
	events *prometheus.CounterVec
}

// NewCollector creates a collector reading src.
func NewCollector(src Sources) *Collector {
	return &Collector{
		src: src,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events published on the internal bus.",
		}, []string{"type"}),
	}
}

// Subscribe counts every event published on bus. The returned function
// unsubscribes.
func (c *Collector) Subscribe(bus *events.Bus) func() {
	return bus.Subscribe(func(e events.Event) {
		c.events.WithLabelValues(string(e.Type)).Inc()
	})
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		ledChannelPower, ledChannelDuty, ledMode, ledBlank, ledFading,
		thermalTemp, thermalFault, thermalFan, thermalOverheats,
		powerOn, powerShutdowns,
		taskTicks, taskOverruns, taskPanics,
	} {
		ch <- d
	}
	c.events.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.src.LED != nil {
		st := c.src.LED()
		for i, p := range st.Color {
			ch <- prometheus.MustNewConstMetric(ledChannelPower, prometheus.GaugeValue, float64(p), strconv.Itoa(i))
		}
		for i, d := range st.Duties {
			ch <- prometheus.MustNewConstMetric(ledChannelDuty, prometheus.GaugeValue, float64(d), strconv.Itoa(i))
		}
		for _, m := range []led.Mode{led.ModeNormal, led.ModeDimming, led.ModeNightlight, led.ModePreview} {
			ch <- prometheus.MustNewConstMetric(ledMode, prometheus.GaugeValue, boolValue(st.Mode == m), m.String())
		}
		ch <- prometheus.MustNewConstMetric(ledBlank, prometheus.GaugeValue, boolValue(st.Blank))
		ch <- prometheus.MustNewConstMetric(ledFading, prometheus.GaugeValue, boolValue(st.Fading))
	}

	if c.src.Thermal != nil {
		st := c.src.Thermal()
		ch <- prometheus.MustNewConstMetric(thermalTemp, prometheus.GaugeValue, float64(st.Temperature))
		ch <- prometheus.MustNewConstMetric(thermalFault, prometheus.GaugeValue, boolValue(st.SensorFault))
		ch <- prometheus.MustNewConstMetric(thermalFan, prometheus.GaugeValue, float64(st.FanPower))
		ch <- prometheus.MustNewConstMetric(thermalOverheats, prometheus.GaugeValue, float64(st.OverheatCount))
	}

	if c.src.Power != nil {
		st := c.src.Power()
		ch <- prometheus.MustNewConstMetric(powerOn, prometheus.GaugeValue, boolValue(st.On))
		ch <- prometheus.MustNewConstMetric(powerShutdowns, prometheus.CounterValue, float64(st.Shutdowns))
	}

	for _, t := range c.src.Tasks {
		st := t.Stats()
		ch <- prometheus.MustNewConstMetric(taskTicks, prometheus.CounterValue, float64(st.Ticks), st.Name)
		ch <- prometheus.MustNewConstMetric(taskOverruns, prometheus.CounterValue, float64(st.Overruns), st.Name)
		ch <- prometheus.MustNewConstMetric(taskPanics, prometheus.CounterValue, float64(st.Panics), st.Name)
	}

	c.events.Collect(ch)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// NewRegistry returns a registry holding c plus the Go runtime and process
// collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
