package petoneer

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StatusSource is the read side of the client used by the collector.
type StatusSource interface {
	Devices(ctx context.Context) ([]Device, error)
	Status(ctx context.Context, serial string) (DeviceStatus, error)
}

// MetricsCollector exports fountain status per device on every scrape.
type MetricsCollector struct {
	source  StatusSource
	timeout time.Duration

	waterLevel       *prometheus.GaugeVec
	tds              *prometheus.GaugeVec
	daysRemaining    *prometheus.GaugeVec
	percentRemaining *prometheus.GaugeVec
	due              *prometheus.GaugeVec
	pumpOn           *prometheus.GaugeVec
	pumpScheduled    *prometheus.GaugeVec
	ledOn            *prometheus.GaugeVec
	ledDimmed        *prometheus.GaugeVec
	deviceTime       *prometheus.GaugeVec
	lastSuccess      prometheus.Gauge
	success          prometheus.Gauge

	// scrapeMu serialises scrapes. errMu guards lastErr alone, so health
	// checks never wait on a scrape in flight.
	scrapeMu sync.Mutex
	errMu    sync.Mutex
	lastErr  error
}

func NewMetricsCollector(source StatusSource) *MetricsCollector {
	labels := []string{"serial", "name"}
	itemLabels := []string{"serial", "name", "item"}
	return &MetricsCollector{
		source:  source,
		timeout: 20 * time.Second,
		waterLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_water_level",
			Help: "Water level code (0=empty .. 4=full)",
		}, labels),
		tds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_water_tds_ppm",
			Help: "Total dissolved solids in ppm",
		}, labels),
		daysRemaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_maintenance_days_remaining",
			Help: "Days until maintenance is due (negative when overdue)",
		}, itemLabels),
		percentRemaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_maintenance_percent_remaining",
			Help: "Percent of the maintenance interval remaining",
		}, itemLabels),
		due: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_maintenance_due_bool",
			Help: "Maintenance due flag (1=due, 0=not due)",
		}, itemLabels),
		pumpOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_pump_on_bool",
			Help: "Pump running (1=on, 0=off)",
		}, labels),
		pumpScheduled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_pump_scheduled_bool",
			Help: "Pump run-hours schedule enabled (1=on, 0=off)",
		}, labels),
		ledOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_led_on_bool",
			Help: "LED ring lit (1=on, 0=off)",
		}, labels),
		ledDimmed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_led_dimmed_bool",
			Help: "LED ring dimmed by schedule (1=dimmed, 0=full)",
		}, labels),
		deviceTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petoneer_device_time_seconds",
			Help: "Device clock at the last report (epoch seconds)",
		}, labels),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "petoneer_last_success_timestamp_seconds",
			Help: "Last successful Petoneer scrape timestamp (epoch seconds)",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "petoneer_scrape_success",
			Help: "Last scrape success (1=ok, 0=error)",
		}),
	}
}

func (c *MetricsCollector) vecs() []*prometheus.GaugeVec {
	return []*prometheus.GaugeVec{
		c.waterLevel, c.tds, c.daysRemaining, c.percentRemaining, c.due,
		c.pumpOn, c.pumpScheduled, c.ledOn, c.ledDimmed, c.deviceTime,
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, v := range c.vecs() {
		v.Describe(ch)
	}
	c.lastSuccess.Describe(ch)
	c.success.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.scrapeMu.Lock()
	defer c.scrapeMu.Unlock()

	err := c.refresh(ctx)
	c.setLastError(err)
	if err != nil {
		c.success.Set(0)
	} else {
		c.success.Set(1)
		c.lastSuccess.Set(float64(time.Now().Unix()))
	}

	for _, v := range c.vecs() {
		v.Collect(ch)
	}
	c.lastSuccess.Collect(ch)
	c.success.Collect(ch)
}

// LastError returns the error from the most recent scrape, if any.
func (c *MetricsCollector) LastError() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

func (c *MetricsCollector) setLastError(err error) {
	c.errMu.Lock()
	c.lastErr = err
	c.errMu.Unlock()
}

func (c *MetricsCollector) refresh(ctx context.Context) error {
	devices, err := c.source.Devices(ctx)
	if err != nil {
		return err
	}

	statuses := make(map[string]DeviceStatus, len(devices))
	for _, d := range devices {
		status, err := c.source.Status(ctx, d.Serial)
		if err != nil {
			return err
		}
		statuses[d.Serial] = status
	}

	for _, v := range c.vecs() {
		v.Reset()
	}
	for _, d := range devices {
		c.record(d, statuses[d.Serial])
	}
	return nil
}

func (c *MetricsCollector) record(d Device, s DeviceStatus) {
	labels := prometheus.Labels{"serial": d.Serial, "name": d.Name}
	c.waterLevel.With(labels).Set(float64(s.Water.Level.Value))
	c.tds.With(labels).Set(float64(s.Water.Quality.TDS))
	c.pumpOn.With(labels).Set(boolToFloat(s.Pump.On))
	c.pumpScheduled.With(labels).Set(boolToFloat(s.Pump.Scheduled))
	c.ledOn.With(labels).Set(boolToFloat(s.LED.On))
	c.ledDimmed.With(labels).Set(boolToFloat(s.LED.Dimmed))
	c.deviceTime.With(labels).Set(float64(s.DeviceTime.Unix()))

	items := []struct {
		name      string
		remaining RemainingLife
		due       bool
	}{
		{"water", s.Water.ChangeRemaining, s.Water.ChangeRequired},
		{"filter", s.Filter.ChangeRemaining, s.Filter.ChangeRequired},
		{"pump_clean", s.Pump.CleaningRemaining, s.Pump.CleaningRequired},
	}
	for _, item := range items {
		l := prometheus.Labels{"serial": d.Serial, "name": d.Name, "item": item.name}
		c.daysRemaining.With(l).Set(float64(item.remaining.DaysRemaining))
		c.percentRemaining.With(l).Set(float64(item.remaining.PercentRemaining))
		c.due.With(l).Set(boolToFloat(item.due))
	}
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
