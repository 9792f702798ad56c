package petoneer

import (
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/joshp123/petoneer/internal/config"
	"github.com/joshp123/petoneer/internal/core"
)

//go:embed AGENTS.md
var agentsMD string

//go:embed dashboard.json
var dashboardJSON []byte

const pluginID = "petoneer"

// HealthService is the gRPC health service name the plugin reports under.
const HealthService = "petoneer.plugins.petoneer"

// Plugin implements the daemon plugin contract for Petoneer fountains.
type Plugin struct {
	source        StatusSource
	collector     *MetricsCollector
	health        core.HealthStatus
	healthMessage string
}

// NewPlugin builds the plugin from the loaded config. Failures are reported
// through Health rather than returned.
func NewPlugin(settings config.PetoneerConfig, logger *zap.Logger) *Plugin {
	cfg, err := ConfigFromSettings(settings)
	if err != nil {
		return &Plugin{health: core.HealthError, healthMessage: err.Error()}
	}
	client, err := NewClient(cfg, WithLogger(logger))
	if err != nil {
		return &Plugin{health: core.HealthError, healthMessage: err.Error()}
	}
	return NewPluginWithSource(client)
}

func NewPluginWithSource(source StatusSource) *Plugin {
	return &Plugin{
		source:    source,
		collector: NewMetricsCollector(source),
		health:    core.HealthHealthy,
	}
}

func (p *Plugin) ID() string {
	return pluginID
}

func (p *Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    pluginID,
		DisplayName: "Petoneer",
		Version:     "0.1.0",
		Services:    []string{HealthService},
	}
}

func (p *Plugin) AgentsMD() string {
	return agentsMD
}

func (p *Plugin) Dashboards() []core.Dashboard {
	return []core.Dashboard{{Name: "petoneer-overview", JSON: dashboardJSON}}
}

func (p *Plugin) Collectors() []prometheus.Collector {
	if p.collector == nil {
		return nil
	}
	return []prometheus.Collector{p.collector}
}

// Health is degraded while the last scrape failed.
func (p *Plugin) Health() core.HealthStatus {
	if p.health != core.HealthHealthy || p.collector == nil {
		return p.health
	}
	if p.collector.LastError() != nil {
		return core.HealthDegraded
	}
	return core.HealthHealthy
}

func (p *Plugin) HealthMessage() string {
	if p.healthMessage != "" || p.collector == nil {
		return p.healthMessage
	}
	if err := p.collector.LastError(); err != nil {
		return err.Error()
	}
	return ""
}

// RegisterHTTP exposes GET /petoneer/devices and GET /petoneer/status/<serial>.
func (p *Plugin) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/petoneer/devices", p.handleDevices)
	mux.HandleFunc("/petoneer/status/", p.handleStatus)
}

func (p *Plugin) handleDevices(w http.ResponseWriter, r *http.Request) {
	if p.source == nil {
		http.Error(w, p.healthMessage, http.StatusServiceUnavailable)
		return
	}
	devices, err := p.source.Devices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"devices": devices})
}

func (p *Plugin) handleStatus(w http.ResponseWriter, r *http.Request) {
	if p.source == nil {
		http.Error(w, p.healthMessage, http.StatusServiceUnavailable)
		return
	}
	serial := strings.Trim(strings.TrimPrefix(r.URL.Path, "/petoneer/status/"), "/")
	status, err := p.source.Status(r.Context(), serial)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway
	if errors.Is(err, ErrInvalidArgument) {
		code = http.StatusBadRequest
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
