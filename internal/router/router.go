package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joshp123/petoneer/internal/core"
	"github.com/joshp123/petoneer/internal/server"
)

// NewMux wires the HTTP surface: liveness, metrics, dashboards, the plugin
// registry and any plugin-owned handlers.
func NewMux(plugins []core.Plugin, registry *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/health", server.HealthHandler(func() server.HealthReport { return HealthReport(plugins) }))
	mux.Handle("/metrics", server.MetricsHandler(registry))
	mux.Handle("/dashboards/", server.DashboardsHandler(core.DashboardsMap(plugins)))

	reg := core.NewRegistryService(plugins)
	mux.Handle("/plugins", reg)
	mux.Handle("/plugins/", reg)

	for _, p := range plugins {
		if r, ok := p.(core.HTTPRegistrant); ok {
			r.RegisterHTTP(mux)
		}
	}
	return mux
}

// HealthReport summarises plugin health for the HTTP liveness endpoint.
func HealthReport(plugins []core.Plugin) server.HealthReport {
	report := server.HealthReport{Status: "ok", Plugins: make(map[string]server.PluginHealth, len(plugins))}
	for _, p := range plugins {
		h := p.Health()
		if h != core.HealthHealthy && report.Status == "ok" {
			report.Status = "degraded"
		}
		report.Plugins[p.ID()] = server.PluginHealth{Status: string(h), Message: p.HealthMessage()}
	}
	return report
}

// SyncHealth publishes each plugin's health under its manifest services. The
// overall "" service stops serving once any plugin reports an error.
func SyncHealth(hs *health.Server, plugins []core.Plugin) {
	overall := healthpb.HealthCheckResponse_SERVING
	for _, p := range plugins {
		status := ServingStatus(p.Health())
		if status != healthpb.HealthCheckResponse_SERVING {
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
		for _, svc := range p.Manifest().Services {
			hs.SetServingStatus(svc, status)
		}
	}
	hs.SetServingStatus("", overall)
}

// ServingStatus maps plugin health onto the gRPC health protocol. Degraded
// plugins still serve.
func ServingStatus(h core.HealthStatus) healthpb.HealthCheckResponse_ServingStatus {
	switch h {
	case core.HealthHealthy, core.HealthDegraded:
		return healthpb.HealthCheckResponse_SERVING
	case core.HealthError:
		return healthpb.HealthCheckResponse_NOT_SERVING
	default:
		return healthpb.HealthCheckResponse_UNKNOWN
	}
}
