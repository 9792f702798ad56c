package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joshp123/petoneer/internal/core"
)

type stubPlugin struct {
	health core.HealthStatus
	routed bool
}

func (s *stubPlugin) ID() string { return "demo" }

func (s *stubPlugin) Manifest() core.Manifest {
	return core.Manifest{PluginID: "demo", DisplayName: "Demo", Version: "0.1.0", Services: []string{"demo.svc"}}
}

func (s *stubPlugin) AgentsMD() string { return "" }

func (s *stubPlugin) Dashboards() []core.Dashboard {
	return []core.Dashboard{{Name: "demo", JSON: []byte(`{"title":"demo"}`)}}
}

func (s *stubPlugin) Collectors() []prometheus.Collector { return nil }

func (s *stubPlugin) Health() core.HealthStatus { return s.health }

func (s *stubPlugin) HealthMessage() string { return "" }

func (s *stubPlugin) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/demo/ping", func(w http.ResponseWriter, _ *http.Request) {
		s.routed = true
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestNewMux(t *testing.T) {
	plugin := &stubPlugin{health: core.HealthHealthy}
	mux := NewMux([]core.Plugin{plugin}, prometheus.NewRegistry())

	cases := map[string]int{
		"/health":                    http.StatusOK,
		"/metrics":                   http.StatusOK,
		"/dashboards/demo/demo.json": http.StatusOK,
		"/dashboards/none.json":      http.StatusNotFound,
		"/plugins":                   http.StatusOK,
		"/plugins/demo":              http.StatusOK,
		"/demo/ping":                 http.StatusNoContent,
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: status %d, want %d", path, rec.Code, want)
		}
	}
	if !plugin.routed {
		t.Fatalf("plugin handler not registered")
	}
}

func TestSyncHealth(t *testing.T) {
	hs := health.NewServer()
	plugin := &stubPlugin{health: core.HealthHealthy}

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Check(%q): %v", service, err)
		}
		return resp.Status
	}

	SyncHealth(hs, []core.Plugin{plugin})
	if check("demo.svc") != healthpb.HealthCheckResponse_SERVING || check("") != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected serving")
	}

	plugin.health = core.HealthDegraded
	SyncHealth(hs, []core.Plugin{plugin})
	if check("demo.svc") != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("degraded plugins still serve")
	}

	plugin.health = core.HealthError
	SyncHealth(hs, []core.Plugin{plugin})
	if check("demo.svc") != healthpb.HealthCheckResponse_NOT_SERVING || check("") != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected not serving")
	}
}

func TestHealthReport(t *testing.T) {
	plugin := &stubPlugin{health: core.HealthHealthy}
	if got := HealthReport([]core.Plugin{plugin}); got.Status != "ok" || got.Plugins["demo"].Status != "HEALTHY" {
		t.Fatalf("unexpected report: %+v", got)
	}

	plugin.health = core.HealthDegraded
	if got := HealthReport([]core.Plugin{plugin}); got.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", got.Status)
	}
}
