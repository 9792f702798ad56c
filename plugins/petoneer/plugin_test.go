package petoneer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joshp123/petoneer/internal/config"
	"github.com/joshp123/petoneer/internal/core"
)

func TestPluginContract(t *testing.T) {
	plugin := NewPluginWithSource(sampleSource())

	if err := core.ValidatePlugins([]core.Plugin{plugin}); err != nil {
		t.Fatalf("ValidatePlugins: %v", err)
	}
	if plugin.AgentsMD() == "" {
		t.Fatalf("expected embedded AGENTS.md")
	}
	dashboards := plugin.Dashboards()
	if len(dashboards) != 1 || !json.Valid(dashboards[0].JSON) {
		t.Fatalf("expected one valid dashboard")
	}
	if len(plugin.Collectors()) != 1 {
		t.Fatalf("expected one collector")
	}
	if plugin.Health() != core.HealthHealthy {
		t.Fatalf("unexpected health: %s", plugin.Health())
	}
}

func TestPluginHealthFollowsScrape(t *testing.T) {
	source := sampleSource()
	plugin := NewPluginWithSource(source)

	source.devErr = errors.New("cloud offline")
	testutil.CollectAndCount(plugin.Collectors()[0])

	if plugin.Health() != core.HealthDegraded {
		t.Fatalf("expected degraded health, got %s", plugin.Health())
	}
	if plugin.HealthMessage() != "cloud offline" {
		t.Fatalf("unexpected health message: %q", plugin.HealthMessage())
	}
}

// stalledSource blocks Devices until release is closed.
type stalledSource struct {
	*fakeSource
	entered chan struct{}
	release chan struct{}
}

func (s *stalledSource) Devices(ctx context.Context) ([]Device, error) {
	close(s.entered)
	<-s.release
	return s.fakeSource.Devices(ctx)
}

func TestPluginHealthDoesNotWaitForScrape(t *testing.T) {
	source := &stalledSource{
		fakeSource: sampleSource(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	plugin := NewPluginWithSource(source)

	scraped := make(chan struct{})
	go func() {
		defer close(scraped)
		testutil.CollectAndCount(plugin.Collectors()[0])
	}()
	<-source.entered

	answered := make(chan core.HealthStatus, 1)
	go func() {
		answered <- plugin.Health()
		_ = plugin.HealthMessage()
	}()

	select {
	case got := <-answered:
		if got != core.HealthHealthy {
			t.Fatalf("unexpected health during scrape: %s", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("Health blocked behind an in-flight scrape")
	}

	close(source.release)
	<-scraped
}

func TestPluginConfigError(t *testing.T) {
	plugin := NewPlugin(config.PetoneerConfig{}, nil)
	if plugin.Health() != core.HealthError || plugin.HealthMessage() == "" {
		t.Fatalf("expected config error, got %s %q", plugin.Health(), plugin.HealthMessage())
	}
	if plugin.Collectors() != nil {
		t.Fatalf("broken plugin must not register collectors")
	}

	rec := httptest.NewRecorder()
	plugin.handleDevices(rec, httptest.NewRequest(http.MethodGet, "/petoneer/devices", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPluginHTTP(t *testing.T) {
	plugin := NewPluginWithSource(sampleSource())
	mux := http.NewServeMux()
	plugin.RegisterHTTP(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/petoneer/devices", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("devices status = %d", rec.Code)
	}
	var list struct {
		Devices []Device `json:"devices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list.Devices) != 1 {
		t.Fatalf("unexpected devices body: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/petoneer/status/PWW001", nil))
	var status DeviceStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Serial != "PWW001" || status.LED.State != LEDDimmed {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestPluginHTTPArgumentError(t *testing.T) {
	source := sampleSource()
	source.statusErr = argumentError("Status", "serial", "the device serial number must be provided")
	plugin := NewPluginWithSource(source)

	rec := httptest.NewRecorder()
	plugin.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/petoneer/status/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
