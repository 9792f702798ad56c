package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshp123/petoneer/plugins/petoneer"
)

// cloud answers the handful of endpoints the CLI touches.
type cloud struct {
	mu   sync.Mutex
	hits map[string]int
}

func (c *cloud) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.hits[r.URL.Path]++
	c.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/user/101":
		_, _ = io.WriteString(w, `{"code":200,"data":{"accessToken":"token-1234"}}`)
	case "/user/500":
		_, _ = io.WriteString(w, `{"code":200,"data":{"dev":[{"sn":"PWW001","name":"Kitchen Fountain"},{"sn":"PWW002"}]}}`)
	case "/pww/31101":
		_, _ = io.WriteString(w, `{"code":200,"data":{"sn":"PWW001","time":1715342400,"level":4,"tds":40,"switch":1,"led":0,"ledmode":1,"filtertime":1715342400,"watertime":1715342400,"motortime":1715342400}}`)
	case "/pww/31102":
		_, _ = io.WriteString(w, `{"code":200,"data":{}}`)
	default:
		_, _ = io.WriteString(w, `{"code":200,"data":{}}`)
	}
}

func (c *cloud) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func newCloudClient(t *testing.T) (*petoneer.Client, *cloud) {
	t.Helper()
	api := &cloud{hits: map[string]int{}}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client, err := petoneer.NewClient(petoneer.Config{
		BaseURL:  server.URL,
		Username: "user@example.com",
		Password: "secret",
		Country:  "AU",
		Timezone: "UTC",
		CacheTTL: time.Minute,
	})
	require.NoError(t, err)
	return client, api
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "kitchen_fountain", normalizeName("  Kitchen - Fountain "))
	assert.Equal(t, "pww001", normalizeName("PWW001"))
}

func TestSelectDevices(t *testing.T) {
	devices := []petoneer.Device{{Serial: "PWW001", Name: "Kitchen Fountain"}, {Serial: "PWW002"}}

	all, err := selectDevices(devices, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byName, err := selectDevices(devices, "kitchen-fountain")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "PWW001", byName[0].Serial)

	bySerial, err := selectDevices(devices, "pww002")
	require.NoError(t, err)
	assert.Equal(t, "PWW002", bySerial[0].Serial)

	_, err = selectDevices(devices, "garden")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available: Kitchen Fountain, PWW001, PWW002")
}

func TestDialAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:9000", dialAddr("0.0.0.0:9000"))
	assert.Equal(t, "127.0.0.1:9000", dialAddr(":9000"))
	assert.Equal(t, "10.0.0.5:9000", dialAddr("10.0.0.5:9000"))
	assert.Equal(t, "not-an-addr", dialAddr("not-an-addr"))
}

func TestToYAMLUsesJSONFieldNames(t *testing.T) {
	data, err := toYAML(petoneer.RemainingLife{DaysRemaining: 3, PercentRemaining: 10})
	require.NoError(t, err)
	assert.Contains(t, string(data), "days_remaining: 3")
	assert.Contains(t, string(data), "percent_remaining: 10")
}

func TestRemainingLabel(t *testing.T) {
	assert.Equal(t, "5 days (17%)", remainingLabel(petoneer.RemainingLife{DaysRemaining: 5, PercentRemaining: 17}, false))
	assert.Equal(t, "0 days (0%) DUE", remainingLabel(petoneer.RemainingLife{}, true))
}

func TestResolveDeviceDefaultsToFirst(t *testing.T) {
	client, _ := newCloudClient(t)

	d, err := resolveDevice(context.Background(), client, "")
	require.NoError(t, err)
	assert.Equal(t, "PWW001", d.Serial)
}

func TestPublishStatuses(t *testing.T) {
	client, _ := newCloudClient(t)
	publisher := &petoneer.FakePublisher{Prefix: "home/fountains"}

	require.NoError(t, publishStatuses(context.Background(), client, publisher, "kitchen fountain"))
	assert.Equal(t, []string{"home/fountains/PWW001/status"}, publisher.Topics)
	require.Len(t, publisher.Payloads, 1)
	assert.Contains(t, string(publisher.Payloads[0]), `"serial":"PWW001"`)
}

func TestRunMenu(t *testing.T) {
	client, api := newCloudClient(t)
	device := petoneer.Device{Serial: "PWW001", Name: "Kitchen Fountain"}

	var out bytes.Buffer
	runMenu(client, device, strings.NewReader("3\n9\nq\n"), &out)

	assert.Equal(t, 1, api.count("/pww/21104"))
	assert.Contains(t, out.String(), "TURN LEDS OFF")
	assert.Contains(t, out.String(), "LED Off")
	assert.Contains(t, out.String(), `invalid menu selection "9"`)
}
