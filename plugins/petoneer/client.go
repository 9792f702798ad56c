package petoneer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/joshp123/petoneer/internal/logging"
	"github.com/joshp123/petoneer/internal/rate"
)

const defaultMaxRequestsPerMinute = 30

// Client talks to the Petoneer (Revogi) cloud API.
type Client struct {
	cfg      Config
	baseURL  string
	location *time.Location

	httpClient *http.Client
	logger     *zap.Logger
	session    *session
	snapshots  *cache.Cache
}

type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. It is still wrapped by the
// rate guard.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, argumentError("NewClient", "username", "username cannot be blank")
	}
	if cfg.Password == "" {
		return nil, argumentError("NewClient", "password", "password cannot be blank")
	}
	if strings.TrimSpace(cfg.Country) == "" {
		return nil, argumentError("NewClient", "country", "country code cannot be blank")
	}
	if strings.TrimSpace(cfg.Timezone) == "" {
		return nil, argumentError("NewClient", "timezone", "timezone cannot be blank")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, argumentError("NewClient", "timezone", err.Error())
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	limit := cfg.MaxRequestsPerMinute
	if limit <= 0 {
		limit = defaultMaxRequestsPerMinute
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		location:   loc,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	decl := rate.Provider("petoneer").
		MaxRequestsPer(rate.Minute, limit).
		RetryAfter("Retry-After")
	c.httpClient = rate.WrapHTTP(decl, c.httpClient)
	c.session = newSession(c)
	if cfg.CacheTTL > 0 {
		c.snapshots = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c, nil
}

// Location is the zone the device clock is read in.
func (c *Client) Location() *time.Location {
	return c.location
}

// Login discards any held token and authenticates again.
func (c *Client) Login(ctx context.Context) error {
	c.session.invalidate()
	_, err := c.session.token(ctx)
	return err
}

func (c *Client) login(ctx context.Context) (*oauth2.Token, error) {
	payload := map[string]any{
		"language": "0",
		"type":     2,
		"region": map[string]any{
			"country":  c.cfg.Country,
			"timezone": c.cfg.Timezone,
		},
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	}

	c.logger.Debug("authenticating", zap.String("url", c.baseURL), zap.String("username", c.cfg.Username))
	env, err := c.post(ctx, pathLogin, payload, false)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if isEmptyJSON(env.Data) {
		return nil, &APIError{Path: pathLogin, Code: env.Code, Message: "response has no data"}
	}

	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
		return nil, fmt.Errorf("%w: user %s: %s", ErrAuthentication, c.cfg.Username, strings.TrimSpace(env.Msg))
	}

	c.logger.Info("authenticated", zap.String("token", logging.MaskToken(data.AccessToken)))
	return &oauth2.Token{AccessToken: data.AccessToken, TokenType: tokenType}, nil
}

// Devices lists the fountains registered to the account.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	payload := map[string]any{"dev": "all", "protocol": protocol}
	env, err := c.post(ctx, pathDeviceList, payload, true)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	record, err := decodeRecord(env.Data)
	if err != nil {
		return nil, fmt.Errorf("decode device list: %w", err)
	}
	items, _ := record["dev"].([]any)
	devices := make([]Device, 0, len(items))
	for _, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		devices = append(devices, Device{
			Serial: stringField(rec, "sn"),
			Name:   stringField(rec, "name"),
			Raw:    rec,
		})
	}
	return devices, nil
}

// Telemetry fetches the raw detail record for a fountain.
func (c *Client) Telemetry(ctx context.Context, serial string) (Telemetry, error) {
	if err := requireSerial("Telemetry", serial); err != nil {
		return Telemetry{}, err
	}
	data, err := c.read(ctx, pathDeviceDetails, serial)
	if err != nil {
		return Telemetry{}, fmt.Errorf("device details %s: %w", serial, err)
	}
	t, err := ParseTelemetry(data)
	if err != nil {
		return Telemetry{}, err
	}
	if t.Serial == "" {
		t.Serial = serial
	}
	if len(t.Malformed) > 0 {
		c.logger.Warn("device reported malformed values",
			zap.String("serial", serial),
			zap.Strings("keys", t.Malformed))
	}
	return t, nil
}

// PumpSchedule fetches the pump run-hours record for a fountain.
func (c *Client) PumpSchedule(ctx context.Context, serial string) (PumpSchedule, error) {
	if err := requireSerial("PumpSchedule", serial); err != nil {
		return PumpSchedule{}, err
	}
	data, err := c.read(ctx, pathDeviceSchedule, serial)
	if err != nil {
		return PumpSchedule{}, fmt.Errorf("device schedule %s: %w", serial, err)
	}
	return ParsePumpSchedule(data)
}

type snapshot struct {
	telemetry Telemetry
	schedule  PumpSchedule
}

// Status returns the derived status for a fountain. Fetched records are
// reused until the cache TTL lapses or a command is sent to the device.
func (c *Client) Status(ctx context.Context, serial string) (DeviceStatus, error) {
	if err := requireSerial("Status", serial); err != nil {
		return DeviceStatus{}, err
	}
	snap, err := c.snapshot(ctx, serial)
	if err != nil {
		return DeviceStatus{}, err
	}
	return AssembleIn(c.location, snap.telemetry, &snap.schedule), nil
}

func (c *Client) snapshot(ctx context.Context, serial string) (snapshot, error) {
	if c.snapshots != nil {
		if cached, ok := c.snapshots.Get(serial); ok {
			return cached.(snapshot), nil
		}
	}

	t, err := c.Telemetry(ctx, serial)
	if err != nil {
		return snapshot{}, err
	}
	s, err := c.PumpSchedule(ctx, serial)
	if err != nil {
		return snapshot{}, err
	}

	snap := snapshot{telemetry: t, schedule: s}
	if c.snapshots != nil {
		c.snapshots.SetDefault(serial, snap)
	}
	return snap, nil
}

// Invalidate drops any cached records for serial.
func (c *Client) Invalidate(serial string) {
	if c.snapshots != nil {
		c.snapshots.Delete(serial)
	}
}

func (c *Client) SetPower(ctx context.Context, serial string, on bool) error {
	op, value := "TurnOff", 0
	if on {
		op, value = "TurnOn", 1
	}
	return c.command(ctx, op, serial, pathSwitch, map[string]any{"switch": value})
}

func (c *Client) TurnOn(ctx context.Context, serial string) error {
	return c.SetPower(ctx, serial, true)
}

func (c *Client) TurnOff(ctx context.Context, serial string) error {
	return c.SetPower(ctx, serial, false)
}

// SetLED switches the LED ring off, to full brightness, or to dimmed all day.
func (c *Client) SetLED(ctx context.Context, serial string, mode LEDMode) error {
	fields, ok := mode.fields()
	if !ok {
		return argumentError("SetLED", "mode", fmt.Sprintf("unknown LED mode %d", int(mode)))
	}
	return c.command(ctx, "SetLED", serial, pathLED, fields)
}

// SetLEDSchedule turns the LED ring on and dims it inside w.
func (c *Client) SetLEDSchedule(ctx context.Context, serial string, w Window) error {
	if err := validateWindow("SetLEDSchedule", w); err != nil {
		return err
	}
	return c.command(ctx, "SetLEDSchedule", serial, pathLED, map[string]any{
		"ledmode": 1,
		"section": w.Packed(),
		"led":     1,
	})
}

// SetPumpSchedule sets the pump run hours. With enabled false the window is
// stored but the pump runs continuously.
func (c *Client) SetPumpSchedule(ctx context.Context, serial string, w Window, enabled bool) error {
	if err := validateWindow("SetPumpSchedule", w); err != nil {
		return err
	}
	en := 0
	if enabled {
		en = 1
	}
	return c.command(ctx, "SetPumpSchedule", serial, pathPumpSchedule, map[string]any{
		"time": w.Packed(),
		"en":   en,
	})
}

func (c *Client) ResetFilterTimer(ctx context.Context, serial string) error {
	return c.command(ctx, "ResetFilterTimer", serial, pathResetFilter, nil)
}

func (c *Client) ResetWaterTimer(ctx context.Context, serial string) error {
	return c.command(ctx, "ResetWaterTimer", serial, pathResetWater, nil)
}

func (c *Client) ResetPumpCleanTimer(ctx context.Context, serial string) error {
	return c.command(ctx, "ResetPumpCleanTimer", serial, pathResetPumpClean, nil)
}

// command sends a control request. Only the HTTP status is checked; the
// envelope code of control responses is not meaningful.
func (c *Client) command(ctx context.Context, op, serial, path string, fields map[string]any) error {
	if err := requireSerial(op, serial); err != nil {
		return err
	}
	payload := devicePayload(serial)
	for k, v := range fields {
		payload[k] = v
	}

	if _, err := c.post(ctx, path, payload, true); err != nil {
		return fmt.Errorf("%s %s: %w", op, serial, err)
	}
	c.Invalidate(serial)
	c.logger.Info("command sent", zap.String("op", op), zap.String("serial", serial))
	return nil
}

func (c *Client) read(ctx context.Context, path, serial string) (json.RawMessage, error) {
	env, err := c.post(ctx, path, devicePayload(serial), true)
	if err != nil {
		return nil, err
	}
	if env.Code != codeOK {
		return nil, &APIError{Path: path, Code: env.Code, Message: env.Msg}
	}
	return env.Data, nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, payload any, auth bool) (envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return envelope{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return envelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if auth {
		tok, err := c.session.token(ctx)
		if err != nil {
			return envelope{}, err
		}
		req.Header.Set(tokenType, tok.AccessToken)
	}

	c.logger.Debug("petoneer request", zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode == http.StatusUnauthorized && auth {
		c.session.invalidate()
	}
	if resp.StatusCode != http.StatusOK {
		return envelope{}, &HTTPStatusError{Path: path, Status: resp.StatusCode, Body: string(data)}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("decode %s response: %w", path, err)
	}
	return env, nil
}

func devicePayload(serial string) map[string]any {
	return map[string]any{"sn": serial, "protocol": protocol}
}

func requireSerial(op, serial string) error {
	if strings.TrimSpace(serial) == "" {
		return argumentError(op, "serial", "the device serial number must be provided")
	}
	return nil
}

func validateWindow(op string, w Window) error {
	if !w.Start.Valid() {
		return argumentError(op, "start", fmt.Sprintf("%s is not a time of day", w.Start))
	}
	if !w.End.Valid() {
		return argumentError(op, "end", fmt.Sprintf("%s is not a time of day", w.End))
	}
	start, end := EncodeSchedule(w.Start), EncodeSchedule(w.End)
	if start == end {
		return argumentError(op, "end", "start and end must differ")
	}
	if end < start {
		return argumentError(op, "end", "windows crossing midnight are not supported")
	}
	return nil
}

func isEmptyJSON(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
