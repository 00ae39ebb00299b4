package remo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Operation names used in errors, logs and metrics labels.
const (
	OpDevices        = "devices"
	OpAppliances     = "appliances"
	OpAirconSettings = "aircon_settings"
	OpSendSignal     = "send_signal"
)

const (
	DefaultBaseURL = "https://api.nature.global/1"
	DefaultTimeout = 15 * time.Second

	maxBodyBytes     = 4 << 20
	maxErrorBodySize = 256
)

var errInvalidJSON = errors.New("vendor returned invalid JSON")

// RequestObserver is notified once per vendor call. status is 0 when no
// response was received.
type RequestObserver func(op string, status int, elapsed time.Duration)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// BreakerFailures is the number of consecutive transport or 5xx failures
	// that opens the breaker. Zero disables tripping.
	BreakerFailures int
	BreakerOpenFor  time.Duration

	HTTPClient *http.Client
	Observer   RequestObserver
}

// Client talks to the Nature Remo cloud API with a bearer token.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	observer RequestObserver
}

// New builds a Client.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:  base,
		token:    strings.TrimSpace(opts.Token),
		http:     hc,
		breaker:  newBreaker(opts.BreakerFailures, opts.BreakerOpenFor),
		observer: opts.Observer,
	}
}

func newBreaker(fails int, openFor time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "remo-api",
		Timeout: openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return fails > 0 && c.ConsecutiveFailures >= uint32(fails)
		},
		// vendor 4xx answers mean the API is up
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var up *UpstreamError
			return errors.As(err, &up) && up.Status < http.StatusInternalServerError
		},
	})
}

// HasToken reports whether a bearer token is configured.
func (c *Client) HasToken() bool { return c.token != "" }

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() string { return c.breaker.State().String() }

// Devices returns the raw JSON array from GET /devices.
func (c *Client) Devices(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, OpDevices, http.MethodGet, "/devices", nil)
}

// Appliances returns the raw JSON array from GET /appliances.
func (c *Client) Appliances(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, OpAppliances, http.MethodGet, "/appliances", nil)
}

// SetAirconSettings posts form fields to /appliances/{id}/aircon_settings and
// returns the vendor's settings echo.
func (c *Client) SetAirconSettings(ctx context.Context, applianceID string, form url.Values) (json.RawMessage, error) {
	path := "/appliances/" + url.PathEscape(applianceID) + "/aircon_settings"
	return c.do(ctx, OpAirconSettings, http.MethodPost, path, form)
}

// SendSignal fires a pre-recorded IR signal. The vendor body is discarded.
func (c *Client) SendSignal(ctx context.Context, signalID string) error {
	path := "/signals/" + url.PathEscape(signalID) + "/send"
	_, err := c.do(ctx, OpSendSignal, http.MethodPost, path, nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, form url.Values) (json.RawMessage, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		return c.roundTrip(ctx, op, method, path, form)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.observe(op, 0, 0)
			return nil, &TransportError{Op: op, Err: err}
		}
		return nil, err
	}
	return res.(json.RawMessage), nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, form url.Values) (json.RawMessage, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, 0, time.Since(start))
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.observe(op, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Op: op, Status: resp.StatusCode, Body: truncate(data)}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(data) {
		return nil, &TransportError{Op: op, Err: errInvalidJSON}
	}
	return json.RawMessage(data), nil
}

func (c *Client) observe(op string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer(op, status, elapsed)
	}
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBodySize {
		return s[:maxErrorBodySize]
	}
	return s
}
