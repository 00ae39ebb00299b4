// Package apiclient reads and drives a remote dashboard proxy over HTTP,
// the same way the browser UI calls the /api endpoints.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"remo_dashboard"
)

const defaultTimeout = 20 * time.Second

// StatusError is a non-2xx answer from the proxy.
type StatusError struct {
	Op      string
	Status  int
	Message string // proxy's {"error": ...} text, if any
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API %s error: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("API %s error: status %d: %s", e.Op, e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the proxy at baseURL, e.g. "http://localhost:8080".
// A nil httpClient gets a default with a timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Appliances(ctx context.Context) ([]remo_dashboard.Appliance, error) {
	var out []remo_dashboard.Appliance
	if err := c.do(ctx, "fetch appliances", http.MethodGet, "/api/appliances", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Devices(ctx context.Context) ([]remo_dashboard.Device, error) {
	var out []remo_dashboard.Device
	if err := c.do(ctx, "fetch devices", http.MethodGet, "/api/devices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateAirconSettings(ctx context.Context, applianceID string, req remo_dashboard.AirconSettingsRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode aircon settings: %w", err)
	}
	path := "/api/aircon/" + url.PathEscape(applianceID) + "/settings"
	return c.do(ctx, "aircon set", http.MethodPost, path, body, nil)
}

func (c *Client) SendSignal(ctx context.Context, signalID string) error {
	path := "/api/signals/" + url.PathEscape(signalID) + "/send"
	return c.do(ctx, "signal send", http.MethodPost, path, nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("API %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&payload)
		return &StatusError{Op: op, Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("API %s: decode: %w", op, err)
	}
	return nil
}
