package handlers

import (
	"errors"
	"net/http"
	"testing"

	"remo_dashboard/internal/remo"
	"remo_dashboard/internal/service"
)

func TestProxy_ListEndpoints(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"devices ok", "/api/devices", nil, http.StatusOK, ""},
		{"appliances ok", "/api/appliances", nil, http.StatusOK, ""},
		{"missing token", "/api/devices", service.ErrMissingToken, http.StatusInternalServerError, "No REMO_TOKEN"},
		{"devices upstream 404", "/api/devices", &remo.UpstreamError{Op: remo.OpDevices, Status: 404}, http.StatusNotFound, "Failed to fetch devices"},
		{"appliances upstream 401", "/api/appliances", &remo.UpstreamError{Op: remo.OpAppliances, Status: 401}, http.StatusUnauthorized, "Failed to fetch appliances"},
		{"transport", "/api/appliances", &remo.TransportError{Op: remo.OpAppliances, Err: errors.New("dial tcp")}, http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &mockProxy{
				devices:    []byte(`[{"id":"d1","newest_events":{"te":{"val":22.5}}}]`),
				appliances: []byte(`[{"id":"a1","type":"AC"}]`),
				err:        tc.err,
			}
			r := newTestRouter(&service.Service{Proxy: p})

			w := serve(r, http.MethodGet, tc.path, "")
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantErr != "" {
				if got := errorOf(t, w); got != tc.wantErr {
					t.Fatalf("error=%q want %q", got, tc.wantErr)
				}
				return
			}
			want := string(p.devices)
			if tc.path == "/api/appliances" {
				want = string(p.appliances)
			}
			if w.Body.String() != want {
				t.Fatalf("body not passed through: %s", w.Body.String())
			}
		})
	}
}

func TestProxy_AirconSettings_CheckOrder(t *testing.T) {
	cases := []struct {
		name     string
		method   string
		checkErr error
		wantCode int
		wantErr  string
	}{
		{"token before method", http.MethodGet, service.ErrMissingToken, http.StatusInternalServerError, "No REMO_TOKEN"},
		{"id before method", http.MethodPut, &service.ValidationError{Status: 400, Message: "Invalid applianceId"}, http.StatusBadRequest, "Invalid applianceId"},
		{"method after id", http.MethodGet, nil, http.StatusMethodNotAllowed, "Method Not Allowed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &mockProxy{checkErr: tc.checkErr}
			r := newTestRouter(&service.Service{Proxy: p})

			w := serve(r, tc.method, "/api/aircon/ac-1/settings", "")
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d", w.Code, tc.wantCode)
			}
			if got := errorOf(t, w); got != tc.wantErr {
				t.Fatalf("error=%q want %q", got, tc.wantErr)
			}
			if p.setCalls != 0 {
				t.Fatalf("vendor must not be called")
			}
		})
	}
}

func TestProxy_AirconSettings_ForwardsBody(t *testing.T) {
	p := &mockProxy{echo: []byte(`{"temp":"24","mode":"cool","vol":"auto","dir":"auto","button":""}`)}
	r := newTestRouter(&service.Service{Proxy: p})

	w := serve(r, http.MethodPost, "/api/aircon/ac-1/settings", `{"temp":24,"mode":"cool"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w.Body.String() != string(p.echo) {
		t.Fatalf("expected vendor echo, got %s", w.Body.String())
	}
	if p.lastID != "ac-1" {
		t.Fatalf("id=%q", p.lastID)
	}
	if p.lastReq.Temp == nil || *p.lastReq.Temp != "24" || p.lastReq.Mode == nil || *p.lastReq.Mode != "cool" {
		t.Fatalf("unexpected request: %s", p.lastReq)
	}
	if p.lastReq.Vol != nil || p.lastReq.Button != nil {
		t.Fatalf("absent fields must stay absent: %s", p.lastReq)
	}
}

func TestProxy_AirconSettings_Errors(t *testing.T) {
	p := &mockProxy{}
	r := newTestRouter(&service.Service{Proxy: p})
	if w := serve(r, http.MethodPost, "/api/aircon/ac-1/settings", `{"temp":`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status=%d", w.Code)
	}

	p.err = &remo.UpstreamError{Op: remo.OpAirconSettings, Status: 400, Body: "bad mode"}
	w := serve(r, http.MethodPost, "/api/aircon/ac-1/settings", `{"mode":"dry"}`)
	if w.Code != http.StatusBadRequest || errorOf(t, w) != "Failed to set aircon settings" {
		t.Fatalf("upstream: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestProxy_SendSignal(t *testing.T) {
	p := &mockProxy{}
	r := newTestRouter(&service.Service{Proxy: p})

	w := serve(r, http.MethodPost, "/api/signals/sig-1/send", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"success":true}` {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if p.lastID != "sig-1" {
		t.Fatalf("id=%q", p.lastID)
	}

	p.err = &remo.UpstreamError{Op: remo.OpSendSignal, Status: 503}
	w = serve(r, http.MethodPost, "/api/signals/sig-1/send", "")
	if w.Code != http.StatusServiceUnavailable || errorOf(t, w) != "Failed to send signal" {
		t.Fatalf("upstream: status=%d body=%s", w.Code, w.Body.String())
	}

	p.err = &service.ValidationError{Status: 400, Message: "Invalid signalId"}
	w = serve(r, http.MethodPost, "/api/signals/sig-1/send", "")
	if w.Code != http.StatusBadRequest || errorOf(t, w) != "Invalid signalId" {
		t.Fatalf("validation: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRouter_HealthAndNoMethod(t *testing.T) {
	r := newTestRouter(&service.Service{Proxy: &mockProxy{}})

	w := serve(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	r = newTestRouter(&service.Service{Proxy: &mockProxy{breaker: "open"}})
	w = serve(r, http.MethodGet, "/health", "")
	if w.Body.String() != `{"status":"ok","vendor_circuit":"open"}` {
		t.Fatalf("health with breaker: %s", w.Body.String())
	}

	w = serve(r, http.MethodDelete, "/api/devices", "")
	if w.Code != http.StatusMethodNotAllowed || errorOf(t, w) != "Method Not Allowed" {
		t.Fatalf("no method: %d %s", w.Code, w.Body.String())
	}
}

func TestRouter_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remo_dashboard_poll_total 1\n"))
	})
	r := NewHandler(&service.Service{}, nil, metrics).InitRoutes()

	w := serve(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || w.Body.String() != "remo_dashboard_poll_total 1\n" {
		t.Fatalf("metrics: %d %s", w.Code, w.Body.String())
	}
	if w := serve(newTestRouter(&service.Service{}), http.MethodGet, "/metrics", ""); w.Code != http.StatusNotFound {
		t.Fatalf("metrics route without handler: %d", w.Code)
	}
}
