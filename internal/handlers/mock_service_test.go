package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"remo_dashboard"
	"remo_dashboard/internal/dashboard"
	"remo_dashboard/internal/models"
	"remo_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockProxy struct {
	checkErr   error
	devices    json.RawMessage
	appliances json.RawMessage
	echo       json.RawMessage
	err        error
	breaker    string

	lastID      string
	lastReq     remo_dashboard.AirconSettingsRequest
	setCalls    int
	signalCalls int
}

func (m *mockProxy) CheckApplianceID(id string) error {
	m.lastID = id
	return m.checkErr
}
func (m *mockProxy) Devices(ctx context.Context) (json.RawMessage, error) {
	return m.devices, m.err
}
func (m *mockProxy) Appliances(ctx context.Context) (json.RawMessage, error) {
	return m.appliances, m.err
}
func (m *mockProxy) SetAirconSettings(ctx context.Context, id string, req remo_dashboard.AirconSettingsRequest) (json.RawMessage, error) {
	m.setCalls++
	m.lastID = id
	m.lastReq = req
	return m.echo, m.err
}
func (m *mockProxy) SendSignal(ctx context.Context, id string) error {
	m.signalCalls++
	m.lastID = id
	return m.err
}
func (m *mockProxy) BreakerState() string { return m.breaker }

type mockDashboard struct {
	mu sync.Mutex

	snapshot      dashboard.Snapshot
	interval      time.Duration
	notifications []dashboard.Notification
	merged        dashboard.MergedSettings

	refreshErr  error
	commandErr  error
	intervalErr error

	lastID        string
	lastPatch     dashboard.PartialSettings
	lastMode      string
	lastSeconds   float64
	lastConfirmed bool
	refreshCalls  int
	manualCalls   int

	changes chan struct{}
}

func (m *mockDashboard) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	return m.refreshErr
}
func (m *mockDashboard) RefreshNow(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manualCalls++
	return m.refreshErr
}
func (m *mockDashboard) ApplySettings(ctx context.Context, id string, patch dashboard.PartialSettings) (dashboard.MergedSettings, error) {
	m.lastID = id
	m.lastPatch = patch
	return m.merged, m.commandErr
}
func (m *mockDashboard) ChangeMode(ctx context.Context, id, mode string) (dashboard.MergedSettings, error) {
	m.lastID = id
	m.lastMode = mode
	return m.merged, m.commandErr
}
func (m *mockDashboard) FireSignal(ctx context.Context, id string) error {
	m.lastID = id
	return m.commandErr
}
func (m *mockDashboard) SetPollingInterval(ctx context.Context, seconds float64, confirmed bool) (time.Duration, error) {
	m.lastSeconds = seconds
	m.lastConfirmed = confirmed
	if m.intervalErr != nil {
		return m.interval, m.intervalErr
	}
	m.interval = time.Duration(seconds * float64(time.Second))
	return m.interval, nil
}
func (m *mockDashboard) Interval() time.Duration { return m.interval }
func (m *mockDashboard) Snapshot() dashboard.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}
func (m *mockDashboard) History() []dashboard.EnvironmentSample  { return m.snapshot.History }
func (m *mockDashboard) Notifications() []dashboard.Notification { return m.notifications }
func (m *mockDashboard) Subscribe() (<-chan struct{}, func()) {
	if m.changes == nil {
		m.changes = make(chan struct{}, 1)
	}
	return m.changes, func() {}
}

func (m *mockDashboard) setSnapshot(s dashboard.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = s
}

type mockEventLog struct {
	resp  []models.DashboardEvent
	err   error
	query models.EventQuery
}

func (m *mockEventLog) List(ctx context.Context, q models.EventQuery) ([]models.DashboardEvent, error) {
	m.query = q
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %s: %v", w.Body.String(), err)
	}
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	decodeBody(t, w, &out)
	return out.Error
}
