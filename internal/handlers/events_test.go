package handlers

import (
	"net/http"
	"testing"
	"time"

	"remo_dashboard/internal/models"
	"remo_dashboard/internal/service"
)

func TestEventsHandler_ApplianceActivity(t *testing.T) {
	at := time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)
	logs := &mockEventLog{resp: []models.DashboardEvent{
		{EventID: "e2", OccurredAt: at.Add(time.Minute), Type: models.EventCommandFailed, Target: "ac-1",
			Description: "failed to send aircon settings", Metadata: map[string]any{"error": "upstream status 400"}},
		{EventID: "e1", OccurredAt: at, Type: models.EventAirconSettings, Target: "ac-1", Description: "aircon settings sent"},
	}}
	r := newTestRouter(&service.Service{EventLog: logs})

	w := serve(r, http.MethodGet, "/dashboard/events?target=ac-1&type=command_failed&limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := models.EventQuery{Target: "ac-1", Type: "command_failed", Limit: 10}
	if logs.query != want {
		t.Fatalf("query = %+v, want %+v", logs.query, want)
	}

	var out struct {
		Count  int                     `json:"count"`
		Events []models.DashboardEvent `json:"events"`
	}
	decodeBody(t, w, &out)
	if out.Count != 2 || out.Events[0].Target != "ac-1" || out.Events[0].Metadata["error"] != "upstream status 400" {
		t.Fatalf("response = %+v", out)
	}
}

func TestEventsHandler_TimeWindow(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "bare dates cover whole days",
			query:    "from=2025-08-01&to=2025-08-02",
			wantFrom: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 8, 2, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:     "offsets normalized to UTC",
			query:    "from=2025-08-01T09:00:00%2B09:00&to=2025-08-01%2012:00:00",
			wantFrom: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "no window",
			query: "target=sig-1",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := &mockEventLog{}
			r := newTestRouter(&service.Service{EventLog: logs})
			if w := serve(r, http.MethodGet, "/dashboard/events?"+tc.query, ""); w.Code != http.StatusOK {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if !logs.query.From.Equal(tc.wantFrom) || !logs.query.To.Equal(tc.wantTo) {
				t.Fatalf("window = %v..%v, want %v..%v", logs.query.From, logs.query.To, tc.wantFrom, tc.wantTo)
			}
		})
	}
}

func TestEventsHandler_BadRequests(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		err      error
		wantCode int
	}{
		{name: "from", query: "from=yesterday", wantCode: http.StatusBadRequest},
		{name: "to", query: "to=27/08/2025", wantCode: http.StatusBadRequest},
		{name: "limit not a number", query: "limit=all", wantCode: http.StatusBadRequest},
		{name: "limit out of range", query: "limit=9999", err: service.ErrInvalidLimit, wantCode: http.StatusBadRequest},
		{name: "reversed window", query: "from=2025-08-02&to=2025-08-01", err: service.ErrInvalidTimeRange, wantCode: http.StatusBadRequest},
		{name: "unknown type", query: "type=reboot", err: service.ErrUnknownEventType, wantCode: http.StatusBadRequest},
		{name: "storage", query: "target=ac-1", err: errDB, wantCode: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{EventLog: &mockEventLog{err: tc.err}})
			w := serve(r, http.MethodGet, "/dashboard/events?"+tc.query, "")
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			if errorOf(t, w) == "" {
				t.Errorf("missing error message")
			}
		})
	}
}
