package repository

import (
	"fmt"
	"testing"
	"time"

	"remo_dashboard/internal/models"
	"remo_dashboard/internal/repository/db"
)

func TestEventSQLite_ActivityLog(t *testing.T) {
	conn, err := db.InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()

	repo := NewRepository(conn, 4).EventRepo
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []models.DashboardEvent{
		{Type: models.EventPollError, Description: "failed to fetch dashboard data"},
		{Type: models.EventAirconSettings, Target: "ac-1", Description: "aircon settings sent", Metadata: map[string]any{"mode": "cool"}},
		{Type: models.EventSignalSent, Target: "sig-1", Description: "light signal sent"},
		{Type: models.EventCommandFailed, Target: "ac-1", Description: "failed to send aircon settings", Metadata: map[string]any{"error": "400"}},
		{Type: models.EventAirconSettings, Target: "ac-1", Description: "aircon settings sent", Metadata: map[string]any{"mode": "warm"}},
		{Type: models.EventCommandFailed, Target: "sig-1", Description: "light operation failed"},
	}
	for i, ev := range events {
		ev.EventID = fmt.Sprintf("ev-%d", i)
		ev.OccurredAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Append(ctx(t), ev); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
	}

	all, err := repo.List(ctx(t), models.EventQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("retained %d events, want 4", len(all))
	}
	if all[0].EventID != "ev-5" || all[3].EventID != "ev-2" {
		t.Fatalf("want newest first ev-5..ev-2, got %s..%s", all[0].EventID, all[3].EventID)
	}
	if !all[0].OccurredAt.Equal(base.Add(5 * time.Minute)) {
		t.Errorf("occurred_at = %v", all[0].OccurredAt)
	}

	ac, err := repo.List(ctx(t), models.EventQuery{Target: "ac-1"})
	if err != nil {
		t.Fatalf("List by target: %v", err)
	}
	if len(ac) != 2 || ac[0].Metadata["mode"] != "warm" || ac[1].Type != models.EventCommandFailed {
		t.Fatalf("ac-1 events: %+v", ac)
	}

	failures, err := repo.List(ctx(t), models.EventQuery{Type: models.EventCommandFailed, Limit: 1})
	if err != nil {
		t.Fatalf("List failures: %v", err)
	}
	if len(failures) != 1 || failures[0].Target != "sig-1" {
		t.Fatalf("latest failure: %+v", failures)
	}

	window, err := repo.List(ctx(t), models.EventQuery{From: base.Add(3 * time.Minute), To: base.Add(4 * time.Minute)})
	if err != nil {
		t.Fatalf("List window: %v", err)
	}
	if len(window) != 2 || window[0].EventID != "ev-4" || window[1].EventID != "ev-3" {
		t.Fatalf("window events: %+v", window)
	}
}
