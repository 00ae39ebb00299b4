package service

import (
	"context"
	"encoding/json"
	"time"

	"remo_dashboard"
	"remo_dashboard/internal/dashboard"
	"remo_dashboard/internal/models"
	"remo_dashboard/internal/repository"
)

// Proxy forwards authenticated calls to the vendor API and passes its JSON
// through untouched.
type Proxy interface {
	CheckApplianceID(id string) error
	Devices(ctx context.Context) (json.RawMessage, error)
	Appliances(ctx context.Context) (json.RawMessage, error)
	SetAirconSettings(ctx context.Context, applianceID string, req remo_dashboard.AirconSettingsRequest) (json.RawMessage, error)
	SendSignal(ctx context.Context, signalID string) error
	BreakerState() string
}

// Dashboard exposes the server-side dashboard state and its commands.
type Dashboard interface {
	Refresh(ctx context.Context) error
	RefreshNow(ctx context.Context) error
	ApplySettings(ctx context.Context, applianceID string, patch dashboard.PartialSettings) (dashboard.MergedSettings, error)
	ChangeMode(ctx context.Context, applianceID, mode string) (dashboard.MergedSettings, error)
	FireSignal(ctx context.Context, signalID string) error
	SetPollingInterval(ctx context.Context, seconds float64, confirmed bool) (time.Duration, error)
	Interval() time.Duration
	Snapshot() dashboard.Snapshot
	History() []dashboard.EnvironmentSample
	Notifications() []dashboard.Notification
	Subscribe() (<-chan struct{}, func())
}

// EventLog reads the dashboard activity log.
type EventLog interface {
	List(ctx context.Context, q models.EventQuery) ([]models.DashboardEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Proxy
	Dashboard
	EventLog
}

// NewService wires the proxy, the dashboard and the repository-backed event log.
func NewService(repos *repository.Repository, proxy Proxy, dash Dashboard) *Service {
	return &Service{
		Proxy:     proxy,
		Dashboard: dash,
		EventLog:  NewEventLogService(repos.EventRepo),
	}
}

var _ Dashboard = (*dashboard.Dashboard)(nil)
