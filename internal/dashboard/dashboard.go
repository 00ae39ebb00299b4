package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"remo_dashboard"
	"remo_dashboard/internal/logger"
	"remo_dashboard/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Backend is where the dashboard reads state and sends commands: the
// in-process proxy or the proxy's HTTP endpoints.
type Backend interface {
	Appliances(ctx context.Context) ([]remo_dashboard.Appliance, error)
	Devices(ctx context.Context) ([]remo_dashboard.Device, error)
	UpdateAirconSettings(ctx context.Context, applianceID string, req remo_dashboard.AirconSettingsRequest) error
	SendSignal(ctx context.Context, signalID string) error
}

// PollObserver is told about every completed refresh.
type PollObserver interface {
	ObservePoll(err error, elapsed time.Duration)
}

// SampleSink receives every sample accepted into the history.
type SampleSink interface {
	PublishSample(ctx context.Context, s EnvironmentSample) error
}

// EventSink persists dashboard events.
type EventSink interface {
	Append(ctx context.Context, ev models.DashboardEvent) error
}

// Phase is the refresh state of the dashboard.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// Notification levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// User-facing notification messages.
const (
	MsgFetchFailed   = "failed to fetch dashboard data"
	MsgAirconFailed  = "failed to send aircon settings"
	MsgSignalSent    = "light signal sent"
	MsgSignalFailed  = "light operation failed"
	MsgShortInterval = "short polling intervals increase load on the vendor API"
)

const maxNotifications = 20

// Notification is a transient message for the user.
type Notification struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is a copy of the dashboard state at one point in time.
type Snapshot struct {
	Phase           Phase                      `json:"phase"`
	Appliances      []remo_dashboard.Appliance `json:"appliances"`
	Devices         []remo_dashboard.Device    `json:"devices"`
	History         []EnvironmentSample        `json:"history"`
	IntervalSeconds float64                    `json:"interval_seconds"`
	LastUpdated     *time.Time                 `json:"last_updated,omitempty"`
	Notification    *Notification              `json:"notification,omitempty"`
	Sequence        uint64                     `json:"sequence"`
}

// Options configures a Dashboard. Backend is required.
type Options struct {
	Backend   Backend
	Interval  time.Duration
	Log       *logger.Logger
	Events    EventSink
	Observers []PollObserver
	Sinks     []SampleSink
	Now       func() time.Time
}

// Dashboard aggregates appliances, devices and sensor history and drives the
// polling cycle.
type Dashboard struct {
	backend   Backend
	log       *logger.Logger
	events    EventSink
	observers []PollObserver
	sinks     []SampleSink
	now       func() time.Time

	mu            sync.RWMutex
	phase         Phase
	appliances    []remo_dashboard.Appliance
	devices       []remo_dashboard.Device
	history       []EnvironmentSample
	loaded        bool
	lastUpdated   time.Time
	notifications []Notification
	interval      time.Duration
	issued        uint64 // last sequence handed to a refresh
	applied       uint64 // sequence of the data currently shown
	inflight      int

	pollerMu sync.Mutex
	poller   *Poller

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// New builds an idle dashboard. Call Start to begin polling.
func New(opts Options) *Dashboard {
	d := &Dashboard{
		backend:   opts.Backend,
		log:       opts.Log,
		events:    opts.Events,
		observers: opts.Observers,
		sinks:     opts.Sinks,
		now:       opts.Now,
		phase:     PhaseIdle,
		interval:  opts.Interval,
		subs:      make(map[chan struct{}]struct{}),
	}
	if d.log == nil {
		d.log = logger.Nop()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.interval <= 0 {
		d.interval = DefaultInterval
	}
	return d
}

// Start begins the polling cycle; the first refresh runs immediately.
// Calling Start on a running dashboard is a no-op.
func (d *Dashboard) Start(ctx context.Context) error {
	d.pollerMu.Lock()
	defer d.pollerMu.Unlock()
	if d.poller != nil {
		return nil
	}
	// failures of scheduled ticks surface as notifications and POLL_ERROR events
	p, err := Start(ctx, d.Interval(), d.Refresh)
	if err != nil {
		return err
	}
	d.poller = p
	return nil
}

// Stop ends the polling cycle.
func (d *Dashboard) Stop() {
	d.pollerMu.Lock()
	defer d.pollerMu.Unlock()
	if d.poller != nil {
		d.poller.Stop()
		d.poller = nil
	}
}

// ActivePollers returns the number of running repeating loops.
func (d *Dashboard) ActivePollers() int {
	d.pollerMu.Lock()
	defer d.pollerMu.Unlock()
	if d.poller == nil {
		return 0
	}
	return d.poller.Active()
}

// RefreshNow runs a manual fetch through the running poller, leaving its
// schedule alone. Without a poller it falls back to Refresh.
func (d *Dashboard) RefreshNow(ctx context.Context) error {
	d.pollerMu.Lock()
	p := d.poller
	d.pollerMu.Unlock()
	if p == nil {
		return d.Refresh(ctx)
	}
	return p.RefreshNow(ctx)
}

// Refresh loads appliances and devices and replaces the cached snapshot.
// A response older than the one already shown is discarded.
func (d *Dashboard) Refresh(ctx context.Context) error {
	seq := d.begin()
	start := d.now()

	apps, devs, err := d.fetch(ctx)
	elapsed := d.now().Sub(start)

	sample, appended, stale := d.finish(seq, apps, devs, err)
	for _, o := range d.observers {
		o.ObservePoll(err, elapsed)
	}
	if err != nil {
		d.log.Warnw("dashboard_refresh_failed", "seq", seq, "err", err)
		d.record(ctx, models.EventPollError, "", MsgFetchFailed, map[string]any{"error": err.Error()})
		return fmt.Errorf("refresh dashboard: %w", err)
	}
	if stale {
		d.log.Debugw("dashboard_refresh_stale", "seq", seq)
		return nil
	}
	if appended {
		d.publish(ctx, sample)
	}
	return nil
}

func (d *Dashboard) fetch(ctx context.Context) ([]remo_dashboard.Appliance, []remo_dashboard.Device, error) {
	var (
		apps []remo_dashboard.Appliance
		devs []remo_dashboard.Device
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		apps, err = d.backend.Appliances(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		devs, err = d.backend.Devices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return apps, devs, nil
}

func (d *Dashboard) begin() uint64 {
	d.mu.Lock()
	d.issued++
	seq := d.issued
	d.inflight++
	d.phase = PhaseLoading
	d.mu.Unlock()
	d.broadcast()
	return seq
}

func (d *Dashboard) finish(seq uint64, apps []remo_dashboard.Appliance, devs []remo_dashboard.Device, err error) (sample EnvironmentSample, appended, stale bool) {
	d.mu.Lock()
	d.inflight--
	switch {
	case err != nil:
		d.pushNotification(LevelError, MsgFetchFailed)
	case seq <= d.applied:
		stale = true
	default:
		now := d.now()
		d.applied = seq
		d.appliances = apps
		d.devices = devs
		d.loaded = true
		d.lastUpdated = now
		if len(devs) > 0 {
			s := SampleFromDevice(devs[0], now)
			if s.Complete() {
				d.history = AppendSample(d.history, s)
				sample, appended = s, true
			}
		}
	}
	d.phase = d.settledPhase()
	d.mu.Unlock()
	d.broadcast()
	return sample, appended, stale
}

// settledPhase is the phase after a refresh ends. Caller holds mu.
func (d *Dashboard) settledPhase() Phase {
	switch {
	case d.inflight > 0:
		return PhaseLoading
	case d.loaded:
		return PhaseReady
	default:
		return PhaseError
	}
}

// ApplySettings merges patch into the appliance's last known settings, sends
// the complete set and then refreshes. On failure the cached state is left
// alone and no refresh happens.
func (d *Dashboard) ApplySettings(ctx context.Context, applianceID string, patch PartialSettings) (MergedSettings, error) {
	app, err := d.aircon(applianceID)
	if err != nil {
		return MergedSettings{}, err
	}
	return d.apply(ctx, app, patch)
}

// ChangeMode switches an AC to mode using the first allowed temp, vol and dir
// of that mode.
func (d *Dashboard) ChangeMode(ctx context.Context, applianceID, mode string) (MergedSettings, error) {
	app, err := d.aircon(applianceID)
	if err != nil {
		return MergedSettings{}, err
	}
	patch, err := ModePatch(app, mode)
	if err != nil {
		return MergedSettings{}, err
	}
	return d.apply(ctx, app, patch)
}

func (d *Dashboard) apply(ctx context.Context, app remo_dashboard.Appliance, patch PartialSettings) (MergedSettings, error) {
	merged := Merge(*app.Settings, patch)
	if err := d.backend.UpdateAirconSettings(ctx, app.ID, merged.Request()); err != nil {
		d.commandFailed(ctx, MsgAirconFailed, app.ID, err)
		return merged, fmt.Errorf("send aircon settings: %w", err)
	}
	d.record(ctx, models.EventAirconSettings, app.ID, "aircon settings sent", map[string]any{
		"mode":   merged.Mode,
		"temp":   merged.Temp,
		"vol":    merged.Vol,
		"dir":    merged.Dir,
		"button": merged.Button,
	})
	d.resync(ctx)
	return merged, nil
}

// FireSignal sends a light signal and then refreshes.
func (d *Dashboard) FireSignal(ctx context.Context, signalID string) error {
	if err := d.backend.SendSignal(ctx, signalID); err != nil {
		d.commandFailed(ctx, MsgSignalFailed, signalID, err)
		return fmt.Errorf("send signal: %w", err)
	}
	d.notify(LevelSuccess, MsgSignalSent)
	d.record(ctx, models.EventSignalSent, signalID, MsgSignalSent, nil)
	d.resync(ctx)
	return nil
}

// resync refreshes after a successful command. A failed refresh is already
// reported as a notification.
func (d *Dashboard) resync(ctx context.Context) {
	if err := d.Refresh(ctx); err != nil {
		d.log.Debugw("dashboard_resync_failed", "err", err)
	}
}

func (d *Dashboard) aircon(applianceID string) (remo_dashboard.Appliance, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range d.appliances {
		if a.ID != applianceID {
			continue
		}
		if !a.IsAircon() {
			return remo_dashboard.Appliance{}, fmt.Errorf("%w: %s", ErrNotAircon, applianceID)
		}
		return a, nil
	}
	return remo_dashboard.Appliance{}, fmt.Errorf("%w: %s", ErrApplianceNotFound, applianceID)
}

// SetPollingInterval validates and applies a new interval. The running cycle
// is replaced and ticks immediately. On error the previous interval stays.
func (d *Dashboard) SetPollingInterval(ctx context.Context, seconds float64, confirmed bool) (time.Duration, error) {
	dur, err := ValidateInterval(seconds, confirmed)
	if err != nil {
		return d.Interval(), err
	}

	d.pollerMu.Lock()
	if d.poller != nil {
		if err := d.poller.SetInterval(dur); err != nil {
			d.pollerMu.Unlock()
			return d.Interval(), err
		}
	}
	d.mu.Lock()
	prev := d.interval
	d.interval = dur
	d.mu.Unlock()
	d.pollerMu.Unlock()

	label := strconv.FormatFloat(seconds, 'f', -1, 64)
	d.notify(LevelInfo, "polling interval changed to "+label+" seconds")
	if dur < MinUnconfirmedInterval {
		d.notify(LevelWarning, MsgShortInterval)
	}
	d.record(ctx, models.EventIntervalChanged, "", "polling interval changed", map[string]any{
		"from_seconds": prev.Seconds(),
		"to_seconds":   dur.Seconds(),
	})
	return dur, nil
}

// Interval returns the current polling interval.
func (d *Dashboard) Interval() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.interval
}

// Snapshot returns a copy of the current state.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := Snapshot{
		Phase:           d.phase,
		Appliances:      append([]remo_dashboard.Appliance{}, d.appliances...),
		Devices:         append([]remo_dashboard.Device{}, d.devices...),
		History:         append([]EnvironmentSample{}, d.history...),
		IntervalSeconds: d.interval.Seconds(),
		Sequence:        d.applied,
	}
	if d.loaded {
		t := d.lastUpdated
		s.LastUpdated = &t
	}
	if n := len(d.notifications); n > 0 {
		latest := d.notifications[n-1]
		s.Notification = &latest
	}
	return s
}

// History returns the rolling sample window, oldest first.
func (d *Dashboard) History() []EnvironmentSample {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]EnvironmentSample{}, d.history...)
}

// Notifications returns recent notifications, oldest first.
func (d *Dashboard) Notifications() []Notification {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Notification{}, d.notifications...)
}

// Subscribe returns a channel signalled whenever the snapshot changes, and a
// function that releases it. Signals coalesce; receivers should re-read
// Snapshot.
func (d *Dashboard) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	d.subMu.Lock()
	d.subs[ch] = struct{}{}
	d.subMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.subMu.Lock()
			delete(d.subs, ch)
			d.subMu.Unlock()
		})
	}
}

func (d *Dashboard) broadcast() {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (d *Dashboard) notify(level, msg string) {
	d.mu.Lock()
	d.pushNotification(level, msg)
	d.mu.Unlock()
	d.broadcast()
}

// pushNotification appends to the bounded list. Caller holds mu.
func (d *Dashboard) pushNotification(level, msg string) {
	n := Notification{ID: uuid.NewString(), Level: level, Message: msg, CreatedAt: d.now().UTC()}
	d.notifications = append(d.notifications, n)
	if over := len(d.notifications) - maxNotifications; over > 0 {
		d.notifications = append([]Notification(nil), d.notifications[over:]...)
	}
}

func (d *Dashboard) commandFailed(ctx context.Context, msg, target string, err error) {
	d.log.Warnw("dashboard_command_failed", "message", msg, "target", target, "err", err)
	d.notify(LevelError, msg)
	d.record(ctx, models.EventCommandFailed, target, msg, map[string]any{"error": err.Error()})
}

// record appends to the event log. target is the appliance or signal id the
// event concerns, empty for dashboard-wide events.
func (d *Dashboard) record(ctx context.Context, typ, target, desc string, meta map[string]any) {
	if d.events == nil {
		return
	}
	ev := models.DashboardEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  d.now().UTC(),
		Type:        typ,
		Target:      target,
		Description: desc,
		Metadata:    meta,
	}
	// events outlive the request that caused them
	if err := d.events.Append(context.WithoutCancel(ctx), ev); err != nil {
		d.log.Errorw("dashboard_event_append_failed", "type", typ, "err", err)
	}
}

func (d *Dashboard) publish(ctx context.Context, s EnvironmentSample) {
	for _, sink := range d.sinks {
		if err := sink.PublishSample(ctx, s); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Warnw("sample_publish_failed", "err", err)
		}
	}
}
