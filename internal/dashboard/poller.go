package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TickFunc is invoked on every scheduled or manual refresh. Errors from
// scheduled ticks are dropped; RefreshNow returns them.
type TickFunc func(ctx context.Context) error

// Poller owns a single repeating fetch cycle. It is safe for concurrent use.
type Poller struct {
	ctl      sync.Mutex // serializes Start/Stop/SetInterval
	ctx      context.Context
	onTick   TickFunc
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	stopped  bool
	active   atomic.Int32
}

// Start ticks once immediately and then every interval until Stop or ctx is
// done. Ticks receive ctx, so changing the interval never cancels a fetch in
// flight.
func Start(ctx context.Context, interval time.Duration, onTick TickFunc) (*Poller, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	p := &Poller{ctx: ctx, onTick: onTick, interval: interval}
	p.launch()
	return p, nil
}

// launch starts a loop for p.interval. Caller holds ctl or owns p exclusively.
func (p *Poller) launch() {
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop, p.done = stop, done
	p.active.Add(1)
	go p.loop(p.interval, stop, done)
}

func (p *Poller) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer p.active.Add(-1)

	_ = p.onTick(p.ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-p.ctx.Done():
			return
		case <-t.C:
			// a stop may race the ticker; prefer it
			select {
			case <-stop:
				return
			default:
			}
			_ = p.onTick(p.ctx)
		}
	}
}

// halt cancels the running loop and waits for it to exit. Caller holds ctl.
func (p *Poller) halt() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop, p.done = nil, nil
}

// SetInterval replaces the running loop with one at d, which ticks
// immediately. A non-positive d is rejected and the previous interval kept.
// Once stopped, or once the start context is done, it returns
// ErrPollerStopped.
func (p *Poller) SetInterval(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidInterval
	}
	p.ctl.Lock()
	defer p.ctl.Unlock()
	if p.stopped || p.ctx.Err() != nil {
		return ErrPollerStopped
	}
	p.halt()
	p.interval = d
	p.launch()
	return nil
}

// Stop cancels the repeating cycle. It is idempotent.
func (p *Poller) Stop() {
	p.ctl.Lock()
	defer p.ctl.Unlock()
	p.stopped = true
	p.halt()
}

// RefreshNow runs a one-shot tick on the caller's goroutine without touching
// the schedule.
func (p *Poller) RefreshNow(ctx context.Context) error {
	return p.onTick(ctx)
}

// Interval returns the current period.
func (p *Poller) Interval() time.Duration {
	p.ctl.Lock()
	defer p.ctl.Unlock()
	return p.interval
}

// Active returns the number of repeating loops currently running: 1 while
// scheduled, 0 after Stop or context cancellation.
func (p *Poller) Active() int {
	return int(p.active.Load())
}
