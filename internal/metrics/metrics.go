package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"remo_dashboard/internal/dashboard"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "remo_dashboard"

// Poll results.
const (
	resultOK    = "ok"
	resultError = "error"
)

// DashboardSource is read on every scrape.
type DashboardSource interface {
	History() []dashboard.EnvironmentSample
	Interval() time.Duration
}

// Recorder collects dashboard and vendor metrics in its own registry.
type Recorder struct {
	registry *prometheus.Registry

	polls          *prometheus.CounterVec
	pollDuration   prometheus.Histogram
	vendorRequests *prometheus.CounterVec
	vendorLatency  *prometheus.HistogramVec

	temperature  prometheus.Gauge
	humidity     prometheus.Gauge
	illumination prometheus.Gauge
	lastSample   prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_total",
			Help:      "Dashboard refreshes by result",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time to load appliances and devices",
			Buckets:   prometheus.DefBuckets,
		}),
		vendorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_requests_total",
			Help:      "Nature Remo API calls by operation and HTTP status (0 = no response)",
		}, []string{"op", "status"}),
		vendorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vendor_request_duration_seconds",
			Help:      "Nature Remo API latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Latest accepted room temperature",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Latest accepted relative humidity",
		}),
		illumination: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "illumination",
			Help:      "Latest accepted illumination reading",
		}),
		lastSample: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sample_timestamp_seconds",
			Help:      "Time of the latest accepted sample (epoch seconds)",
		}),
	}
	r.registry.MustRegister(
		r.polls,
		r.pollDuration,
		r.vendorRequests,
		r.vendorLatency,
		r.temperature,
		r.humidity,
		r.illumination,
		r.lastSample,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// TrackDashboard exposes history size and polling interval of src.
func (r *Recorder) TrackDashboard(src DashboardSource) {
	r.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_samples",
			Help:      "Samples currently in the rolling history",
		}, func() float64 { return float64(len(src.History())) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poll_interval_seconds",
			Help:      "Current polling interval",
		}, func() float64 { return src.Interval().Seconds() }),
	)
}

// ObservePoll implements dashboard.PollObserver.
func (r *Recorder) ObservePoll(err error, elapsed time.Duration) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	r.polls.WithLabelValues(result).Inc()
	r.pollDuration.Observe(elapsed.Seconds())
}

// PublishSample implements dashboard.SampleSink.
func (r *Recorder) PublishSample(_ context.Context, s dashboard.EnvironmentSample) error {
	if s.Temp != nil {
		r.temperature.Set(*s.Temp)
	}
	if s.Humidity != nil {
		r.humidity.Set(*s.Humidity)
	}
	if s.Light != nil {
		r.illumination.Set(*s.Light)
	}
	if !s.At.IsZero() {
		r.lastSample.Set(float64(s.At.Unix()))
	}
	return nil
}

// ObserveVendorRequest matches remo.RequestObserver.
func (r *Recorder) ObserveVendorRequest(op string, status int, elapsed time.Duration) {
	r.vendorRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	if elapsed > 0 {
		r.vendorLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
