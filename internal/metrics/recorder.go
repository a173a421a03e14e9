// Package metrics records launch outcomes as Prometheus metrics.
//
// A launch is one-shot, so nothing is served over HTTP. The parent writes
// the registry to a file in the text exposition format for the
// node_exporter textfile collector to pick up.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-forklaunch/internal/launcher"
)

// Launch results used as the "result" label.
const (
	ResultNormalExit = "normal_exit"
	ResultAbnormal   = "abnormal"
	ResultForkFailed = "fork_failed"
	ResultWaitFailed = "wait_failed"
)

// Recorder holds the metrics of a single launch in a private registry.
type Recorder struct {
	registry *prometheus.Registry

	info        *prometheus.GaugeVec
	launches    *prometheus.CounterVec
	exitCode    prometheus.Gauge
	waitSeconds prometheus.Histogram
	cpuSeconds  *prometheus.CounterVec
	lastLaunch  prometheus.Gauge

	now func() time.Time
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder(version, target string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "forklaunch_info",
				Help: "Information about the launch (value always 1)",
			},
			[]string{"version", "target"},
		),

		launches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forklaunch_launches_total",
				Help: "Launch attempts by result",
			},
			[]string{"result"},
		),

		exitCode: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "forklaunch_child_exit_code",
				Help: "Exit code of the child (-1 = did not exit normally)",
			},
		),

		waitSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "forklaunch_child_wait_seconds",
				Help:    "Time the parent spent blocked waiting for the child",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
			},
		),

		cpuSeconds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forklaunch_child_cpu_seconds_total",
				Help: "CPU time consumed by the child",
			},
			[]string{"mode"},
		),

		lastLaunch: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "forklaunch_last_launch_timestamp_seconds",
				Help: "Unix time the launch finished",
			},
		),

		now: time.Now,
	}

	r.registry.MustRegister(
		r.info,
		r.launches,
		r.exitCode,
		r.waitSeconds,
		r.cpuSeconds,
		r.lastLaunch,
	)

	// Pre-create result series so absent results export as 0.
	for _, result := range []string{ResultNormalExit, ResultAbnormal, ResultForkFailed, ResultWaitFailed} {
		r.launches.WithLabelValues(result)
	}
	r.info.WithLabelValues(version, target).Set(1)

	return r
}

// ObserveOutcome records a child termination collected by the parent.
func (r *Recorder) ObserveOutcome(o launcher.ExitOutcome) {
	switch o.Kind {
	case launcher.NormalExit:
		r.launches.WithLabelValues(ResultNormalExit).Inc()
		r.exitCode.Set(float64(o.Code))
	default:
		r.launches.WithLabelValues(ResultAbnormal).Inc()
		r.exitCode.Set(-1)
	}
	r.waitSeconds.Observe(o.Waited.Seconds())
	r.cpuSeconds.WithLabelValues("user").Add(o.UserTime.Seconds())
	r.cpuSeconds.WithLabelValues("system").Add(o.SystemTime.Seconds())
	r.stamp()
}

// ObserveFailure records a launch that produced no outcome.
func (r *Recorder) ObserveFailure(result string) {
	r.launches.WithLabelValues(result).Inc()
	r.stamp()
}

func (r *Recorder) stamp() {
	r.lastLaunch.Set(float64(r.now().UnixNano()) / 1e9)
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
