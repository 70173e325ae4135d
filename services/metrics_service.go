package services

import (
	"sync/atomic"
	"time"

	"launchdeck/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchdeck_http_requests_total",
			Help: "Total API requests",
		},
		[]string{"path", "method"},
	)

	requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchdeck_http_request_errors_total",
			Help: "API requests answered with a 4xx or 5xx status",
		},
		[]string{"path", "method"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "launchdeck_http_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	launchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchdeck_launches_total",
			Help: "Launch attempts by result",
		},
		[]string{"result"},
	)

	stopTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "launchdeck_stops_total",
			Help: "Stop operations",
		},
	)

	transitionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchdeck_status_transitions_total",
			Help: "Status changes detected by reconciliation",
		},
		[]string{"from", "to"},
	)

	targetsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "launchdeck_targets",
			Help: "Catalogued targets by status",
		},
		[]string{"status"},
	)

	portsInUse = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "launchdeck_ports_in_use",
			Help: "Ports currently held by targets",
		},
	)

	totalRequests atomic.Int64
	totalErrors   atomic.Int64
)

func init() {
	prometheus.MustRegister(requestCount, requestErrors, requestDuration)
	prometheus.MustRegister(launchTotal, stopTotal, transitionTotal)
	prometheus.MustRegister(targetsGauge, portsInUse)
}

// RecordRequest feeds the HTTP metrics; status >= 400 counts as an error.
func RecordRequest(path, method string, status int, elapsed time.Duration) {
	totalRequests.Add(1)
	requestCount.WithLabelValues(path, method).Inc()
	requestDuration.WithLabelValues(path, method).Observe(elapsed.Seconds())
	if status >= 400 {
		totalErrors.Add(1)
		requestErrors.WithLabelValues(path, method).Inc()
	}
}

func GetTotalRequestCount() int64 {
	return totalRequests.Load()
}

func GetTotalErrorCount() int64 {
	return totalErrors.Load()
}

func recordLaunch(ok bool) {
	if ok {
		launchTotal.WithLabelValues("success").Inc()
	} else {
		launchTotal.WithLabelValues("failure").Inc()
	}
}

func recordStop() {
	stopTotal.Inc()
}

func recordTransition(from, to models.AppStatus) {
	transitionTotal.WithLabelValues(string(from), string(to)).Inc()
}

func updateGauges(total, running, ports int) {
	targetsGauge.WithLabelValues(string(models.StatusRunning)).Set(float64(running))
	targetsGauge.WithLabelValues(string(models.StatusStopped)).Set(float64(total - running))
	portsInUse.Set(float64(ports))
}
