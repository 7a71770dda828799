package services

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tomcat-devloop/internal/logger"
)

var (
	buildRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devloop_build_runs_total",
			Help: "Build verb invocations by result",
		},
		[]string{"verb", "result"},
	)

	buildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devloop_build_duration_seconds",
			Help:    "Duration of build verb invocations",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"verb"},
	)

	serverTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devloop_server_transitions_total",
			Help: "Server lifecycle state transitions",
		},
		[]string{"state"},
	)

	processKills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devloop_process_kills_total",
			Help: "Forced terminations by result",
		},
		[]string{"result"},
	)

	syncedFiles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "devloop_synced_files_total",
			Help: "Files copied by resource synchronization",
		},
	)

	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devloop_http_requests_total",
			Help: "Daemon HTTP requests",
		},
		[]string{"path", "code"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devloop_http_request_duration_seconds",
			Help:    "Duration of daemon HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// 健康检查接口使用的本地计数
	totalRequests int64
	errorRequests int64
)

func init() {
	prometheus.MustRegister(buildRuns)
	prometheus.MustRegister(buildDuration)
	prometheus.MustRegister(serverTransitions)
	prometheus.MustRegister(processKills)
	prometheus.MustRegister(syncedFiles)
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(requestDuration)
}

// RecordRequest counts one handled HTTP request.
func RecordRequest(path string, status int, seconds float64) {
	requestCount.WithLabelValues(path, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(path).Observe(seconds)
	atomic.AddInt64(&totalRequests, 1)
	if status >= 400 {
		atomic.AddInt64(&errorRequests, 1)
	}
}

func GetTotalRequestCount() int64 {
	return atomic.LoadInt64(&totalRequests)
}

func GetTotalErrorCount() int64 {
	return atomic.LoadInt64(&errorRequests)
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func observeBuild(verb Verb, d time.Duration, err error) {
	buildRuns.WithLabelValues(string(verb), resultLabel(err)).Inc()
	buildDuration.WithLabelValues(string(verb)).Observe(d.Seconds())
}

func observeKill(ok bool) {
	if ok {
		processKills.WithLabelValues("success").Inc()
	} else {
		processKills.WithLabelValues("failure").Inc()
	}
}

/**
 * Push the local metrics to a pushgateway
 * @param {string} addr - Pushgateway address
 * @param {string} instance - Grouping label, usually the workspace directory
 * @returns {error} Push error
 */
func PushMetrics(addr, instance string) error {
	if addr == "" {
		return fmt.Errorf("pushgateway address is empty")
	}
	err := push.New(addr, "tomcat_devloop").
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", instance).
		Push()
	if err != nil {
		logger.Errorf("Push metrics to %s failed: %v", addr, err)
		return err
	}
	logger.Infof("Metrics pushed to %s", addr)
	return nil
}
