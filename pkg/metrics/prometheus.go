// Package metrics provides Prometheus metrics for the xG training pipeline.
//
// Collectors live on a package-level Manager registered on a custom
// registry; stages call the Record*/Update* helpers. Batch runs push the
// registry to a Pushgateway at the end of the job.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Drop reasons used as label values by RecordRowDropped.
const (
	DropNegativeDistance = "negative_distance"
	DropNegativeElapsed  = "negative_elapsed"
	DropUndefinedGeom    = "undefined_geometry"
	DropEmptyNet         = "empty_net"
	DropShootout         = "shootout"
	DropOutOfScope       = "out_of_scope_type"
)

const pushJobName = "xg_training"

// Manager owns every pipeline collector.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    map[string]string
	registry       *prometheus.Registry

	// ingestion
	eventsIngested   prometheus.Counter
	eventsDuplicate  prometheus.Counter
	invalidSituation prometheus.Counter
	undefinedGeom    prometheus.Counter

	// assembly
	rowsAssembled prometheus.Gauge
	rowsDropped   *prometheus.CounterVec

	// fitting
	fitJobs       *prometheus.CounterVec
	fitLatency    prometheus.Histogram
	candidatesOut prometheus.Counter
	queueSize     prometheus.Gauge
	workerCount   prometheus.Gauge

	// results
	recipeAUC      *prometheus.GaugeVec
	bestCVAUC      prometheus.Gauge
	testAUC        prometheus.Gauge
	calibrationPct prometheus.Gauge

	// ledger api
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors go to a fresh private registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "xg",
		subsystem:      "pipeline",
		latencyBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:    map[string]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.eventsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "events_ingested_total",
		Help: "Raw play-by-play events accepted from the source",
	})
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "events_duplicate_total",
		Help: "Raw events dropped as duplicates of an already seen (game, event idx)",
	})
	m.invalidSituation = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "events_invalid_situation_total",
		Help: "Events whose situation code could not be decoded",
	})
	m.undefinedGeom = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "events_undefined_geometry_total",
		Help: "Shot attempts without fixed coordinates",
	})
	m.rowsAssembled = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "training_rows",
		Help: "Rows in the assembled training table",
	})
	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "rows_dropped_total",
		Help: "Candidate rows dropped during assembly, by reason",
	}, []string{"reason"})
	m.fitJobs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "fit_jobs_total",
		Help: "Model fit jobs by stage and status",
	}, []string{"stage", "status"})
	m.fitLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    "fit_job_duration_milliseconds",
		Help:    "Wall time of one fit-and-score job",
		Buckets: m.latencyBuckets,
	})
	m.candidatesOut = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "tune_candidates_eliminated_total",
		Help: "Hyperparameter candidates dropped by racing",
	})
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "job_queue_size",
		Help: "Fit jobs waiting in the queue",
	})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "workers",
		Help: "Fit workers in the active pool",
	})
	m.recipeAUC = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "recipe_cv_auc",
		Help: "Mean cross-validated AUC per feature recipe",
	}, []string{"recipe"})
	m.bestCVAUC = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "tune_best_cv_auc",
		Help: "Mean cross-validated AUC of the winning configuration",
	})
	m.testAUC = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "test_auc",
		Help: "Held-out AUC of the final model",
	})
	m.calibrationPct = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "calibration_pct_diff",
		Help: "Predicted minus actual goals on the test partition, percent of actual",
	})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "api", ConstLabels: labels,
		Name: "http_requests_total",
		Help: "Ledger API requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "api", ConstLabels: labels,
		Name:    "http_request_duration_milliseconds",
		Help:    "Ledger API request latency",
		Buckets: m.latencyBuckets,
	}, []string{"endpoint", "method", "status"})
}

// RecordEventIngested counts n accepted raw events.
func RecordEventIngested(n int) {
	globalManager.eventsIngested.Add(float64(n))
}

// RecordEventDuplicate increments the duplicate events counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordInvalidSituation increments the undecodable situation code counter.
func RecordInvalidSituation() {
	globalManager.invalidSituation.Inc()
}

// RecordUndefinedGeometry counts shot attempts without fixed coordinates.
func RecordUndefinedGeometry(n int) {
	globalManager.undefinedGeom.Add(float64(n))
}

// UpdateTrainingRows sets the size of the assembled table.
func UpdateTrainingRows(n int) {
	globalManager.rowsAssembled.Set(float64(n))
}

// RecordRowDropped counts n rows dropped for reason.
func RecordRowDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.rowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordFitJob counts a finished fit job and its latency.
func RecordFitJob(stage string, failed bool, latencyMs float64) {
	status := "ok"
	if failed {
		status = "failed"
	}
	globalManager.fitJobs.WithLabelValues(stage, status).Inc()
	globalManager.fitLatency.Observe(latencyMs)
}

// RecordCandidateEliminated counts a racing elimination.
func RecordCandidateEliminated() {
	globalManager.candidatesOut.Inc()
}

// UpdateQueueSize sets the pending job count.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the size of the running pool.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateRecipeAUC publishes a recipe's mean CV AUC.
func UpdateRecipeAUC(recipe string, auc float64) {
	globalManager.recipeAUC.WithLabelValues(recipe).Set(auc)
}

// UpdateBestCVAUC publishes the tuner winner's mean CV AUC.
func UpdateBestCVAUC(auc float64) {
	globalManager.bestCVAUC.Set(auc)
}

// UpdateTestAUC publishes the held-out AUC.
func UpdateTestAUC(auc float64) {
	globalManager.testAUC.Set(auc)
}

// UpdateCalibrationPct publishes the calibration percentage difference.
func UpdateCalibrationPct(pct float64) {
	globalManager.calibrationPct.Set(pct)
}

// RecordHTTPRequest counts one API request and its latency.
func RecordHTTPRequest(endpoint, method, status string, latencyMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	globalManager.httpLatency.WithLabelValues(endpoint, method, status).Observe(latencyMs)
}

// GetRegistry returns the registry holding the pipeline metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Push sends the registry to a Pushgateway under the training job name.
func Push(url string, grouping map[string]string) error {
	p := push.New(url, pushJobName).Gatherer(customRegistry)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}
