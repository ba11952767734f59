package prometheusmetrics

import (
	"strconv"
	"time"

	"github.com/brittanyzellman/prebid-tlx/config"
	"github.com/brittanyzellman/prebid-tlx/metrics"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics defines the Prometheus metrics backing the MetricsEngine implementation.
type Metrics struct {
	Registry *prometheus.Registry
	Gatherer prometheus.Gatherer

	connCounter   prometheus.Gauge
	connError     *prometheus.CounterVec
	bidRequests   *prometheus.CounterVec
	requests      *prometheus.CounterVec
	reqTimer      *prometheus.HistogramVec
	adaptRequests *prometheus.CounterVec
	adaptErrors   *prometheus.CounterVec
	adaptTimer    *prometheus.HistogramVec
	adaptBids     *prometheus.CounterVec
	adaptPrices   *prometheus.HistogramVec
	adaptWarnings *prometheus.CounterVec
}

const (
	adapterLabel     = "adapter"
	bidTypeLabel     = "bid_type"
	codeLabel        = "code"
	errorLabel       = "error"
	hasBidsLabel     = "has_bids"
	hasRendererLabel = "has_renderer"
	requestTypeLabel = "request_type"
	statusLabel      = "status"
)

// NewMetrics builds every metric and registers it in a registry private to the engine.
func NewMetrics(cfg config.PrometheusMetrics) *Metrics {
	// 50ms steps up to one second, then a coarse tail.
	timerBuckets := prometheus.LinearBuckets(0.05, 0.05, 20)
	timerBuckets = append(timerBuckets, []float64{1.5, 2.0, 3.0, 5.0, 10.0, 50.0}...)

	registry := prometheus.NewRegistry()
	m := &Metrics{
		Registry: registry,
		Gatherer: registry,
	}

	m.connCounter = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "active_connections",
		Help:      "Current number of active (open) connections.",
	})
	m.connError = newCounter(cfg, "connection_errors_total",
		"Errors reported on the connections coming in.",
		[]string{"ErrorType"})
	m.bidRequests = newCounter(cfg, "bid_requests_total",
		"Total number of bid requests received.",
		[]string{requestTypeLabel, statusLabel})
	m.requests = newCounter(cfg, "requests_total",
		"Total number of requests received.",
		[]string{requestTypeLabel, statusLabel})
	m.reqTimer = newHistogram(cfg, "request_time_seconds",
		"Seconds to resolve each request.",
		[]string{requestTypeLabel, statusLabel}, timerBuckets)
	m.adaptRequests = newCounter(cfg, "adapter_requests_total",
		"Number of requests sent out to each exchange.",
		[]string{adapterLabel, hasBidsLabel})
	m.adaptErrors = newCounter(cfg, "adapter_errors_total",
		"Number of fatal errors per adapter call, by kind.",
		[]string{adapterLabel, errorLabel})
	m.adaptTimer = newHistogram(cfg, "adapter_time_seconds",
		"Seconds to resolve each request to an exchange.",
		[]string{adapterLabel}, timerBuckets)
	m.adaptBids = newCounter(cfg, "adapter_bids_received_total",
		"Number of bids received from each exchange.",
		[]string{adapterLabel, bidTypeLabel, hasRendererLabel})
	m.adaptPrices = newHistogram(cfg, "adapter_prices",
		"Value of the bids from each exchange.",
		[]string{adapterLabel}, prometheus.LinearBuckets(0.1, 0.1, 200))
	m.adaptWarnings = newCounter(cfg, "adapter_warnings_total",
		"Number of non-fatal problems reported per adapter call, by code.",
		[]string{adapterLabel, codeLabel})

	registry.MustRegister(
		m.connCounter,
		m.connError,
		m.bidRequests,
		m.requests,
		m.reqTimer,
		m.adaptRequests,
		m.adaptErrors,
		m.adaptTimer,
		m.adaptBids,
		m.adaptPrices,
		m.adaptWarnings,
	)
	return m
}

func newCounter(cfg config.PrometheusMetrics, name string, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	return prometheus.NewCounterVec(opts, labels)
}

func newHistogram(cfg config.PrometheusMetrics, name string, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	return prometheus.NewHistogramVec(opts, labels)
}

func (m *Metrics) RecordConnectionAccept(success bool) {
	if success {
		m.connCounter.Inc()
	} else {
		m.connError.WithLabelValues("accept_error").Inc()
	}
}

func (m *Metrics) RecordConnectionClose(success bool) {
	if success {
		m.connCounter.Dec()
	} else {
		m.connError.WithLabelValues("close_error").Inc()
	}
}

func (m *Metrics) RecordRequest(labels metrics.Labels) {
	m.requests.With(resolveLabels(labels)).Inc()
}

func (m *Metrics) RecordBidRequests(labels metrics.Labels, numBids int) {
	m.bidRequests.With(resolveLabels(labels)).Add(float64(numBids))
}

func (m *Metrics) RecordRequestTime(labels metrics.Labels, length time.Duration) {
	m.reqTimer.With(resolveLabels(labels)).Observe(length.Seconds())
}

func (m *Metrics) RecordAdapterRequest(labels metrics.AdapterLabels) {
	m.adaptRequests.With(prometheus.Labels{
		adapterLabel: string(labels.Adapter),
		hasBidsLabel: strconv.FormatBool(labels.AdapterBids == metrics.AdapterBidPresent),
	}).Inc()

	for err := range labels.AdapterErrors {
		m.adaptErrors.With(prometheus.Labels{
			adapterLabel: string(labels.Adapter),
			errorLabel:   string(err),
		}).Inc()
	}
}

func (m *Metrics) RecordAdapterBidReceived(labels metrics.AdapterLabels, bidType openrtb_ext.BidType, hasRenderer bool) {
	m.adaptBids.With(prometheus.Labels{
		adapterLabel:     string(labels.Adapter),
		bidTypeLabel:     string(bidType),
		hasRendererLabel: strconv.FormatBool(hasRenderer),
	}).Inc()
}

func (m *Metrics) RecordAdapterPrice(labels metrics.AdapterLabels, cpm float64) {
	m.adaptPrices.With(prometheus.Labels{
		adapterLabel: string(labels.Adapter),
	}).Observe(cpm)
}

func (m *Metrics) RecordAdapterTime(labels metrics.AdapterLabels, length time.Duration) {
	m.adaptTimer.With(prometheus.Labels{
		adapterLabel: string(labels.Adapter),
	}).Observe(length.Seconds())
}

func (m *Metrics) RecordAdapterWarning(labels metrics.AdapterLabels, code int) {
	m.adaptWarnings.With(prometheus.Labels{
		adapterLabel: string(labels.Adapter),
		codeLabel:    strconv.Itoa(code),
	}).Inc()
}

func resolveLabels(labels metrics.Labels) prometheus.Labels {
	return prometheus.Labels{
		requestTypeLabel: string(labels.RType),
		statusLabel:      string(labels.RequestStatus),
	}
}
