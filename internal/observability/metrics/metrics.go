package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics exposes counters/gauges for the lead and campaign stores.
type StoreMetrics struct {
	mutationsTotal      *prometheus.CounterVec
	persistFailures     *prometheus.CounterVec
	collectionSize      *prometheus.GaugeVec
	persistLatency      *prometheus.HistogramVec
	notificationsTotal  *prometheus.CounterVec
	validationRejection *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospector",
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Total store mutations by collection, operation and outcome",
		}, []string{"collection", "op", "outcome"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospector",
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "Total failed writes to the storage medium",
		}, []string{"collection"}),
		collectionSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "prospector",
			Subsystem: "store",
			Name:      "collection_size",
			Help:      "Number of records currently held in memory",
		}, []string{"collection"}),
		persistLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "prospector",
			Subsystem: "store",
			Name:      "persist_latency_seconds",
			Help:      "Latency of full-collection saves",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospector",
			Subsystem: "notify",
			Name:      "emitted_total",
			Help:      "Total notifications emitted by kind",
		}, []string{"kind"}),
		validationRejection: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospector",
			Subsystem: "validation",
			Name:      "rejections_total",
			Help:      "Total writes rejected by validation, by field",
		}, []string{"field"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.mutationsTotal,
		m.persistFailures,
		m.collectionSize,
		m.persistLatency,
		m.notificationsTotal,
		m.validationRejection,
	)
	return m
}

func (m *StoreMetrics) ObserveMutation(collection, op, outcome string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(collection, op, outcome).Inc()
}

func (m *StoreMetrics) ObservePersist(collection string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.persistLatency.WithLabelValues(collection).Observe(elapsed.Seconds())
	if err != nil {
		m.persistFailures.WithLabelValues(collection).Inc()
	}
}

func (m *StoreMetrics) SetCollectionSize(collection string, n int) {
	if m == nil {
		return
	}
	m.collectionSize.WithLabelValues(collection).Set(float64(n))
}

func (m *StoreMetrics) ObserveNotification(kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind).Inc()
}

func (m *StoreMetrics) ObserveValidationRejection(field string) {
	if m == nil {
		return
	}
	m.validationRejection.WithLabelValues(field).Inc()
}
