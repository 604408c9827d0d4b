package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStoreMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)

	m.ObserveMutation("leads", "add", "ok")
	m.ObserveMutation("leads", "add", "ok")
	m.ObserveMutation("leads", "update", "not_found")
	m.ObservePersist("leads", 2*time.Millisecond, nil)
	m.ObservePersist("leads", time.Millisecond, errors.New("quota"))
	m.SetCollectionSize("leads", 4)
	m.ObserveNotification("success")
	m.ObserveValidationRejection("email")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("leads", "add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("leads", "update", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures.WithLabelValues("leads")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.collectionSize.WithLabelValues("leads")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationRejection.WithLabelValues("email")))
}

func TestStoreMetricsDefaultRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	prev := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = reg
	t.Cleanup(func() { prometheus.DefaultRegisterer = prev })

	m := NewStoreMetrics(nil)
	m.ObserveMutation("campaigns", "toggle", "ok")

	count, err := testutil.GatherAndCount(reg, "prospector_store_mutations_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreMetricsNilSafe(t *testing.T) {
	var m *StoreMetrics
	m.ObserveMutation("leads", "add", "ok")
	m.ObservePersist("leads", time.Second, errors.New("boom"))
	m.SetCollectionSize("leads", 1)
	m.ObserveNotification("info")
	m.ObserveValidationRejection("name")
}
