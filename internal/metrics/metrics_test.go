package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.DecodeOutcome("described")
	m.AggregateObserved(3, time.Second, nil)
	m.BatchObserved(time.Second)
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.DecodeOutcome("described")
	m.DecodeOutcome("described")
	m.DecodeOutcome("failed")
	m.AggregateObserved(2, 10*time.Millisecond, nil)
	m.AggregateObserved(2, 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decodes.WithLabelValues("described")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodes.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aggregateCalls.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aggregateCalls.WithLabelValues("error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.aggregateCalls))
}
