package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOperation(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordOperation("add", nil)
	m.RecordOperation("add", nil)
	m.RecordOperation("add", errors.New("boom"))

	assert.InDelta(t, 2, testutil.ToFloat64(m.Operations.WithLabelValues("add", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues("add", "error")), 0)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordOperation("add", nil)
	m.ObserveGet(time.Now())
	m.ObserveList(time.Now())
}
