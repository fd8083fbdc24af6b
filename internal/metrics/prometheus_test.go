package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPoolStats(t *testing.T) {
	RecordPoolStats(10, 3, 7)

	assert.Equal(t, 10.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("total")))
	assert.Equal(t, 3.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("acquired")))
	assert.Equal(t, 7.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("idle")))

	// Gauges track the latest snapshot, not a running total
	RecordPoolStats(5, 1, 4)
	assert.Equal(t, 5.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("total")))
}

func TestRecordEvents(t *testing.T) {
	before := testutil.ToFloat64(EventsProcessedTotal.WithLabelValues("inserted"))

	RecordEvents(3, 2, 1)

	assert.Equal(t, before+3, testutil.ToFloat64(EventsProcessedTotal.WithLabelValues("inserted")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(EventsProcessedTotal.WithLabelValues("updated")), 2.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(EventsProcessedTotal.WithLabelValues("skipped")), 1.0)
}
