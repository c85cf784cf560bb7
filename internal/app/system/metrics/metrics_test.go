package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/metrics"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.ObservePass(time.Second, nil)
	m.SetSourceDocuments("Users", 3)
	m.SetQueueItems("rider", "pending", 1)
	m.AddDropped(2)
	m.IncrementTransition("approve", "ok")
	m.IncrementPartialWrite("archive")
}

func TestCounters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.IncrementTransition("approve", "ok")
	m.IncrementTransition("approve", "ok")
	m.IncrementTransition("reject", "partial")
	m.IncrementPartialWrite("subject")
	m.AddDropped(3)
	m.AddDropped(0)
	m.SetQueueItems("customer", "pending", 4)
	m.ObservePass(10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("reject", "partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PartialWrites.WithLabelValues("subject")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DroppedItems))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.QueueItems.WithLabelValues("customer", "pending")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PassLatency))
}
