package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ToggleRecorded("video", "added")
	m.ToggleRecorded("video", "added")
	m.ToggleRecorded("subscription", "removed")
	m.CascadeFailed("DeleteVideo", "deleteVideoRow", time.Millisecond)
	m.CascadeCompleted("DeleteTweet", time.Millisecond)
	m.BlobDeleteFailed("reaper")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Toggles.WithLabelValues("video", "added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Toggles.WithLabelValues("subscription", "removed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CascadeFailures.WithLabelValues("DeleteVideo", "deleteVideoRow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CascadesCompleted.WithLabelValues("DeleteTweet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlobDeleteFailures.WithLabelValues("reaper")))

	count, err := testutil.GatherAndCount(reg, "vidtube_cascade_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ToggleRecorded("video", "added")
		m.CascadeFailed("DeleteVideo", "x", 0)
		m.CascadeCompleted("DeleteVideo", 0)
		m.BlobDeleteFailed("reaper")
	})
}
