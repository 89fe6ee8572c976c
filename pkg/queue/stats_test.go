package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketgate/waitroom-server/pkg/infra"
)

func newTestStats(windowSize int, sweepInterval time.Duration) *Stats {
	stats := ProvideStats(infra.ProvideLoggerFactory())
	stats.windowSize = windowSize
	stats.sweepInterval = sweepInterval
	return stats
}

func TestEstimateWaitFromAdmissionRate(t *testing.T) {
	stats := newTestStats(50, 5*time.Second)

	// Two tickets admitted per sweep, so 6 waiting positions clear in
	// 3 sweeps.
	stats.RecordAdmitted("q:a", 2)
	stats.RecordAdmitted("q:a", 2)

	estimate, ok := stats.EstimateWait("q:a", 6)
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, estimate)
}

func TestEstimateWaitAveragesOverWindow(t *testing.T) {
	stats := newTestStats(50, 10*time.Second)

	stats.RecordAdmitted("q:a", 3)
	stats.RecordAdmitted("q:a", 1)

	// Average rate 2 per tick.
	estimate, ok := stats.EstimateWait("q:a", 4)
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, estimate)
}

func TestEstimateWaitUnknownWithoutData(t *testing.T) {
	stats := newTestStats(50, 5*time.Second)

	_, ok := stats.EstimateWait("q:a", 3)
	assert.False(t, ok)

	// All-zero ticks are no better than no ticks.
	stats.RecordAdmitted("q:a", 0)
	stats.RecordAdmitted("q:a", 0)
	_, ok = stats.EstimateWait("q:a", 3)
	assert.False(t, ok)
}

func TestRecordAdmittedEvictsOldestTick(t *testing.T) {
	stats := newTestStats(2, 5*time.Second)

	stats.RecordAdmitted("q:a", 10)
	stats.RecordAdmitted("q:a", 1)
	stats.RecordAdmitted("q:a", 1)

	// The window holds only the last two ticks, rate 1 per tick.
	estimate, ok := stats.EstimateWait("q:a", 2)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, estimate)
}

func TestForgetDropsQueueWindow(t *testing.T) {
	stats := newTestStats(50, 5*time.Second)

	stats.RecordAdmitted("q:a", 2)
	stats.Forget("q:a")

	_, ok := stats.EstimateWait("q:a", 2)
	assert.False(t, ok)
}
