package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/meshmon/meshmon/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAddAndRetrieve(t *testing.T) {
	buffer := NewBuffer(5)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		buffer.Add(TelemetryPoint{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Status:     models.StatusOnline,
			CPUPercent: float64(i * 10),
		})
	}

	points := buffer.Points()

	require.Len(t, points, 3)
	// Newest first.
	assert.Equal(t, base.Add(2*time.Minute).UnixNano(), points[0].Timestamp.UnixNano())
	assert.InDelta(t, 20.0, points[0].CPUPercent, 0.001)
	assert.Equal(t, base.UnixNano(), points[2].Timestamp.UnixNano())
}

func TestBufferWrapsAround(t *testing.T) {
	buffer := NewBuffer(3)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		buffer.Add(TelemetryPoint{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Status:    models.StatusOnline,
		})
	}

	points := buffer.Points()

	require.Len(t, points, 3)
	assert.Equal(t, base.Add(4*time.Minute).UnixNano(), points[0].Timestamp.UnixNano())
	assert.Equal(t, base.Add(2*time.Minute).UnixNano(), points[2].Timestamp.UnixNano())
}

func TestBufferConcurrentReadsAndWrites(t *testing.T) {
	buffer := NewBuffer(8)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := 0; i < 200; i++ {
			buffer.Add(TelemetryPoint{
				Timestamp: base.Add(time.Duration(i) * time.Second),
				Status:    models.StatusOnline,
			})
		}
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < 200; i++ {
			buffer.Points()
		}
	}()

	wg.Wait()

	points := buffer.Points()

	require.Len(t, points, 8)
	assert.Equal(t, base.Add(199*time.Second).UnixNano(), points[0].Timestamp.UnixNano())
}

func TestBufferEmpty(t *testing.T) {
	buffer := NewBuffer(4)

	assert.Empty(t, buffer.Points())
}

func TestManagerCreatesBufferPerNode(t *testing.T) {
	manager := NewManager(10)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	manager.Record("node-a", TelemetryPoint{Timestamp: now, Status: models.StatusOnline})
	manager.Record("node-b", TelemetryPoint{Timestamp: now, Status: models.StatusSyncing})
	manager.Record("node-a", TelemetryPoint{Timestamp: now.Add(time.Minute), Status: models.StatusOnline})

	assert.Equal(t, int64(2), manager.ActiveNodes())
	assert.Len(t, manager.Points("node-a"), 2)
	assert.Len(t, manager.Points("node-b"), 1)
	assert.Nil(t, manager.Points("node-c"))
}
