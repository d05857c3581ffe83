package metrics

import (
	"sync"
	"time"

	"github.com/meshmon/meshmon/pkg/models"
)

// TelemetryPoint is one in-memory telemetry sample for a node, kept for
// the live API between snapshot buckets.
type TelemetryPoint struct {
	Timestamp     time.Time         `json:"timestamp"`
	Status        models.NodeStatus `json:"status"`
	CPUPercent    float64           `json:"cpu_percent"`
	RAMUsed       float64           `json:"ram_used"`
	CreditsEarned int64             `json:"credits_earned"`
}

// telemetrySlot is the packed in-buffer representation.
type telemetrySlot struct {
	timestamp     int64
	status        models.NodeStatus
	cpuPercent    float64
	ramUsed       float64
	creditsEarned int64
}

// RingBuffer keeps the last N telemetry points per node. Writes happen
// once per cycle per node but reads come from API handlers concurrently,
// so slot access is guarded by a read-write lock.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []telemetrySlot
	pos   int64
	size  int64
}

// NewBuffer creates a new telemetry Store.
func NewBuffer(size int) Store {
	return &RingBuffer{
		slots: make([]telemetrySlot, size),
		size:  int64(size),
	}
}

// Add appends a point, overwriting the oldest slot once full.
func (b *RingBuffer) Add(point TelemetryPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.pos % b.size
	b.pos++

	b.slots[idx] = telemetrySlot{
		timestamp:     point.Timestamp.UnixNano(),
		status:        point.Status,
		cpuPercent:    point.CPUPercent,
		ramUsed:       point.RAMUsed,
		creditsEarned: point.CreditsEarned,
	}
}

// Points returns the buffered points, newest first. Unfilled slots are
// skipped.
func (b *RingBuffer) Points() []TelemetryPoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	points := make([]TelemetryPoint, 0, b.size)

	for i := int64(0); i < b.size; i++ {
		idx := (b.pos - i - 1 + b.size) % b.size
		slot := b.slots[idx]

		if slot.timestamp == 0 {
			continue
		}

		points = append(points, TelemetryPoint{
			Timestamp:     time.Unix(0, slot.timestamp),
			Status:        slot.status,
			CPUPercent:    slot.cpuPercent,
			RAMUsed:       slot.ramUsed,
			CreditsEarned: slot.creditsEarned,
		})
	}

	return points
}
