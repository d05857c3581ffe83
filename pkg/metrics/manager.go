package metrics

import (
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 100

// Manager holds one telemetry ring buffer per node key.
type Manager struct {
	nodes       sync.Map // node key -> Store
	bufferSize  int
	activeNodes int64 // atomic counter
}

// NewManager creates a manager whose per-node buffers hold bufferSize
// points each.
func NewManager(bufferSize int) *Manager {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &Manager{bufferSize: bufferSize}
}

// Record appends a telemetry point for a node, creating its buffer on
// first sight.
func (m *Manager) Record(nodeKey string, point TelemetryPoint) {
	store, loaded := m.nodes.LoadOrStore(nodeKey, NewBuffer(m.bufferSize))
	if !loaded {
		atomic.AddInt64(&m.activeNodes, 1)
	}

	store.(Store).Add(point)
}

// Points returns a node's buffered points, newest first, or nil for an
// unknown node.
func (m *Manager) Points(nodeKey string) []TelemetryPoint {
	store, ok := m.nodes.Load(nodeKey)
	if !ok {
		return nil
	}

	return store.(Store).Points()
}

// ActiveNodes returns the number of nodes with at least one buffered
// point.
func (m *Manager) ActiveNodes() int64 {
	return atomic.LoadInt64(&m.activeNodes)
}
