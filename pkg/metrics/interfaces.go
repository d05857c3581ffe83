// Package metrics pkg/metrics/interfaces.go
package metrics

// Store buffers recent telemetry points for a single node.
type Store interface {
	Add(point TelemetryPoint)
	Points() []TelemetryPoint
}
