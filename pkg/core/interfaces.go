// Package core pkg/core/interfaces.go
package core

import (
	"context"

	"github.com/meshmon/meshmon/pkg/models"
)

//go:generate mockgen -destination=mock_core.go -package=core github.com/meshmon/meshmon/pkg/core Fetcher,Broadcaster

// Fetcher supplies one cycle's worth of gossip observations.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.Observation, error)
}

// Broadcaster pushes cycle summaries to live subscribers.
type Broadcaster interface {
	Broadcast(v interface{})
}
