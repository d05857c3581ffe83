// Package reconciler pkg/reconciler/interfaces.go
package reconciler

import "github.com/meshmon/meshmon/pkg/models"

//go:generate mockgen -destination=mock_store.go -package=reconciler github.com/meshmon/meshmon/pkg/reconciler Store

// Store is the slice of registry storage the reconciliation engine needs.
// Lookup methods return (nil, nil) when no matching record exists.
type Store interface {
	GetNode(key string) (*models.NodeRecord, error)
	GetNodesByAddress(address string) ([]models.NodeRecord, error)
	CreateNode(node *models.NodeRecord) error
	UpdateNode(node *models.NodeRecord) error
	DeleteNode(key string) error
	MarkUnseenExcept(keys []string) (int64, error)
	DeleteAddressOnlyDuplicates() (int64, error)
}
