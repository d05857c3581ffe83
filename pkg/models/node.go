// Package models pkg/models/node.go contains the shared data types for the
// gossip registry pipeline.
package models

import "time"

// NodeStatus is the canonical three-state node status. Syncing is a real
// third state everywhere; it is never folded into offline.
type NodeStatus string

const (
	StatusOnline  NodeStatus = "online"
	StatusOffline NodeStatus = "offline"
	StatusSyncing NodeStatus = "syncing"
)

// NodeRecord is one row in the registry: one network participant, keyed by
// identity key when known, otherwise by network address.
type NodeRecord struct {
	// Identity. At least one of the two must be set.
	IdentityKey    string `json:"identity_key,omitempty"`
	NetworkAddress string `json:"network_address,omitempty"`

	// Mutable telemetry. Pointer fields distinguish "not reported" from a
	// genuine zero value.
	Status           NodeStatus `json:"status"`
	CPUPercent       *float64   `json:"cpu_percent,omitempty"`
	RAMUsed          *float64   `json:"ram_used,omitempty"`
	RAMTotal         *float64   `json:"ram_total,omitempty"`
	PacketsSent      *int64     `json:"packets_sent,omitempty"`
	PacketsReceived  *int64     `json:"packets_received,omitempty"`
	ActiveStreams    *int64     `json:"active_streams,omitempty"`
	UptimeSeconds    *int64     `json:"uptime_seconds,omitempty"`
	StorageCapacity  *int64     `json:"storage_capacity,omitempty"`
	StorageUsed      *int64     `json:"storage_used,omitempty"`
	StorageCommitted *int64     `json:"storage_committed,omitempty"`
	CreditsEarned    *int64     `json:"credits_earned,omitempty"`

	// Semi-static metadata.
	Version     string   `json:"version,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	CountryCode string   `json:"country_code,omitempty"`
	PublicRPC   bool     `json:"public_rpc"`
	PeerCount   *int64   `json:"peer_count,omitempty"`

	// On-chain augmentation, written by the enrichment collaborator.
	// Reconciliation merges around these fields but never overwrites them.
	Balance         *float64 `json:"balance,omitempty"`
	Registered      *bool    `json:"registered,omitempty"`
	ManagerAddress  string   `json:"manager_address,omitempty"`
	RegistryAddress string   `json:"registry_address,omitempty"`

	// Bookkeeping.
	SeenInGossip bool      `json:"seen_in_gossip"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Key returns the registry key for the record: the identity key when
// present, otherwise the network address.
func (n *NodeRecord) Key() string {
	if n.IdentityKey != "" {
		return n.IdentityKey
	}

	return n.NetworkAddress
}

// Valid reports whether the record can be stored at all. A record with
// neither an identity key nor a network address is unidentifiable.
func (n *NodeRecord) Valid() bool {
	return n.IdentityKey != "" || n.NetworkAddress != ""
}

// Observation is one relay's report of one node's state in one cycle. It is
// ephemeral: observations are merged into the registry and discarded.
type Observation struct {
	IdentityKey    string     `json:"identity_key,omitempty"`
	NetworkAddress string     `json:"network_address,omitempty"`
	Status         NodeStatus `json:"status,omitempty"`
	Version        string     `json:"version,omitempty"`

	CPUPercent       *float64 `json:"cpu_percent,omitempty"`
	RAMUsed          *float64 `json:"ram_used,omitempty"`
	RAMTotal         *float64 `json:"ram_total,omitempty"`
	PacketsSent      *int64   `json:"packets_sent,omitempty"`
	PacketsReceived  *int64   `json:"packets_received,omitempty"`
	ActiveStreams    *int64   `json:"active_streams,omitempty"`
	UptimeSeconds    *int64   `json:"uptime_seconds,omitempty"`
	StorageCapacity  *int64   `json:"storage_capacity,omitempty"`
	StorageUsed      *int64   `json:"storage_used,omitempty"`
	StorageCommitted *int64   `json:"storage_committed,omitempty"`
	CreditsEarned    *int64   `json:"credits_earned,omitempty"`

	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	CountryCode string   `json:"country_code,omitempty"`
	PublicRPC   *bool    `json:"public_rpc,omitempty"`
	PeerCount   *int64   `json:"peer_count,omitempty"`
}

// Key returns the merge key for the observation, mirroring NodeRecord.Key.
func (o *Observation) Key() string {
	if o.IdentityKey != "" {
		return o.IdentityKey
	}

	return o.NetworkAddress
}

// TelemetryFieldCount counts the non-empty telemetry fields. It is the
// tiebreaker when two observations for the same address are otherwise
// indistinguishable.
func (o *Observation) TelemetryFieldCount() int {
	count := 0

	for _, set := range []bool{
		o.CPUPercent != nil,
		o.RAMUsed != nil,
		o.RAMTotal != nil,
		o.PacketsSent != nil,
		o.PacketsReceived != nil,
		o.ActiveStreams != nil,
		o.UptimeSeconds != nil,
		o.StorageCapacity != nil,
		o.StorageUsed != nil,
		o.StorageCommitted != nil,
		o.CreditsEarned != nil,
		o.PeerCount != nil,
		o.Status != "",
		o.Version != "",
	} {
		if set {
			count++
		}
	}

	return count
}

// OnChainInfo carries the fields the asynchronous enrichment collaborator
// is allowed to write.
type OnChainInfo struct {
	Balance         *float64 `json:"balance,omitempty"`
	Registered      *bool    `json:"registered,omitempty"`
	ManagerAddress  string   `json:"manager_address,omitempty"`
	RegistryAddress string   `json:"registry_address,omitempty"`
}
