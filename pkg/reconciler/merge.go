package reconciler

import "github.com/meshmon/meshmon/pkg/models"

// applyObservation copies the fields present in an observation onto a
// record. Absent fields (nil pointers, empty strings) keep their prior
// values, so a relay reporting a partial payload never erases telemetry.
// On-chain augmentation fields are owned by the enrichment path and are
// never touched here.
func applyObservation(rec *models.NodeRecord, obs *models.Observation) {
	if obs.Status != "" {
		rec.Status = obs.Status
	}

	if obs.Version != "" {
		rec.Version = obs.Version
	}

	if obs.CPUPercent != nil {
		rec.CPUPercent = obs.CPUPercent
	}

	if obs.RAMUsed != nil {
		rec.RAMUsed = obs.RAMUsed
	}

	if obs.RAMTotal != nil {
		rec.RAMTotal = obs.RAMTotal
	}

	if obs.PacketsSent != nil {
		rec.PacketsSent = obs.PacketsSent
	}

	if obs.PacketsReceived != nil {
		rec.PacketsReceived = obs.PacketsReceived
	}

	if obs.ActiveStreams != nil {
		rec.ActiveStreams = obs.ActiveStreams
	}

	if obs.UptimeSeconds != nil {
		rec.UptimeSeconds = obs.UptimeSeconds
	}

	if obs.StorageCapacity != nil {
		rec.StorageCapacity = obs.StorageCapacity
	}

	if obs.StorageUsed != nil {
		rec.StorageUsed = obs.StorageUsed
	}

	if obs.StorageCommitted != nil {
		rec.StorageCommitted = obs.StorageCommitted
	}

	if obs.CreditsEarned != nil {
		rec.CreditsEarned = obs.CreditsEarned
	}

	if obs.Latitude != nil {
		rec.Latitude = obs.Latitude
	}

	if obs.Longitude != nil {
		rec.Longitude = obs.Longitude
	}

	if obs.City != "" {
		rec.City = obs.City
	}

	if obs.Country != "" {
		rec.Country = obs.Country
	}

	if obs.CountryCode != "" {
		rec.CountryCode = obs.CountryCode
	}

	if obs.PublicRPC != nil {
		rec.PublicRPC = *obs.PublicRPC
	}

	if obs.PeerCount != nil {
		rec.PeerCount = obs.PeerCount
	}
}
