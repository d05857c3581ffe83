package reconciler

import (
	"testing"

	"github.com/meshmon/meshmon/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestApplyObservationPreservesAbsentFields(t *testing.T) {
	balance := 99.0
	rec := &models.NodeRecord{
		IdentityKey: testKeyA,
		Status:      models.StatusOnline,
		Version:     "1.2.0",
		CPUPercent:  floatPtr(30),
		Country:     "Germany",
		Balance:     &balance,
	}

	// A sparse report: only status came through.
	applyObservation(rec, &models.Observation{Status: models.StatusSyncing})

	assert.Equal(t, models.StatusSyncing, rec.Status)
	assert.Equal(t, "1.2.0", rec.Version)
	require.NotNil(t, rec.CPUPercent)
	assert.InDelta(t, 30.0, *rec.CPUPercent, 0.001)
	assert.Equal(t, "Germany", rec.Country)
}

func TestApplyObservationOverwritesReportedFields(t *testing.T) {
	rec := &models.NodeRecord{
		IdentityKey: testKeyA,
		CPUPercent:  floatPtr(30),
		PublicRPC:   false,
	}

	applyObservation(rec, &models.Observation{
		CPUPercent: floatPtr(75),
		PublicRPC:  boolPtr(true),
		City:       "Berlin",
	})

	require.NotNil(t, rec.CPUPercent)
	assert.InDelta(t, 75.0, *rec.CPUPercent, 0.001)
	assert.True(t, rec.PublicRPC)
	assert.Equal(t, "Berlin", rec.City)
}

func TestApplyObservationNeverTouchesOnChainFields(t *testing.T) {
	balance := 99.0
	registered := true
	rec := &models.NodeRecord{
		IdentityKey:    testKeyA,
		Balance:        &balance,
		Registered:     &registered,
		ManagerAddress: "mgr",
	}

	applyObservation(rec, &models.Observation{
		Status:  models.StatusOnline,
		Version: "2.0.0",
	})

	require.NotNil(t, rec.Balance)
	assert.InDelta(t, 99.0, *rec.Balance, 0.001)
	require.NotNil(t, rec.Registered)
	assert.True(t, *rec.Registered)
	assert.Equal(t, "mgr", rec.ManagerAddress)
}

func TestValidIdentityKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid_base58", testKeyA, true},
		{"too_short", "abc123", false},
		{"too_long", testKeyA + testKeyA, false},
		{"contains_space", "5KQvfH3jWp8rN2xLmB9cT4aYdE6sG1uZ 7iVbPqRkXoM", false},
		{"purely_numeric", "12345678901234567890123456789012", false},
		{"ip_address", "203.0.113.7", false},
		{"ip_with_port", "203.0.113.7:9000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidIdentityKey(tt.key))
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "10.0.0.1:9000", NormalizeAddress("10.0.0.1:9000"))
	assert.Equal(t, "10.0.0.1:9000", NormalizeAddress("  10.0.0.1:9000  "))
	assert.Empty(t, NormalizeAddress("10.0.0.1"))
	assert.Empty(t, NormalizeAddress(":9000"))
	assert.Empty(t, NormalizeAddress(""))
	assert.Empty(t, NormalizeAddress("garbage"))
}
