package scoring

import (
	"testing"

	"github.com/meshmon/meshmon/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestScoreEmptySet(t *testing.T) {
	result := Score(nil)

	assert.Equal(t, Result{}, result)
}

func TestScoreAllOnlineSingleVersion(t *testing.T) {
	nodes := []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Version: "1.2.0", Country: "Germany", City: "Berlin"},
		{NodeKey: "b", Status: models.StatusOnline, Version: "1.2.0", Country: "France", City: "Paris"},
	}

	result := Score(nodes)

	assert.Equal(t, 100, result.Availability)
	assert.Equal(t, 100, result.VersionHealth)
	// 2 countries of 10, 2 cities of 20: 0.6*20 + 0.4*10 = 16.
	assert.Equal(t, 16, result.Distribution)
	// 0.40*100 + 0.35*100 + 0.25*16 = 79.
	assert.Equal(t, 79, result.Overall)
}

func TestScoreBounds(t *testing.T) {
	tests := []struct {
		name  string
		nodes []models.NodeMetricSnapshot
	}{
		{
			name: "all_offline",
			nodes: []models.NodeMetricSnapshot{
				{NodeKey: "a", Status: models.StatusOffline},
			},
		},
		{
			name: "mixed_states",
			nodes: []models.NodeMetricSnapshot{
				{NodeKey: "a", Status: models.StatusOnline, Version: "2.0.0"},
				{NodeKey: "b", Status: models.StatusSyncing, Version: "1.9.0"},
				{NodeKey: "c", Status: models.StatusOffline},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.nodes)

			for _, score := range []int{
				result.Availability, result.VersionHealth, result.Distribution, result.Overall,
			} {
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		})
	}
}

func TestAvailabilityCountsOnlyOnline(t *testing.T) {
	nodes := []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline},
		{NodeKey: "b", Status: models.StatusSyncing},
		{NodeKey: "c", Status: models.StatusOffline},
		{NodeKey: "d", Status: models.StatusOnline},
	}

	result := Score(nodes)

	assert.Equal(t, 50, result.Availability)
}

func TestVersionHealthIgnoresNonReporters(t *testing.T) {
	nodes := []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline, Version: "1.5.0"},
		{NodeKey: "b", Status: models.StatusOnline, Version: "1.4.2"},
		{NodeKey: "c", Status: models.StatusOnline}, // no version reported
		{NodeKey: "d", Status: models.StatusOnline, Version: "unknown"},
	}

	result := Score(nodes)

	// 1 of 2 valid reporters on the latest version.
	assert.Equal(t, 50, result.VersionHealth)
}

func TestVersionHealthNoReporters(t *testing.T) {
	nodes := []models.NodeMetricSnapshot{
		{NodeKey: "a", Status: models.StatusOnline},
		{NodeKey: "b", Status: models.StatusOnline},
	}

	result := Score(nodes)

	assert.Equal(t, 0, result.VersionHealth)
}

func TestDistributionCapsAtReference(t *testing.T) {
	nodes := make([]models.NodeMetricSnapshot, 0, 40)

	countries := []string{
		"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L",
	}

	for i, c := range countries {
		nodes = append(nodes, models.NodeMetricSnapshot{
			NodeKey: c,
			Status:  models.StatusOnline,
			Country: c,
			City:    "city-" + string(rune('a'+i)),
		})
	}

	result := Score(nodes)

	// 12 countries caps at the 10-country reference; 12 cities of 20.
	// 0.6*100 + 0.4*60 = 84.
	assert.Equal(t, 84, result.Distribution)
}
