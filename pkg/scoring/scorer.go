// Package scoring computes the composite network health score from a set
// of node snapshots. All functions are pure.
package scoring

import (
	"math"

	"github.com/meshmon/meshmon/pkg/models"
)

const (
	// Reference cardinalities for full geographic-distribution marks.
	countryReference = 10
	cityReference    = 20

	countryWeight = 0.6
	cityWeight    = 0.4

	availabilityWeight = 0.40
	versionWeight      = 0.35
	distributionWeight = 0.25
)

// Result holds the three health sub-scores and the weighted overall score,
// each an integer percentage in [0, 100].
type Result struct {
	Availability  int `json:"availability"`
	VersionHealth int `json:"version_health"`
	Distribution  int `json:"distribution"`
	Overall       int `json:"overall"`
}

// Score computes the health result for a set of nodes. An empty set yields
// all-zero scores, never an error.
func Score(nodes []models.NodeMetricSnapshot) Result {
	if len(nodes) == 0 {
		return Result{}
	}

	availability := availabilityScore(nodes)
	versionHealth := versionHealthScore(nodes)
	distribution := distributionScore(nodes)

	overall := availabilityWeight*float64(availability) +
		versionWeight*float64(versionHealth) +
		distributionWeight*float64(distribution)

	return Result{
		Availability:  availability,
		VersionHealth: versionHealth,
		Distribution:  distribution,
		Overall:       clampPercent(math.Round(overall)),
	}
}

// availabilityScore is the percentage of nodes with status online. Syncing
// and offline nodes both count as unavailable here; the three-state split
// is preserved in the snapshot counts.
func availabilityScore(nodes []models.NodeMetricSnapshot) int {
	online := 0

	for i := range nodes {
		if nodes[i].Status == models.StatusOnline {
			online++
		}
	}

	return percent(online, len(nodes))
}

// versionHealthScore is the percentage of version-reporting nodes running
// the semantically latest valid version.
func versionHealthScore(nodes []models.NodeMetricSnapshot) int {
	latest := ""
	reporting := 0

	for i := range nodes {
		v := nodes[i].Version
		if !ValidVersion(v) {
			continue
		}

		reporting++

		if latest == "" || CompareVersions(v, latest) > 0 {
			latest = v
		}
	}

	if reporting == 0 {
		return 0
	}

	current := 0

	for i := range nodes {
		if ValidVersion(nodes[i].Version) && CompareVersions(nodes[i].Version, latest) == 0 {
			current++
		}
	}

	return percent(current, reporting)
}

// distributionScore blends country and city cardinality, each capped at a
// reference count, weighted 60/40 toward countries.
func distributionScore(nodes []models.NodeMetricSnapshot) int {
	countries := make(map[string]struct{})
	cities := make(map[string]struct{})

	for i := range nodes {
		if nodes[i].Country != "" {
			countries[nodes[i].Country] = struct{}{}
		}

		if nodes[i].City != "" {
			cities[nodes[i].City] = struct{}{}
		}
	}

	countryPct := cappedPercent(len(countries), countryReference)
	cityPct := cappedPercent(len(cities), cityReference)

	return clampPercent(math.Round(countryWeight*countryPct + cityWeight*cityPct))
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}

	return clampPercent(math.Round(float64(part) / float64(total) * 100))
}

func cappedPercent(count, reference int) float64 {
	pct := float64(count) / float64(reference) * 100
	if pct > 100 {
		pct = 100
	}

	return pct
}

func clampPercent(v float64) int {
	if v < 0 {
		return 0
	}

	if v > 100 {
		return 100
	}

	return int(v)
}
