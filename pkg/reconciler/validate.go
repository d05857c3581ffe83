package reconciler

import (
	"net"
	"strings"
	"unicode"

	"github.com/meshmon/meshmon/pkg/models"
	"github.com/meshmon/meshmon/pkg/scoring"
)

const (
	// Identity keys are base58-encoded public keys; anything outside this
	// length range is structurally wrong.
	minIdentityKeyLen = 32
	maxIdentityKeyLen = 44
)

// ValidIdentityKey reports whether a candidate identity key is
// structurally plausible. Relays occasionally put addresses, counters or
// garbage in the identity field; those fall back to address-only records.
func ValidIdentityKey(key string) bool {
	if len(key) < minIdentityKeyLen || len(key) > maxIdentityKeyLen {
		return false
	}

	numeric := true

	for _, r := range key {
		if unicode.IsSpace(r) {
			return false
		}

		if !unicode.IsDigit(r) {
			numeric = false
		}
	}

	if numeric {
		return false
	}

	return !ipShaped(key)
}

// ipShaped reports whether the string looks like an IP address or an
// ip:port endpoint rather than a key.
func ipShaped(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		return net.ParseIP(host) != nil
	}

	return false
}

// NormalizeAddress validates an ip:port network address, returning the
// empty string when it cannot be parsed.
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" || port == "" {
		return ""
	}

	return addr
}

// sanitize applies structural validation to a raw batch: invalid identity
// keys are cleared (address-only fallback), invalid addresses are cleared,
// and observations left with neither are dropped and counted.
func sanitize(batch []models.Observation, res *Result) []models.Observation {
	out := make([]models.Observation, 0, len(batch))

	for _, obs := range batch {
		if obs.IdentityKey != "" && !ValidIdentityKey(obs.IdentityKey) {
			obs.IdentityKey = ""
		}

		obs.NetworkAddress = NormalizeAddress(obs.NetworkAddress)

		if obs.IdentityKey == "" && obs.NetworkAddress == "" {
			res.Invalid++
			continue
		}

		out = append(out, obs)
	}

	return out
}

// dedupe collapses the batch to at most one observation per network
// address (and per identity key for address-less observations). Winners
// are chosen by: valid identity beats none, then later version, then more
// populated telemetry. Losers never touch storage.
func dedupe(batch []models.Observation, res *Result) []models.Observation {
	byKey := make(map[string]models.Observation, len(batch))
	order := make([]string, 0, len(batch))

	for _, obs := range batch {
		key := obs.NetworkAddress
		if key == "" {
			key = "identity:" + obs.IdentityKey
		}

		existing, ok := byKey[key]
		if !ok {
			byKey[key] = obs
			order = append(order, key)

			continue
		}

		res.Deduplicated++

		if beats(&obs, &existing) {
			byKey[key] = obs
		}
	}

	out := make([]models.Observation, 0, len(byKey))
	for _, key := range order {
		out = append(out, byKey[key])
	}

	return out
}

// beats reports whether the challenger should replace the incumbent when
// both claim the same address.
func beats(challenger, incumbent *models.Observation) bool {
	if (challenger.IdentityKey != "") != (incumbent.IdentityKey != "") {
		return challenger.IdentityKey != ""
	}

	if cmp := scoring.CompareVersions(challenger.Version, incumbent.Version); cmp != 0 {
		return cmp > 0
	}

	return challenger.TelemetryFieldCount() > incumbent.TelemetryFieldCount()
}
