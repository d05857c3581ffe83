package snapshot

import "time"

// bucketKeyFormat is minute-resolution, UTC, and lexicographically
// sortable in time order, which the region credit lookups rely on.
const bucketKeyFormat = "2006-01-02T15:04"

// BucketKey truncates a wall-clock time down to its bucket boundary and
// returns the deterministic key plus the boundary itself. Every call
// within one bucket window yields the same key, which is what makes
// snapshot writes idempotent.
func BucketKey(t time.Time, width time.Duration) (string, time.Time) {
	bucket := t.UTC().Truncate(width)

	return bucket.Format(bucketKeyFormat), bucket
}
