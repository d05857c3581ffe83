package scoring

import (
	"strconv"
	"strings"
	"unicode"
)

// CompareVersions compares two version strings by their numeric
// dot-separated components, left to right. Non-numeric qualifiers
// ("1.2.0-rc1" vs "1.2.0") are ignored for ordering. It returns -1, 0 or 1.
// An empty version always orders before a non-empty one.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}

	if a == "" {
		return -1
	}

	if b == "" {
		return 1
	}

	pa := versionComponents(a)
	pb := versionComponents(b)

	for i := 0; i < len(pa) || i < len(pb); i++ {
		var va, vb int

		if i < len(pa) {
			va = pa[i]
		}

		if i < len(pb) {
			vb = pb[i]
		}

		if va < vb {
			return -1
		}

		if va > vb {
			return 1
		}
	}

	return 0
}

// versionComponents extracts the leading numeric part of each dot-separated
// component. "v1.12rc.3" yields [1, 12, 3]; components with no leading
// digits yield 0.
func versionComponents(v string) []int {
	v = strings.TrimLeft(v, "vV")

	parts := strings.Split(v, ".")
	nums := make([]int, 0, len(parts))

	for _, part := range parts {
		end := 0
		for end < len(part) && unicode.IsDigit(rune(part[end])) {
			end++
		}

		n, err := strconv.Atoi(part[:end])
		if err != nil {
			n = 0
		}

		nums = append(nums, n)
	}

	return nums
}

// ValidVersion reports whether the string has at least one numeric
// component, i.e. whether it can participate in version ordering at all.
func ValidVersion(v string) bool {
	if v == "" {
		return false
	}

	for _, r := range v {
		if unicode.IsDigit(r) {
			return true
		}
	}

	return false
}
