package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"equal", "1.2.3", "1.2.3", 0},
		{"patch_newer", "1.2.4", "1.2.3", 1},
		{"minor_older", "1.1.9", "1.2.0", -1},
		{"major_wins", "2.0.0", "1.99.99", 1},
		{"shorter_is_older", "1.2", "1.2.1", -1},
		{"trailing_zero_equal", "1.2", "1.2.0", 0},
		{"v_prefix_ignored", "v1.3.0", "1.3.0", 0},
		{"qualifier_ignored", "1.2.0-rc1", "1.2.0", 0},
		{"empty_loses", "", "0.0.1", -1},
		{"empty_loses_reversed", "0.0.1", "", 1},
		{"both_empty", "", "", 0},
		{"garbage_component_is_zero", "1.x.3", "1.0.3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}

func TestValidVersion(t *testing.T) {
	assert.True(t, ValidVersion("1.2.3"))
	assert.True(t, ValidVersion("v2"))
	assert.False(t, ValidVersion(""))
	assert.False(t, ValidVersion("unknown"))
	assert.False(t, ValidVersion("dev"))
}
