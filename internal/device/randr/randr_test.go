package randr

import (
	"testing"

	"github.com/BurntSushi/xgb/randr"
	"github.com/stretchr/testify/assert"
)

func TestRefreshPeriodNs(t *testing.T) {
	tests := []struct {
		name     string
		mode     randr.ModeInfo
		expected uint32
	}{
		{
			name:     "1080p60",
			mode:     randr.ModeInfo{Width: 1920, Height: 1080, DotClock: 148500000, Htotal: 2200, Vtotal: 1125},
			expected: 16666666,
		},
		{
			name:     "720p60",
			mode:     randr.ModeInfo{Width: 1280, Height: 720, DotClock: 74250000, Htotal: 1650, Vtotal: 750},
			expected: 16666666,
		},
		{
			name:     "unknown clock",
			mode:     randr.ModeInfo{Width: 640, Height: 480},
			expected: 16666667,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, refreshPeriodNs(tt.mode))
		})
	}
}
