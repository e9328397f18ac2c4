package hwc

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"nil", nil, CodeNone},
		{"bad display", fmt.Errorf("dpy 3: %w", ErrBadDisplay), CodeBadDisplay},
		{"bad layer", fmt.Errorf("lyr 1: %w", ErrBadLayer), CodeBadLayer},
		{"bad config", ErrBadConfig, CodeBadConfig},
		{"bad parameter", ErrBadParameter, CodeBadParameter},
		{"unsupported", ErrUnsupported, CodeUnsupported},
		{"no resources", ErrNoResources, CodeNoResources},
		{"no displays", ErrNoDisplaysFound, CodeNoDisplaysFound},
		{"device", &DeviceError{Op: "blank", Output: 0, Err: syscall.EIO}, CodeDeviceIO},
		{"other", errors.New("boom"), CodeDeviceIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CodeOf(tt.err))
		})
	}
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "BadDisplay", CodeBadDisplay.String())
	assert.Equal(t, "DeviceIO", CodeDeviceIO.String())
	assert.Equal(t, "Unknown", Code(99).String())
}

func TestDeviceError(t *testing.T) {
	err := &DeviceError{Op: "open", Output: 2, Err: syscall.ENOENT}
	assert.Equal(t, "device open output 2: no such file or directory", err.Error())
	assert.ErrorIs(t, err, syscall.ENOENT)
	assert.Equal(t, syscall.ENOENT, err.Errno())

	err = &DeviceError{Op: "enumerate", Output: -1, Err: errors.New("gone")}
	assert.Equal(t, "device enumerate: gone", err.Error())
	assert.Equal(t, syscall.Errno(0), err.Errno())
}

func TestParseCode(t *testing.T) {
	for c := CodeNone; c <= CodeDeviceIO; c++ {
		got, ok := ParseCode(c.String())
		assert.True(t, ok, c.String())
		assert.Equal(t, c, got)
	}

	_, ok := ParseCode("Unknown")
	assert.False(t, ok)
}

func TestCodeSentinel(t *testing.T) {
	assert.Nil(t, CodeNone.Sentinel())
	assert.Nil(t, CodeDeviceIO.Sentinel())
	assert.ErrorIs(t, CodeBadDisplay.Sentinel(), ErrBadDisplay)
	assert.Equal(t, CodeBadLayer, CodeOf(CodeBadLayer.Sentinel()))
	assert.Equal(t, CodeNoDisplaysFound, CodeOf(CodeNoDisplaysFound.Sentinel()))
}
