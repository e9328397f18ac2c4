package hwc

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/jmylchreest/fbhwc/internal/device"
)

// Error kinds returned by the registry. Callers should use errors.Is.
var (
	ErrBadDisplay      = errors.New("bad display")
	ErrBadLayer        = errors.New("bad layer")
	ErrBadConfig       = errors.New("bad config")
	ErrBadParameter    = errors.New("bad parameter")
	ErrUnsupported     = errors.New("unsupported")
	ErrNoResources     = errors.New("no resources")
	ErrNoDisplaysFound = errors.New("no displays found")
)

// DeviceError is a failed call into the device backend.
type DeviceError struct {
	Op     string
	Output device.OutputID
	Err    error
}

// Error implements error.
func (e *DeviceError) Error() string {
	if e.Output < 0 {
		return fmt.Sprintf("device %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("device %s output %d: %v", e.Op, e.Output, e.Err)
}

// Unwrap returns the backend error.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Errno returns the OS error code carried by the backend error, or 0.
func (e *DeviceError) Errno() syscall.Errno {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno
	}
	return 0
}

// Code is the result code of a registry call as seen across an outer
// call boundary.
type Code int

const (
	CodeNone Code = iota
	CodeBadConfig
	CodeBadDisplay
	CodeBadLayer
	CodeBadParameter
	CodeNoResources
	CodeUnsupported
	CodeNoDisplaysFound
	CodeDeviceIO
)

// String returns the string representation of Code.
func (c Code) String() string {
	switch c {
	case CodeNone:
		return "None"
	case CodeBadConfig:
		return "BadConfig"
	case CodeBadDisplay:
		return "BadDisplay"
	case CodeBadLayer:
		return "BadLayer"
	case CodeBadParameter:
		return "BadParameter"
	case CodeNoResources:
		return "NoResources"
	case CodeUnsupported:
		return "Unsupported"
	case CodeNoDisplaysFound:
		return "NoDisplaysFound"
	case CodeDeviceIO:
		return "DeviceIO"
	default:
		return "Unknown"
	}
}

// CodeOf maps an error returned by the registry to its result code.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, ErrBadDisplay):
		return CodeBadDisplay
	case errors.Is(err, ErrBadLayer):
		return CodeBadLayer
	case errors.Is(err, ErrBadConfig):
		return CodeBadConfig
	case errors.Is(err, ErrBadParameter):
		return CodeBadParameter
	case errors.Is(err, ErrUnsupported):
		return CodeUnsupported
	case errors.Is(err, ErrNoResources):
		return CodeNoResources
	case errors.Is(err, ErrNoDisplaysFound):
		return CodeNoDisplaysFound
	default:
		// anything else came out of a backend
		return CodeDeviceIO
	}
}

// ParseCode is the inverse of Code.String.
func ParseCode(s string) (Code, bool) {
	for c := CodeNone; c <= CodeDeviceIO; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return CodeNone, false
}

// Sentinel returns the error kind a code stands for. It is nil for
// CodeNone and for codes without a sentinel (CodeDeviceIO).
func (c Code) Sentinel() error {
	switch c {
	case CodeBadConfig:
		return ErrBadConfig
	case CodeBadDisplay:
		return ErrBadDisplay
	case CodeBadLayer:
		return ErrBadLayer
	case CodeBadParameter:
		return ErrBadParameter
	case CodeNoResources:
		return ErrNoResources
	case CodeUnsupported:
		return ErrUnsupported
	case CodeNoDisplaysFound:
		return ErrNoDisplaysFound
	default:
		return nil
	}
}
