// Package device defines the contract between the display registry and the
// low-level output driver: enumerating outputs, opening them to learn their
// geometry, blanking, raw pixel upload and release.
package device

import (
	"errors"
	"fmt"
)

// OutputID identifies a raw hardware output as the driver numbers it.
type OutputID int

// Handle is the driver's handle to an opened output (a file descriptor for
// fbdev, an index for backends without descriptors).
type Handle uintptr

// Geometry is the mode an opened output reports.
type Geometry struct {
	Width         uint32
	Height        uint32
	VsyncPeriodNs uint32
}

// Output is an opened hardware output.
type Output struct {
	ID       OutputID
	Handle   Handle
	Name     string
	Geometry Geometry
}

// String returns a short description used in logs.
func (o *Output) String() string {
	return fmt.Sprintf("%s (%dx%d@%dns)", o.Name, o.Geometry.Width, o.Geometry.Height, o.Geometry.VsyncPeriodNs)
}

// Device is implemented by every output backend.
// Calls are expected to return promptly; there are no retries.
type Device interface {
	// Enumerate lists the outputs currently available.
	Enumerate() ([]OutputID, error)

	// Open opens an output and reads its mode.
	Open(id OutputID) (*Output, error)

	// SetPower blanks (true) or unblanks (false) an opened output.
	SetPower(h Handle, blank bool) error

	// Present uploads raw pixels to an opened output.
	Present(h Handle, buf []byte) error

	// Close releases an opened output.
	Close(h Handle) error
}

// Common backend errors.
var (
	ErrNotSupported  = errors.New("operation not supported by device")
	ErrUnknownHandle = errors.New("unknown device handle")
	ErrNotFound      = errors.New("output not found")
)
