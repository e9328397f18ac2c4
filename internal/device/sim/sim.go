// Package sim provides an in-memory output backend. It backs the "sim"
// backend setting and is the device double used throughout the tests.
package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jmylchreest/fbhwc/internal/device"
)

// OutputSpec describes one simulated output.
type OutputSpec struct {
	Name          string
	Width         uint32
	Height        uint32
	VsyncPeriodNs uint32
}

type output struct {
	spec      OutputSpec
	plugged   bool
	openErr   error
	handle    device.Handle
	blanked   bool
	frame     []byte
	presented int
}

// Device is a simulated multi-output device.
type Device struct {
	mu       sync.Mutex
	outputs  map[device.OutputID]*output
	open     map[device.Handle]device.OutputID
	next     device.Handle
	enumErr  error
	powerErr error
	closed   []device.OutputID
}

// New creates a device with the given outputs numbered from 0.
func New(specs ...OutputSpec) *Device {
	d := &Device{
		outputs: make(map[device.OutputID]*output),
		open:    make(map[device.Handle]device.OutputID),
		next:    3, // stay clear of stdio-looking handles
	}
	for i, spec := range specs {
		d.outputs[device.OutputID(i)] = &output{spec: spec, plugged: true}
	}
	return d
}

// Enumerate implements device.Device.
func (d *Device) Enumerate() ([]device.OutputID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.enumErr != nil {
		return nil, d.enumErr
	}

	ids := make([]device.OutputID, 0, len(d.outputs))
	for id, o := range d.outputs {
		if o.plugged {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Open implements device.Device.
func (d *Device) Open(id device.OutputID) (*device.Output, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.outputs[id]
	if !ok || !o.plugged {
		return nil, fmt.Errorf("sim output %d: %w", id, device.ErrNotFound)
	}
	if o.openErr != nil {
		return nil, o.openErr
	}

	h := d.next
	d.next++
	o.handle = h
	o.blanked = false
	o.frame = make([]byte, int(o.spec.Width)*int(o.spec.Height)*4)
	d.open[h] = id

	name := o.spec.Name
	if name == "" {
		name = fmt.Sprintf("sim%d", id)
	}

	return &device.Output{
		ID:     id,
		Handle: h,
		Name:   name,
		Geometry: device.Geometry{
			Width:         o.spec.Width,
			Height:        o.spec.Height,
			VsyncPeriodNs: o.spec.VsyncPeriodNs,
		},
	}, nil
}

// SetPower implements device.Device.
func (d *Device) SetPower(h device.Handle, blank bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(h)
	if err != nil {
		return err
	}
	if d.powerErr != nil {
		return d.powerErr
	}
	o.blanked = blank
	return nil
}

// Present implements device.Device. The buffer is copied into the
// output's frame, truncated to the frame size.
func (d *Device) Present(h device.Handle, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(h)
	if err != nil {
		return err
	}
	copy(o.frame, buf)
	o.presented++
	return nil
}

// Close implements device.Device.
func (d *Device) Close(h device.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.open[h]
	if !ok {
		return device.ErrUnknownHandle
	}
	delete(d.open, h)
	d.closed = append(d.closed, id)
	return nil
}

func (d *Device) lookup(h device.Handle) (*output, error) {
	id, ok := d.open[h]
	if !ok {
		return nil, device.ErrUnknownHandle
	}
	return d.outputs[id], nil
}

// Plug adds or reconnects an output.
func (d *Device) Plug(id device.OutputID, spec OutputSpec) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if o, ok := d.outputs[id]; ok {
		o.plugged = true
		return
	}
	d.outputs[id] = &output{spec: spec, plugged: true}
}

// Unplug marks an output as disconnected. It stays open if it was.
func (d *Device) Unplug(id device.OutputID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if o, ok := d.outputs[id]; ok {
		o.plugged = false
	}
}

// FailOpen makes Open of the given output return err.
func (d *Device) FailOpen(id device.OutputID, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if o, ok := d.outputs[id]; ok {
		o.openErr = err
	}
}

// FailEnumerate makes Enumerate return err.
func (d *Device) FailEnumerate(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumErr = err
}

// FailPower makes SetPower return err.
func (d *Device) FailPower(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.powerErr = err
}

// Blanked reports whether an output is blanked.
func (d *Device) Blanked(id device.OutputID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if o, ok := d.outputs[id]; ok {
		return o.blanked
	}
	return false
}

// Presented returns how many frames were presented to an output.
func (d *Device) Presented(id device.OutputID) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if o, ok := d.outputs[id]; ok {
		return o.presented
	}
	return 0
}

// OpenCount returns the number of handles not yet closed.
func (d *Device) OpenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.open)
}

// Closed returns the outputs closed so far, in close order.
func (d *Device) Closed() []device.OutputID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]device.OutputID(nil), d.closed...)
}
