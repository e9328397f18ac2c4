// Package fbdev drives Linux framebuffer devices (/dev/graphics/fbN or
// /dev/fbN) through the fbdev ioctl interface.
package fbdev

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/jmylchreest/fbhwc/internal/device"
)

// DefaultDirs are searched in order when no directory is configured.
var DefaultDirs = []string{"/dev/graphics", "/dev"}

// fallbackPeriodNs is reported when the driver leaves pixclock unset.
const fallbackPeriodNs = 16666667

// NodePrefix is the name prefix of framebuffer device nodes.
const NodePrefix = "fb"

// Device is a set of framebuffer nodes in one directory.
type Device struct {
	mu     sync.Mutex
	dir    string
	open   map[device.Handle]*node
	logger *slog.Logger
}

// New creates a framebuffer device rooted at dir. An empty dir selects the
// first of DefaultDirs that exists.
func New(dir string, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = DefaultDir()
	}
	return &Device{
		dir:    dir,
		open:   make(map[device.Handle]*node),
		logger: logger,
	}
}

// DefaultDir returns the first existing directory of DefaultDirs.
func DefaultDir() string {
	for _, dir := range DefaultDirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return DefaultDirs[len(DefaultDirs)-1]
}

// Dir returns the directory holding the device nodes.
func (d *Device) Dir() string {
	return d.dir
}

// NodeName returns the device node name of an output.
func NodeName(id device.OutputID) string {
	return NodePrefix + strconv.Itoa(int(id))
}

// ParseNodeName returns the output a device node name refers to.
func ParseNodeName(name string) (device.OutputID, bool) {
	rest, ok := strings.CutPrefix(name, NodePrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return device.OutputID(n), true
}

// Enumerate implements device.Device by listing fbN nodes.
func (d *Device) Enumerate() ([]device.OutputID, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}

	var ids []device.OutputID
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := ParseNodeName(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Open implements device.Device. The framebuffer is mapped, cleared and
// power cycled so it starts unblanked.
func (d *Device) Open(id device.OutputID) (*device.Output, error) {
	path := filepath.Join(d.dir, NodeName(id))

	n, err := openNode(path)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("framebuffer reports (possibly inaccurate)",
		"node", path,
		"bits_per_pixel", n.bitsPerPixel(),
		"pixclock_ps", n.timing.pixclock,
	)

	if err := n.blank(true); err != nil {
		d.logger.Warn("failed to blank framebuffer", "node", path, "error", err)
	}
	if err := n.blank(false); err != nil {
		d.logger.Warn("failed to unblank framebuffer", "node", path, "error", err)
	}

	d.mu.Lock()
	d.open[n.handle()] = n
	d.mu.Unlock()

	return &device.Output{
		ID:     id,
		Handle: n.handle(),
		Name:   NodeName(id),
		Geometry: device.Geometry{
			Width:         n.timing.xres,
			Height:        n.timing.yres,
			VsyncPeriodNs: n.timing.vsyncPeriodNs(),
		},
	}, nil
}

func (d *Device) lookup(h device.Handle) (*node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.open[h]
	if !ok {
		return nil, fmt.Errorf("handle %d: %w", h, device.ErrUnknownHandle)
	}
	return n, nil
}

// SetPower implements device.Device with FBIOBLANK.
func (d *Device) SetPower(h device.Handle, blank bool) error {
	n, err := d.lookup(h)
	if err != nil {
		return err
	}
	return n.blank(blank)
}

// Present implements device.Device by copying one frame into the mapped
// framebuffer. buf must already be in the framebuffer's pixel format.
func (d *Device) Present(h device.Handle, buf []byte) error {
	n, err := d.lookup(h)
	if err != nil {
		return err
	}
	n.write(buf)
	return nil
}

// Close implements device.Device.
func (d *Device) Close(h device.Handle) error {
	d.mu.Lock()
	n, ok := d.open[h]
	delete(d.open, h)
	d.mu.Unlock()

	if !ok {
		return fmt.Errorf("handle %d: %w", h, device.ErrUnknownHandle)
	}
	return n.close()
}

// timing is the part of fb_var_screeninfo that describes the mode.
type timing struct {
	xres, yres   uint32
	pixclock     uint32 // picoseconds per pixel
	left, right  uint32
	upper, lower uint32
	hsync, vsync uint32
}

// vsyncPeriodNs derives the frame period from the pixel clock and the
// total line and frame lengths including blanking.
func (t timing) vsyncPeriodNs() uint32 {
	if t.pixclock == 0 {
		return fallbackPeriodNs
	}
	htotal := uint64(t.xres + t.left + t.right + t.hsync)
	vtotal := uint64(t.yres + t.upper + t.lower + t.vsync)
	ns := uint64(t.pixclock) * htotal * vtotal / 1000
	if ns == 0 || ns > uint64(^uint32(0)) {
		return fallbackPeriodNs
	}
	return uint32(ns)
}

// copyRows copies rows of rowBytes packed pixels from src into dst, whose
// rows are stride bytes apart. A zero stride means unpadded rows. Rows
// wider than the stride and both buffers are clipped.
func copyRows(dst, src []byte, rowBytes, stride, rows int) {
	if stride <= 0 {
		stride = rowBytes
	}
	width := min(rowBytes, stride)

	for y := 0; y < rows; y++ {
		s, d := y*rowBytes, y*stride
		if s >= len(src) || d >= len(dst) {
			return
		}
		copy(dst[d:min(d+width, len(dst))], src[s:])
	}
}
