//go:build linux

package fbdev

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/jmylchreest/fbhwc/internal/device"
)

const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
	fbioBlank          = 0x4611

	fbBlankUnblank   = 0
	fbBlankPowerdown = 4
)

type bitfield struct {
	Offset   uint32
	Length   uint32
	MSBRight uint32
}

// varScreenInfo mirrors struct fb_var_screeninfo.
type varScreenInfo struct {
	Xres         uint32
	Yres         uint32
	XresVirtual  uint32
	YresVirtual  uint32
	Xoffset      uint32
	Yoffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          bitfield
	Green        bitfield
	Blue         bitfield
	Transp       bitfield
	Nonstd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	Pixclock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HsyncLen     uint32
	VsyncLen     uint32
	Sync         uint32
	Vmode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

// fixScreenInfo mirrors struct fb_fix_screeninfo.
type fixScreenInfo struct {
	ID           [16]byte
	SmemStart    uintptr
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	Xpanstep     uint16
	Ypanstep     uint16
	Ywrapstep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

type node struct {
	fd     int
	vi     varScreenInfo
	fi     fixScreenInfo
	mem    []byte
	timing timing
}

func ioctlPtr(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func openNode(path string) (*node, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}

	n := &node{fd: fd}
	if err := ioctlPtr(fd, fbioGetVScreenInfo, unsafe.Pointer(&n.vi)); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := ioctlPtr(fd, fbioGetFScreenInfo, unsafe.Pointer(&n.fi)); err != nil {
		unix.Close(fd)
		return nil, err
	}

	mem, err := unix.Mmap(fd, 0, int(n.fi.SmemLen), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	clear(mem)
	n.mem = mem

	n.timing = timing{
		xres:     n.vi.Xres,
		yres:     n.vi.Yres,
		pixclock: n.vi.Pixclock,
		left:     n.vi.LeftMargin,
		right:    n.vi.RightMargin,
		upper:    n.vi.UpperMargin,
		lower:    n.vi.LowerMargin,
		hsync:    n.vi.HsyncLen,
		vsync:    n.vi.VsyncLen,
	}
	return n, nil
}

func (n *node) handle() device.Handle {
	return device.Handle(n.fd)
}

func (n *node) bitsPerPixel() uint32 {
	return n.vi.BitsPerPixel
}

func (n *node) blank(blank bool) error {
	v := fbBlankUnblank
	if blank {
		v = fbBlankPowerdown
	}
	return unix.IoctlSetInt(n.fd, fbioBlank, v)
}

// write copies one visible frame of packed rows into the mapping, which
// may pad each row to LineLength bytes.
func (n *node) write(buf []byte) {
	rowBytes := int(n.vi.Xres) * int(n.vi.BitsPerPixel) / 8
	copyRows(n.mem, buf, rowBytes, int(n.fi.LineLength), int(n.vi.Yres))
}

func (n *node) close() error {
	var firstErr error
	if n.mem != nil {
		if err := unix.Munmap(n.mem); err != nil {
			firstErr = err
		}
		n.mem = nil
	}
	if err := unix.Close(n.fd); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
