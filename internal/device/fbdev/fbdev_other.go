//go:build !linux

package fbdev

import (
	"github.com/jmylchreest/fbhwc/internal/device"
)

type node struct {
	timing timing
}

func openNode(string) (*node, error) {
	return nil, device.ErrNotSupported
}

func (n *node) handle() device.Handle { return 0 }

func (n *node) bitsPerPixel() uint32 { return 0 }

func (n *node) blank(bool) error { return device.ErrNotSupported }

func (n *node) write([]byte) {}

func (n *node) close() error { return nil }
