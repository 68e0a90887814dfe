package gfx

import (
	"sync"
	"sync/atomic"

	"github.com/koyote-engine/koyote/gfx/driver"
)

// SharedDevice is a reference-counted logical device. Every buffer, image,
// shader and pipeline holds a reference; the last Release runs the context
// teardown, which destroys the command pool before the device.
type SharedDevice struct {
	device   driver.Device
	refs     atomic.Int64
	teardown func()
	once     sync.Once
}

func newSharedDevice(device driver.Device, teardown func()) *SharedDevice {
	shared := &SharedDevice{device: device, teardown: teardown}
	shared.refs.Store(1)
	return shared
}

// Device returns the native device. It must not be used after the caller's
// reference has been released.
func (s *SharedDevice) Device() driver.Device {
	return s.device
}

// Acquire adds a reference and returns s.
func (s *SharedDevice) Acquire() *SharedDevice {
	s.refs.Add(1)
	return s
}

func (s *SharedDevice) Release() {
	if s.refs.Add(-1) == 0 {
		s.once.Do(s.teardown)
	}
}

// Refs is the current reference count.
func (s *SharedDevice) Refs() int {
	return int(s.refs.Load())
}
