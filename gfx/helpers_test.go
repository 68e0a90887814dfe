package gfx

import (
	"testing"

	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/gfx/driver/drivertest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	loader *drivertest.Loader
	window *drivertest.Window
	hook   *test.Hook
	log    *logrus.Logger
}

func newFixture(devices ...*drivertest.PhysicalDevice) *fixture {
	if len(devices) == 0 {
		devices = []*drivertest.PhysicalDevice{drivertest.NewPhysicalDevice("discrete", driver.DeviceTypeDiscreteGPU)}
	}
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.TraceLevel)
	return &fixture{
		loader: drivertest.NewLoader(devices...),
		window: drivertest.NewWindow(),
		hook:   hook,
		log:    log,
	}
}

func (f *fixture) options(validation bool) Options {
	opts := DefaultOptions()
	opts.Validation = validation
	opts.Logger = f.log
	return opts
}

func (f *fixture) context(t *testing.T) *RenderContext {
	t.Helper()
	ctx, err := NewRenderContext(f.loader, f.window, f.options(true))
	require.NoError(t, err)
	return ctx
}

// device returns the fake logical device of the first adapter that has one.
func (f *fixture) device() *drivertest.Device {
	for _, pd := range f.loader.Devices {
		if pd.Device != nil {
			return pd.Device
		}
	}
	return nil
}

func (f *fixture) requireNoLeaks(t *testing.T) {
	t.Helper()
	require.Empty(t, f.loader.Leaks())
	require.Zero(t, f.loader.DoubleDestroys())
}
