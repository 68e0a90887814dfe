package commands

import (
	"testing"

	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

func TestSurfaceFormat(t *testing.T) {
	assert.Equal(t, core1_0.FormatB8G8R8A8SRGB, surfaceFormat(nil))

	support := &driver.SwapchainSupport{
		Formats: []khr_surface.SurfaceFormat{
			{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
			{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		},
	}
	assert.Equal(t, core1_0.FormatB8G8R8A8SRGB, surfaceFormat(support))

	support.Formats = support.Formats[:1]
	assert.Equal(t, core1_0.FormatR8G8B8A8SRGB, surfaceFormat(support))
}

func TestFormatReport(t *testing.T) {
	suitable := gfx.DeviceReport{
		Index: 0,
		Candidate: &gfx.DeviceCandidate{
			Properties: &driver.PhysicalDeviceProperties{Name: "Radeon", Type: driver.DeviceTypeDiscreteGPU},
			Rank:       0,
		},
		Suitable: true,
	}
	line := formatReport(suitable)
	assert.Contains(t, line, "[0] Radeon")
	assert.Contains(t, line, driver.DeviceTypeDiscreteGPU.String())
	assert.Contains(t, line, "suitable")

	rejected := gfx.DeviceReport{Index: 3, Reason: "no graphics queue family"}
	line = formatReport(rejected)
	assert.Contains(t, line, "[3] device 3")
	assert.Contains(t, line, "unknown")
	assert.Contains(t, line, "rejected: no graphics queue family")
}

func TestRootRunsPreview(t *testing.T) {
	require.NotNil(t, rootCmd.RunE)
	assert.Same(t, runCmd.Flags().Lookup("shader"), rootCmd.Flags().Lookup("shader"))
	assert.Equal(t, "res/shaders/simple.wgsl", rootCmd.Flags().Lookup("shader").DefValue)
}
