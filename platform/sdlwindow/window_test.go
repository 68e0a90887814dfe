package sdlwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestWindowFlags(t *testing.T) {
	f := flags(Config{})
	assert.NotZero(t, f&sdl.WINDOW_VULKAN)
	assert.Zero(t, f&sdl.WINDOW_RESIZABLE)

	assert.NotZero(t, flags(Config{Resizable: true})&sdl.WINDOW_RESIZABLE)
}

func TestWindowPosition(t *testing.T) {
	assert.Equal(t, int32(sdl.WINDOWPOS_CENTERED), position(Config{Centered: true}))
	assert.Equal(t, int32(sdl.WINDOWPOS_UNDEFINED), position(Config{}))
}
