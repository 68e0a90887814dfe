//go:build release

package gfx

const DebugBuild = false
