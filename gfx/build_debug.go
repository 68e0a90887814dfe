//go:build !release

package gfx

// DebugBuild is false when built with the release tag. It decides whether
// validation is requested by default.
const DebugBuild = true
