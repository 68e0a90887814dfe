package gfx

import (
	"github.com/cockroachdb/errors"
)

// Error classes. Every error returned by this package carries one of these
// marks; test with errors.Is.
var (
	// ErrSetup marks failures that abort context construction.
	ErrSetup = errors.New("graphics setup failed")
	// ErrResource marks buffer and image creation or transfer failures.
	// Nothing allocated by the failing call is left behind.
	ErrResource = errors.New("graphics resource failed")
)

var (
	ErrNoSuitableDevice  = errors.New("no suitable physical device")
	ErrNoMemoryType      = errors.New("no suitable memory type")
	ErrMissingExtension  = errors.New("required extension not available")
	ErrUnsupportedFormat = errors.New("no supported format")
	ErrContextDestroyed  = errors.New("render context destroyed")
)

func setupError(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrSetup)
}

func resourceError(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrResource)
}
