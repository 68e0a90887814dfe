package shader

import "github.com/cockroachdb/errors"

var (
	// ErrCompile marks a source that failed to compile to bytecode.
	ErrCompile = errors.New("shader compilation failed")
	// ErrModuleCreation marks a stage whose module could not be created
	// even after recompiling. It is not recoverable.
	ErrModuleCreation = errors.New("shader module creation failed")

	ErrUnsupportedLanguage = errors.New("unsupported shader language")
	ErrInvalidBytecode     = errors.New("invalid shader bytecode")
)
