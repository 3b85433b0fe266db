package entity

import "errors"

var (
	// Input errors
	ErrImageNotReadable    = errors.New("image is not readable")
	ErrTransformNotFound   = errors.New("missing transform parameter file")
	ErrUnknownParameterMap = errors.New("unknown parameter map")
	ErrInvalidParameterMap = errors.New("invalid parameter map")
	ErrUnsupportedFormat   = errors.New("unsupported image format")
	ErrInvalidInput        = errors.New("invalid input")

	// Engine errors
	ErrEngineUnavailable = errors.New("registration engine is not available")
	ErrEngineFailed      = errors.New("registration engine failed")

	// Output errors
	ErrOutputWrite = errors.New("failed to write output")

	ErrRunNotFound = errors.New("run not found")
)
