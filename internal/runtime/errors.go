package runtime

import "errors"

var (
	ErrRuntime           = errors.New("runtime error")
	ErrContainerNotFound = errors.New("container not found")
	ErrRuntimeConfig     = errors.New("invalid runtime configuration")
)
