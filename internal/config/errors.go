package config

import "errors"

var (
	ErrConfig   = errors.New("invalid configuration")
	ErrTemplate = errors.New("invalid filename template")
)
