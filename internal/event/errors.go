package event

import "errors"

var (
	ErrEvent = errors.New("event error")
)
