package composer

import "errors"

var (
	ErrCompose   = errors.New("composition failed")
	ErrAbandoned = errors.New("composition abandoned")
)
