package archive

import "errors"

var (
	ErrArchive       = errors.New("archive error")
	ErrLock          = errors.New("lock failed")
	ErrUnknownMethod = errors.New("unknown compression method")
)
