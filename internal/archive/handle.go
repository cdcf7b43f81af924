package archive

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// The destination file of a composition job and its advisory lock.
type Handle struct {
	path   string   // Destination path, as passed to Create.
	file   *os.File // Open destination file.
	locked bool     // Whether this handle holds LOCK_EX.
	closed bool     // Whether Close has run.
}

// Creates (or truncates) the file at path.
//
// The file is not locked; call [Handle.Lock] before writing.
func Create(path string) (*Handle, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Handle{path: path, file: f}, nil
}

// Returns the destination path.
func (h *Handle) Path() string {
	return h.path
}

// Takes an exclusive advisory lock on the file, blocking while another
// process holds it.
func (h *Handle) Lock() error {
	if err := flock(h.file, unix.LOCK_EX); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLock, h.path, err)
	}
	h.locked = true
	return nil
}

// Releases the advisory lock. Calling Unlock on an unlocked handle is a
// no-op.
func (h *Handle) Unlock() error {
	if !h.locked {
		return nil
	}
	if err := flock(h.file, unix.LOCK_UN); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLock, h.path, err)
	}
	h.locked = false
	return nil
}

// Writes to the underlying file.
func (h *Handle) Write(p []byte) (int, error) {
	return h.file.Write(p)
}

// Releases the lock and closes the file.
//
// Safe to call more than once; only the first call has an effect. The file
// is closed even when unlocking fails.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	unlockErr := h.Unlock()
	closeErr := h.file.Close()
	return errors.Join(unlockErr, closeErr)
}

// Applies a flock(2) operation, retrying when interrupted by a signal.
func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			return err
		}
	}
}
