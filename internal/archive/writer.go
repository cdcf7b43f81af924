package archive

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// Permission bits of every entry.
const EntryMode os.FileMode = 0444

// Zip compression method of the entries.
type Method uint16

const (
	Store   = Method(zip.Store)
	Deflate = Method(zip.Deflate)
	Zstd    = Method(zstd.ZipMethodWinZip)
)

// Returns the method name as accepted by [ParseMethod].
func (m Method) String() string {
	switch m {
	case Store:
		return "store"
	case Deflate:
		return "deflate"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("method(%d)", uint16(m))
	}
}

// Selects the compression method.
//
// When compression is off the entries are stored. Otherwise name picks the
// algorithm; an empty name means deflate.
func ParseMethod(compression bool, name string) (Method, error) {
	if !compression {
		return Store, nil
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "deflate":
		return Deflate, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// Streams zip entries into an underlying writer.
type Writer struct {
	zw     *zip.Writer
	method Method
}

// Creates a zip writer over w using method for every entry.
func NewWriter(w io.Writer, method Method) *Writer {
	zw := zip.NewWriter(w)
	if method == Zstd {
		zw.RegisterCompressor(uint16(Zstd), zstd.ZipCompressor())
	}
	return &Writer{zw: zw, method: method}
}

// Starts a new entry and returns a writer for its contents.
//
// The previous entry is completed implicitly. The returned writer is valid
// until the next call to Create or Close.
func (w *Writer) Create(name string, modified time.Time) (io.Writer, error) {
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   uint16(w.method),
		Modified: modified,
	}
	hdr.SetMode(EntryMode)

	entry, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("%w: start entry %s: %w", ErrArchive, name, err)
	}
	return entry, nil
}

// Flushes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.zw.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrArchive, err)
	}
	return nil
}

// Completes the current entry and writes the central directory.
//
// Close does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("%w: finish: %w", ErrArchive, err)
	}
	return nil
}
