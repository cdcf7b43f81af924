package archive

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sys/unix"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name        string
		compression bool
		method      string
		want        Method
		wantErr     bool
	}{
		{name: "compression off", compression: false, method: "zstd", want: Store},
		{name: "default", compression: true, method: "", want: Deflate},
		{name: "deflate", compression: true, method: "deflate", want: Deflate},
		{name: "zstd mixed case", compression: true, method: " ZSTD ", want: Zstd},
		{name: "unknown", compression: true, method: "lzma", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMethod(tt.compression, tt.method)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMethod) {
					t.Fatalf("err = %v, want ErrUnknownMethod", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseMethod = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriterRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("core dump payload "), 4096)

	for _, method := range []Method{Store, Deflate, Zstd} {
		t.Run(method.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, method)

			entry, err := w.Create("first.json", time.Unix(0, 0))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if _, err := entry.Write([]byte(`{"ok":true}`)); err != nil {
				t.Fatalf("Write: %v", err)
			}

			entry, err = w.Create("second.core", time.Unix(0, 0))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if _, err := entry.Write(payload); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			files := readEntries(t, buf.Bytes())
			if len(files) != 2 {
				t.Fatalf("entries = %d, want 2", len(files))
			}
			if files[0].name != "first.json" || files[1].name != "second.core" {
				t.Fatalf("entry order = %q, %q", files[0].name, files[1].name)
			}
			if !bytes.Equal(files[1].data, payload) {
				t.Fatal("payload mismatch after round trip")
			}
			for _, f := range files {
				if f.mode.Perm() != EntryMode {
					t.Errorf("%s mode = %v, want %v", f.name, f.mode.Perm(), EntryMode)
				}
				if f.method != uint16(method) {
					t.Errorf("%s method = %d, want %d", f.name, f.method, method)
				}
			}
		})
	}
}

func TestHandleLockLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.zip")

	h, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.Path() != path {
		t.Fatalf("Path() = %q, want %q", h.Path(), path)
	}
	if err := h.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if tryLock(t, path) {
		t.Fatal("second lock succeeded while the handle holds LOCK_EX")
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if !tryLock(t, path) {
		t.Fatal("lock still held after Close")
	}
}

func TestUnlockWithoutLock(t *testing.T) {
	h, err := Create(filepath.Join(t.TempDir(), "dump.zip"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer h.Close()

	if err := h.Unlock(); err != nil {
		t.Fatalf("Unlock on unlocked handle: %v", err)
	}
}

func TestCreateFailsUnderFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Create(filepath.Join(blocker, "dump.zip")); err == nil {
		t.Fatal("expected error creating a file below a regular file")
	}
}

type entry struct {
	name   string
	mode   os.FileMode
	method uint16
	data   []byte
}

func readEntries(t *testing.T, b []byte) []entry {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	var out []entry
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out = append(out, entry{name: f.Name, mode: f.Mode(), method: f.Method, data: data})
	}
	return out
}

// Reports whether a fresh descriptor can take LOCK_EX without blocking.
func tryLock(t *testing.T, path string) bool {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return true
	}
	if err != unix.EWOULDBLOCK {
		t.Fatalf("flock: %v", err)
	}
	return false
}
