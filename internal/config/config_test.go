package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cruciblehq/cdc/internal/archive"
)

func testParams() Params {
	return Params{
		LimitSize:    -1,
		Exe:          "segv",
		PID:          42,
		Signal:       11,
		Timestamp:    1700000000,
		Hostname:     "web-7d9f",
		Pathname:     "!usr!bin!segv",
		NodeHostname: "node-1",
		UUID:         "0d3c1c3e-0000-4000-8000-000000000000",
	}
}

func TestNewDefaults(t *testing.T) {
	cfg, err := New(Options{Params: testParams(), Compression: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if cfg.Dir != DefaultDir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, DefaultDir)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %s, want %s", cfg.Timeout, DefaultTimeout)
	}
	if cfg.Method != archive.Deflate {
		t.Errorf("Method = %v, want deflate", cfg.Method)
	}
	if cfg.Params.Namespace != DefaultNamespace {
		t.Errorf("Namespace = %q, want %q", cfg.Params.Namespace, DefaultNamespace)
	}

	want := "0d3c1c3e-0000-4000-8000-000000000000-dump-1700000000-web-7d9f-segv-42-11"
	if cfg.Name != want {
		t.Fatalf("Name = %q, want %q", cfg.Name, want)
	}
}

func TestNewFillsUUIDAndNode(t *testing.T) {
	p := testParams()
	p.UUID = ""
	p.NodeHostname = ""

	cfg, err := New(Options{Params: p})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Params.UUID == "" {
		t.Fatal("UUID not generated")
	}
	if cfg.Params.NodeHostname == "" {
		t.Fatal("NodeHostname not resolved")
	}
	if cfg.Method != archive.Store {
		t.Fatalf("Method = %v, want store when compression is off", cfg.Method)
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{
			name:    "negative timeout",
			opts:    Options{Params: testParams(), Timeout: -time.Second},
			wantErr: ErrConfig,
		},
		{
			name:    "unknown compression",
			opts:    Options{Params: testParams(), Compression: true, CompressionAlgo: "brotli"},
			wantErr: ErrConfig,
		},
		{
			name:    "unknown template field",
			opts:    Options{Params: testParams(), FilenameTemplate: "{{.Nope}}"},
			wantErr: ErrTemplate,
		},
		{
			name:    "unparseable template",
			opts:    Options{Params: testParams(), FilenameTemplate: "{{.Exe"},
			wantErr: ErrTemplate,
		},
		{
			name:    "empty rendering",
			opts:    Options{Params: Params{}, FilenameTemplate: "{{.Exe}}"},
			wantErr: ErrTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderSanitizesSeparators(t *testing.T) {
	p := testParams()
	p.Exe = "../../etc/passwd"

	name, err := Render("{{.Exe}}-{{.PID}}", p)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := ".._.._etc_passwd-42"; name != want {
		t.Fatalf("Render = %q, want %q", name, want)
	}
}

func TestDerivedNames(t *testing.T) {
	cfg, err := New(Options{
		Params:           testParams(),
		Dir:              "/cores",
		FilenameTemplate: "{{.Exe}}-{{.PID}}",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	checks := map[string]string{
		cfg.ArchiveName():  "segv-42.zip",
		cfg.ArchivePath():  filepath.Join("/cores", "segv-42.zip"),
		cfg.DumpInfoName(): "segv-42-dump-info.json",
		cfg.CoreName():     "segv-42.core",
		cfg.EventName():    "segv-42-event.json",
		cfg.LogPath():      filepath.Join("/cores", LogFileName),
	}
	for got, want := range checks {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
