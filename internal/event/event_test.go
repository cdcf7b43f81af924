package event

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"gocloud.dev/blob/memblob"

	"github.com/cruciblehq/cdc/internal/config"
	"github.com/cruciblehq/cdc/internal/runtime"
)

func testParams() config.Params {
	return config.Params{
		Exe:          "segv",
		PID:          42,
		Signal:       11,
		Timestamp:    1700000000,
		Hostname:     "web-7d9f",
		NodeHostname: "node-1",
		Namespace:    "default",
		UUID:         "0d3c1c3e-0000-4000-8000-000000000000",
	}
}

func TestNewNoRuntime(t *testing.T) {
	evt := NewNoRuntime(testParams(), "dump.zip")

	if evt.Kind != KindNoRuntime {
		t.Errorf("Kind = %q, want %q", evt.Kind, KindNoRuntime)
	}
	if evt.ZipName != "dump.zip" {
		t.Errorf("ZipName = %q", evt.ZipName)
	}
	if want := time.Unix(1700000000, 0).UTC(); !evt.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", evt.Timestamp, want)
	}
	if evt.Container != nil {
		t.Error("no-runtime event carries a container")
	}
	if evt.EventID != ID("dump.zip") {
		t.Error("event ID is not derived from the archive name")
	}
}

func TestNewRuntime(t *testing.T) {
	container := &runtime.Enrichment{ContainerID: "abc", PodNamespace: "shop"}
	evt := NewRuntime(testParams(), "dump.zip", container)

	if evt.Kind != KindRuntime {
		t.Errorf("Kind = %q, want %q", evt.Kind, KindRuntime)
	}
	if evt.Container != container {
		t.Error("container not attached")
	}
}

func TestIDDeterministic(t *testing.T) {
	if ID("a.zip") != ID("a.zip") {
		t.Fatal("ID is not deterministic")
	}
	if ID("a.zip") == ID("b.zip") {
		t.Fatal("different archives share an ID")
	}
}

func TestBucketEmitterOverwriteIsStable(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	e := NewBucketEmitter(bucket, nil)
	defer e.Close()

	d := digest.FromString("core")
	emit := func() []byte {
		evt := NewNoRuntime(testParams(), "dump.zip").WithCore("dump.core", 4, d)
		if err := e.Emit(ctx, "dump-event.json", evt); err != nil {
			t.Fatalf("Emit: %v", err)
		}
		data, err := bucket.ReadAll(ctx, "dump-event.json")
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		return data
	}

	first := emit()
	second := emit()
	if !bytes.Equal(first, second) {
		t.Fatal("re-emitting the same event changed the record")
	}

	var got CoreEvent
	if err := json.Unmarshal(first, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ZipName != "dump.zip" || got.Core == nil || got.Core.Digest != d {
		t.Fatalf("decoded event = %+v", got)
	}
}

func TestBlobEmitterDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "events", "nested")
	e := NewBlobEmitter(dir, nil)
	defer e.Close()

	evt := NewNoRuntime(testParams(), "dump.zip")
	if err := e.Emit(context.Background(), "dump-event.json", evt); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "dump-event.json"))
	if err != nil {
		t.Fatalf("read event file: %v", err)
	}

	var got CoreEvent
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != KindNoRuntime || got.Params.PID != 42 {
		t.Fatalf("decoded event = %+v", got)
	}

	assertDirHolds(t, dir, "dump-event.json")
}

func TestBlobEmitterFileURL(t *testing.T) {
	dir := t.TempDir()
	e := NewBlobEmitter("file://"+dir, nil)
	defer e.Close()

	if err := e.Emit(context.Background(), "dump-event.json", NewNoRuntime(testParams(), "dump.zip")); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	assertDirHolds(t, dir, "dump-event.json")
}

func TestEmitAfterClose(t *testing.T) {
	e := NewBlobEmitter(t.TempDir(), nil)
	if err := e.Emit(context.Background(), "first.json", NewNoRuntime(testParams(), "dump.zip")); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err := e.Emit(context.Background(), "second.json", NewNoRuntime(testParams(), "dump.zip"))
	if !errors.Is(err, ErrEvent) {
		t.Fatalf("Emit after Close: err = %v, want ErrEvent", err)
	}
}

func TestCloseWhileEmitting(t *testing.T) {
	e := NewBlobEmitter(t.TempDir(), nil)
	evt := NewNoRuntime(testParams(), "dump.zip")

	done := make(chan error, 1)
	go func() { done <- e.Emit(context.Background(), "dump-event.json", evt) }()

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Either order is valid; the emitter must not be left holding a bucket.
	if err := <-done; err != nil && !errors.Is(err, ErrEvent) {
		t.Fatalf("Emit: err = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func assertDirHolds(t *testing.T, dir string, want ...string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var got []string
	for _, entry := range entries {
		got = append(got, entry.Name())
	}
	if len(got) != len(want) {
		t.Fatalf("dir holds %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dir holds %v, want %v", got, want)
		}
	}
}

func TestBlobEmitterURL(t *testing.T) {
	e := NewBlobEmitter("mem://", nil)
	defer e.Close()

	if err := e.Emit(context.Background(), "k.json", NewNoRuntime(testParams(), "dump.zip")); err != nil {
		t.Fatalf("Emit: %v", err)
	}
}

func TestBlobEmitterErrors(t *testing.T) {
	ctx := context.Background()
	evt := NewNoRuntime(testParams(), "dump.zip")

	if err := NewBlobEmitter("", nil).Emit(ctx, "k.json", evt); !errors.Is(err, ErrEvent) {
		t.Fatalf("empty location: err = %v, want ErrEvent", err)
	}

	if err := NewBlobEmitter("nope://bucket", nil).Emit(ctx, "k.json", evt); !errors.Is(err, ErrEvent) {
		t.Fatalf("unknown scheme: err = %v, want ErrEvent", err)
	}

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewBlobEmitter(filepath.Join(blocker, "events"), nil).Emit(ctx, "k.json", evt); !errors.Is(err, ErrEvent) {
		t.Fatalf("unwritable dir: err = %v, want ErrEvent", err)
	}
}

func TestCloseUnopened(t *testing.T) {
	if err := NewBlobEmitter("/tmp/unused", nil).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
