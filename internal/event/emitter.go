package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob" // gs:// driver
	_ "gocloud.dev/blob/memblob" // mem:// driver
	_ "gocloud.dev/blob/s3blob"  // s3:// driver
)

// Persists event records.
type Emitter interface {

	// Writes evt under key, replacing any previous record with that key.
	Emit(ctx context.Context, key string, evt *CoreEvent) error

	// Releases the underlying storage.
	Close() error
}

// Writes events into a gocloud.dev bucket.
//
// The bucket is opened on the first Emit, so a misconfigured location only
// surfaces when an event is actually written. Emit and Close may be called
// from different goroutines.
type BlobEmitter struct {
	location string       // Directory or bucket URL.
	logger   *slog.Logger

	mu     sync.Mutex
	bucket *blob.Bucket // Open bucket, nil until first use.
	closed bool         // Set by Close. Later Emits fail.
}

// Creates an emitter writing to location.
//
// A location containing "://" is opened as a gocloud.dev URL (file://,
// s3://, gs://, mem://). Anything else is a local directory, created on
// first use. Local directories, including file:// URLs, receive the record
// only, without an attributes sidecar.
func NewBlobEmitter(location string, logger *slog.Logger) *BlobEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobEmitter{location: location, logger: logger}
}

// Creates an emitter over an already open bucket. The emitter takes
// ownership of the bucket.
func NewBucketEmitter(bucket *blob.Bucket, logger *slog.Logger) *BlobEmitter {
	e := NewBlobEmitter("", logger)
	e.bucket = bucket
	return e
}

// Writes evt as indented JSON under key.
func (e *BlobEmitter) Emit(ctx context.Context, key string, evt *CoreEvent) error {
	bucket, err := e.open(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(evt, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %w", ErrEvent, err)
	}

	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := bucket.WriteAll(ctx, key, data, opts); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrEvent, key, err)
	}

	e.logger.Info("event written", "key", key, "kind", evt.Kind, "event_id", evt.EventID)
	return nil
}

// Closes the bucket if it was opened. Emits after Close fail.
func (e *BlobEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.bucket == nil {
		return nil
	}
	err := e.bucket.Close()
	e.bucket = nil
	return err
}

// Opens the bucket on first use.
func (e *BlobEmitter) open(ctx context.Context) (*blob.Bucket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("%w: emitter closed", ErrEvent)
	}
	if e.bucket != nil {
		return e.bucket, nil
	}
	if e.location == "" {
		return nil, fmt.Errorf("%w: no event location configured", ErrEvent)
	}

	bucket, err := openLocation(ctx, e.location)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrEvent, e.location, err)
	}

	e.bucket = bucket
	return bucket, nil
}

// Opens a directory path, a file:// URL or any registered bucket URL.
func openLocation(ctx context.Context, location string) (*blob.Bucket, error) {
	if !strings.Contains(location, "://") {
		return openDir(location)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	if u.Scheme == fileblob.Scheme {
		return openDir(u.Path)
	}
	return blob.OpenBucket(ctx, location)
}

// Opens a local directory as a bucket, creating it if needed.
func openDir(dir string) (*blob.Bucket, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return fileblob.OpenBucket(abs, &fileblob.Options{
		CreateDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
}
