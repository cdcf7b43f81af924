package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"

	"github.com/cruciblehq/cdc/internal/config"
	"github.com/cruciblehq/cdc/internal/runtime"
)

// Schema version of the event record.
const Version = "1"

// Event variant.
type Kind string

const (
	KindNoRuntime Kind = "no-runtime"
	KindRuntime   Kind = "runtime"
)

// Namespace of the name-based event IDs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://cruciblehq.dev/cdc/events"))

// A crash event record.
type CoreEvent struct {
	Version   string        `json:"version"`
	Kind      Kind          `json:"kind"`
	EventID   string        `json:"event_id"`
	Timestamp time.Time     `json:"timestamp"`
	ZipName   string        `json:"zip_name"`
	Params    config.Params `json:"params"`
	Core      *Core         `json:"core,omitempty"`

	// Set for KindRuntime only.
	Container *runtime.Enrichment `json:"container,omitempty"`
}

// Summary of the core payload entry.
type Core struct {
	Entry  string        `json:"entry"`
	Size   int64         `json:"size"`
	Digest digest.Digest `json:"digest"`
}

// Creates an event for an archive composed without the container runtime.
//
// zipName is the archive's base file name, not its path.
func NewNoRuntime(params config.Params, zipName string) *CoreEvent {
	return &CoreEvent{
		Version:   Version,
		Kind:      KindNoRuntime,
		EventID:   ID(zipName),
		Timestamp: time.Unix(params.Timestamp, 0).UTC(),
		ZipName:   zipName,
		Params:    params,
	}
}

// Creates an event carrying the container found by the runtime lookup.
func NewRuntime(params config.Params, zipName string, container *runtime.Enrichment) *CoreEvent {
	evt := NewNoRuntime(params, zipName)
	evt.Kind = KindRuntime
	evt.Container = container
	return evt
}

// Attaches the payload summary.
func (e *CoreEvent) WithCore(entry string, size int64, d digest.Digest) *CoreEvent {
	e.Core = &Core{Entry: entry, Size: size, Digest: d}
	return e
}

// Returns the deterministic event ID of an archive.
func ID(zipName string) string {
	return uuid.NewSHA1(idNamespace, []byte(zipName)).String()
}
