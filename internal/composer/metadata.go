package composer

import (
	"encoding/json"

	"github.com/cruciblehq/cdc/internal/config"
	"github.com/cruciblehq/cdc/internal/runtime"
)

// The metadata entry of an archive.
type DumpInfo struct {
	UUID         string          `json:"uuid"`
	DumpFile     string          `json:"dump_file"`
	Ext          string          `json:"ext"`
	Timestamp    int64           `json:"timestamp"`
	Hostname     string          `json:"hostname"`
	Exe          string          `json:"exe"`
	RealPID      int             `json:"real_pid"`
	Signal       int             `json:"signal"`
	LimitSize    int64           `json:"limit_size"`
	Pathname     string          `json:"pathname,omitempty"`
	NodeHostname string          `json:"node_hostname"`
	Namespace    string          `json:"namespace"`
	Runtime      RuntimeSettings `json:"runtime"`

	// Present when the container runtime lookup succeeded.
	Container *runtime.Enrichment `json:"container,omitempty"`
}

// Runtime lookup settings in effect for the dump.
type RuntimeSettings struct {
	Ignored      bool   `json:"ignored"`
	ImageCommand string `json:"image_command,omitempty"`
	UseConfig    bool   `json:"use_config"`
}

// Builds the metadata of the dump described by cfg.
//
// The pod namespace reported by the runtime replaces the configured
// namespace.
func NewDumpInfo(cfg config.Config, container *runtime.Enrichment) DumpInfo {
	p := cfg.Params

	info := DumpInfo{
		UUID:         p.UUID,
		DumpFile:     cfg.CoreName(),
		Ext:          config.CoreExtension,
		Timestamp:    p.Timestamp,
		Hostname:     p.Hostname,
		Exe:          p.Exe,
		RealPID:      p.PID,
		Signal:       p.Signal,
		LimitSize:    p.LimitSize,
		Pathname:     p.Pathname,
		NodeHostname: p.NodeHostname,
		Namespace:    p.Namespace,
		Runtime: RuntimeSettings{
			Ignored:      cfg.IgnoreRuntime,
			ImageCommand: cfg.ImageCommand,
			UseConfig:    cfg.UseRuntimeConfig,
		},
		Container: container,
	}

	if container != nil && container.PodNamespace != "" {
		info.Namespace = container.PodNamespace
	}
	return info
}

// Returns the JSON encoding of the metadata.
func (d DumpInfo) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
