package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/cruciblehq/cdc/internal/archive"
)

const (

	// Directory receiving archives when none is configured.
	DefaultDir = "/var/mnt/core-dump-handler/cores"

	// Archive name template when none is configured.
	DefaultTemplate = "{{.UUID}}-dump-{{.Timestamp}}-{{.Hostname}}-{{.Exe}}-{{.PID}}-{{.Signal}}"

	// Processing deadline when none is configured.
	DefaultTimeout = 600 * time.Second

	// Namespace recorded when the runtime does not provide one.
	DefaultNamespace = "default"

	// Name of the log file written next to the archives.
	LogFileName = "composer.log"

	// Extension of the core payload entry.
	CoreExtension = "core"
)

// Crash parameters passed by the kernel through core_pattern specifiers.
type Params struct {
	LimitSize    int64  `json:"limit_size"`    // %c
	Exe          string `json:"exe"`           // %e
	PID          int    `json:"pid"`           // %p
	Signal       int    `json:"signal"`        // %s
	Timestamp    int64  `json:"timestamp"`     // %t
	Hostname     string `json:"hostname"`      // %h
	Pathname     string `json:"pathname"`      // %E
	NodeHostname string `json:"node_hostname"` // Host running the composer.
	Namespace    string `json:"namespace"`     // Namespace of the crashed pod.
	UUID         string `json:"uuid"`          // Unique per invocation.
}

// Raw, unvalidated configuration values.
type Options struct {
	Params Params

	Dir              string
	FilenameTemplate string
	Timeout          time.Duration
	Compression      bool
	CompressionAlgo  string

	IgnoreRuntime       bool
	ImageCommand        string
	UseRuntimeConfig    bool
	RuntimeConfigPath   string
	ContainerdAddress   string
	ContainerdNamespace string

	CoreEvents    bool
	EventLocation string
	MetricsDir    string

	LogLevel  string
	LogFormat string
}

// Resolved configuration of one composition job. Treat as read-only.
type Config struct {
	Params Params

	Dir     string         // Directory receiving the archive and log file.
	Name    string         // Rendered archive name, without extension.
	Timeout time.Duration  // Deadline for the whole job.
	Method  archive.Method // Compression method of the entries.

	IgnoreRuntime       bool   // Skip the container runtime lookup.
	ImageCommand        string // Image listing command, recorded in the metadata.
	UseRuntimeConfig    bool   // Take the runtime endpoint from RuntimeConfigPath.
	RuntimeConfigPath   string // crictl-style configuration file.
	ContainerdAddress   string // containerd socket address.
	ContainerdNamespace string // containerd namespace of Kubernetes containers.

	CoreEvents    bool   // Emit an event record per archive.
	EventLocation string // Directory or blob URL receiving event records.
	MetricsDir    string // Textfile collector directory. Empty disables metrics.

	LogLevel  string
	LogFormat string
}

// Validates opts and resolves them into a [Config].
//
// A missing UUID, namespace or node hostname is filled in. The filename
// template is rendered once with the final parameters.
func New(opts Options) (Config, error) {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.FilenameTemplate == "" {
		opts.FilenameTemplate = DefaultTemplate
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Timeout < 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive, got %s", ErrConfig, opts.Timeout)
	}

	p := opts.Params
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	if p.Namespace == "" {
		p.Namespace = DefaultNamespace
	}
	if p.NodeHostname == "" {
		p.NodeHostname = nodeHostname()
	}

	method, err := archive.ParseMethod(opts.Compression, opts.CompressionAlgo)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	name, err := Render(opts.FilenameTemplate, p)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Params:              p,
		Dir:                 opts.Dir,
		Name:                name,
		Timeout:             opts.Timeout,
		Method:              method,
		IgnoreRuntime:       opts.IgnoreRuntime,
		ImageCommand:        opts.ImageCommand,
		UseRuntimeConfig:    opts.UseRuntimeConfig,
		RuntimeConfigPath:   opts.RuntimeConfigPath,
		ContainerdAddress:   opts.ContainerdAddress,
		ContainerdNamespace: opts.ContainerdNamespace,
		CoreEvents:          opts.CoreEvents,
		EventLocation:       opts.EventLocation,
		MetricsDir:          opts.MetricsDir,
		LogLevel:            opts.LogLevel,
		LogFormat:           opts.LogFormat,
	}, nil
}

// Renders a filename template against the crash parameters.
//
// Unknown fields are an error. Path separators in the result are replaced
// so the name always stays inside the archive directory.
func Render(text string, p Params) (string, error) {
	tmpl, err := template.New("filename").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplate, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplate, err)
	}

	name := strings.Map(func(r rune) rune {
		if r == '/' || r == 0 {
			return '_'
		}
		return r
	}, strings.TrimSpace(buf.String()))

	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: template %q renders to %q", ErrTemplate, text, name)
	}
	return name, nil
}

// Returns the base name of the archive, including its extension.
func (c Config) ArchiveName() string {
	return c.Name + ".zip"
}

// Returns the full path of the archive.
func (c Config) ArchivePath() string {
	return filepath.Join(c.Dir, c.ArchiveName())
}

// Returns the name of the metadata entry.
func (c Config) DumpInfoName() string {
	return c.Name + "-dump-info.json"
}

// Returns the name of the core payload entry.
func (c Config) CoreName() string {
	return c.Name + "." + CoreExtension
}

// Returns the key of the event record within the event location.
func (c Config) EventName() string {
	return c.Name + "-event.json"
}

// Returns the path of the log file.
func (c Config) LogPath() string {
	return filepath.Join(c.Dir, LogFileName)
}

// Returns the host name, or "unknown".
func nodeHostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
}
