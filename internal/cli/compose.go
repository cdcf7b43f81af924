package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cruciblehq/cdc/internal"
	"github.com/cruciblehq/cdc/internal/composer"
	"github.com/cruciblehq/cdc/internal/config"
	"github.com/cruciblehq/cdc/internal/event"
	"github.com/cruciblehq/cdc/internal/exit"
	"github.com/cruciblehq/cdc/internal/logging"
	"github.com/cruciblehq/cdc/internal/metrics"
	"github.com/cruciblehq/cdc/internal/runtime"
	"github.com/cruciblehq/cdc/internal/supervisor"
)

// Represents the 'cdc compose' command, run by default.
type ComposeCmd struct {
	LimitSize int64  `help:"Core file size soft limit (%c)." default:"0"`
	Exe       string `help:"Executable name (%e)."`
	PID       int    `name:"pid" help:"Process ID (%p)."`
	Signal    int    `help:"Signal number that caused the dump (%s)."`
	Timestamp int64  `help:"Time of the dump in seconds since the epoch (%t)."`
	Hostname  string `help:"Hostname of the crashed process (%h)."`
	Pathname  string `help:"Executable path with slashes replaced by '!' (%E)."`

	Dir               string `env:"CDC_DIR" default:"${dir}" help:"Directory receiving the archives." placeholder:"PATH"`
	FilenameTemplate  string `env:"FILENAME_TEMPLATE" default:"${template}" help:"Template of the archive name."`
	Timeout           int    `env:"TIMEOUT" default:"600" help:"Processing deadline in seconds."`
	Compression       bool   `env:"COMPRESSION" default:"true" negatable:"" help:"Compress archive entries."`
	CompressionMethod string `env:"CDC_COMPRESSION_METHOD" default:"deflate" enum:"deflate,zstd" help:"Compression method when compression is on (${enum})."`

	IgnoreRuntime       bool   `env:"IGNORE_CRIO" help:"Skip the container runtime lookup."`
	ImageCommand        string `env:"CRIO_IMAGE_CMD" default:"img" help:"Image listing command recorded in the metadata."`
	UseRuntimeConfig    bool   `env:"USE_CRIO_CONF" help:"Take the runtime endpoint from the crictl configuration."`
	RuntimeConfig       string `env:"CDC_RUNTIME_CONFIG" default:"/etc/crictl.yaml" help:"crictl configuration file." placeholder:"PATH"`
	ContainerdAddress   string `env:"CDC_CONTAINERD_ADDRESS" default:"${containerd}" help:"containerd socket." placeholder:"PATH"`
	ContainerdNamespace string `env:"CDC_CONTAINERD_NAMESPACE" default:"k8s.io" help:"containerd namespace of Kubernetes containers."`

	CoreEvents    bool   `env:"CORE_EVENTS" help:"Write an event record for each archive."`
	EventLocation string `env:"EVENT_DIRECTORY" default:"${events}" help:"Directory or blob URL receiving event records." placeholder:"LOCATION"`
	MetricsDir    string `env:"CDC_METRICS_DIR" help:"Textfile collector directory for metrics." placeholder:"PATH"`

	LogLevel  string `env:"LOG_LEVEL" default:"info" help:"Log level (debug, info, warn, error)."`
	LogFormat string `env:"CDC_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format (${enum})."`
}

// Composes the core dump read from standard input.
//
// The whole job, runtime lookup included, runs under the deadline. The
// returned error carries the process exit code (see [exit.Code]).
func (c *ComposeCmd) Run(ctx context.Context) error {
	cfg, err := config.New(c.options())
	if err != nil {
		return err
	}

	logger, closer := logging.Setup(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Debug:   internal.IsDebug(),
		Quiet:   internal.IsQuiet(),
		Verbose: internal.IsVerbose(),
		File:    cfg.LogPath(),
	}, os.Stderr)
	defer closer.Close()

	logger = logger.WithGroup(internal.Name)
	previous := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(previous)

	p := cfg.Params
	logger.Info("composing core dump",
		"version", internal.VersionString(),
		"uuid", p.UUID,
		"exe", p.Exe,
		"pid", p.PID,
		"signal", p.Signal,
		"hostname", p.Hostname,
		"archive", cfg.ArchivePath(),
	)

	opts := []composer.Option{composer.WithLogger(logging.Component(logger, "composer"))}

	if !cfg.IgnoreRuntime {
		opts = append(opts, composer.WithEnricher(containerd{
			address:   runtimeAddress(cfg, logger),
			namespace: cfg.ContainerdNamespace,
			logger:    logging.Component(logger, "runtime"),
		}))
	}

	if cfg.CoreEvents {
		emitter := event.NewBlobEmitter(cfg.EventLocation, logging.Component(logger, "event"))
		defer emitter.Close()
		opts = append(opts, composer.WithEmitter(emitter))
	}

	job := composer.New(cfg, os.Stdin, opts...)
	sup := supervisor.New(cfg.Timeout, supervisor.WithLogger(logging.Component(logger, "supervisor")))

	start := time.Now()
	err = sup.Run(ctx, job.Compose)
	if err != nil {
		logger.Error("core dump composition failed", "error", err, "exit_code", exit.Code(err))
	}

	writeMetrics(cfg.MetricsDir, job.Stats(), err, start, logger)
	return err
}

// Converts the parsed flags into configuration options.
func (c *ComposeCmd) options() config.Options {
	return config.Options{
		Params: config.Params{
			LimitSize: c.LimitSize,
			Exe:       c.Exe,
			PID:       c.PID,
			Signal:    c.Signal,
			Timestamp: c.Timestamp,
			Hostname:  c.Hostname,
			Pathname:  c.Pathname,
		},
		Dir:                 c.Dir,
		FilenameTemplate:    c.FilenameTemplate,
		Timeout:             time.Duration(c.Timeout) * time.Second,
		Compression:         c.Compression,
		CompressionAlgo:     c.CompressionMethod,
		IgnoreRuntime:       c.IgnoreRuntime,
		ImageCommand:        c.ImageCommand,
		UseRuntimeConfig:    c.UseRuntimeConfig,
		RuntimeConfigPath:   c.RuntimeConfig,
		ContainerdAddress:   c.ContainerdAddress,
		ContainerdNamespace: c.ContainerdNamespace,
		CoreEvents:          c.CoreEvents,
		EventLocation:       c.EventLocation,
		MetricsDir:          c.MetricsDir,
		LogLevel:            c.LogLevel,
		LogFormat:           c.LogFormat,
	}
}

// Returns the containerd socket, taken from the crictl configuration when
// requested and readable.
func runtimeAddress(cfg config.Config, logger *slog.Logger) string {
	if !cfg.UseRuntimeConfig {
		return cfg.ContainerdAddress
	}

	address, err := runtime.ResolveAddress(cfg.RuntimeConfigPath)
	if err != nil {
		logger.Warn("failed to read runtime configuration, using the configured address",
			"path", cfg.RuntimeConfigPath, "address", cfg.ContainerdAddress, "error", err)
		return cfg.ContainerdAddress
	}
	return address
}

// Enriches crashes from containerd, connecting on each lookup so that the
// connection is made under the job's deadline.
type containerd struct {
	address   string
	namespace string
	logger    *slog.Logger
}

func (c containerd) Lookup(ctx context.Context, hostname, exe string) (*runtime.Enrichment, error) {
	rt, err := runtime.New(c.address, c.namespace, c.logger)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	return rt.Lookup(ctx, hostname, exe)
}

// Writes the invocation metrics when a textfile directory is configured.
func writeMetrics(dir string, stats composer.Stats, err error, start time.Time, logger *slog.Logger) {
	if dir == "" {
		return
	}

	m := metrics.New()
	m.Observe(metrics.Run{
		Err:          err,
		Duration:     time.Since(start),
		CoreBytes:    stats.CoreBytes,
		Enriched:     stats.Enriched,
		EventWritten: stats.EventWritten,
		Finished:     time.Now(),
	})

	if werr := m.WriteTo(dir); werr != nil {
		logger.Warn("failed to write metrics", "dir", dir, "error", werr)
	}
}
