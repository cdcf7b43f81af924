package composer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/cruciblehq/cdc/internal/archive"
	"github.com/cruciblehq/cdc/internal/clock"
	"github.com/cruciblehq/cdc/internal/config"
	"github.com/cruciblehq/cdc/internal/event"
	"github.com/cruciblehq/cdc/internal/exit"
	"github.com/cruciblehq/cdc/internal/runtime"
)

// Finds the container context of a crash.
type Enricher interface {
	Lookup(ctx context.Context, hostname, exe string) (*runtime.Enrichment, error)
}

// The zip operations used by a job. Implemented by [archive.Writer].
type entryWriter interface {
	Create(name string, modified time.Time) (io.Writer, error)
	Flush() error
	Close() error
}

func newArchiveWriter(w io.Writer, method archive.Method) entryWriter {
	return archive.NewWriter(w, method)
}

// Outcome of a composition, for logging and metrics.
type Stats struct {
	Archive      string        // Archive path.
	CoreBytes    int64         // Bytes copied from standard input.
	CoreDigest   digest.Digest // Digest of the copied bytes.
	Enriched     bool          // Whether the runtime lookup succeeded.
	EventWritten bool          // Whether an event record was persisted.
}

// One composition job.
type Composer struct {
	cfg      config.Config // Resolved configuration.
	stdin    io.Reader     // Core dump stream.
	enricher Enricher      // Runtime lookup. Nil disables enrichment.
	emitter  event.Emitter // Event sink. Nil disables events.
	clock    clock.Clock   // Source of entry modification times.
	logger   *slog.Logger

	newWriter func(io.Writer, archive.Method) entryWriter

	mu    sync.Mutex
	stats Stats
}

// Configures a [Composer].
type Option func(*Composer)

// Sets the runtime lookup used when the runtime is not ignored.
func WithEnricher(e Enricher) Option {
	return func(c *Composer) { c.enricher = e }
}

// Sets the event sink used when events are enabled.
func WithEmitter(e event.Emitter) Option {
	return func(c *Composer) { c.emitter = e }
}

// Sets the time source. Defaults to [clock.Real].
func WithClock(cl clock.Clock) Option {
	return func(c *Composer) { c.clock = cl }
}

// Sets the logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// Creates a job composing the core read from stdin.
func New(cfg config.Config, stdin io.Reader, opts ...Option) *Composer {
	c := &Composer{
		cfg:       cfg,
		stdin:     stdin,
		clock:     clock.Real(),
		logger:    slog.Default(),
		newWriter: newArchiveWriter,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats.Archive = cfg.ArchivePath()
	return c
}

// Returns a snapshot of the job's progress.
//
// Safe to call while Compose is running.
func (c *Composer) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Runs the composition job. See the package documentation for the order of
// steps and the exit codes of each failure.
func (c *Composer) Compose(ctx context.Context) error {
	container := c.enrich(ctx)
	path := c.cfg.ArchivePath()

	c.logger.Debug("creating dump", "name", c.cfg.Name, "path", path)

	h, err := archive.Create(path)
	if err != nil {
		c.logger.Error("failed to create archive", "path", path, "error", err)
		return exit.New(exit.Failure, fmt.Errorf("%w: %w", ErrCompose, err))
	}
	defer h.Close()

	if err := h.Lock(); err != nil {
		return fmt.Errorf("%w: %w", ErrCompose, err)
	}

	if err := ctx.Err(); err != nil {
		return c.abandon(h, err)
	}

	w := c.newWriter(h, c.cfg.Method)

	if err := c.writeDumpInfo(w, container); err != nil {
		c.logger.Error("failed to write dump info", "entry", c.cfg.DumpInfoName(), "error", err)
		c.finish(w, h)
		return exit.New(exit.Failure, fmt.Errorf("%w: %w", ErrCompose, err))
	}

	entry, err := w.Create(c.cfg.CoreName(), c.clock.Now())
	if err != nil {
		c.logger.Error("failed to start core entry", "entry", c.cfg.CoreName(), "error", err)
		entry = failedWriter{err: err}
	}

	digester := digest.Canonical.Digester()
	n, err := io.Copy(io.MultiWriter(entry, digester.Hash()), newCancelReader(ctx, c.stdin))
	c.record(func(s *Stats) { s.CoreBytes = n })
	if err != nil {
		if ctx.Err() != nil {
			return c.abandon(h, ctx.Err())
		}
		c.logger.Error("failed to write core", "entry", c.cfg.CoreName(), "bytes", n, "error", err)
		c.release(h)
		return exit.New(exit.Failure, fmt.Errorf("%w: copy core: %w", ErrCompose, err))
	}
	coreDigest := digester.Digest()
	c.record(func(s *Stats) { s.CoreDigest = coreDigest })

	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrCompose, err)
	}

	if err := ctx.Err(); err != nil {
		return c.abandon(h, err)
	}

	var emitErr error
	if c.cfg.CoreEvents {
		emitErr = c.emit(ctx, container, n, coreDigest)
	}

	if err := ctx.Err(); err != nil {
		return c.abandon(h, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrCompose, err)
	}
	if err := h.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrCompose, err)
	}
	if emitErr != nil {
		return emitErr
	}

	c.logger.Info("core dump composed",
		"archive", path,
		"bytes", n,
		"digest", coreDigest,
		"method", c.cfg.Method,
	)
	return nil
}

// Looks up the crashed container, or returns nil when the runtime is
// ignored or the lookup fails.
func (c *Composer) enrich(ctx context.Context) *runtime.Enrichment {
	if c.cfg.IgnoreRuntime || c.enricher == nil {
		return nil
	}

	p := c.cfg.Params
	container, err := c.enricher.Lookup(ctx, p.Hostname, p.Exe)
	if err != nil {
		c.logger.Warn("runtime lookup failed, composing without container details",
			"hostname", p.Hostname, "exe", p.Exe, "error", err)
		return nil
	}

	c.record(func(s *Stats) { s.Enriched = true })
	return container
}

// Writes the metadata entry.
func (c *Composer) writeDumpInfo(w entryWriter, container *runtime.Enrichment) error {
	data, err := NewDumpInfo(c.cfg, container).Marshal()
	if err != nil {
		return err
	}

	entry, err := w.Create(c.cfg.DumpInfoName(), c.clock.Now())
	if err != nil {
		return err
	}

	_, err = entry.Write(data)
	return err
}

// Builds and persists the crash event.
func (c *Composer) emit(ctx context.Context, container *runtime.Enrichment, size int64, d digest.Digest) error {
	if c.emitter == nil {
		return fmt.Errorf("%w: events enabled without an emitter", ErrCompose)
	}

	params := c.cfg.Params
	var evt *event.CoreEvent
	if container != nil {
		if container.PodNamespace != "" {
			params.Namespace = container.PodNamespace
		}
		evt = event.NewRuntime(params, c.cfg.ArchiveName(), container)
	} else {
		evt = event.NewNoRuntime(params, c.cfg.ArchiveName())
	}
	evt.WithCore(c.cfg.CoreName(), size, d)

	if err := c.emitter.Emit(ctx, c.cfg.EventName(), evt); err != nil {
		c.logger.Error("failed to write event", "key", c.cfg.EventName(), "error", err)
		return err
	}

	c.record(func(s *Stats) { s.EventWritten = true })
	return nil
}

// Writes the trailer and releases the lock, logging failures. Used on
// paths that already carry an error.
func (c *Composer) finish(w entryWriter, h *archive.Handle) {
	if err := w.Close(); err != nil {
		c.logger.Warn("failed to finish archive", "error", err)
	}
	c.release(h)
}

// Releases the lock and closes the file, logging failures.
func (c *Composer) release(h *archive.Handle) {
	if err := h.Close(); err != nil {
		c.logger.Warn("failed to release archive", "path", h.Path(), "error", err)
	}
}

// Stops a cancelled job without writing the trailer.
func (c *Composer) abandon(h *archive.Handle, cause error) error {
	c.logger.Warn("composition abandoned", "path", h.Path(), "error", cause)
	c.release(h)
	return fmt.Errorf("%w: %w", ErrAbandoned, cause)
}

func (c *Composer) record(update func(*Stats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	update(&c.stats)
}
