package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/errdefs"
)

const (

	// Default containerd socket address.
	DefaultAddress = "/run/containerd/containerd.sock"

	// Namespace used by the CRI plugin for Kubernetes containers.
	DefaultNamespace = "k8s.io"

	// Upper bound on establishing the containerd connection.
	dialTimeout = 5 * time.Second
)

// Looks up crashed containers through containerd.
type Runtime struct {
	client *containerd.Client // Containerd client scoped to one namespace.
	logger *slog.Logger
}

// Creates a runtime connected to the containerd socket at address.
//
// The namespace scopes every lookup. A nil logger means [slog.Default]. The
// runtime must be closed when no longer needed.
func New(address, namespace string, logger *slog.Logger) (*Runtime, error) {
	if address == "" {
		address = DefaultAddress
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	client, err := containerd.New(address,
		containerd.WithDefaultNamespace(namespace),
		containerd.WithTimeout(dialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", ErrRuntime, address, err)
	}

	return newRuntime(client, logger), nil
}

func newRuntime(client *containerd.Client, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{client: client, logger: logger}
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Finds the container of the pod named hostname that ran exe.
//
// Sandbox containers are excluded. Image details are best effort: when the
// image record is gone the enrichment keeps the reference from the container
// record only. Returns [ErrContainerNotFound] when the pod has no workload
// container in the namespace.
func (rt *Runtime) Lookup(ctx context.Context, hostname, exe string) (*Enrichment, error) {
	ctrs, err := rt.client.Containers(ctx, podFilter(hostname))
	if err != nil {
		return nil, fmt.Errorf("%w: list containers: %w", ErrRuntime, err)
	}

	cands := make([]candidate, 0, len(ctrs))
	for _, ctr := range ctrs {
		info, err := ctr.Info(ctx)
		if err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("%w: container %s: %w", ErrRuntime, ctr.ID(), err)
		}

		c := candidate{info: info}
		if spec, err := ctr.Spec(ctx); err == nil {
			c.spec = spec
		} else {
			rt.logger.Debug("container spec unavailable", "id", ctr.ID(), "error", err)
		}
		cands = append(cands, c)
	}

	chosen, ok := selectContainer(cands, exe)
	if !ok {
		return nil, fmt.Errorf("%w: pod %s", ErrContainerNotFound, hostname)
	}

	e := enrichmentFrom(chosen)
	rt.describeImage(ctx, e)

	rt.logger.Debug("container resolved", "id", e.ContainerID, "pod", e.PodName, "image", e.Image)
	return e, nil
}

// Fills in the image digest and platform from the image store.
func (rt *Runtime) describeImage(ctx context.Context, e *Enrichment) {
	if e.Image == "" {
		return
	}

	img, err := rt.client.GetImage(ctx, e.Image)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			rt.logger.Warn("failed to load image", "image", e.Image, "error", err)
		}
		return
	}
	cfg, err := img.Spec(ctx)
	if err != nil {
		rt.logger.Debug("image config unavailable", "image", e.Image, "error", err)
		applyImage(e, img.Target(), nil)
		return
	}
	applyImage(e, img.Target(), &cfg)
}

// Returns the containerd filter selecting the workload containers of a pod.
func podFilter(podName string) string {
	return fmt.Sprintf("labels.%s==%s,labels.%s==%s",
		strconv.Quote(labelPodName), strconv.Quote(podName),
		strconv.Quote(labelKind), strconv.Quote(kindContainer),
	)
}
