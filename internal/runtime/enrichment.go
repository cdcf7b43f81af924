package runtime

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/containerd/containerd/v2/core/containers"
	"github.com/containerd/platforms"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

const (

	// Labels set by the CRI plugin on every Kubernetes container.
	labelPodName       = "io.kubernetes.pod.name"
	labelPodNamespace  = "io.kubernetes.pod.namespace"
	labelPodUID        = "io.kubernetes.pod.uid"
	labelContainerName = "io.kubernetes.container.name"
	labelKind          = "io.cri-containerd.kind"

	// Value of labelKind for workload containers, as opposed to sandboxes.
	kindContainer = "container"

	// The kernel truncates %e to TASK_COMM_LEN-1 bytes.
	commLen = 15
)

// Container context of a crash.
type Enrichment struct {
	ContainerID   string            `json:"container_id"`
	ContainerName string            `json:"container_name,omitempty"`
	PodName       string            `json:"pod_name,omitempty"`
	PodNamespace  string            `json:"pod_namespace,omitempty"`
	PodUID        string            `json:"pod_uid,omitempty"`
	Image         string            `json:"image"`
	ImageDigest   digest.Digest     `json:"image_digest,omitempty"`
	ImageType     string            `json:"image_media_type,omitempty"`
	Platform      string            `json:"platform,omitempty"`
	Runtime       string            `json:"runtime,omitempty"`
	Args          []string          `json:"args,omitempty"`
	Labels        map[string]string `json:"labels,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// A container listed for a pod, with its OCI spec when it could be read.
type candidate struct {
	info containers.Container
	spec *specs.Spec
}

// Builds the enrichment of a single container, without image details.
func enrichmentFrom(c candidate) *Enrichment {
	e := &Enrichment{
		ContainerID:   c.info.ID,
		ContainerName: c.info.Labels[labelContainerName],
		PodName:       c.info.Labels[labelPodName],
		PodNamespace:  c.info.Labels[labelPodNamespace],
		PodUID:        c.info.Labels[labelPodUID],
		Image:         c.info.Image,
		Runtime:       c.info.Runtime.Name,
		Labels:        c.info.Labels,
		CreatedAt:     c.info.CreatedAt,
	}
	if args := processArgs(c.spec); len(args) > 0 {
		e.Args = args
	}
	return e
}

// Picks the container that ran exe.
//
// Candidates are ordered by ID so the choice is stable. The first whose
// entrypoint matches exe wins; without a match the first candidate is used.
// Returns false when there are no candidates.
func selectContainer(cands []candidate, exe string) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}

	sort.Slice(cands, func(i, j int) bool {
		return cands[i].info.ID < cands[j].info.ID
	})

	for _, c := range cands {
		args := processArgs(c.spec)
		if len(args) > 0 && matchesComm(args[0], exe) {
			return c, true
		}
	}
	return cands[0], true
}

// Whether the executable path could have produced the kernel comm name.
func matchesComm(path, comm string) bool {
	if comm == "" {
		return false
	}
	base := filepath.Base(path)
	if base == comm {
		return true
	}
	return len(comm) == commLen && strings.HasPrefix(base, comm)
}

// Returns the process arguments of spec, or nil.
func processArgs(spec *specs.Spec) []string {
	if spec == nil || spec.Process == nil {
		return nil
	}
	return spec.Process.Args
}

// Copies the image digest, media type and, when cfg names an OS, the
// platform into e.
func applyImage(e *Enrichment, target ocispec.Descriptor, cfg *ocispec.Image) {
	e.ImageDigest = target.Digest
	e.ImageType = target.MediaType
	if cfg != nil && cfg.OS != "" {
		e.Platform = platforms.Format(cfg.Platform)
	}
}
