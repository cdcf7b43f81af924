package runtime

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// The subset of crictl.yaml used to find the runtime socket.
type crictlConfig struct {
	RuntimeEndpoint string `yaml:"runtime-endpoint"`
	ImageEndpoint   string `yaml:"image-endpoint"`
	Timeout         int    `yaml:"timeout"`
}

// Reads the runtime socket address from a crictl configuration file.
//
// The "unix://" scheme is stripped, since containerd expects a socket path.
// The image endpoint is used when no runtime endpoint is set.
func ResolveAddress(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRuntimeConfig, err)
	}

	var cfg crictlConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRuntimeConfig, path, err)
	}

	endpoint := cfg.RuntimeEndpoint
	if endpoint == "" {
		endpoint = cfg.ImageEndpoint
	}
	if endpoint == "" {
		return "", fmt.Errorf("%w: %s: no runtime-endpoint", ErrRuntimeConfig, path)
	}

	if rest, ok := strings.CutPrefix(endpoint, "unix://"); ok {
		return rest, nil
	}
	if strings.Contains(endpoint, "://") {
		return "", fmt.Errorf("%w: %s: unsupported endpoint %q", ErrRuntimeConfig, path, endpoint)
	}
	return endpoint, nil
}
