package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	appName = "cdc"

	// Name of the JSON configuration file.
	configFile = appName + ".json"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Directory receiving event records when no event location is configured.
//
//	Linux:   $XDG_STATE_HOME/cdc/events or ~/.local/state/cdc/events
//	macOS:   ~/Library/Application Support/cdc/events
func Events() string {
	return filepath.Join(xdg.StateHome, appName, "events")
}

// System-wide configuration file.
func SystemConfig() string {
	return filepath.Join("/etc", appName, configFile)
}

// Configuration files in the order they are consulted. Earlier files take
// precedence over later ones.
//
//	/etc/cdc/cdc.json
//	$XDG_CONFIG_HOME/cdc/cdc.json
//	<directory of the executable>/cdc.json
func ConfigFiles() []string {
	files := []string{
		SystemConfig(),
		filepath.Join(xdg.ConfigHome, appName, configFile),
	}
	if dir := executableDir(); dir != "" {
		files = append(files, filepath.Join(dir, configFile))
	}
	return files
}

// Directory holding the running executable, or "" when unknown. The kernel
// starts the composer by absolute path, so a configuration file installed
// next to it is found without environment variables.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
