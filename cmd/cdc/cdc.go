package main

import (
	"log/slog"
	"os"

	"github.com/cruciblehq/cdc/internal"
	"github.com/cruciblehq/cdc/internal/cli"
	"github.com/cruciblehq/cdc/internal/exit"
	"github.com/cruciblehq/cdc/internal/logging"
)

// The entry point for the composer.
//
// Logs to stderr until the compose command sets up its own logger, then
// exits with the code carried by the returned error.
func main() {
	logger, _ := logging.Setup(logging.Config{
		Debug: internal.IsDebug(),
		Quiet: internal.IsQuiet(),
	}, os.Stderr)
	slog.SetDefault(logger.WithGroup(internal.Name))

	slog.Debug("build", "version", internal.VersionString())

	slog.Debug("cdc is running",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)

	if err := cli.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(exit.Code(err))
	}
}

// Returns the current working directory or "(unknown)".
func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}
