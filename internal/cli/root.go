package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cruciblehq/cdc/internal"
	"github.com/cruciblehq/cdc/internal/config"
	"github.com/cruciblehq/cdc/internal/paths"
	"github.com/cruciblehq/cdc/internal/runtime"
)

// Represents the root command of the composer.
var RootCmd struct {
	Quiet   bool       `short:"q" help:"Suppress informational output."`
	Verbose bool       `short:"v" help:"Add source locations to log records."`
	Debug   bool       `short:"d" help:"Enable debug output."`
	Compose ComposeCmd `cmd:"" default:"withargs" help:"Compose a core dump read from standard input (default)."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, applies the output modes, and runs the selected
// subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Container core dump composer.\n\nReads a core dump from standard input and stores it with its crash metadata in a zip archive."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, paths.ConfigFiles()...),
		vars(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	applyModes()

	return kongCtx.Run()
}

// Values interpolated into flag defaults and help.
func vars() kong.Vars {
	return kong.Vars{
		"version":    internal.VersionString(),
		"dir":        config.DefaultDir,
		"template":   config.DefaultTemplate,
		"containerd": runtime.DefaultAddress,
		"events":     paths.Events(),
	}
}

// Lets command-line flags switch on the modes seeded from linker flags.
func applyModes() {
	if RootCmd.Debug {
		internal.SetDebug(true)
	}
	if RootCmd.Quiet {
		internal.SetQuiet(true)
	}
	if RootCmd.Verbose {
		internal.SetVerbose(true)
	}
}
