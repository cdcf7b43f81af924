// Parses flags and runs the composer.
//
// The kernel starts the composer through core_pattern, passing the crash
// parameters as flags and the core on standard input:
//
//	|/usr/local/bin/cdc --limit-size=%c --exe=%e --pid=%p --signal=%s \
//	    --timestamp=%t --hostname=%h --pathname=%E
//
// Compose is the default command, so the flags above need no subcommand.
// Every option may also come from an environment variable or from a JSON
// configuration file (see [paths.ConfigFiles]); flags win over both.
// The global flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Add source locations to log records.
//	-d, --debug     Enable debug output.
//
// Flags override build-time defaults set via linker flags.
package cli
