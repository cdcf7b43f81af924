// Carries process exit codes as error values.
//
// Business logic never calls os.Exit. A step that must end the process with
// a specific code returns an [*Error]; the binary entry point translates the
// final error with [Code] and exits once. This keeps the composition
// pipeline testable in-process.
//
//	if err := run(); err != nil {
//	    slog.Error(err.Error())
//	    os.Exit(exit.Code(err))
//	}
package exit
