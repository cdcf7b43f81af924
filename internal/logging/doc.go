// Structured logging for the composer.
//
// The kernel runs the composer with no terminal attached, so records are
// written to stderr and appended to a log file in the core directory. The
// level comes from the debug and quiet modes first, then from the
// configured level name.
package logging
