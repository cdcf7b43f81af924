// Provides default locations for files the composer reads and writes.
//
// Paths follow XDG conventions, with "cdc" as the subdirectory under each
// base path. The system-wide configuration file lives under /etc.
package paths
