// Resolves the immutable configuration snapshot of one composition job.
//
// [Options] carries the raw values collected from flags, environment and
// configuration files. [New] validates them, renders the archive name
// template once and returns a [Config] whose accessors derive every file
// and entry name used by the job.
package config
