// Package composer turns a core dump stream into a crash archive.
//
// A [Composer] is one composition job. [Composer.Compose] runs the archive
// protocol in a fixed order:
//
//  1. look up the crashed container, unless the runtime is ignored;
//  2. create the archive file and take an exclusive lock on it;
//  3. write the metadata entry ([DumpInfo] as JSON);
//  4. start the core entry and copy standard input into it;
//  5. flush, optionally emit a crash event, write the zip trailer and
//     release the lock.
//
// Failures that must end the process with a specific exit code are returned
// as [*exit.Error] values. Creation and metadata failures end with code 1
// after the lock is released. A failed copy of standard input also ends
// with code 1 but leaves the archive without its trailer. Lock, flush and
// event failures are returned as ordinary errors.
//
// A failure to start the core entry is logged and the job continues; the
// copy that follows then fails on the first byte. Empty input therefore
// still completes.
//
// Compose observes its context between steps and on every read of standard
// input. Once the context is cancelled the job stops, releases the lock and
// never writes the trailer or an event, so an abandoned job cannot publish
// an archive that looks complete.
package composer
