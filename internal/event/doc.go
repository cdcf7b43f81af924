// Package event records one crash event per produced archive.
//
// A [CoreEvent] tags the kernel's crash parameters with the archive's base
// file name so that downstream collectors can find the archive without
// scanning the core directory. Events come in two variants: [KindNoRuntime]
// when the container runtime was not consulted, and [KindRuntime] carrying
// the container details found by the runtime lookup.
//
// Events are persisted by a [BlobEmitter] into any gocloud.dev bucket: a
// plain directory (fileblob), s3://, gs:// or mem://. The record key and
// its content are derived from the archive name and the crash parameters
// only, so re-running a composition overwrites the record with identical
// bytes.
package event
