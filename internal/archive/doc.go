// Package archive owns the destination zip file of a composition job.
//
// A [Handle] couples the open file with an exclusive advisory lock
// (flock(2)). The lock is taken before the first byte is written and is
// released by [Handle.Close] on every exit path, so another hook invocation
// racing on the same path either waits or sees a finished archive.
//
// A [Writer] streams zip entries into the handle. Entries are written with
// data descriptors, so their size need not be known up front and entries
// larger than 4 GiB switch to zip64 records automatically. Every entry is
// stored read-only (0444).
//
// Example usage:
//
//	h, err := archive.Create("/cores/dump.zip")
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	if err := h.Lock(); err != nil {
//	    return err
//	}
//
//	w := archive.NewWriter(h, archive.Deflate)
//	entry, err := w.Create("dump.core", time.Now())
//	...
//	if err := w.Close(); err != nil {
//	    return err
//	}
package archive
