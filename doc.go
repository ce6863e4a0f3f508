// Package ringfs implements a persistent, fixed-record ring log over raw
// NOR-style flash memory.
//
// ringfs stores fixed-size application objects in FIFO order, survives
// power loss at any point, transparently reclaims the oldest data when the
// medium fills, and exposes a read cursor that can be advanced, rewound,
// and committed independently of the write cursor.
//
// # Basic usage
//
//	log := ringfs.New(flash, ringfs.Options{Version: 1, ObjectSize: 16})
//	if err := log.Format(); err != nil {
//	    // handle fatal: lower-level erase required
//	}
//
//	if err := log.Append(record); err != nil {
//	    // ErrFull if Config.RejectWriteWhenFull and the ring has no room
//	}
//
//	buf := make([]byte, 16)
//	n, err := log.Fetch(buf)
//	if errors.Is(err, ringfs.ErrEmpty) {
//	    // nothing left to read
//	}
//	log.Discard() // commit the fetch
//
// # Recovery
//
// After a power loss, construct a fresh [Log] over the same flash and call
// [Log.Scan] instead of [Log.Format]. Scan reconstructs read, write and
// cursor from on-flash state; it fails with [ErrCorrupt] if any sector's
// header is unrecognized or was formatted with a different [Options.Version],
// in which case [Log.Format] is the only way forward.
//
// # Concurrency
//
// A [Log] is a single-threaded, synchronous library: operations do not
// suspend and there is no internal locking. A flash partition is owned
// exclusively by one [Log] for its lifetime; concurrent access from
// multiple goroutines must be serialized by the caller.
package ringfs
