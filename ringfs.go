package ringfs

import (
	"errors"
	"io"

	"ringfs/internal/engine"
	"ringfs/internal/flashio"
)

// Log is the public façade over the cursor engine. The zero value is not
// usable; construct with New.
type Log struct {
	eng *engine.Engine
}

// New binds a Log to flash with the given options and default Config
// (RejectWriteWhenFull: false). It performs no I/O: call Format or Scan
// before any other operation.
func New(flash flashio.Partition, opts Options) *Log {
	return &Log{eng: engine.New(flash, opts.Version, opts.ObjectSize)}
}

// SetConfig replaces the Log's runtime configuration.
func (l *Log) SetConfig(cfg Config) { l.eng.SetConfig(toEngineConfig(cfg)) }

// Config returns the Log's current runtime configuration.
func (l *Log) Config() Config { return fromEngineConfig(l.eng.Config()) }

// Format erases every sector and reinitializes the log as empty. A
// failure here is fatal: the caller needs a lower-level erase.
func (l *Log) Format() error {
	return wrapIO(l.eng.Format())
}

// Scan reconstructs read/write/cursor from on-flash state. Returns
// ErrCorrupt if any sector is unrecognized or was formatted with a
// different Options.Version.
func (l *Log) Scan() error {
	return wrapIO(l.eng.Scan())
}

// Capacity returns the maximum number of objects the log can hold:
// (sectorCount-1)*slotsPerSector. One sector is always reserved.
func (l *Log) Capacity() int {
	return l.eng.Capacity()
}

// CountEstimate returns an O(1) approximation of the number of undiscarded
// objects. It may over-count by up to one sector's worth of garbage slots.
func (l *Log) CountEstimate() (int, error) {
	n, err := l.eng.CountEstimate()
	return n, wrapIO(err)
}

// CountExact returns the exact number of undiscarded objects via an O(n)
// scan of [read, write).
func (l *Log) CountExact() (int, error) {
	n, err := l.eng.CountExact()
	return n, wrapIO(err)
}

// Append stores object, whose length must be in (0, Options.ObjectSize]; a
// shorter object is stored as AppendN(object, len(object)) stores it.
// Evicts the oldest object if the ring is full, unless
// Config.RejectWriteWhenFull is set, in which case it returns ErrFull.
func (l *Log) Append(object []byte) error {
	return wrapIO(l.eng.Append(object, len(object)))
}

// AppendN stores the first size bytes of object; size must be in
// (0, Options.ObjectSize]. The remaining payload bytes on flash are left
// erased (0xFF). The on-disk slot width is always ObjectSize — AppendN is
// a byte-count convenience over that fixed width and does not preserve the
// original short length for a later FetchN to recover.
func (l *Log) AppendN(object []byte, size int) error {
	return wrapIO(l.eng.Append(object, size))
}

// Fetch copies the first len(buf) bytes of the object at the cursor into
// buf, whose length must be in (0, Options.ObjectSize], and advances the
// tentative cursor. Returns ErrEmpty
// when there is nothing left to read. Fetch never modifies durable state;
// call Discard to commit.
func (l *Log) Fetch(buf []byte) (int, error) {
	n, err := l.eng.Fetch(buf, len(buf))
	return n, wrapIO(err)
}

// FetchN copies up to size bytes of the object at the cursor into buf. See
// AppendN for why this does not recover an original short write length.
func (l *Log) FetchN(buf []byte, size int) (int, error) {
	n, err := l.eng.Fetch(buf, size)
	return n, wrapIO(err)
}

// Discard commits every object fetched since the last Discard or Rewind:
// marks them GARBAGE on flash and advances read to the cursor, reclaiming
// any sector left entirely garbage.
func (l *Log) Discard() error {
	return wrapIO(l.eng.Discard())
}

// ItemDiscard discards exactly one object at read without requiring a
// prior Fetch, for callers that want to drop data without reading it.
func (l *Log) ItemDiscard() error {
	return wrapIO(l.eng.ItemDiscard())
}

// Rewind resets the tentative cursor back to read, so the next Fetch
// returns the oldest undiscarded object again. Performs no flash I/O.
func (l *Log) Rewind() error {
	return wrapIO(l.eng.Rewind())
}

// Dump writes a human-readable summary of sector states and cursor
// positions to w, for debugging.
func (l *Log) Dump(w io.Writer) error {
	return wrapIO(l.eng.Dump(w))
}

// wrapIO passes through sentinel errors from the engine layer (already
// ringfs.Err* values, since errors.go aliases them directly) and wraps
// anything else — genuine flash I/O failures — with ErrFlashIO so callers
// can use errors.Is(err, ringfs.ErrFlashIO) uniformly.
func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isEngineSentinel(err):
		return err
	default:
		return &flashIOError{cause: err}
	}
}

func isEngineSentinel(err error) bool {
	for _, sentinel := range []error{ErrInvalidArgument, ErrEmpty, ErrFull, ErrCorrupt, ErrNotInitialized} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// flashIOError wraps a genuine flash I/O failure so errors.Is(err,
// ErrFlashIO) matches while errors.Unwrap still reaches the original
// cause returned by the flashio.Partition.
type flashIOError struct {
	cause error
}

func (e *flashIOError) Error() string {
	return ErrFlashIO.Error() + ": " + e.cause.Error()
}

func (e *flashIOError) Unwrap() error { return e.cause }

func (e *flashIOError) Is(target error) bool { return target == ErrFlashIO }
