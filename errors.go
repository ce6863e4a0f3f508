package ringfs

import (
	"errors"

	"ringfs/internal/engine"
)

// Sentinel errors returned by Log's operations. Test with errors.Is, not
// equality, since flash I/O failures are wrapped to preserve the
// underlying cause.
var (
	// ErrInvalidArgument is returned for an out-of-range size or a buffer
	// shorter than the requested size. No state is changed.
	ErrInvalidArgument = engine.ErrInvalidArgument

	// ErrEmpty is returned by Fetch/FetchN/ItemDiscard when there is
	// nothing left to read. No state is changed.
	ErrEmpty = engine.ErrEmpty

	// ErrFull is returned by Append/AppendN when the ring is full and
	// Config.RejectWriteWhenFull is set. No state is changed.
	ErrFull = engine.ErrFull

	// ErrCorrupt is returned by Scan when a sector header is unrecognized
	// or was formatted with a different version. The instance is unusable
	// until Format is called.
	ErrCorrupt = engine.ErrCorrupt

	// ErrNotInitialized is returned by any operation other than Format or
	// Scan when neither has been called yet.
	ErrNotInitialized = engine.ErrNotInitialized

	// ErrFlashIO wraps any error surfaced directly from the underlying
	// flashio.Partition. errors.Is(err, ErrFlashIO) matches; errors.Unwrap
	// reaches the original cause.
	ErrFlashIO = errors.New("ringfs: flash I/O failure")
)
