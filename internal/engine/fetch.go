package engine

import (
	"fmt"

	"ringfs/internal/slot"
)

// Fetch copies up to size bytes of the object at the cursor into buf and
// advances the tentative cursor. It never modifies durable state — only
// the in-memory cursor moves. Repeated calls without an intervening
// Discard return successive objects; after the last, Fetch returns
// ErrEmpty.
func (e *Engine) Fetch(buf []byte, size int) (int, error) {
	if err := e.requireInitialized(); err != nil {
		return 0, err
	}
	if err := e.validateSize(size); err != nil {
		return 0, err
	}
	if len(buf) < size {
		return 0, fmt.Errorf("%w: buffer shorter than size", ErrInvalidArgument)
	}

	for {
		if e.cursor.Equal(e.write) {
			return 0, ErrEmpty
		}

		if e.cursor.IsPastEndOfSector(e.geo) {
			e.cursor = e.cursor.NextSlot(e.geo)
			continue
		}

		st, err := slot.ReadState(e.flash, e.cursor.Sector, e.cursor.Slot, e.objSize)
		if err != nil {
			return 0, fmt.Errorf("fetch: %w", err)
		}
		if st == slot.Garbage {
			e.cursor = e.cursor.NextSlot(e.geo)
			continue
		}

		break
	}

	payload, err := slot.ReadValid(e.flash, e.cursor.Sector, e.cursor.Slot, e.objSize, size)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	copy(buf, payload)
	e.cursor = e.cursor.NextSlot(e.geo)
	return len(payload), nil
}
