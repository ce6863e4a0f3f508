package engine

import (
	"fmt"

	"ringfs/internal/ringloc"
	"ringfs/internal/slot"
)

// CountEstimate is an O(1) approximation of the number of undiscarded
// objects, computed purely from cursor positions. It may over-count by up
// to one sector's worth of garbage slots between read.Sector and
// read.Slot; callers that need the true count should use CountExact.
func (e *Engine) CountEstimate() (int, error) {
	if err := e.requireInitialized(); err != nil {
		return 0, err
	}
	if e.read.Equal(e.write) {
		return 0, nil
	}
	return e.read.SlotDistance(e.geo, e.write), nil
}

// CountExact is an O(n) scan counting VALID slots in [read, write).
func (e *Engine) CountExact() (int, error) {
	if err := e.requireInitialized(); err != nil {
		return 0, err
	}
	return e.countValidRange(e.read, e.write)
}

// countValidRange counts VALID slots in [from, to) by linear scan. Used by
// CountExact directly and by Scan to seed the live counter.
func (e *Engine) countValidRange(from, to ringloc.Loc) (int, error) {
	count := 0
	loc := from
	for !loc.Equal(to) {
		if loc.IsPastEndOfSector(e.geo) {
			loc = loc.NextSlot(e.geo)
			continue
		}
		st, err := slot.ReadState(e.flash, loc.Sector, loc.Slot, e.objSize)
		if err != nil {
			return 0, fmt.Errorf("count_exact: %w", err)
		}
		if st == slot.Valid {
			count++
		}
		loc = loc.NextSlot(e.geo)
	}
	return count, nil
}
