package engine

import (
	"fmt"

	"ringfs/internal/sector"
	"ringfs/internal/slot"
)

// Discard commits the tentative cursor advance: every slot in [read,
// cursor) is marked GARBAGE on flash, any sector left entirely GARBAGE is
// reclaimed (OBSOLETE, erase, reformat to FREE), and read is set to cursor.
func (e *Engine) Discard() error {
	if err := e.requireInitialized(); err != nil {
		return err
	}

	touched := make([]int, 0, e.geo.SectorCount)
	seen := make(map[int]bool)

	loc := e.read
	for !loc.Equal(e.cursor) {
		if !loc.IsPastEndOfSector(e.geo) {
			st, err := slot.ReadState(e.flash, loc.Sector, loc.Slot, e.objSize)
			if err != nil {
				return fmt.Errorf("discard: %w", err)
			}
			if err := slot.MarkGarbage(e.flash, loc.Sector, loc.Slot, e.objSize); err != nil {
				return fmt.Errorf("discard: %w", err)
			}
			if st == slot.Valid {
				e.live--
			}
			if !seen[loc.Sector] {
				seen[loc.Sector] = true
				touched = append(touched, loc.Sector)
			}
		}
		loc = loc.NextSlot(e.geo)
	}

	for _, sec := range touched {
		full, err := e.sectorFullyGarbage(sec)
		if err != nil {
			return fmt.Errorf("discard: %w", err)
		}
		if !full {
			continue
		}
		if err := sector.MarkObsolete(e.flash, sec, e.version); err != nil {
			return fmt.Errorf("discard: %w", err)
		}
		if err := sector.Erase(e.flash, sec); err != nil {
			return fmt.Errorf("discard: %w", err)
		}
		if err := sector.FormatAsFree(e.flash, sec, e.version); err != nil {
			return fmt.Errorf("discard: %w", err)
		}
	}

	e.read = e.cursor
	return nil
}

// ItemDiscard discards exactly one object at read, equivalent to a
// one-slot fetch+discard, for callers that drop payloads without reading
// them.
func (e *Engine) ItemDiscard() error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if e.read.Equal(e.write) {
		return ErrEmpty
	}
	if err := e.dropOldest(); err != nil {
		return fmt.Errorf("item_discard: %w", err)
	}
	return nil
}

// dropOldest marks the object at read GARBAGE, reclaiming its sector if
// that empties it entirely, advances read past it, and decrements live. The
// caller must already know read != write. Shared by the public ItemDiscard
// and by Append's capacity enforcement (makeRoom).
func (e *Engine) dropOldest() error {
	wasSynced := e.read.Equal(e.cursor)

	loc := e.read
	for {
		if loc.IsPastEndOfSector(e.geo) {
			loc = loc.NextSlot(e.geo)
			continue
		}
		st, err := slot.ReadState(e.flash, loc.Sector, loc.Slot, e.objSize)
		if err != nil {
			return err
		}
		if st == slot.Garbage {
			loc = loc.NextSlot(e.geo)
			continue
		}
		break
	}

	if err := slot.MarkGarbage(e.flash, loc.Sector, loc.Slot, e.objSize); err != nil {
		return err
	}
	e.live--

	sec := loc.Sector
	next := loc.NextSlot(e.geo)

	full, err := e.sectorFullyGarbage(sec)
	if err != nil {
		return err
	}
	if full {
		if err := sector.MarkObsolete(e.flash, sec, e.version); err != nil {
			return err
		}
		if err := sector.Erase(e.flash, sec); err != nil {
			return err
		}
		if err := sector.FormatAsFree(e.flash, sec, e.version); err != nil {
			return err
		}
	}

	e.read = next
	if wasSynced {
		e.cursor = next
	}
	return nil
}

func (e *Engine) sectorFullyGarbage(sec int) (bool, error) {
	for i := 0; i < e.slots; i++ {
		st, err := slot.ReadState(e.flash, sec, i, e.objSize)
		if err != nil {
			return false, err
		}
		if st != slot.Garbage {
			return false, nil
		}
	}
	return true, nil
}
