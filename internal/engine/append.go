package engine

import (
	"fmt"

	"ringfs/internal/ringloc"
	"ringfs/internal/sector"
	"ringfs/internal/slot"
)

// Append stores size bytes of object (0 < size <= objectSize) at the write
// cursor, evicting the oldest object if the ring is full and
// Config.RejectWriteWhenFull is false, or returning ErrFull if it is true.
func (e *Engine) Append(object []byte, size int) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.validateSize(size); err != nil {
		return err
	}
	if len(object) < size {
		return fmt.Errorf("%w: object shorter than size", ErrInvalidArgument)
	}

	if err := e.makeRoom(); err != nil {
		return err
	}

	if err := e.ensureWriteSectorReady(e.write.Sector, false); err != nil {
		return err
	}

	if e.write.IsPastEndOfSector(e.geo) {
		next := e.sectorAt(e.write.Sector + 1)
		if err := e.rollWriteSector(next); err != nil {
			return err
		}
		e.write = ringloc.Loc{Sector: next, Slot: 0}
	}

	if err := slot.ProgramValid(e.flash, e.write.Sector, e.write.Slot, e.objSize, object[:size]); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	e.write = e.write.NextSlot(e.geo)
	e.live++

	return nil
}

// makeRoom enforces Capacity() by discarding the oldest object, one slot at
// a time, until there is room for one more: a ring at capacity evicts its
// oldest live object on the next append rather than waiting for write to
// physically collide with read's sector. With RejectWriteWhenFull, it
// returns ErrFull instead of evicting.
func (e *Engine) makeRoom() error {
	capacity := e.Capacity()
	if capacity <= 0 {
		return fmt.Errorf("append: %w: sector count leaves no usable capacity", ErrInvalidArgument)
	}
	for e.live >= capacity {
		if e.cfg.RejectWriteWhenFull {
			return ErrFull
		}
		if err := e.dropOldest(); err != nil {
			return fmt.Errorf("append: %w", err)
		}
	}
	return nil
}

// ensureWriteSectorReady makes sure sec is ready to receive writes:
// promoting FREE to IN_USE, formatting ERASED to FREE then promoting, or
// (only when rollover is true, i.e. the ring wrapped onto a sector that is
// still IN_USE) applying eviction policy.
func (e *Engine) ensureWriteSectorReady(sec int, rollover bool) error {
	hdr, err := sector.ReadHeader(e.flash, sec, e.version)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}

	switch hdr.State {
	case sector.InUse:
		if !rollover {
			return nil
		}
		return e.evict(sec)
	case sector.Free:
		return e.promote(sec)
	case sector.Erased:
		if err := sector.FormatAsFree(e.flash, sec, e.version); err != nil {
			return fmt.Errorf("append: %w", err)
		}
		return e.promote(sec)
	default:
		return fmt.Errorf("append: sector %d in unexpected state %s", sec, hdr.State)
	}
}

func (e *Engine) promote(sec int) error {
	if err := sector.PromoteToInUse(e.flash, sec, e.version); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return nil
}

// rollWriteSector prepares next to become the new write sector, handling
// eviction when the ring has wrapped onto a still-IN_USE sector.
func (e *Engine) rollWriteSector(next int) error {
	return e.ensureWriteSectorReady(next, true)
}

// evict reclaims sec, the sector write has physically wrapped onto while it
// is still IN_USE. makeRoom keeps live below Capacity() before every write,
// so the next sector is always FREE or ERASED by the time write reaches it.
// evict is reached only through rollWriteSector, which Append calls when
// write is past the end of its sector; Append advances write with NextSlot,
// which wraps straight to slot 0 of the next sector, so Append never calls
// evict.
func (e *Engine) evict(sec int) error {
	if e.cfg.RejectWriteWhenFull {
		return ErrFull
	}

	if err := sector.MarkObsolete(e.flash, sec, e.version); err != nil {
		return fmt.Errorf("append: evict: %w", err)
	}
	if err := sector.Erase(e.flash, sec); err != nil {
		return fmt.Errorf("append: evict: %w", err)
	}
	if err := sector.FormatAsFree(e.flash, sec, e.version); err != nil {
		return fmt.Errorf("append: evict: %w", err)
	}
	if err := sector.PromoteToInUse(e.flash, sec, e.version); err != nil {
		return fmt.Errorf("append: evict: %w", err)
	}

	newRead, err := e.recomputeReadAfterEviction(sec)
	if err != nil {
		return fmt.Errorf("append: evict: %w", err)
	}

	live, err := e.countValidRange(newRead, e.write)
	if err != nil {
		return fmt.Errorf("append: evict: %w", err)
	}

	if e.cursor.Sector == sec {
		e.cursor = newRead
	}
	e.read = newRead
	e.live = live
	return nil
}

// recomputeReadAfterEviction finds the first VALID slot of the oldest
// remaining IN_USE sector after victim has been reclaimed and re-promoted.
func (e *Engine) recomputeReadAfterEviction(victim int) (ringloc.Loc, error) {
	headers := make([]sector.Header, e.geo.SectorCount)
	for i := range headers {
		h, err := sector.ReadHeader(e.flash, i, e.version)
		if err != nil {
			return ringloc.Loc{}, err
		}
		headers[i] = h
	}

	oldest, newest, found := e.findInUseArc(headers)
	if !found {
		// Everything was evicted down to nothing; victim (now freshly
		// promoted and empty) is the sole IN_USE sector.
		return ringloc.Loc{Sector: victim, Slot: 0}, nil
	}
	return e.findRead(oldest, newest)
}
