package engine

import (
	"fmt"

	"ringfs/internal/ringloc"
	"ringfs/internal/sector"
	"ringfs/internal/slot"
)

// Scan reconstructs read, write and cursor from the on-flash sector and
// slot state after a restart, without assuming any of the three survived
// in memory.
func (e *Engine) Scan() error {
	headers := make([]sector.Header, e.geo.SectorCount)
	for i := range headers {
		h, err := sector.ReadHeader(e.flash, i, e.version)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if h.State == sector.Unknown {
			return fmt.Errorf("scan: sector %d: %w", i, ErrCorrupt)
		}
		headers[i] = h
	}

	oldest, newest, found := e.findInUseArc(headers)
	if !found {
		return e.scanEmpty(headers)
	}

	read, err := e.findRead(oldest, newest)
	if err != nil {
		return err
	}

	write, err := e.findWrite(newest)
	if err != nil {
		return err
	}

	live, err := e.countValidRange(read, write)
	if err != nil {
		return err
	}
	if live == 0 {
		// Nothing undiscarded: the log is empty and read collapses to write.
		read = write
	}

	e.read = read
	e.write = write
	e.cursor = read
	e.live = live
	e.initialized = true
	return nil
}

// findInUseArc locates the oldest and newest sectors of the single
// contiguous IN_USE arc. found is false when there are no IN_USE sectors.
func (e *Engine) findInUseArc(headers []sector.Header) (oldest, newest int, found bool) {
	start := -1
	for i, h := range headers {
		if h.State == sector.InUse {
			start = i
			break
		}
	}
	if start == -1 {
		return 0, 0, false
	}

	oldest = start
	for n := 0; n < e.geo.SectorCount; n++ {
		prev := e.sectorAt(oldest - 1)
		if headers[prev].State != sector.InUse {
			break
		}
		oldest = prev
	}

	newest = start
	for n := 0; n < e.geo.SectorCount; n++ {
		next := e.sectorAt(newest + 1)
		if headers[next].State != sector.InUse {
			break
		}
		newest = next
	}

	return oldest, newest, true
}

// scanEmpty handles the "no IN_USE sectors" case: the log is logically
// empty. Sector 0 is chosen as the (not yet promoted) write sector. Any
// OBSOLETE sectors left over from a deferred erase are reclaimed
// opportunistically.
func (e *Engine) scanEmpty(headers []sector.Header) error {
	for i, h := range headers {
		if h.State == sector.Obsolete {
			if err := sector.Erase(e.flash, i); err != nil {
				return fmt.Errorf("scan: reclaim obsolete sector %d: %w", i, err)
			}
		}
	}

	e.read = ringloc.Loc{}
	e.write = ringloc.Loc{}
	e.cursor = ringloc.Loc{}
	e.live = 0
	e.initialized = true
	return nil
}

// findRead locates the first VALID slot in the oldest IN_USE sector,
// advancing through subsequent IN_USE sectors if the oldest one is
// logically empty of undiscarded data (all GARBAGE).
func (e *Engine) findRead(oldest, newest int) (ringloc.Loc, error) {
	sec := oldest
	for n := 0; n <= e.geo.SectorCount; n++ {
		s, err := e.firstSlotInState(sec, slot.Valid)
		if err != nil {
			return ringloc.Loc{}, err
		}
		if s < e.slots {
			return ringloc.Loc{Sector: sec, Slot: s}, nil
		}
		if sec == newest {
			break
		}
		sec = e.sectorAt(sec + 1)
	}
	// Every IN_USE sector is fully GARBAGE: nothing undiscarded. Return
	// one past the garbage run of the newest sector; Scan then replaces
	// read with write, since [read, write) holds no VALID slot.
	s, err := e.firstSlotInState(newest, slot.Valid)
	if err != nil {
		return ringloc.Loc{}, err
	}
	return ringloc.Loc{Sector: newest, Slot: s}, nil
}

// findWrite locates the next slot to be programmed in the newest IN_USE
// sector: the first ERASED slot, or slot 0 of the next sector if the
// sector is full.
func (e *Engine) findWrite(newest int) (ringloc.Loc, error) {
	w, err := e.firstSlotInState(newest, slot.Erased)
	if err != nil {
		return ringloc.Loc{}, err
	}
	if w == e.slots {
		return ringloc.Loc{Sector: e.sectorAt(newest + 1), Slot: 0}, nil
	}
	return ringloc.Loc{Sector: newest, Slot: w}, nil
}

// firstSlotInState scans sector sec's canonical GARBAGE*VALID*ERASED*
// layout and returns the index of the first slot in state want, or
// e.slots if none is found (the sector is entirely "before" that state,
// e.g. no VALID slots in an all-GARBAGE sector, or no ERASED slots in a
// full sector).
func (e *Engine) firstSlotInState(sec int, want slot.State) (int, error) {
	for i := 0; i < e.slots; i++ {
		st, err := slot.ReadState(e.flash, sec, i, e.objSize)
		if err != nil {
			return 0, fmt.Errorf("scan: %w", err)
		}
		if st == want {
			return i, nil
		}
		// Canonical order is GARBAGE, VALID, ERASED. Once we've passed
		// want's position in that order the search is done.
		if rank(st) > rank(want) {
			return i, nil
		}
	}
	return e.slots, nil
}

func rank(s slot.State) int {
	switch s {
	case slot.Garbage:
		return 0
	case slot.Valid:
		return 1
	case slot.Erased:
		return 2
	default:
		return 3
	}
}
