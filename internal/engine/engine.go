// Package engine implements the cursor engine: scan/recovery and the
// append/fetch/discard/rewind/count protocol over a [flashio.Partition].
// It knows nothing about the public error types or Go-facing ergonomics
// of the façade; ringfs.Log is a thin wrapper around *Engine.
package engine

import (
	"errors"
	"fmt"

	"ringfs/internal/flashio"
	"ringfs/internal/ringloc"
	"ringfs/internal/sector"
)

// Sentinel errors returned by engine operations. ringfs wraps these with
// its own exported error values; callers of this package compare with
// errors.Is against these.
var (
	ErrInvalidArgument = errors.New("engine: invalid argument")
	ErrEmpty           = errors.New("engine: log is empty")
	ErrFull            = errors.New("engine: log is full")
	ErrCorrupt         = errors.New("engine: corrupt or version mismatch, format required")
	ErrNotInitialized  = errors.New("engine: scan or format required before use")
)

// Config is the caller-mutable behavior configuration (struct
// ringfs_config in the original C implementation).
type Config struct {
	RejectWriteWhenFull bool
}

// Engine owns the three cursors and drives the flash partition. The zero
// value is not usable; construct with New.
type Engine struct {
	flash   flashio.Partition
	version uint32
	objSize int
	slots   int // slots per sector
	geo     ringloc.Geometry

	initialized bool
	read        ringloc.Loc
	write       ringloc.Loc
	cursor      ringloc.Loc
	live        int // VALID slots in [read, write); kept in sync so Append's capacity check is O(1)

	cfg Config
}

// New constructs an Engine bound to flash. It performs no I/O: the caller
// must call Scan or Format before any other operation.
func New(flash flashio.Partition, version uint32, objectSize int) *Engine {
	g := flash.Geometry()
	slots := sector.SlotsPerSector(g.SectorSize, objectSize)
	return &Engine{
		flash:   flash,
		version: version,
		objSize: objectSize,
		slots:   slots,
		geo:     ringloc.Geometry{SectorCount: g.SectorCount, SlotsPerSector: slots},
	}
}

// SetConfig replaces the engine's runtime configuration.
func (e *Engine) SetConfig(cfg Config) { e.cfg = cfg }

// Config returns the engine's current runtime configuration.
func (e *Engine) Config() Config { return e.cfg }

// ObjectSize returns the fixed object size the engine was constructed with.
func (e *Engine) ObjectSize() int { return e.objSize }

// SlotsPerSector returns the number of slots in each sector.
func (e *Engine) SlotsPerSector() int { return e.slots }

// Capacity returns (sectorCount-1)*slotsPerSector: one sector is always
// reserved so write can advance without colliding with read.
func (e *Engine) Capacity() int {
	return (e.geo.SectorCount - 1) * e.slots
}

func (e *Engine) requireInitialized() error {
	if !e.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Cursors returns the current (read, write, cursor) snapshot. Exposed for
// tests that compare cursor state across a rescan.
func (e *Engine) Cursors() (read, write, cursor ringloc.Loc) {
	return e.read, e.write, e.cursor
}

func (e *Engine) sectorAt(i int) int {
	s := i % e.geo.SectorCount
	if s < 0 {
		s += e.geo.SectorCount
	}
	return s
}

func (e *Engine) validateSize(size int) error {
	if size <= 0 || size > e.objSize {
		return fmt.Errorf("%w: size %d out of range (0, %d]", ErrInvalidArgument, size, e.objSize)
	}
	return nil
}
