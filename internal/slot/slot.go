// Package slot implements the slot header codec: the three-state lifecycle
// (ERASED -> VALID -> GARBAGE) and its bit-clear-only transitions.
package slot

import (
	"encoding/binary"
	"fmt"

	"ringfs/internal/flashio"
	"ringfs/internal/sector"
)

// HeaderSize is the on-flash size of a slot's status word.
const HeaderSize = 4

// State is a slot's lifecycle state.
type State int

const (
	Unknown State = iota
	Erased
	Valid
	Garbage
)

func (s State) String() string {
	switch s {
	case Erased:
		return "ERASED"
	case Valid:
		return "VALID"
	case Garbage:
		return "GARBAGE"
	default:
		return "UNKNOWN"
	}
}

const (
	statusErased  uint32 = 0xFFFFFFFF
	statusValid   uint32 = 0xFFFFFF00
	statusGarbage uint32 = 0x00000000
)

func stateForStatus(status uint32) State {
	switch status {
	case statusErased:
		return Erased
	case statusValid:
		return Valid
	case statusGarbage:
		return Garbage
	default:
		return Unknown
	}
}

// Size returns the total on-flash footprint of one slot: status word plus
// payload.
func Size(objectSize int) int {
	return HeaderSize + objectSize
}

// Addr returns the device byte address of slot index within sector i, given
// the sector's geometry and object size.
func Addr(flash flashio.Partition, sectorIndex, slotIndex, objectSize int) int {
	sectorAddr := flash.Geometry().SectorAddr(sectorIndex)
	return sectorAddr + sector.HeaderSize + slotIndex*Size(objectSize)
}

// ReadState reads just the status word of a slot.
func ReadState(flash flashio.Partition, sectorIndex, slotIndex, objectSize int) (State, error) {
	addr := Addr(flash, sectorIndex, slotIndex, objectSize)
	buf, err := flash.Read(addr, HeaderSize)
	if err != nil {
		return Unknown, fmt.Errorf("sector %d slot %d: read status: %w", sectorIndex, slotIndex, err)
	}
	return stateForStatus(binary.LittleEndian.Uint32(buf)), nil
}

// ProgramValid writes payload (padded to objectSize with 0xFF if shorter)
// into an ERASED slot, then programs the VALID status word. Payload is
// written before the status word so a power cut leaves the slot reading as
// ERASED — a partially-written payload is never exposed as VALID.
func ProgramValid(flash flashio.Partition, sectorIndex, slotIndex, objectSize int, payload []byte) error {
	if len(payload) > objectSize {
		return fmt.Errorf("sector %d slot %d: payload %d bytes exceeds object size %d", sectorIndex, slotIndex, len(payload), objectSize)
	}

	addr := Addr(flash, sectorIndex, slotIndex, objectSize)

	buf := make([]byte, objectSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	copy(buf, payload)

	if _, err := flash.Program(addr+HeaderSize, buf); err != nil {
		return fmt.Errorf("sector %d slot %d: program payload: %w", sectorIndex, slotIndex, err)
	}

	var statusBuf [4]byte
	binary.LittleEndian.PutUint32(statusBuf[:], statusValid)
	if _, err := flash.Program(addr, statusBuf[:]); err != nil {
		return fmt.Errorf("sector %d slot %d: program VALID status: %w", sectorIndex, slotIndex, err)
	}
	return nil
}

// ReadValid reads up to size bytes of payload, failing if the slot is not
// VALID.
func ReadValid(flash flashio.Partition, sectorIndex, slotIndex, objectSize, size int) ([]byte, error) {
	state, err := ReadState(flash, sectorIndex, slotIndex, objectSize)
	if err != nil {
		return nil, err
	}
	if state != Valid {
		return nil, fmt.Errorf("sector %d slot %d: read requires VALID, got %s", sectorIndex, slotIndex, state)
	}

	addr := Addr(flash, sectorIndex, slotIndex, objectSize)
	buf, err := flash.Read(addr+HeaderSize, size)
	if err != nil {
		return nil, fmt.Errorf("sector %d slot %d: read payload: %w", sectorIndex, slotIndex, err)
	}
	return buf, nil
}

// MarkGarbage transitions a VALID slot to GARBAGE.
func MarkGarbage(flash flashio.Partition, sectorIndex, slotIndex, objectSize int) error {
	state, err := ReadState(flash, sectorIndex, slotIndex, objectSize)
	if err != nil {
		return err
	}
	if state != Valid {
		return fmt.Errorf("sector %d slot %d: mark_garbage requires VALID, got %s", sectorIndex, slotIndex, state)
	}

	addr := Addr(flash, sectorIndex, slotIndex, objectSize)
	var statusBuf [4]byte
	binary.LittleEndian.PutUint32(statusBuf[:], statusGarbage)
	if _, err := flash.Program(addr, statusBuf[:]); err != nil {
		return fmt.Errorf("sector %d slot %d: program GARBAGE status: %w", sectorIndex, slotIndex, err)
	}
	return nil
}
