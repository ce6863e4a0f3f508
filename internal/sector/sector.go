// Package sector implements the sector header codec: the four-state
// lifecycle (ERASED -> FREE -> IN_USE -> OBSOLETE -> ERASED) and the
// bit-clear-only transitions between them.
package sector

import (
	"encoding/binary"
	"fmt"

	"ringfs/internal/flashio"
)

// HeaderSize is the on-flash size of a sector header: a status word
// followed by a version word, both 32-bit little-endian.
const HeaderSize = 8

// State is a sector's lifecycle state.
type State int

const (
	Unknown State = iota
	Erased
	Free
	InUse
	Obsolete
)

func (s State) String() string {
	switch s {
	case Erased:
		return "ERASED"
	case Free:
		return "FREE"
	case InUse:
		return "IN_USE"
	case Obsolete:
		return "OBSOLETE"
	default:
		return "UNKNOWN"
	}
}

// On-disk status words, chosen so every transition only clears bits.
const (
	statusErased   uint32 = 0xFFFFFFFF
	statusFree     uint32 = 0xFFFFFF00
	statusInUse    uint32 = 0xFFFF0000
	statusObsolete uint32 = 0xFF000000
)

func stateForStatus(status uint32) State {
	switch status {
	case statusErased:
		return Erased
	case statusFree:
		return Free
	case statusInUse:
		return InUse
	case statusObsolete:
		return Obsolete
	default:
		return Unknown
	}
}

// Header is a decoded sector header.
type Header struct {
	State   State
	Version uint32
}

// ReadHeader reads and decodes the header of sector i. A status word not in
// the table, or a version mismatch on any non-ERASED sector, yields
// State == Unknown: the schema version fences the whole partition, so a
// single sector formatted under an older version is enough to make the
// partition unreadable until reformatted.
func ReadHeader(flash flashio.Partition, i int, wantVersion uint32) (Header, error) {
	addr := flash.Geometry().SectorAddr(i)
	buf, err := flash.Read(addr, HeaderSize)
	if err != nil {
		return Header{}, fmt.Errorf("sector %d: read header: %w", i, err)
	}

	status := binary.LittleEndian.Uint32(buf[0:4])
	version := binary.LittleEndian.Uint32(buf[4:8])

	state := stateForStatus(status)
	if state == Unknown {
		return Header{State: Unknown}, nil
	}
	if state != Erased && version != wantVersion {
		return Header{State: Unknown, Version: version}, nil
	}
	return Header{State: state, Version: version}, nil
}

// FormatAsFree transitions sector i from ERASED to FREE, programming the
// version word then the FREE status word. Requires the sector to currently
// read as ERASED.
func FormatAsFree(flash flashio.Partition, i int, version uint32) error {
	hdr, err := ReadHeader(flash, i, version)
	if err != nil {
		return err
	}
	// A fresh ERASED sector reads back with version == 0xFFFFFFFF and still
	// classifies as Erased regardless of wantVersion, since stateForStatus
	// only looks at the status word for that case.
	if hdr.State != Erased {
		return fmt.Errorf("sector %d: format_as_free requires ERASED, got %s", i, hdr.State)
	}

	addr := flash.Geometry().SectorAddr(i)

	var verBuf [4]byte
	binary.LittleEndian.PutUint32(verBuf[:], version)
	if _, err := flash.Program(addr+4, verBuf[:]); err != nil {
		return fmt.Errorf("sector %d: program version: %w", i, err)
	}

	var statusBuf [4]byte
	binary.LittleEndian.PutUint32(statusBuf[:], statusFree)
	if _, err := flash.Program(addr, statusBuf[:]); err != nil {
		return fmt.Errorf("sector %d: program FREE status: %w", i, err)
	}
	return nil
}

// PromoteToInUse transitions sector i from FREE to IN_USE.
func PromoteToInUse(flash flashio.Partition, i int, version uint32) error {
	return writeStatus(flash, i, version, Free, statusInUse)
}

// MarkObsolete transitions sector i from IN_USE to OBSOLETE.
func MarkObsolete(flash flashio.Partition, i int, version uint32) error {
	return writeStatus(flash, i, version, InUse, statusObsolete)
}

func writeStatus(flash flashio.Partition, i int, version uint32, want State, newStatus uint32) error {
	hdr, err := ReadHeader(flash, i, version)
	if err != nil {
		return err
	}
	if hdr.State != want {
		return fmt.Errorf("sector %d: requires %s, got %s", i, want, hdr.State)
	}

	addr := flash.Geometry().SectorAddr(i)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], newStatus)
	if _, err := flash.Program(addr, buf[:]); err != nil {
		return fmt.Errorf("sector %d: program status: %w", i, err)
	}
	return nil
}

// Erase physically erases sector i (requires OBSOLETE, or is called during
// Format where the source state is irrelevant). Result is ERASED.
func Erase(flash flashio.Partition, i int) error {
	addr := flash.Geometry().SectorAddr(i)
	if err := flash.SectorErase(addr); err != nil {
		return fmt.Errorf("sector %d: erase: %w", i, err)
	}
	return nil
}

// SlotsPerSector computes floor((sectorSize - HeaderSize) / (4 + objectSize)).
func SlotsPerSector(sectorSize, objectSize int) int {
	return (sectorSize - HeaderSize) / (4 + objectSize)
}
