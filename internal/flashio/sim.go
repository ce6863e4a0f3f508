package flashio

import "fmt"

// SimPartition is an in-memory [Partition] that enforces the bit-clear-only
// programming discipline: a call to Program that would need to set a bit
// from 0 to 1 fails immediately instead of silently corrupting state. This
// is the partition unit and property tests run against; a violation here
// means the engine above it has a bug, not that the "flash" misbehaved.
type SimPartition struct {
	geo      Geometry
	data     []byte
	log      Logger
	eraseLog []int // sector indices erased, in order; used by tests asserting wear
}

// NewSimPartition returns a SimPartition with every byte initialized to
// 0xFF (erased), matching a brand-new or freshly wiped flash chip.
func NewSimPartition(geo Geometry, log Logger) *SimPartition {
	size := geo.SectorSize * (geo.SectorOffset + geo.SectorCount)
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	return &SimPartition{geo: geo, data: data, log: log}
}

func (p *SimPartition) Geometry() Geometry { return p.geo }

func (p *SimPartition) SectorErase(addr int) error {
	sector := addr / p.geo.SectorSize
	start := sector * p.geo.SectorSize
	end := start + p.geo.SectorSize
	if start < 0 || end > len(p.data) {
		return ErrOutOfRange
	}
	for i := start; i < end; i++ {
		p.data[i] = 0xFF
	}
	p.eraseLog = append(p.eraseLog, sector)
	p.log.logf("flashio: erased sector %d", sector)
	return nil
}

func (p *SimPartition) Program(addr int, data []byte) (int, error) {
	if addr < 0 || addr+len(data) > len(p.data) {
		return 0, ErrOutOfRange
	}
	for i, b := range data {
		cur := p.data[addr+i]
		if cur&b != b {
			return 0, fmt.Errorf("flashio: illegal 0->1 bit-clear at byte %d: %08b -> %08b", addr+i, cur, b)
		}
		p.data[addr+i] = b
	}
	return len(data), nil
}

func (p *SimPartition) Read(addr int, size int) ([]byte, error) {
	if addr < 0 || addr+size > len(p.data) {
		return nil, ErrOutOfRange
	}
	out := make([]byte, size)
	copy(out, p.data[addr:addr+size])
	return out, nil
}

// EraseCount returns how many times SectorErase has been called for sector.
// Exposed for tests asserting eviction/round-robin behavior.
func (p *SimPartition) EraseCount(sector int) int {
	n := 0
	for _, s := range p.eraseLog {
		if s == sector {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the entire backing buffer, for before/after
// comparisons in power-loss tests.
func (p *SimPartition) Snapshot() []byte {
	out := make([]byte, len(p.data))
	copy(out, p.data)
	return out
}

// Restore replaces the backing buffer with a previously captured Snapshot.
func (p *SimPartition) Restore(snap []byte) {
	copy(p.data, snap)
}
