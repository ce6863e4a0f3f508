package flashio

import (
	"fmt"
	"os"
)

// FilePartition is a [Partition] backed by a regular host file holding a
// flash image: SectorCount*SectorSize bytes (plus SectorOffset*SectorSize of
// leading space belonging to sectors outside this partition, left
// untouched). It is what cmd/ringfsctl operates on, and what a test that
// wants a durable, reopenable artifact across process restarts uses instead
// of [SimPartition].
//
// FilePartition does not enforce bit-clear-only programming the way
// [SimPartition] does — a real flash chip enforces it in hardware, and a
// plain file can't reject an illegal write the way a property test wants
// to catch one. Use [SimPartition] for tests that check programming
// discipline.
type FilePartition struct {
	f    *os.File
	geo  Geometry
	log  Logger
	lock *fileLock
}

// OpenFilePartition opens (creating if necessary) a flash image file at
// path sized for geo, and takes an advisory exclusive lock on it so two
// cmd/ringfsctl invocations against the same image don't race.
func OpenFilePartition(path string, geo Geometry, log Logger) (*FilePartition, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("flashio: open %s: %w", path, err)
	}

	lock, err := lockFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("flashio: lock %s: %w", path, err)
	}

	size := geo.SectorSize * (geo.SectorOffset + geo.SectorCount)
	info, err := f.Stat()
	if err != nil {
		lock.unlock()
		f.Close()
		return nil, err
	}
	if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			lock.unlock()
			f.Close()
			return nil, fmt.Errorf("flashio: truncate %s: %w", path, err)
		}
		// Newly extended bytes read as zero from the OS, but flash reads
		// as 0xFF when erased; fill the new tail so a fresh image behaves
		// like an erased chip.
		if err := fillErased(f, info.Size(), int64(size)); err != nil {
			lock.unlock()
			f.Close()
			return nil, err
		}
	}

	return &FilePartition{f: f, geo: geo, log: log, lock: lock}, nil
}

func fillErased(f *os.File, from, to int64) error {
	const chunk = 64 << 10
	buf := make([]byte, chunk)
	for i := range buf {
		buf[i] = 0xFF
	}
	for off := from; off < to; off += chunk {
		n := int64(chunk)
		if off+n > to {
			n = to - off
		}
		if _, err := f.WriteAt(buf[:n], off); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the advisory lock and closes the backing file.
func (p *FilePartition) Close() error {
	p.lock.unlock()
	return p.f.Close()
}

func (p *FilePartition) Geometry() Geometry { return p.geo }

func (p *FilePartition) SectorErase(addr int) error {
	sector := addr / p.geo.SectorSize
	buf := make([]byte, p.geo.SectorSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	off := int64(sector) * int64(p.geo.SectorSize)
	if _, err := p.f.WriteAt(buf, off); err != nil {
		return fmt.Errorf("flashio: erase sector %d: %w", sector, err)
	}
	p.log.logf("flashio: erased sector %d", sector)
	return nil
}

func (p *FilePartition) Program(addr int, data []byte) (int, error) {
	n, err := p.f.WriteAt(data, int64(addr))
	if err != nil {
		return n, fmt.Errorf("flashio: program 0x%x: %w", addr, err)
	}
	return n, nil
}

func (p *FilePartition) Read(addr int, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := p.f.ReadAt(buf, int64(addr))
	if err != nil && n != size {
		return nil, fmt.Errorf("flashio: read 0x%x: %w", addr, err)
	}
	return buf, nil
}
