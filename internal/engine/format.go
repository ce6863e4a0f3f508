package engine

import (
	"fmt"

	"ringfs/internal/ringloc"
	"ringfs/internal/sector"
)

// Format erases every sector in the partition, then programs sector 0 as
// FREE with the engine's version. A failure here is fatal to the instance:
// the caller needs a lower-level erase.
func (e *Engine) Format() error {
	for i := 0; i < e.geo.SectorCount; i++ {
		if err := sector.Erase(e.flash, i); err != nil {
			return fmt.Errorf("format: %w", err)
		}
	}

	if err := sector.FormatAsFree(e.flash, 0, e.version); err != nil {
		return fmt.Errorf("format: %w", err)
	}

	e.read = ringloc.Loc{}
	e.write = ringloc.Loc{}
	e.cursor = ringloc.Loc{}
	e.live = 0
	e.initialized = true
	return nil
}
