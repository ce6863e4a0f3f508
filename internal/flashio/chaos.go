package flashio

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ChaosOp identifies a [Partition] primitive that [ChaosConfig] can target.
type ChaosOp string

const (
	ChaosOpSectorErase ChaosOp = "sector_erase"
	ChaosOpProgram     ChaosOp = "program"
	ChaosOpRead        ChaosOp = "read"
)

// ErrInjected is the error [ChaosPartition] returns for an injected
// failure. Wrapped so callers can still distinguish it from a genuine I/O
// error with errors.Is if a test wants to.
var ErrInjected = errors.New("flashio: injected failure")

// ChaosConfig configures failure injection. The zero value injects nothing.
type ChaosConfig struct {
	// After triggers an injected failure on the Nth eligible call
	// (1-indexed), and stays latched: every call at or after the Nth one
	// fails. This models a flash primitive that starts failing at an
	// instant and never recovers within the current operation, letting a
	// test interrupt an operation at any chosen primitive call and then
	// rescan to check recovery.
	After uint64

	// Rate is the probability in [0,1] that an eligible call fails,
	// independent of After. Seed seeds the PRNG.
	Rate float64
	Seed uint64

	// Ops restricts which primitives are eligible. Empty means all three.
	Ops []ChaosOp
}

func (c ChaosConfig) eligible(op ChaosOp) bool {
	if len(c.Ops) == 0 {
		return true
	}
	for _, o := range c.Ops {
		if o == op {
			return true
		}
	}
	return false
}

// ChaosPartition wraps a [Partition] and injects failures per [ChaosConfig].
// It records every primitive call (op, addr, size) for test assertions —
// a test can replay the log to find the k-th call and interrupt exactly
// there.
type ChaosPartition struct {
	inner Partition
	cfg   ChaosConfig
	rng   *rand.Rand
	calls uint64
	log   []ChaosCall
}

// ChaosCall records one primitive invocation observed by a ChaosPartition.
type ChaosCall struct {
	Op      ChaosOp
	Addr    int
	Size    int
	Injected bool
}

// NewChaosPartition wraps inner with the given failure configuration.
func NewChaosPartition(inner Partition, cfg ChaosConfig) *ChaosPartition {
	return &ChaosPartition{
		inner: inner,
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b9)),
	}
}

// Calls returns every primitive call observed so far, in order.
func (c *ChaosPartition) Calls() []ChaosCall {
	out := make([]ChaosCall, len(c.log))
	copy(out, c.log)
	return out
}

// CallCount returns the number of primitive calls observed so far.
func (c *ChaosPartition) CallCount() uint64 { return c.calls }

func (c *ChaosPartition) shouldFail(op ChaosOp) bool {
	if !c.cfg.eligible(op) {
		return false
	}
	c.calls++
	if c.cfg.After != 0 && c.calls >= c.cfg.After {
		return true
	}
	if c.cfg.Rate > 0 && c.rng.Float64() < c.cfg.Rate {
		return true
	}
	return false
}

func (c *ChaosPartition) Geometry() Geometry { return c.inner.Geometry() }

func (c *ChaosPartition) SectorErase(addr int) error {
	injected := c.shouldFail(ChaosOpSectorErase)
	c.log = append(c.log, ChaosCall{Op: ChaosOpSectorErase, Addr: addr, Injected: injected})
	if injected {
		return fmt.Errorf("%w: sector_erase(0x%x)", ErrInjected, addr)
	}
	return c.inner.SectorErase(addr)
}

func (c *ChaosPartition) Program(addr int, data []byte) (int, error) {
	injected := c.shouldFail(ChaosOpProgram)
	c.log = append(c.log, ChaosCall{Op: ChaosOpProgram, Addr: addr, Size: len(data), Injected: injected})
	if injected {
		return 0, fmt.Errorf("%w: program(0x%x, %d bytes)", ErrInjected, addr, len(data))
	}
	return c.inner.Program(addr, data)
}

func (c *ChaosPartition) Read(addr int, size int) ([]byte, error) {
	injected := c.shouldFail(ChaosOpRead)
	c.log = append(c.log, ChaosCall{Op: ChaosOpRead, Addr: addr, Size: size, Injected: injected})
	if injected {
		return nil, fmt.Errorf("%w: read(0x%x, %d)", ErrInjected, addr, size)
	}
	return c.inner.Read(addr, size)
}
