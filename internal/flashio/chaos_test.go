package flashio_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ringfs/internal/flashio"
)

func TestChaosPartition_PassesThroughWithNoConfig(t *testing.T) {
	t.Parallel()

	inner := flashio.NewSimPartition(flashio.Geometry{SectorSize: 16, SectorCount: 1}, nil)
	c := flashio.NewChaosPartition(inner, flashio.ChaosConfig{})

	_, err := c.Program(0, []byte{0x00})
	require.NoError(t, err)
	require.Equal(t, uint64(1), c.CallCount())
}

func TestChaosPartition_AfterLatchesFailureForever(t *testing.T) {
	t.Parallel()

	inner := flashio.NewSimPartition(flashio.Geometry{SectorSize: 16, SectorCount: 1}, nil)
	c := flashio.NewChaosPartition(inner, flashio.ChaosConfig{After: 2})

	_, err := c.Program(0, []byte{0x00}) // call 1: ok
	require.NoError(t, err)

	_, err = c.Program(0, []byte{0x00}) // call 2: injected
	require.ErrorIs(t, err, flashio.ErrInjected)

	_, err = c.Program(0, []byte{0x00}) // call 3: still failing
	require.ErrorIs(t, err, flashio.ErrInjected)
}

func TestChaosPartition_OpsRestrictsEligibility(t *testing.T) {
	t.Parallel()

	inner := flashio.NewSimPartition(flashio.Geometry{SectorSize: 16, SectorCount: 1}, nil)
	c := flashio.NewChaosPartition(inner, flashio.ChaosConfig{After: 1, Ops: []flashio.ChaosOp{flashio.ChaosOpRead}})

	_, err := c.Program(0, []byte{0x00}) // not eligible, passes through
	require.NoError(t, err)

	_, err = c.Read(0, 1) // eligible, 1st eligible call fails
	require.ErrorIs(t, err, flashio.ErrInjected)
}

func TestChaosPartition_RecordsCalls(t *testing.T) {
	t.Parallel()

	inner := flashio.NewSimPartition(flashio.Geometry{SectorSize: 16, SectorCount: 1}, nil)
	c := flashio.NewChaosPartition(inner, flashio.ChaosConfig{})

	_, _ = c.Program(0, []byte{0x00})
	_, _ = c.Read(0, 1)
	_ = c.SectorErase(0)

	calls := c.Calls()
	require.Len(t, calls, 3)
	require.Equal(t, flashio.ChaosOpProgram, calls[0].Op)
	require.Equal(t, flashio.ChaosOpRead, calls[1].Op)
	require.Equal(t, flashio.ChaosOpSectorErase, calls[2].Op)
}

func TestChaosPartition_RateIsDeterministicForSeed(t *testing.T) {
	t.Parallel()

	geo := flashio.Geometry{SectorSize: 16, SectorCount: 1}
	cfg := flashio.ChaosConfig{Rate: 0.5, Seed: 42}

	var results1, results2 []bool
	for _, cfgInstance := range []flashio.ChaosConfig{cfg, cfg} {
		inner := flashio.NewSimPartition(geo, nil)
		c := flashio.NewChaosPartition(inner, cfgInstance)
		var results []bool
		for i := 0; i < 10; i++ {
			_, err := c.Read(0, 1)
			results = append(results, err != nil)
		}
		if results1 == nil {
			results1 = results
		} else {
			results2 = results
		}
	}

	require.Equal(t, results1, results2)
}
