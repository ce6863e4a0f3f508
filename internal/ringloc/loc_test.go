package ringloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ringfs/internal/ringloc"
)

func geo() ringloc.Geometry {
	return ringloc.Geometry{SectorCount: 4, SlotsPerSector: 3}
}

func TestNextSlot_AdvancesWithinSector(t *testing.T) {
	t.Parallel()

	l := ringloc.Loc{Sector: 1, Slot: 0}
	l = l.NextSlot(geo())
	require.Equal(t, ringloc.Loc{Sector: 1, Slot: 1}, l)
}

func TestNextSlot_WrapsIntoNextSector(t *testing.T) {
	t.Parallel()

	l := ringloc.Loc{Sector: 1, Slot: 2}
	l = l.NextSlot(geo())
	require.Equal(t, ringloc.Loc{Sector: 2, Slot: 0}, l)
}

func TestNextSlot_WrapsSectorAroundRing(t *testing.T) {
	t.Parallel()

	l := ringloc.Loc{Sector: 3, Slot: 2}
	l = l.NextSlot(geo())
	require.Equal(t, ringloc.Loc{Sector: 0, Slot: 0}, l)
}

func TestIsPastEndOfSector(t *testing.T) {
	t.Parallel()

	require.False(t, (ringloc.Loc{Sector: 0, Slot: 2}).IsPastEndOfSector(geo()))
	require.True(t, (ringloc.Loc{Sector: 0, Slot: 3}).IsPastEndOfSector(geo()))
}

func TestSectorDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to ringloc.Loc
		want     int
	}{
		{"same sector", ringloc.Loc{Sector: 1}, ringloc.Loc{Sector: 1}, 0},
		{"forward", ringloc.Loc{Sector: 1}, ringloc.Loc{Sector: 3}, 2},
		{"wraps", ringloc.Loc{Sector: 3}, ringloc.Loc{Sector: 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.from.SectorDistance(geo(), tt.to))
		})
	}
}

func TestSlotDistance_MatchesManualCountViaNextSlot(t *testing.T) {
	t.Parallel()

	g := geo()
	from := ringloc.Loc{Sector: 0, Slot: 1}
	to := ringloc.Loc{Sector: 2, Slot: 2}

	want := 0
	for l := from; !l.Equal(to); l = l.NextSlot(g) {
		want++
	}

	require.Equal(t, want, from.SlotDistance(g, to))
}

func TestEqual(t *testing.T) {
	t.Parallel()

	require.True(t, (ringloc.Loc{Sector: 2, Slot: 1}).Equal(ringloc.Loc{Sector: 2, Slot: 1}))
	require.False(t, (ringloc.Loc{Sector: 2, Slot: 1}).Equal(ringloc.Loc{Sector: 2, Slot: 2}))
}

func TestAdvanceSectors_WrapsNegativeAndPositive(t *testing.T) {
	t.Parallel()

	g := geo()
	require.Equal(t, ringloc.Loc{Sector: 2, Slot: 1}, (ringloc.Loc{Sector: 0, Slot: 1}).AdvanceSectors(g, 2))
	require.Equal(t, ringloc.Loc{Sector: 3, Slot: 1}, (ringloc.Loc{Sector: 0, Slot: 1}).AdvanceSectors(g, -1))
}
