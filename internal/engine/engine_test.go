package engine_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"ringfs/internal/engine"
	"ringfs/internal/flashio"
)

// geometry shared by the worked examples: object_size=4, sector_size=64,
// sector_count=4 -> slots_per_sector=7, capacity=21.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	p := flashio.NewSimPartition(flashio.Geometry{SectorSize: 64, SectorCount: 4}, nil)
	e := engine.New(p, 1, 4)
	require.NoError(t, e.Format())
	return e
}

func objBytes(i int) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(i))
	return b[:]
}

func objValue(b []byte) int {
	return int(binary.LittleEndian.Uint32(b))
}

func appendObj(t *testing.T, e *engine.Engine, i int) error {
	t.Helper()
	return e.Append(objBytes(i), 4)
}

func fetchObj(t *testing.T, e *engine.Engine) (int, error) {
	t.Helper()
	buf := make([]byte, 4)
	n, err := e.Fetch(buf, 4)
	if err != nil {
		return 0, err
	}
	return objValue(buf[:n]), nil
}

// TestScenario_EvictionDropsOldestOnOverflow appends 25 objects into a
// 21-capacity ring with the default (evicting) policy and checks that
// exactly the newest 21 objects (4..24) remain.
func TestScenario_EvictionDropsOldestOnOverflow(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	require.Equal(t, 21, e.Capacity())

	for i := 0; i < 25; i++ {
		require.NoError(t, appendObj(t, e, i))
	}

	n, err := e.CountExact()
	require.NoError(t, err)
	require.Equal(t, 21, n)

	for want := 4; want <= 24; want++ {
		got, err := fetchObj(t, e)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err = e.Fetch(make([]byte, 4), 4)
	require.ErrorIs(t, err, engine.ErrEmpty)
}

// TestScenario_RejectPolicyReturnsFullWithoutDropping checks that, with
// RejectWriteWhenFull, the 22nd append (object 21) into a 21-capacity ring
// is rejected outright and nothing is evicted.
func TestScenario_RejectPolicyReturnsFullWithoutDropping(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.SetConfig(engine.Config{RejectWriteWhenFull: true})

	for i := 0; i < 21; i++ {
		require.NoError(t, appendObj(t, e, i))
	}

	err := appendObj(t, e, 21)
	require.ErrorIs(t, err, engine.ErrFull)

	n, err := e.CountExact()
	require.NoError(t, err)
	require.Equal(t, 21, n)

	got, err := fetchObj(t, e)
	require.NoError(t, err)
	require.Equal(t, 0, got)
}

func TestFetch_WithoutDiscardReturnsSameObjectsAgainAfterRewind(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, appendObj(t, e, i))
	}

	for want := 0; want < 3; want++ {
		got, err := fetchObj(t, e)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	require.NoError(t, e.Rewind())

	for want := 0; want < 3; want++ {
		got, err := fetchObj(t, e)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestDiscard_CommitsFetchedObjectsAndFreesSpace(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, appendObj(t, e, i))
	}

	for i := 0; i < 3; i++ {
		_, err := fetchObj(t, e)
		require.NoError(t, err)
	}
	require.NoError(t, e.Discard())

	n, err := e.CountExact()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := fetchObj(t, e)
	require.NoError(t, err)
	require.Equal(t, 3, got)
}

func TestItemDiscard_DropsOldestWithoutFetch(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, appendObj(t, e, i))
	}

	require.NoError(t, e.ItemDiscard())

	n, err := e.CountExact()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := fetchObj(t, e)
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestItemDiscard_OnEmptyLogReturnsErrEmpty(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	err := e.ItemDiscard()
	require.ErrorIs(t, err, engine.ErrEmpty)
}

// TestScanAfterRestart_RecoversCursorsExactly checks that a Scan after a
// clean restart reproduces the same read/write/cursor state as before.
func TestScanAfterRestart_RecoversCursorsExactly(t *testing.T) {
	t.Parallel()

	p := flashio.NewSimPartition(flashio.Geometry{SectorSize: 64, SectorCount: 4}, nil)
	e := engine.New(p, 1, 4)
	require.NoError(t, e.Format())

	for i := 0; i < 10; i++ {
		require.NoError(t, appendObj(t, e, i))
	}
	for i := 0; i < 4; i++ {
		_, err := fetchObj(t, e)
		require.NoError(t, err)
	}
	require.NoError(t, e.Discard())

	wantRead, wantWrite, wantCursor := e.Cursors()
	wantLive, err := e.CountExact()
	require.NoError(t, err)

	e2 := engine.New(p, 1, 4)
	require.NoError(t, e2.Scan())

	gotRead, gotWrite, gotCursor := e2.Cursors()
	require.Equal(t, wantRead, gotRead)
	require.Equal(t, wantWrite, gotWrite)
	require.Equal(t, wantCursor, gotCursor)

	gotLive, err := e2.CountExact()
	require.NoError(t, err)
	require.Equal(t, wantLive, gotLive)
}

// TestCapacityProperty_AppendingCapacityPlusKDropsFirstK checks that
// appending capacity+k objects drops exactly the first k.
func TestCapacityProperty_AppendingCapacityPlusKDropsFirstK(t *testing.T) {
	t.Parallel()

	for _, k := range []int{1, 3, 7} {
		k := k
		t.Run("", func(t *testing.T) {
			t.Parallel()

			e := newTestEngine(t)
			capacity := e.Capacity()

			for i := 0; i < capacity+k; i++ {
				require.NoError(t, appendObj(t, e, i))
			}

			n, err := e.CountExact()
			require.NoError(t, err)
			require.Equal(t, capacity, n)

			got, err := fetchObj(t, e)
			require.NoError(t, err)
			require.Equal(t, k, got)
		})
	}
}

func TestCountEstimate_MatchesExactWhenNoGarbageBeforeRead(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	for i := 0; i < 9; i++ {
		require.NoError(t, appendObj(t, e, i))
	}

	estimate, err := e.CountEstimate()
	require.NoError(t, err)
	exact, err := e.CountExact()
	require.NoError(t, err)
	require.Equal(t, exact, estimate)
}

func TestAppend_RejectsOversizedObject(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	err := e.Append(make([]byte, 5), 5)
	require.ErrorIs(t, err, engine.ErrInvalidArgument)
}

func TestOperations_RequireInitialization(t *testing.T) {
	t.Parallel()

	p := flashio.NewSimPartition(flashio.Geometry{SectorSize: 64, SectorCount: 4}, nil)
	e := engine.New(p, 1, 4)

	_, err := e.CountExact()
	require.ErrorIs(t, err, engine.ErrNotInitialized)

	err = e.Append(objBytes(0), 4)
	require.ErrorIs(t, err, engine.ErrNotInitialized)
}

func TestDump_WritesSummaryWithoutError(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	require.NoError(t, appendObj(t, e, 0))

	var buf []byte
	w := &sliceWriter{buf: &buf}
	require.NoError(t, e.Dump(w))
	require.NotEmpty(t, buf)
}

type sliceWriter struct{ buf *[]byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}
