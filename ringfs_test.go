package ringfs_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"ringfs"
	"ringfs/internal/flashio"
)

func newLog(t *testing.T) *ringfs.Log {
	t.Helper()
	p := flashio.NewSimPartition(flashio.Geometry{SectorSize: 64, SectorCount: 4}, nil)
	l := ringfs.New(p, ringfs.Options{Version: 1, ObjectSize: 4})
	require.NoError(t, l.Format())
	return l
}

func enc(i int) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(i))
	return b[:]
}

func dec(b []byte) int {
	return int(binary.LittleEndian.Uint32(b))
}

func TestLog_AppendFetchDiscard_RoundTrips(t *testing.T) {
	t.Parallel()

	l := newLog(t)
	require.NoError(t, l.Append(enc(1)))
	require.NoError(t, l.Append(enc(2)))

	buf := make([]byte, 4)
	n, err := l.Fetch(buf)
	require.NoError(t, err)
	require.Equal(t, 1, dec(buf[:n]))

	require.NoError(t, l.Discard())

	n, err = l.Fetch(buf)
	require.NoError(t, err)
	require.Equal(t, 2, dec(buf[:n]))
}

func TestLog_Fetch_ErrEmptyOnEmptyLog(t *testing.T) {
	t.Parallel()

	l := newLog(t)
	_, err := l.Fetch(make([]byte, 4))
	require.ErrorIs(t, err, ringfs.ErrEmpty)
	require.Equal(t, ringfs.CodeError, ringfs.CodeOf(err))
}

func TestLog_Append_ErrFullWithRejectPolicy(t *testing.T) {
	t.Parallel()

	l := newLog(t)
	l.SetConfig(ringfs.Config{RejectWriteWhenFull: true})

	for i := 0; i < l.Capacity(); i++ {
		require.NoError(t, l.Append(enc(i)))
	}

	err := l.Append(enc(999))
	require.ErrorIs(t, err, ringfs.ErrFull)
	require.Equal(t, ringfs.CodeFull, ringfs.CodeOf(err))
}

func TestLog_Scan_ErrCorruptOnVersionMismatch(t *testing.T) {
	t.Parallel()

	p := flashio.NewSimPartition(flashio.Geometry{SectorSize: 64, SectorCount: 4}, nil)
	l1 := ringfs.New(p, ringfs.Options{Version: 1, ObjectSize: 4})
	require.NoError(t, l1.Format())
	require.NoError(t, l1.Append(enc(1)))

	l2 := ringfs.New(p, ringfs.Options{Version: 2, ObjectSize: 4})
	err := l2.Scan()
	require.ErrorIs(t, err, ringfs.ErrCorrupt)
}

func TestLog_AppendN_FetchN_RoundTripsShortPayload(t *testing.T) {
	t.Parallel()

	l := newLog(t)
	require.NoError(t, l.AppendN([]byte{0x42}, 1))

	buf := make([]byte, 4)
	n, err := l.FetchN(buf, 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, byte(0x42), buf[0])
}

func TestLog_Dump_IsStableAcrossScanOfSameState(t *testing.T) {
	t.Parallel()

	p := flashio.NewSimPartition(flashio.Geometry{SectorSize: 64, SectorCount: 4}, nil)
	l1 := ringfs.New(p, ringfs.Options{Version: 1, ObjectSize: 4})
	require.NoError(t, l1.Format())
	require.NoError(t, l1.Append(enc(1)))

	var buf1, buf2 bytes.Buffer
	require.NoError(t, l1.Dump(&buf1))

	l2 := ringfs.New(p, ringfs.Options{Version: 1, ObjectSize: 4})
	require.NoError(t, l2.Scan())
	require.NoError(t, l2.Dump(&buf2))

	if diff := cmp.Diff(buf1.String(), buf2.String()); diff != "" {
		t.Errorf("dump mismatch after rescan (-before +after):\n%s", diff)
	}
}

func TestLog_Capacity_IsOneSectorLessThanTotal(t *testing.T) {
	t.Parallel()

	l := newLog(t)
	// sector_size=64, object_size=4 -> header 8, slot 8 bytes -> 7 slots/sector.
	// 4 sectors total, one reserved -> capacity 21.
	require.Equal(t, 21, l.Capacity())
}

func TestLog_Config_RoundTrips(t *testing.T) {
	t.Parallel()

	l := newLog(t)
	l.SetConfig(ringfs.Config{RejectWriteWhenFull: true})
	require.True(t, l.Config().RejectWriteWhenFull)
}
