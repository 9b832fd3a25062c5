package pcapsink

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopacket/gopacket/pcapgo"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/ft-generator/internal/flowmodel"
)

func TestSink_WritePacket_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pcap")

	sink, err := New(path, 0)
	require.NoError(t, err)

	pkt := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	require.NoError(t, sink.WritePacket(pkt, flowmodel.Timestamp{Sec: 100, Usec: 250}, flowmodel.DirectionForward))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	require.NoError(t, err)

	data, ci, err := r.ReadPacketData()
	require.NoError(t, err)
	require.Equal(t, pkt, data)
	require.Equal(t, int64(100), ci.Timestamp.Unix())

	_, _, err = r.ReadPacketData()
	require.ErrorIs(t, err, io.EOF)
}
