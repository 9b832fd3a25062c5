package profileio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/ft-generator/internal/flowmodel"
)

func TestReadAll_ParsesRows(t *testing.T) {
	csv := strings.Join([]string{
		"START_TIME,END_TIME,L3_PROTO,L4_PROTO,SRC_IP,DST_IP,SRC_PORT,DST_PORT,PACKETS,BYTES,PACKETS_REV,BYTES_REV",
		"1.0,2.500000,IPv4,TCP,10.0.0.1,10.0.0.2,1234,80,10,1500,8,1200",
		"",
		"5,6,IPv6,UDP,,,,,3,180,0,0",
	}, "\n")

	profiles, err := ReadAll(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, flowmodel.Timestamp{Sec: 1, Usec: 0}, profiles[0].Start)
	assert.Equal(t, flowmodel.Timestamp{Sec: 2, Usec: 500000}, profiles[0].End)
	assert.Equal(t, flowmodel.L3IPv4, profiles[0].L3)
	assert.Equal(t, flowmodel.L4TCP, profiles[0].L4)
	assert.True(t, profiles[0].SrcIP.IsValid())
	assert.EqualValues(t, 1234, profiles[0].SrcPort)
	assert.EqualValues(t, 10, profiles[0].ForwardPackets)
	assert.EqualValues(t, 1200, profiles[0].ReverseBytes)

	assert.Equal(t, flowmodel.L3IPv6, profiles[1].L3)
	assert.False(t, profiles[1].SrcIP.IsValid())
}

func TestReadAll_RejectsProtocolMismatch(t *testing.T) {
	csv := strings.Join([]string{
		"START_TIME,END_TIME,L3_PROTO,L4_PROTO,SRC_IP,DST_IP,SRC_PORT,DST_PORT,PACKETS,BYTES,PACKETS_REV,BYTES_REV",
		"1,2,IPv6,ICMP,,,,,3,180,0,0",
	}, "\n")

	_, err := ReadAll(strings.NewReader(csv))
	require.ErrorIs(t, err, flowmodel.ErrProtocolMismatch)
}

func TestReadAll_MissingColumn(t *testing.T) {
	_, err := ReadAll(strings.NewReader("START_TIME,END_TIME\n1,2\n"))
	require.Error(t, err)
}
