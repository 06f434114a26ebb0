package file

import (
	"errors"
	"io"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePath = "../../../testdata/sample.pcap"

func TestOpenAndReadSample(t *testing.T) {
	src, err := Open(samplePath, "")
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, layers.LinkTypeEthernet, src.LinkType())

	count := 0
	for {
		data, ci, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, len(data), ci.CaptureLength)
		count++
	}
	assert.Equal(t, 7, count)
}

func TestOpenWithFilter(t *testing.T) {
	src, err := Open(samplePath, "udp port 53")
	require.NoError(t, err)
	defer src.Close()

	count := 0
	for {
		_, _, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		count++
	}
	// Only the DNS query and response survive the filter.
	assert.Equal(t, 2, count)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open("testdata/absent.pcap", "")
	require.Error(t, err)
}

func TestOpenBadFilter(t *testing.T) {
	_, err := Open(samplePath, "not a filter (")
	require.Error(t, err)
}
