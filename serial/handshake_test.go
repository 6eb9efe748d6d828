package serial

import (
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHandshakeResponse(firmwareTag string) []byte {
	buf := make([]byte, handshakeResponseSize)
	buf[0] = 0x00
	copy(buf[1:5], "IOIO")
	copy(buf[5:13], "HWID0001")
	copy(buf[13:21], "BLID0001")
	copy(buf[21:29], firmwareTag)
	return buf
}

func TestParseHandshakeResponseLegacy128(t *testing.T) {
	buf := buildHandshakeResponse("PXX\x00\x00\x00\x00\x00")
	res, err := parseHandshakeResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, 128, res.width)
	assert.Equal(t, 32, res.height)
	assert.Equal(t, variantLegacy, res.variant)
	assert.Equal(t, "HWID0001", res.hardwareID)
}

func TestParseHandshakeResponseV2(t *testing.T) {
	buf := buildHandshakeResponse("P0MR\x00\x00\x00\x00")
	res, err := parseHandshakeResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, 64, res.width)
	assert.Equal(t, variantV2, res.variant)
	// colorSwap never applies to V2 panels.
	assert.False(t, res.colorSwap)
}

func TestParseHandshakeResponseColorSwap(t *testing.T) {
	buf := buildHandshakeResponse("P0X" + "C" + "C\x00\x00\x00")
	res, err := parseHandshakeResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, variantLegacy, res.variant)
	assert.True(t, res.colorSwap)
}

func TestParseHandshakeResponseBadMagic(t *testing.T) {
	buf := buildHandshakeResponse("PXX\x00\x00\x00\x00\x00")
	buf[1] = 'X'
	_, err := parseHandshakeResponse(buf)
	assert.Error(t, err)
}

func TestParseHandshakeResponseWrongSize(t *testing.T) {
	_, err := parseHandshakeResponse(make([]byte, handshakeResponseSize-1))
	assert.Error(t, err)
}

func TestEnableCommandArg(t *testing.T) {
	// 128-wide, 16 logical rows: shifterLen32 = 4, rows != 8 -> bit 4 set.
	assert.Equal(t, byte(0x14), enableCommandArg(128, 16))
	// 8 logical rows clears the high bit.
	assert.Equal(t, byte(0x04), enableCommandArg(128, 8))
}

// TestReadFullOverPty exercises readFull against a real pseudo-terminal
// pair, writing the handshake response in pieces to confirm short reads are
// accumulated correctly across multiple Read calls.
func TestReadFullOverPty(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		master.Close()
		slave.Close()
	})

	response := buildHandshakeResponse("PXX\x00\x00\x00\x00\x00")
	go func() {
		master.Write(response[:10])
		time.Sleep(10 * time.Millisecond)
		master.Write(response[10:])
	}()

	buf := make([]byte, handshakeResponseSize)
	require.NoError(t, readFull(slave, buf))
	assert.Equal(t, response, buf)

	res, err := parseHandshakeResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, 128, res.width)
}
