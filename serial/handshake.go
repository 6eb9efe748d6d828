// Package serial implements the serial-attached panel backend: IOIO-style
// handshake, legacy/V2 frame encoding and a bounded transmit queue with
// error recovery.
package serial

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/pinballdmd/dmdutil-go/dmd"
)

const (
	handshakeResponseSize = 29
	handshakeReadTimeout  = 100 * time.Millisecond
	dtrSettleDelay        = 100 * time.Millisecond
)

// protocolVariant distinguishes the legacy bit-plane transmit unit from the
// framed V2 packet format, unifying the two nearly identical backends the
// source carries (see SPEC_FULL.md §9).
type protocolVariant int

const (
	variantLegacy protocolVariant = iota
	variantV2
)

// handshakeResult records what the IOIO-style handshake discovered about
// the attached panel.
type handshakeResult struct {
	width, height int
	variant       protocolVariant
	colorSwap     bool
	hardwareID    string
	bootloaderID  string
	firmwareTag   string
}

// handshake toggles DTR/RTS, waits for the 29-byte IOIO connection response,
// and derives the panel geometry and protocol variant from its firmware tag.
func handshake(port serial.Port) (handshakeResult, error) {
	if err := port.SetDTR(false); err != nil {
		return handshakeResult{}, err
	}
	if err := port.SetRTS(true); err != nil {
		return handshakeResult{}, err
	}
	time.Sleep(dtrSettleDelay)
	if err := port.SetDTR(true); err != nil {
		return handshakeResult{}, err
	}
	time.Sleep(dtrSettleDelay)

	if err := port.SetReadTimeout(handshakeReadTimeout); err != nil {
		return handshakeResult{}, err
	}

	buf := make([]byte, handshakeResponseSize)
	if err := readFull(port, buf); err != nil {
		return handshakeResult{}, fmt.Errorf("%w: handshake read: %v", dmd.ErrBackendFatal, err)
	}

	return parseHandshakeResponse(buf)
}

// parseHandshakeResponse decodes the 29-byte IOIO connection response into a
// handshakeResult. Split out from handshake so the firmware-tag parsing
// logic can be tested without a real serial.Port.
func parseHandshakeResponse(buf []byte) (handshakeResult, error) {
	if len(buf) != handshakeResponseSize {
		return handshakeResult{}, fmt.Errorf("%w: handshake response wrong size %d", dmd.ErrBackendFatal, len(buf))
	}
	if buf[0] != 0x00 || !bytes.Equal(buf[1:5], []byte("IOIO")) {
		return handshakeResult{}, fmt.Errorf("%w: unexpected handshake response", dmd.ErrBackendFatal)
	}

	hardwareID := string(bytes.TrimRight(buf[5:13], "\x00"))
	bootloaderID := string(bytes.TrimRight(buf[13:21], "\x00"))
	firmwareTag := string(bytes.TrimRight(buf[21:29], "\x00"))

	result := handshakeResult{
		hardwareID:   hardwareID,
		bootloaderID: bootloaderID,
		firmwareTag:  firmwareTag,
	}

	fw := buf[21:29]
	switch {
	case fw[0] == 'P' && fw[2] == 'X':
		result.width, result.height = 128, 32
	case fw[2] == 'M':
		result.width, result.height = 64, 32
	default:
		result.width, result.height = 128, 32
	}
	if fw[3] == 'R' {
		result.variant = variantV2
	}
	result.colorSwap = fw[4] == 'C' && result.variant != variantV2

	return result, nil
}

// readFull reads exactly len(buf) bytes, treating a short read after the
// configured timeout as a fatal handshake error. It only needs Read, so it
// takes an io.Reader rather than the full serial.Port interface — this lets
// it run against any byte source in tests, not just a real port.
func readFull(r io.Reader, buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := r.Read(buf[read:])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("short read: got %d of %d bytes", read, len(buf))
		}
		read += n
	}
	return nil
}

// enableCommandArg computes the single-byte argument for the enable
// command: `(shifterLen32 & 0x0F) | ((rows==8 ? 0 : 1) << 4)`.
func enableCommandArg(width, rows int) byte {
	shifterLen32 := width / 32
	rowsBit := byte(1)
	if rows == 8 {
		rowsBit = 0
	}
	return byte(shifterLen32&0x0F) | (rowsBit << 4)
}
