// Package netserver implements the TCP frame server: it accepts clients,
// parses the length-prefixed wire protocol, arbitrates ownership among
// concurrent clients, and forwards the owning client's updates to a pipeline.
package netserver

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pinballdmd/dmdutil-go/dmd"
)

// Mode is the wire-level frame encoding requested by a client.
type Mode uint8

const (
	ModeData  Mode = 1
	ModeRGB16 Mode = 2
	ModeRGB24 Mode = 3
)

func (m Mode) String() string {
	switch m {
	case ModeData:
		return "Data"
	case ModeRGB16:
		return "RGB16"
	case ModeRGB24:
		return "RGB24"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

const (
	magicValue    = "DMDStream"
	wireVersion   = 1
	pathsMagic    = "Paths\x00"
	headerSize    = 9 + 1 + 1 + 2 + 2 + 4 + 1 + 1 // magic+version+mode+width+height+length+buffered+disconnectOthers
	romNameSize   = 31
	pathSize      = 255
	maxWireWidth  = 256
	maxWireHeight = 64
)

// Header is the fixed 21-byte frame header every wire message begins with.
type Header struct {
	Mode              Mode
	Width             uint16
	Height            uint16
	Length            uint32
	Buffered          bool
	DisconnectOthers  bool
}

// readHeader reads and validates one fixed header from r. A complete header
// with a bad magic, version, mode or size returns dmd.ErrProtocolViolation
// wrapped with context. A short read returns the io.ReadFull error
// unwrapped (io.EOF or io.ErrUnexpectedEOF), which callers treat as a
// closed connection.
func readHeader(r io.Reader) (Header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, err
	}

	if string(buf[0:9]) != magicValue {
		return Header{}, fmt.Errorf("%w: bad magic %q", dmd.ErrProtocolViolation, buf[0:9])
	}
	if buf[9] != wireVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", dmd.ErrProtocolViolation, buf[9])
	}

	mode := Mode(buf[10])
	width := binary.BigEndian.Uint16(buf[11:13])
	height := binary.BigEndian.Uint16(buf[13:15])
	length := binary.BigEndian.Uint32(buf[15:19])
	buffered := buf[19] != 0
	disconnectOthers := buf[20] != 0

	if mode != ModeData && mode != ModeRGB16 && mode != ModeRGB24 {
		return Header{}, fmt.Errorf("%w: unknown mode %d", dmd.ErrProtocolViolation, mode)
	}
	if width > maxWireWidth || height > maxWireHeight {
		return Header{}, fmt.Errorf("%w: %dx%d exceeds wire bounds", dmd.ErrProtocolViolation, width, height)
	}

	return Header{
		Mode:             mode,
		Width:            width,
		Height:           height,
		Length:           length,
		Buffered:         buffered,
		DisconnectOthers: disconnectOthers,
	}, nil
}

// pathsHeader is the secondary header that precedes a Data-mode payload.
type pathsHeader struct {
	RomName      string
	AltColorPath string
	PupPath      string
}

// readPathsHeader reads the "Paths\0" secondary header used by mode=Data.
func readPathsHeader(r io.Reader) (pathsHeader, error) {
	magic := make([]byte, len(pathsMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return pathsHeader{}, err
	}
	if string(magic) != pathsMagic {
		return pathsHeader{}, fmt.Errorf("%w: bad paths magic", dmd.ErrProtocolViolation)
	}

	rom, err := readNulPadded(r, romNameSize)
	if err != nil {
		return pathsHeader{}, err
	}
	alt, err := readNulPadded(r, pathSize)
	if err != nil {
		return pathsHeader{}, err
	}
	pup, err := readNulPadded(r, pathSize)
	if err != nil {
		return pathsHeader{}, err
	}

	return pathsHeader{RomName: rom, AltColorPath: alt, PupPath: pup}, nil
}

func readNulPadded(r io.Reader, size int) (string, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return string(buf), nil
}

// byteSwap16 swaps the two bytes of every 16-bit word in dst[:n],
// regardless of host byte order.
func byteSwap16(dst []byte, n int) {
	for i := 0; i+1 < n; i += 2 {
		dst[i], dst[i+1] = dst[i+1], dst[i]
	}
}
