package netserver

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pinballdmd/dmdutil-go/dmd"
)

// clientState mirrors the §4.4 per-client state machine. It exists for
// documentation only and is never stored or logged; the actual control flow
// below is a straight-line Go loop rather than an explicit state struct,
// since every transition here is driven by a single read result.
type clientState int

const (
	stateReceiving clientState = iota
	stateOwnerForwarding
	stateBlocked
	stateDisconnecting
	stateClosed
)

// client handles one accepted TCP connection.
type client struct {
	conn     net.Conn
	id       uint32
	arb      *arbiter
	pipeline *dmd.Pipeline
	log      *log.Logger

	lastBuffered  bool
	blockedLogged bool

	// timestampFormat, when set, is an strftime pattern added as a "ts"
	// field on this client's connect/disconnect log lines.
	timestampFormat string
}

func newClient(conn net.Conn, id uint32, arb *arbiter, pipeline *dmd.Pipeline, logger *log.Logger) *client {
	return &client{conn: conn, id: id, arb: arb, pipeline: pipeline, log: logger}
}

// connectLogger returns c.log, optionally with a formatted "ts" field
// attached per c.timestampFormat.
func (c *client) connectLogger() *log.Logger {
	if c.timestampFormat == "" {
		return c.log
	}
	if ts := formatTimestamp(c.timestampFormat, time.Now()); ts != "" {
		return c.log.With("ts", ts)
	}
	return c.log
}

// run drives the client's receive loop until disconnect, then performs the
// disconnect-state cleanup described in §4.4.
func (c *client) run() {
	defer c.conn.Close()

	c.connectLogger().Info("client connected", "id", c.id)

	for {
		if c.arb.shouldTerminate(c.id) {
			break
		}

		hdr, err := readHeader(c.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			if errors.Is(err, dmd.ErrProtocolViolation) {
				if c.arb.isOwner(c.id) {
					c.log.Warn("protocol violation from owning client, disconnecting", "id", c.id, "err", err)
					break
				}
				c.log.Debug("protocol violation from non-owner, ignoring connection", "id", c.id, "err", err)
				continue
			}
			break
		}

		c.lastBuffered = hdr.Buffered

		owner := c.arb.isOwner(c.id)
		if owner && hdr.DisconnectOthers {
			if c.arb.requestDisconnectOthers(c.id) {
				c.log.Info("client requested disconnect of other clients", "id", c.id)
			}
		}

		if !owner {
			if !c.blockedLogged {
				c.log.Info("client blocks the DMD", "id", c.id)
				c.blockedLogged = true
			}
			if err := c.drainAndDiscard(hdr); err != nil {
				break
			}
			continue
		}

		c.blockedLogged = false
		if err := c.forward(hdr); err != nil {
			c.log.Warn("forwarding update failed", "id", c.id, "err", err)
			break
		}
	}

	c.disconnect()
}

// drainAndDiscard reads and throws away a non-owner's payload so the wire
// stream stays aligned on the next header boundary.
func (c *client) drainAndDiscard(hdr Header) error {
	switch hdr.Mode {
	case ModeData:
		if _, err := readPathsHeader(c.conn); err != nil {
			return err
		}
		return discard(c.conn, int(hdr.Width)*int(hdr.Height)+4)
	default:
		return discard(c.conn, int(hdr.Length))
	}
}

func discard(r io.Reader, n int) error {
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}

// forward reads the owning client's payload and enqueues it on the
// pipeline.
func (c *client) forward(hdr Header) error {
	switch hdr.Mode {
	case ModeData:
		paths, err := readPathsHeader(c.conn)
		if err != nil {
			return err
		}
		_ = paths // ROM/alt-color/pup path wiring is a colorizer concern, out of scope here.

		depthAndTint := make([]byte, 4)
		if _, err := io.ReadFull(c.conn, depthAndTint); err != nil {
			return err
		}
		depth := dmd.Depth(depthAndTint[0])
		tint := dmd.Tint{R: depthAndTint[1], G: depthAndTint[2], B: depthAndTint[3]}

		n := int(hdr.Width) * int(hdr.Height)
		payload := make([]byte, n)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return err
		}

		c.pipeline.UpdateIndexed(int(hdr.Width), int(hdr.Height), depth, payload, tint, hdr.Buffered)
		return nil

	case ModeRGB16:
		want := int(hdr.Width) * int(hdr.Height) * 2
		if int(hdr.Length) != want {
			return discard(c.conn, int(hdr.Length))
		}
		payload := make([]byte, hdr.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return err
		}
		// Wire words are big-endian, the byte order RGB565ToRGB24 reads.
		rgb24 := make([]byte, 3*int(hdr.Width)*int(hdr.Height))
		dmd.RGB565ToRGB24(rgb24, payload)
		c.pipeline.UpdateRGB24(int(hdr.Width), int(hdr.Height), dmd.Depth24, rgb24, dmd.Tint{}, hdr.Buffered)
		return nil

	case ModeRGB24:
		want := int(hdr.Width) * int(hdr.Height) * 3
		if int(hdr.Length) != want {
			return discard(c.conn, int(hdr.Length))
		}
		payload := make([]byte, hdr.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return err
		}
		c.pipeline.UpdateRGB24(int(hdr.Width), int(hdr.Height), dmd.Depth24, payload, dmd.Tint{}, hdr.Buffered)
		return nil
	}

	return nil
}

// disconnect implements the Disconnecting/Closed transitions: clear the
// display if this client was the owner and its last header was unbuffered,
// then release ownership. The arbiter resets the owner and the
// disconnect-epoch once the last live client has unregistered.
func (c *client) disconnect() {
	wasOwner := c.arb.isOwner(c.id)
	if wasOwner && !c.lastBuffered {
		c.pipeline.Disconnect()
	}

	promoted := c.arb.unregister(c.id)
	c.connectLogger().Info("client disconnected", "id", c.id, "new_owner", promoted)
}
