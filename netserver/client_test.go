package netserver

import (
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/pinballdmd/dmdutil-go/dmd"
)

func sendRGB24Frame(t *testing.T, conn net.Conn, width, height uint16, buffered bool) {
	t.Helper()
	payload := make([]byte, 3*int(width)*int(height))
	for i := range payload {
		payload[i] = 0x40
	}
	hdr := buildHeader(ModeRGB24, width, height, uint32(len(payload)), buffered, false)
	_, err := conn.Write(hdr)
	require.NoError(t, err)
	_, err = conn.Write(payload)
	require.NoError(t, err)
}

func TestClientForwardsOwnerFramesToPipeline(t *testing.T) {
	server, clientConn := net.Pipe()

	pipeline := dmd.NewPipeline(dmd.Config{})
	pipeline.Start()
	t.Cleanup(pipeline.Stop)
	vc := pipeline.AddVirtualConsumer()

	var arb arbiter
	id := arb.register()
	c := newClient(server, id, &arb, pipeline, log.Default())
	go c.run()

	sendRGB24Frame(t, clientConn, 2, 2, false)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, _, _, _, isNew := vc.Snapshot(); isNew {
			clientConn.Close()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	clientConn.Close()
	t.Fatal("pipeline never received the forwarded frame")
}

func TestClientNonOwnerFrameIsDrainedNotForwarded(t *testing.T) {
	server, clientConn := net.Pipe()
	defer clientConn.Close()

	pipeline := dmd.NewPipeline(dmd.Config{})
	pipeline.Start()
	t.Cleanup(pipeline.Stop)
	vc := pipeline.AddVirtualConsumer()

	var arb arbiter
	staleID := arb.register()
	arb.register() // a second client registers and becomes current owner

	c := newClient(server, staleID, &arb, pipeline, log.Default())
	go c.run()

	sendRGB24Frame(t, clientConn, 2, 2, false)

	time.Sleep(100 * time.Millisecond)
	_, _, _, _, _, isNew := vc.Snapshot()
	require.False(t, isNew, "a non-owner's frame must not reach the pipeline")
}

func TestDiscardSkipsExactLength(t *testing.T) {
	r, w := net.Pipe()
	go func() {
		w.Write(make([]byte, 10))
		w.Close()
	}()
	require.NoError(t, discard(r, 10))
}
