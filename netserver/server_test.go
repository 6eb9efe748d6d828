package netserver

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pinballdmd/dmdutil-go/dmd"
)

func TestServerAcceptsAndForwardsOwnerFrame(t *testing.T) {
	pipeline := dmd.NewPipeline(dmd.Config{})
	pipeline.Start()
	t.Cleanup(pipeline.Stop)
	vc := pipeline.AddVirtualConsumer()

	srv := NewServer("127.0.0.1:0", pipeline, nil)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	// Poll until the listener is bound so we know the real ephemeral port.
	var addr string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		srv.mu.Lock()
		l := srv.listener
		srv.mu.Unlock()
		if l != nil {
			addr = l.Addr().String()
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.NotEmpty(t, addr, "server never bound a listener")

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	sendRGB24Frame(t, conn, 2, 2, false)

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, _, _, _, isNew := vc.Snapshot(); isNew {
			require.NoError(t, srv.Close())
			srv.Wait()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("frame never reached the pipeline through the accepted connection")
}

func TestServerCloseUnblocksListenAndServe(t *testing.T) {
	pipeline := dmd.NewPipeline(dmd.Config{})
	pipeline.Start()
	t.Cleanup(pipeline.Stop)

	srv := NewServer("127.0.0.1:0", pipeline, nil)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		srv.mu.Lock()
		l := srv.listener
		srv.mu.Unlock()
		if l != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, srv.Close())
	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe did not return after Close")
	}
}
