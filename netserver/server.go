package netserver

import (
	"errors"
	"net"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/pinballdmd/dmdutil-go/dmd"
)

// Server accepts TCP clients on a configured address and forwards the
// current owner's updates to a pipeline. Shutdown is driven by closing the
// listener, which unblocks Accept immediately — the idiomatic Go
// replacement for the source's "non-blocking accept with 100ms poll" (see
// SPEC_FULL.md §5).
type Server struct {
	addr     string
	pipeline *dmd.Pipeline
	logger   *log.Logger

	// timestampFormat, when set, is an strftime pattern appended as a log
	// field on connect/disconnect/ownership-transition lines. Empty means
	// no timestamp field, matching the source's optional config.
	timestampFormat string

	arb arbiter

	mu       sync.Mutex
	listener net.Listener
	clientWG sync.WaitGroup
}

// NewServer constructs a Server bound to addr (host:port) that forwards
// accepted updates to pipeline. logger defaults to log.Default() if nil.
func NewServer(addr string, pipeline *dmd.Pipeline, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{addr: addr, pipeline: pipeline, logger: logger}
}

// SetTimestampFormat configures the optional strftime pattern used on
// per-client connection log lines. Call before ListenAndServe.
func (s *Server) SetTimestampFormat(pattern string) {
	s.timestampFormat = pattern
}

// ListenAndServe binds the configured address and runs the accept loop
// until Close is called or Accept returns a permanent error. It blocks the
// calling goroutine; callers typically invoke it via `go`.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	s.logger.Info("network frame server listening", "addr", s.addr)

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("accept failed", "err", err)
			continue
		}

		id := s.arb.register()
		c := newClient(conn, id, &s.arb, s.pipeline, s.logger)
		c.timestampFormat = s.timestampFormat

		s.clientWG.Add(1)
		go func() {
			defer s.clientWG.Done()
			c.run()
		}()
	}
}

// Close stops accepting new connections. It does not forcibly close
// existing client connections; callers should call Wait afterward to let
// in-flight clients reach a header boundary and exit cooperatively.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Wait blocks until every client goroutine spawned by ListenAndServe has
// returned. Call after Close during shutdown, matching the dependency
// order "acceptor -> clients -> pipeline -> serial backends".
func (s *Server) Wait() {
	s.clientWG.Wait()
}
