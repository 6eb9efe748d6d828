package main

import (
	"context"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// advertise registers a "_dmdstream._tcp" mDNS/DNS-SD service for this
// server so LAN clients can discover it without a configured address. It
// runs until ctx is cancelled; callers launch it in its own goroutine and
// treat failures as non-fatal (discovery is a convenience, not a
// requirement — clients can always be pointed at --addr/--port directly).
func advertise(ctx context.Context, host string, port int, logger *log.Logger) {
	cfg := dnssd.Config{
		Name: "dmdserver",
		Type: "_dmdstream._tcp",
		Port: port,
	}
	service, err := dnssd.NewService(cfg)
	if err != nil {
		logger.Warn("dnssd: failed to construct service", "err", err)
		return
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		logger.Warn("dnssd: failed to create responder", "err", err)
		return
	}

	if _, err := responder.Add(service); err != nil {
		logger.Warn("dnssd: failed to register service", "err", err)
		return
	}

	if err := responder.Respond(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("dnssd: responder stopped", "err", err)
	}
}
