package backend

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// Connectivity subtypes logged before a transport failure is reported as
// discosync.ErrConnectivity.
const (
	connDNS     = "dns"
	connRefused = "connection_refused"
	connOther   = "connection"
)

// transportKind returns the connectivity subtype of err, or "" when err is
// not a network-layer failure.
func transportKind(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return connDNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return connRefused
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return connOther
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return connOther
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return connOther
	}
	// A connection dropped mid-response surfaces as a bare EOF.
	if isRequestError(err) && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
		return connOther
	}
	return ""
}

// isRequestError reports whether err is an HTTP client failure that never
// reached the network, such as an unsupported URL scheme.
func isRequestError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr) && !errors.Is(err, context.Canceled)
}

// classifyTransport logs and marks err as a connectivity failure when it
// comes from the network layer, or as a configuration error when the HTTP
// client rejected the request before sending it. It returns nil for anything
// else so callers can fall through to their own protocol-level mapping.
func classifyTransport(logger discosync.Logger, backend, op string, err error) error {
	kind := transportKind(err)
	if kind == "" {
		if isRequestError(err) {
			return discosync.MarkConfig(err, backend+" "+op)
		}
		return nil
	}
	logger.Error("remote unreachable", "backend", backend, "op", op, "kind", kind, "error", err)
	return discosync.MarkConnectivity(err, backend+" "+op)
}
