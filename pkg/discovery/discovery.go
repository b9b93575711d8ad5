// Package discovery implements the UDP probe responder described in spec
// section 4.6: a stateless listener on the well-known discovery port that
// answers a literal "CBP" probe with the TCP service port, and ignores
// everything else. Grounded on the single-handler, connectionless shape
// of a UDP responder (see DESIGN.md for why this one component stays on
// net.PacketConn rather than a pack dependency).
package discovery

import (
	"fmt"
	"net"

	"github.com/decred/slog"
	"github.com/google/uuid"
)

// Probe is the exact datagram payload that triggers a reply (spec
// section 4.6): the 3 ASCII bytes "CBP" plus a trailing NUL, 4 bytes on
// the wire. Anything else is silently ignored.
const Probe = "CBP\x00"

// Responder answers discovery probes with the given service port.
type Responder struct {
	log         slog.Logger
	servicePort int
}

// New creates a Responder that advertises servicePort to probers.
func New(log slog.Logger, servicePort int) *Responder {
	return &Responder{log: log, servicePort: servicePort}
}

// Serve answers probes arriving on pc (a socket the caller has already
// bound, by default to UDP port 21211) forever. It returns only when the underlying socket errors out (typically
// because the listener was closed).
func (r *Responder) Serve(pc net.PacketConn) error {
	buf := make([]byte, 64)
	reply := []byte(fmt.Sprintf("%d\x00", r.servicePort))

	for {
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			return err
		}
		if string(buf[:n]) != Probe {
			continue
		}
		traceID := uuid.New()
		r.log.Debugf("[%s] probe from %s, replying with port %d", traceID, addr, r.servicePort)
		if _, err := pc.WriteTo(reply, addr); err != nil {
			r.log.Warnf("[%s] reply to %s failed: %v", traceID, addr, err)
		}
	}
}
