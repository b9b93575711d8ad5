package cbpserver

import (
	"crypto/tls"
	"math/rand"
	"net"

	"github.com/decred/slog"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/account"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/registry"
)

// Server is the TCP/TLS acceptor and supervisor (spec section 4.3/4.5): it
// owns the shared registries and spawns one connection goroutine per
// accepted, TLS-handshaken client.
type Server struct {
	log       slog.Logger
	tlsConfig *tls.Config

	creds    account.Credentials
	accounts *account.Registry
	tables   *registry.Tables
	conns    *registry.Connections
}

// New creates a Server. creds is the static username->password table
// (spec section 3); defaultSettings seeds table 0; tlsConfig must already
// carry the server's certificate. rngSeed, if nonzero, is used to derive
// every table's deck-shuffle RNG deterministically (useful for tests);
// zero means each table's RNG is seeded from math/rand's global source.
func New(log slog.Logger, creds account.Credentials, defaultSettings protocol.TableSettings, tlsConfig *tls.Config, rngSeed int64) *Server {
	seed := rngSeed
	newRNG := func() *rand.Rand {
		if seed != 0 {
			return rand.New(rand.NewSource(seed))
		}
		return rand.New(rand.NewSource(rand.Int63()))
	}

	return &Server{
		log:       log,
		tlsConfig: tlsConfig,
		creds:     creds,
		accounts:  account.NewRegistry(),
		tables:    registry.NewTables(log, defaultSettings, newRNG),
		conns:     registry.NewConnections(),
	}
}

// Serve accepts TLS connections on ln forever, spawning one goroutine per
// client (spec section 5's "one task per accepted TLS connection"). It
// returns only when ln.Accept fails (typically because ln was closed).
func (s *Server) Serve(ln net.Listener) error {
	tlsLn := tls.NewListener(ln, s.tlsConfig)
	for {
		nc, err := tlsLn.Accept()
		if err != nil {
			return err
		}
		go s.handle(nc)
	}
}

func (s *Server) handle(nc net.Conn) {
	c := newConn(nc, s, s.log)
	c.serve()
}
