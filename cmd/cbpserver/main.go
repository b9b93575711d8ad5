package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/internal/logging"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/cbpserver"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/discovery"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
)

func main() {
	var (
		host          string
		port          int
		discoveryPort int
		certFile      string
		keyFile       string
		credsFile     string
		seed          int64
		debugLevel    string
	)
	flag.StringVar(&host, "host", "0.0.0.0", "Host to listen on")
	flag.IntVar(&port, "port", 9999, "TCP port to listen on")
	flag.IntVar(&discoveryPort, "discoveryport", 21211, "UDP discovery port")
	flag.StringVar(&certFile, "cert", "server.crt", "TLS certificate file")
	flag.StringVar(&keyFile, "key", "server.key", "TLS private key file")
	flag.StringVar(&credsFile, "creds", "", "Path to username:password credentials file (required)")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for deck shuffling (0 = random)")
	flag.StringVar(&debugLevel, "debuglevel", logging.LevelInfo, "Logging level: trace, debug, info, warn, error")
	flag.Parse()

	if credsFile == "" {
		fmt.Fprintln(os.Stderr, "missing required -creds flag")
		os.Exit(1)
	}

	logBackend := logging.NewBackend(os.Stderr, debugLevel)
	log := logBackend.Logger("CBPD")

	creds, err := loadCredentials(credsFile)
	if err != nil {
		log.Errorf("loading credentials: %v", err)
		os.Exit(1)
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		log.Errorf("loading TLS keypair: %v", err)
		os.Exit(1)
	}
	tlsConfig := &tls.Config{Certificates: []tls.Certificate{cert}}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Errorf("listening on %s: %v", addr, err)
		os.Exit(1)
	}

	srv := cbpserver.New(logBackend.Logger("CONN"), creds, protocol.DefaultTableSettings(), tlsConfig, seed)

	discAddr := net.JoinHostPort(host, strconv.Itoa(discoveryPort))
	pc, err := net.ListenPacket("udp", discAddr)
	if err != nil {
		log.Errorf("listening for discovery on %s: %v", discAddr, err)
		os.Exit(1)
	}
	responder := discovery.New(logBackend.Logger("DISCOVERY"), port)
	go func() {
		if err := responder.Serve(pc); err != nil {
			log.Warnf("discovery responder stopped: %v", err)
		}
	}()

	log.Infof("listening for connections on %s, discovery on %s", addr, discAddr)
	if err := srv.Serve(ln); err != nil {
		log.Errorf("serve error: %v", err)
		os.Exit(1)
	}
}
