// Package dht adapts an embedded mainline DHT node into the peer lookup
// port the sampler consumes.
//
// One node is opened per process and shared across lookups. The node joins
// the routing table in the background; callers are expected to allow a
// settle period before the first lookup so results are not starved by an
// empty table
package dht

import (
	"context"
	"fmt"
	"net"
	"time"

	adht "github.com/anacrolix/dht/v2"

	"torrenthealth/internal/core/infohash"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/logger"
)

// Config controls the embedded node
type Config struct {
	// Port is the local UDP port to bind; 0 lets the kernel pick
	Port int

	// LookupTimeout caps a single get_peers traversal
	LookupTimeout time.Duration
}

// Node wraps the embedded DHT server
type Node struct {
	log     logger.Logger
	srv     *adht.Server
	timeout time.Duration
}

// Open binds the UDP socket, starts the node, and kicks off bootstrap
// in the background
func Open(cfg Config, log logger.Logger) (*Node, error) {
	sc := adht.NewDefaultServerConfig()

	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "bind dht udp port %d", cfg.Port)
	}
	sc.Conn = conn

	srv, err := adht.NewServer(sc)
	if err != nil {
		_ = conn.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "start dht node")
	}

	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	n := &Node{log: log, srv: srv, timeout: timeout}

	go func() {
		stats, err := srv.Bootstrap()
		if err != nil {
			log.Warn().Err(err).Msg("dht: bootstrap failed; relying on inbound traffic to fill table")
			return
		}
		log.Info().
			Int("nodes", srv.NumNodes()).
			Interface("stats", stats).
			Msg("dht: bootstrap complete")
	}()

	return n, nil
}

// Lookup runs a get_peers traversal for the given canonical identifier and
// returns the set of peer addresses (host only, no port) observed.
//
// An empty set is a valid outcome for an unpopular identifier. Errors are
// reported only when the traversal itself could not run
func (n *Node) Lookup(ctx context.Context, canonical string) (map[string]struct{}, error) {
	h, err := infohash.Parse(canonical)
	if err != nil {
		return nil, err
	}

	// Port 0 / impliedPort false: observe only, never announce ourselves
	a, err := n.srv.Announce([infohash.Size]byte(h), 0, false)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeLookupFailure, "dht traversal for %s", canonical)
	}
	defer a.Close()

	deadline := time.NewTimer(n.timeout)
	defer deadline.Stop()

	addrs := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return nil, perr.Wrapf(ctx.Err(), perr.ErrorCodeLookupFailure, "dht traversal for %s interrupted", canonical)
		case <-deadline.C:
			return addrs, nil
		case pv, ok := <-a.Peers:
			if !ok {
				return addrs, nil
			}
			for _, p := range pv.Peers {
				host, _, err := net.SplitHostPort(p.String())
				if err != nil {
					continue
				}
				addrs[host] = struct{}{}
			}
		}
	}
}

// NumNodes reports the current routing table size, for health logging
func (n *Node) NumNodes() int { return n.srv.NumNodes() }

// Close shuts the node down and releases the socket
func (n *Node) Close() error {
	n.srv.Close()
	return nil
}
