// Package trackers adapts BitTorrent tracker announces (HTTP and UDP) into
// the peer lookup port the sampler consumes
package trackers

import (
	"context"
	"crypto/rand"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/anacrolix/torrent/tracker"

	"torrenthealth/internal/core/infohash"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/logger"
)

// announcePort is the port we claim to be reachable on. We never seed, so
// this is advisory only; trackers still return their swarm view
const announcePort = 6881

// DefaultIPEndpoint answers a plain GET with the caller's public address
// in the response body
const DefaultIPEndpoint = "https://api.ipify.org"

// Client issues announces against arbitrary tracker endpoints.
// One Client is shared by all torrents; the peer id is fixed per process
type Client struct {
	log     logger.Logger
	peerID  [20]byte
	self    net.IP
	timeout time.Duration
}

// New builds a Client with a fresh BEP 20 style peer id. self is the
// scraper's own public address; nil disables the self filter
func New(timeout time.Duration, self net.IP, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{log: log, self: self, timeout: timeout}
	copy(c.peerID[:], "-TH0001-")
	if _, err := rand.Read(c.peerID[8:]); err != nil {
		// crypto/rand failure is unrecoverable at this scale; a fixed
		// suffix still yields a valid announce
		log.Warn().Err(err).Msg("trackers: random peer id suffix unavailable")
	}
	return c
}

// DiscoverPublicIP asks an echo endpoint which address we announce from,
// so the Client can drop it from peer sets. Failure is not fatal; the
// caller just samples unfiltered
func DiscoverPublicIP(ctx context.Context, endpoint string) (net.IP, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeLookupFailure, "public ip request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeLookupFailure, "public ip lookup via %s", endpoint)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, perr.LookupFailuref("public ip lookup via %s: status %d", endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeLookupFailure, "public ip read")
	}
	ip := net.ParseIP(strings.TrimSpace(string(body)))
	if ip == nil {
		return nil, perr.LookupFailuref("public ip lookup via %s: body is not an address", endpoint)
	}
	return ip, nil
}

// Announce asks one tracker for its swarm view of the given canonical
// identifier and returns the peer addresses (host only, no port)
func (c *Client) Announce(ctx context.Context, trackerURL, canonical string) ([]string, error) {
	h, err := infohash.Parse(canonical)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := tracker.Announce{
		TrackerUrl: trackerURL,
		Context:    ctx,
		Request: tracker.AnnounceRequest{
			InfoHash: [infohash.Size]byte(h),
			PeerId:   c.peerID,
			Port:     announcePort,
			NumWant:  -1,
			Left:     -1,
		},
	}.Do()
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeLookupFailure, "announce to %s", trackerURL)
	}

	addrs := make([]string, 0, len(resp.Peers))
	for _, p := range resp.Peers {
		if !c.keep(p.IP) {
			continue
		}
		addrs = append(addrs, p.IP.String())
	}
	return addrs, nil
}

// keep drops non-routable addresses and the scraper's own public address.
// Trackers echo the announcer back, which would otherwise record us as a
// phantom peer in every sample
func (c *Client) keep(ip net.IP) bool {
	return publicIP(ip) && !ip.Equal(c.self)
}

func publicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return !(ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast())
}
