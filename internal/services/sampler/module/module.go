// Package module wires up the sampler service with its network adapters
package module

import (
	"context"
	"net"
	"time"

	"torrenthealth/internal/adapters/dht"
	"torrenthealth/internal/adapters/trackers"
	"torrenthealth/internal/core/anonymize"
	"torrenthealth/internal/modkit"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/logger"
	samdom "torrenthealth/internal/services/sampler/domain"
	samrepo "torrenthealth/internal/services/sampler/repo"
	samservice "torrenthealth/internal/services/sampler/service"
)

// Ports exported by the sampler module
type Ports struct {
	Runner samdom.RunnerPort
}

// Module bundles the sampler service and owns the DHT node lifecycle
type Module struct {
	deps  modkit.Deps
	ports Ports
	node  *dht.Node
}

// New constructs and wires the sampler module. Configuration problems
// (missing salt, unbindable port) are returned and are fatal at startup
func New(deps modkit.Deps) (*Module, error) {
	opts := FromConfig(deps.Cfg)

	salt, err := anonymize.LoadSaltFile(opts.SaltFile)
	if err != nil {
		return nil, err
	}
	anon, err := anonymize.New(salt)
	if err != nil {
		return nil, err
	}

	node, err := dht.Open(dht.Config{
		Port:          opts.DHTPort,
		LookupTimeout: opts.LookupTimeout,
	}, *logger.Named("dht"))
	if err != nil {
		return nil, err
	}

	self, err := selfAddress(opts, deps.Log)
	if err != nil {
		return nil, err
	}
	trk := trackers.New(opts.TrackerTimeout, self, *logger.Named("trackers"))

	svc := samservice.New(
		deps.PG,
		samrepo.NewPG(),
		node,
		trk,
		anon,
		samservice.Config{
			Settle:          opts.Settle,
			Interval:        opts.Interval,
			TrackerInterval: opts.TrackerInterval,
		},
		deps.Log,
	)

	return &Module{deps: deps, ports: Ports{Runner: svc}, node: node}, nil
}

// selfAddress resolves the scraper's own public IP for the tracker self
// filter: pinned by config, otherwise discovered. Discovery failure only
// costs the filter, never startup
func selfAddress(opts Options, log logger.Logger) (net.IP, error) {
	if opts.PublicIP != "" {
		ip := net.ParseIP(opts.PublicIP)
		if ip == nil {
			return nil, perr.Configf("SAMPLER_PUBLIC_IP %q is not an ip address", opts.PublicIP)
		}
		return ip, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ip, err := trackers.DiscoverPublicIP(ctx, trackers.DefaultIPEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("sampler: own public ip unknown; tracker peer sets stay unfiltered")
		return nil, nil
	}
	log.Info().Str("ip", ip.String()).Msg("sampler: filtering own address from tracker samples")
	return ip, nil
}

// Name returns the module name
func (m *Module) Name() string { return "sampler" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }

// Close releases the DHT socket
func (m *Module) Close() error { return m.node.Close() }
