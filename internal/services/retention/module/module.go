// Package module wires up the retention service
package module

import (
	"time"

	"torrenthealth/internal/modkit"
	retdom "torrenthealth/internal/services/retention/domain"
	retrepo "torrenthealth/internal/services/retention/repo"
	retservice "torrenthealth/internal/services/retention/service"
)

// Ports exported by the retention module
type Ports struct {
	Runner retdom.RunnerPort
}

// Module bundles the retention service behind its ports
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the retention module
func New(deps modkit.Deps) *Module {
	c := deps.Cfg.Prefix("RETENTION_")
	svc := retservice.New(deps.PG, retrepo.NewPG(), retservice.Config{
		Horizon:  c.MayDuration("HORIZON", 0), // 0 falls back to the monthly window
		Interval: c.MayDuration("INTERVAL", 24*time.Hour),
	}, deps.Log)
	return &Module{deps: deps, ports: Ports{Runner: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "retention" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }
