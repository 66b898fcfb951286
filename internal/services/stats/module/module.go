// Package module wires up the stats service
package module

import (
	"torrenthealth/internal/modkit"
	statdom "torrenthealth/internal/services/stats/domain"
	statrepo "torrenthealth/internal/services/stats/repo"
	statservice "torrenthealth/internal/services/stats/service"
)

// Ports exported by the stats module
type Ports struct {
	Stats statdom.StatsPort
}

// Module bundles the stats service behind its ports
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the stats module
func New(deps modkit.Deps) *Module {
	svc := statservice.New(deps.PG, statrepo.NewPG())
	return &Module{deps: deps, ports: Ports{Stats: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "stats" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }
