// Package module wires up the registry service
package module

import (
	"torrenthealth/internal/modkit"
	regdom "torrenthealth/internal/services/registry/domain"
	regrepo "torrenthealth/internal/services/registry/repo"
	regservice "torrenthealth/internal/services/registry/service"
)

// Ports exported by the registry module
type Ports struct {
	Registry regdom.RegistryPort
}

// Module bundles the registry service behind its ports
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the registry module
func New(deps modkit.Deps) *Module {
	svc := regservice.New(deps.PG, regrepo.NewPG(), deps.Log)
	return &Module{deps: deps, ports: Ports{Registry: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "registry" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }
