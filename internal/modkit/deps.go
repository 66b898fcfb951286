// Package modkit provides service wiring and core deps
package modkit

import (
	"torrenthealth/internal/modkit/repokit"
	"torrenthealth/internal/platform/config"
	"torrenthealth/internal/platform/logger"
)

// Deps holds core dependencies passed to services
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
}
