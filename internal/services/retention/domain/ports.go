// Package domain defines retention core ports and types
package domain

import "context"

// PruneStats summarizes one retention pass
type PruneStats struct {
	Cutoff              int64
	PeersDeleted        int64
	AvailabilityDeleted int64
}

// RunnerPort is the public entrypoint exposed by the module
type RunnerPort interface {
	// PruneOnce deletes every sample older than the retention horizon
	PruneOnce(ctx context.Context) (PruneStats, error)

	// Run prunes immediately and then on the configured cadence until
	// ctx ends
	Run(ctx context.Context) error
}

// StorageRepo encapsulates retention persistence
type StorageRepo interface {
	// DeletePeersBefore removes peer samples with epoch < cutoff
	DeletePeersBefore(ctx context.Context, cutoff int64) (int64, error)

	// DeleteAvailabilityBefore removes tracker availability rows with
	// epoch < cutoff
	DeleteAvailabilityBefore(ctx context.Context, cutoff int64) (int64, error)
}
