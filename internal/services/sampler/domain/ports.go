package domain

import "context"

// LookupPort is the DHT view the sampler polls.
// Lookup returns raw peer addresses (host only); an empty set is a valid
// result for an unpopular identifier and is distinct from an error
type LookupPort interface {
	Lookup(ctx context.Context, canonical string) (map[string]struct{}, error)
}

// AnnouncePort asks one tracker for its swarm view of an identifier
type AnnouncePort interface {
	Announce(ctx context.Context, trackerURL, canonical string) ([]string, error)
}

// RunnerPort is the public entrypoint exposed by the module
type RunnerPort interface {
	// Run blocks: settle delay, then periodic sampling until ctx ends
	Run(ctx context.Context) error

	// RunDHTOnce samples every identifier against the DHT under one epoch
	RunDHTOnce(ctx context.Context) (CycleStats, error)

	// RunTrackersOnce announces every identifier to its trackers under one epoch
	RunTrackersOnce(ctx context.Context) (CycleStats, error)
}

// StorageRepo encapsulates sampler persistence
type StorageRepo interface {
	// ListIdentifiers returns every registered canonical identifier
	ListIdentifiers(ctx context.Context) ([]string, error)

	// TrackersByIdentifier returns the announce endpoints per identifier
	TrackersByIdentifier(ctx context.Context) (map[string][]string, error)

	// InsertPeerSamples lands one batch of identity tokens for an epoch.
	// Re-observed tokens within the same epoch are absorbed, not errors.
	// Returns the number of rows that actually landed
	InsertPeerSamples(ctx context.Context, hash string, epoch int64, tokens []string, dht bool) (int, error)

	// MarkTrackerAvailable records that a tracker answered for an identifier
	MarkTrackerAvailable(ctx context.Context, hash string, epoch int64, tracker string) error
}
