package domain

import (
	"context"
	"io"
)

// RegistryPort is the public surface exposed by the registry module
type RegistryPort interface {
	// Add registers one torrent from its magnet link (idempotent)
	Add(ctx context.Context, in AddInput) (Torrent, error)

	// ImportCSV bulk-registers torrents from a name,magnet CSV stream.
	// Bad rows are counted and skipped, never fatal
	ImportCSV(ctx context.Context, r io.Reader) (ImportStats, error)

	// List returns every registered torrent, ordered by name
	List(ctx context.Context) ([]Torrent, error)

	// Get returns one torrent by canonical identifier
	Get(ctx context.Context, hash string) (Torrent, error)

	// TrackersFor returns the announce endpoints known for an identifier
	TrackersFor(ctx context.Context, hash string) ([]string, error)
}

// StorageRepo encapsulates registry persistence
type StorageRepo interface {
	// UpsertTorrent inserts the torrent if new; reports whether a row landed
	UpsertTorrent(ctx context.Context, t Torrent) (bool, error)

	// UpsertTrackers inserts any trackers not already known for the hash
	UpsertTrackers(ctx context.Context, hash string, trackers []string) (int, error)

	ListTorrents(ctx context.Context) ([]Torrent, error)
	GetTorrent(ctx context.Context, hash string) (Torrent, error)
	ListTrackers(ctx context.Context, hash string) ([]string, error)
}
