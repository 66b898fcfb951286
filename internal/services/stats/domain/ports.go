package domain

import "context"

// StatsPort is the public read surface exposed by the stats module
type StatsPort interface {
	// Summary returns every identifier's window counts, ordered by
	// ascending daily DHT count so the least healthy torrents lead
	Summary(ctx context.Context) ([]TorrentStats, error)

	// Torrent returns one identifier's window counts; hex and base32
	// forms are accepted
	Torrent(ctx context.Context, hash string) (TorrentStats, error)
}

// StorageRepo encapsulates the aggregation queries
type StorageRepo interface {
	Summary(ctx context.Context, cut Cutoffs) ([]TorrentStats, error)
	Torrent(ctx context.Context, hash string, cut Cutoffs) (TorrentStats, error)
}
