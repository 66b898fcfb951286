// Package repo provides the stats aggregation queries over Postgres
package repo

import (
	"context"

	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/store"
	statdom "torrenthealth/internal/services/stats/domain"
)

// NewPG returns a binder over a Postgres Queryer
func NewPG() repokit.Binder[statdom.StorageRepo] {
	return repokit.BindFunc[statdom.StorageRepo](func(q repokit.Queryer) statdom.StorageRepo {
		return &pgRepo{q: q}
	})
}

type pgRepo struct{ q repokit.Queryer }

// summarySQL aggregates distinct tokens per window and source in one pass.
// LEFT JOIN keeps identifiers with no samples in the result with zero
// counts; the lateral picks the most recent DHT cycle per identifier
const summarySQL = `
SELECT
	t.hash,
	t.name,
	t.magnet,
	COUNT(DISTINCT p.hashed_ip) FILTER (WHERE p.dht AND p.epoch > $1)     AS dht_daily,
	COUNT(DISTINCT p.hashed_ip) FILTER (WHERE p.dht AND p.epoch > $2)     AS dht_weekly,
	COUNT(DISTINCT p.hashed_ip) FILTER (WHERE p.dht AND p.epoch > $3)     AS dht_monthly,
	COUNT(DISTINCT p.hashed_ip) FILTER (WHERE NOT p.dht AND p.epoch > $1) AS trk_daily,
	COUNT(DISTINCT p.hashed_ip) FILTER (WHERE NOT p.dht AND p.epoch > $2) AS trk_weekly,
	COUNT(DISTINCT p.hashed_ip) FILTER (WHERE NOT p.dht AND p.epoch > $3) AS trk_monthly,
	(
		SELECT COUNT(DISTINCT a.tracker)
		FROM tracker_availability a
		WHERE a.hash = t.hash AND a.epoch > $1
	) AS trackers_reachable,
	COALESCE(le.epoch, 0) AS latest_epoch,
	COALESCE(le.cnt, 0)   AS latest_dht
FROM torrents t
LEFT JOIN peers p ON p.hash = t.hash
LEFT JOIN LATERAL (
	SELECT p2.epoch, COUNT(DISTINCT p2.hashed_ip) AS cnt
	FROM peers p2
	WHERE p2.hash = t.hash AND p2.dht
	GROUP BY p2.epoch
	ORDER BY p2.epoch DESC
	LIMIT 1
) le ON TRUE
GROUP BY t.hash, t.name, t.magnet, le.epoch, le.cnt
`

func (r *pgRepo) Summary(ctx context.Context, cut statdom.Cutoffs) ([]statdom.TorrentStats, error) {
	out, err := store.Many(ctx, r.q, scanStats,
		summarySQL+`ORDER BY dht_daily, t.name, t.hash`,
		cut.Daily, cut.Weekly, cut.Monthly,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "summary")
	}
	return out, nil
}

func (r *pgRepo) Torrent(
	ctx context.Context, hash string, cut statdom.Cutoffs,
) (statdom.TorrentStats, error) {
	ts, err := store.One(ctx, r.q, scanStats,
		summarySQL+`HAVING t.hash = $4`,
		cut.Daily, cut.Weekly, cut.Monthly, hash,
	)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return statdom.TorrentStats{}, perr.NotFoundf("torrent %s not registered", hash)
		}
		return statdom.TorrentStats{}, perr.FromPostgres(err, "torrent stats")
	}
	return ts, nil
}

func scanStats(row store.Row) (statdom.TorrentStats, error) {
	var ts statdom.TorrentStats
	err := row.Scan(
		&ts.Hash,
		&ts.Name,
		&ts.Magnet,
		&ts.DHT.Daily, &ts.DHT.Weekly, &ts.DHT.Monthly,
		&ts.Tracker.Daily, &ts.Tracker.Weekly, &ts.Tracker.Monthly,
		&ts.TrackersReachable,
		&ts.LatestEpoch,
		&ts.LatestDHT,
	)
	return ts, err
}
