// Package repo provides the sampler storage implementation over Postgres
package repo

import (
	"context"

	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/store"
	samdom "torrenthealth/internal/services/sampler/domain"
)

// NewPG returns a binder over a Postgres Queryer
func NewPG() repokit.Binder[samdom.StorageRepo] {
	return repokit.BindFunc[samdom.StorageRepo](func(q repokit.Queryer) samdom.StorageRepo {
		return &pgRepo{q: q}
	})
}

type pgRepo struct{ q repokit.Queryer }

func (r *pgRepo) ListIdentifiers(ctx context.Context) ([]string, error) {
	out, err := store.Many(ctx, r.q, scanString, `
		SELECT hash
		FROM torrents
		ORDER BY hash`,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "list identifiers")
	}
	return out, nil
}

func (r *pgRepo) TrackersByIdentifier(ctx context.Context) (map[string][]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT hash, tracker
		FROM trackers
		ORDER BY hash, tracker`,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "list trackers")
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var hash, tracker string
		if err := rows.Scan(&hash, &tracker); err != nil {
			return nil, perr.FromPostgres(err, "scan tracker row")
		}
		out[hash] = append(out[hash], tracker)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPostgres(err, "iterate tracker rows")
	}
	return out, nil
}

// InsertPeerSamples lands one identifier's tokens for an epoch in a single
// statement. ON CONFLICT absorbs tokens already seen this epoch, so the
// distinct-count semantics hold no matter how often a peer is re-observed
func (r *pgRepo) InsertPeerSamples(
	ctx context.Context, hash string, epoch int64, tokens []string, dht bool,
) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO peers (hash, epoch, hashed_ip, dht)
		SELECT $1, $2, unnest($3::text[]), $4
		ON CONFLICT (hash, epoch, hashed_ip) DO NOTHING`,
		hash, epoch, tokens, dht,
	)
	if err != nil {
		return 0, perr.FromPostgres(err, "insert peer samples")
	}
	return int(tag.RowsAffected()), nil
}

func (r *pgRepo) MarkTrackerAvailable(ctx context.Context, hash string, epoch int64, tracker string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tracker_availability (hash, epoch, tracker)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash, epoch, tracker) DO NOTHING`,
		hash, epoch, tracker,
	)
	if err != nil {
		return perr.FromPostgres(err, "mark tracker available")
	}
	return nil
}

func scanString(row store.Row) (string, error) {
	var s string
	err := row.Scan(&s)
	return s, err
}
