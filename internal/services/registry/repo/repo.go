// Package repo provides the registry storage implementation over Postgres
package repo

import (
	"context"

	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/store"
	regdom "torrenthealth/internal/services/registry/domain"
)

// NewPG returns a binder over a Postgres Queryer
func NewPG() repokit.Binder[regdom.StorageRepo] {
	return repokit.BindFunc[regdom.StorageRepo](func(q repokit.Queryer) regdom.StorageRepo {
		return &pgRepo{q: q}
	})
}

type pgRepo struct{ q repokit.Queryer }

func (r *pgRepo) UpsertTorrent(ctx context.Context, t regdom.Torrent) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO torrents (hash, name, magnet)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO NOTHING`,
		t.Hash, t.Name, t.Magnet,
	)
	if err != nil {
		return false, perr.FromPostgres(err, "upsert torrent")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgRepo) UpsertTrackers(ctx context.Context, hash string, trackers []string) (int, error) {
	added := 0
	for _, tr := range trackers {
		tag, err := r.q.Exec(ctx, `
			INSERT INTO trackers (hash, tracker)
			VALUES ($1, $2)
			ON CONFLICT (hash, tracker) DO NOTHING`,
			hash, tr,
		)
		if err != nil {
			return added, perr.FromPostgres(err, "upsert tracker")
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

func (r *pgRepo) ListTorrents(ctx context.Context) ([]regdom.Torrent, error) {
	out, err := store.Many(ctx, r.q, scanTorrent, `
		SELECT hash, name, magnet
		FROM torrents
		ORDER BY name, hash`,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "list torrents")
	}
	return out, nil
}

func (r *pgRepo) GetTorrent(ctx context.Context, hash string) (regdom.Torrent, error) {
	t, err := store.One(ctx, r.q, scanTorrent, `
		SELECT hash, name, magnet
		FROM torrents
		WHERE hash = $1`,
		hash,
	)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return regdom.Torrent{}, perr.NotFoundf("torrent %s not registered", hash)
		}
		return regdom.Torrent{}, perr.FromPostgres(err, "get torrent")
	}
	return t, nil
}

func (r *pgRepo) ListTrackers(ctx context.Context, hash string) ([]string, error) {
	out, err := store.Many(ctx, r.q, func(row store.Row) (string, error) {
		var tr string
		err := row.Scan(&tr)
		return tr, err
	}, `
		SELECT tracker
		FROM trackers
		WHERE hash = $1
		ORDER BY tracker`,
		hash,
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "list trackers")
	}
	return out, nil
}

func scanTorrent(row store.Row) (regdom.Torrent, error) {
	var t regdom.Torrent
	err := row.Scan(&t.Hash, &t.Name, &t.Magnet)
	return t, err
}
