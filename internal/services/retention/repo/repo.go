// Package repo provides the retention storage implementation over Postgres
package repo

import (
	"context"

	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
	retdom "torrenthealth/internal/services/retention/domain"
)

// NewPG returns a binder over a Postgres Queryer
func NewPG() repokit.Binder[retdom.StorageRepo] {
	return repokit.BindFunc[retdom.StorageRepo](func(q repokit.Queryer) retdom.StorageRepo {
		return &pgRepo{q: q}
	})
}

type pgRepo struct{ q repokit.Queryer }

func (r *pgRepo) DeletePeersBefore(ctx context.Context, cutoff int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM peers WHERE epoch < $1`, cutoff)
	if err != nil {
		return 0, perr.FromPostgres(err, "prune peers")
	}
	return tag.RowsAffected(), nil
}

func (r *pgRepo) DeleteAvailabilityBefore(ctx context.Context, cutoff int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM tracker_availability WHERE epoch < $1`, cutoff)
	if err != nil {
		return 0, perr.FromPostgres(err, "prune tracker availability")
	}
	return tag.RowsAffected(), nil
}
