package repo

import (
	"context"

	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
)

// schema holds the time-series tables. Idempotent; run at startup.
//
// peers is append-only: one row per (identifier, epoch, token). The partial
// identity of a peer lives entirely in hashed_ip; raw addresses never land
const schema = `
CREATE TABLE IF NOT EXISTS peers (
	hash      TEXT    NOT NULL,
	epoch     BIGINT  NOT NULL,
	hashed_ip TEXT    NOT NULL,
	dht       BOOLEAN NOT NULL,
	UNIQUE (hash, epoch, hashed_ip)
);

CREATE INDEX IF NOT EXISTS peers_hash_epoch_idx ON peers (hash, epoch);

CREATE TABLE IF NOT EXISTS tracker_availability (
	hash    TEXT   NOT NULL,
	epoch   BIGINT NOT NULL,
	tracker TEXT   NOT NULL,
	UNIQUE (hash, epoch, tracker)
);
`

// EnsureSchema creates the sampler tables when missing
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, schema); err != nil {
		return perr.FromPostgres(err, "ensure sampler schema")
	}
	return nil
}
