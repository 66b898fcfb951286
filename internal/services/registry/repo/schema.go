package repo

import (
	"context"

	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
)

// schema holds the registry tables. Idempotent; run at startup
const schema = `
CREATE TABLE IF NOT EXISTS torrents (
	hash   TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	magnet TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trackers (
	hash    TEXT NOT NULL REFERENCES torrents(hash) ON DELETE CASCADE,
	tracker TEXT NOT NULL,
	UNIQUE (hash, tracker)
);
`

// EnsureSchema creates the registry tables when missing
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, schema); err != nil {
		return perr.FromPostgres(err, "ensure registry schema")
	}
	return nil
}
