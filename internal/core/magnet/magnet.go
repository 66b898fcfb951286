// Package magnet parses magnet links into the fields the registry keeps
package magnet

import (
	"net/url"
	"strings"

	"torrenthealth/internal/core/infohash"
	perr "torrenthealth/internal/platform/errors"
)

// Link is the parsed view of a magnet URI
type Link struct {
	// InfoHash is the canonical lowercase-hex identifier
	InfoHash string

	// DisplayName is the dn= param, may be empty
	DisplayName string

	// Trackers are the tr= announce endpoints in link order, deduplicated
	Trackers []string
}

// Parse extracts the info-hash and announce endpoints from a magnet URI.
// Both the 40-hex and the legacy 32-base32 urn:btih forms are accepted;
// the returned InfoHash is always canonical lowercase hex
func Parse(raw string) (Link, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Link{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "unparseable magnet link")
	}
	if u.Scheme != "magnet" {
		return Link{}, perr.InvalidArgf("not a magnet link (scheme %q)", u.Scheme)
	}

	q := u.Query()

	var hash string
	for _, xt := range q["xt"] {
		if enc, ok := strings.CutPrefix(xt, "urn:btih:"); ok {
			canon, err := infohash.Canonical(enc)
			if err != nil {
				return Link{}, err
			}
			hash = canon
			break
		}
	}
	if hash == "" {
		return Link{}, perr.InvalidArgf("magnet link has no urn:btih exact topic")
	}

	seen := make(map[string]struct{})
	var trackers []string
	for _, tr := range q["tr"] {
		tr = strings.TrimSpace(tr)
		if tr == "" {
			continue
		}
		if _, dup := seen[tr]; dup {
			continue
		}
		seen[tr] = struct{}{}
		trackers = append(trackers, tr)
	}

	return Link{
		InfoHash:    hash,
		DisplayName: q.Get("dn"),
		Trackers:    trackers,
	}, nil
}
