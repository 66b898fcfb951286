// Package infohash normalizes BitTorrent info-hash encodings.
//
// Tracked identifiers arrive in one of two legacy encodings: the common
// 40-character hex form, or the older 32-character base-32 form still found
// in magnet links from some indexers. Both decode to the same 20 raw bytes.
// The canonical storage form everywhere in this system is lowercase hex
package infohash

import (
	"encoding/base32"
	"encoding/hex"
	"strings"

	perr "torrenthealth/internal/platform/errors"
)

// Size is the raw info-hash length in bytes (SHA-1)
const Size = 20

// Hash is a raw 20-byte info-hash
type Hash [Size]byte

// HexLen and B32Len are the two accepted text encodings' lengths
const (
	HexLen = 40
	B32Len = 32
)

// Parse decodes a 40-hex or 32-base32 identifier into a raw Hash.
// Any other length or undecodable input yields an invalid-identifier error
func Parse(s string) (Hash, error) {
	var h Hash
	switch len(s) {
	case HexLen:
		b, err := hex.DecodeString(s)
		if err != nil {
			return h, perr.InvalidIdentifierf("info hash %q is not valid hex", s)
		}
		copy(h[:], b)
		return h, nil
	case B32Len:
		b, err := base32.StdEncoding.DecodeString(strings.ToUpper(s))
		if err != nil || len(b) != Size {
			return h, perr.InvalidIdentifierf("info hash %q is not valid base32", s)
		}
		copy(h[:], b)
		return h, nil
	default:
		return h, perr.InvalidIdentifierf("info hash %q has invalid length %d", s, len(s))
	}
}

// Canonical normalizes either accepted encoding to lowercase hex
func Canonical(s string) (string, error) {
	h, err := Parse(s)
	if err != nil {
		return "", err
	}
	return h.Hex(), nil
}

// Hex renders the canonical lowercase hex form
func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

// Bytes returns the raw 20 bytes
func (h Hash) Bytes() [Size]byte { return [Size]byte(h) }
