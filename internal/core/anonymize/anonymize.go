// Package anonymize turns raw peer addresses into opaque identity tokens.
//
// Tokens are the only peer identity this system ever persists. The transform
// is a salted SHA-256: deterministic for a fixed salt, with no practical
// inverse. Rotating the salt severs identity linkage across the rotation
// point; that is the accepted tradeoff and distinct counts spanning a
// rotation will overcount. The salt itself must never be logged or stored
package anonymize

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	perr "torrenthealth/internal/platform/errors"
)

// TokenLen is the length of a rendered token (hex SHA-256)
const TokenLen = 64

// Anonymizer carries the process-lifetime salt
type Anonymizer struct {
	salt string
}

// New builds an Anonymizer around a non-empty salt
func New(salt string) (Anonymizer, error) {
	if salt == "" {
		return Anonymizer{}, perr.Configf("anonymizer salt is empty")
	}
	return Anonymizer{salt: salt}, nil
}

// Token maps a raw network address to its opaque identity token
func (a Anonymizer) Token(rawAddr string) string {
	sum := sha256.Sum256([]byte(rawAddr + a.salt))
	return hex.EncodeToString(sum[:])
}

// Tokens maps a set of raw addresses to the set of their tokens
func (a Anonymizer) Tokens(rawAddrs map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(rawAddrs))
	for addr := range rawAddrs {
		out[a.Token(addr)] = struct{}{}
	}
	return out
}

// LoadSaltFile reads the salt from a protected local file.
// A missing or empty file is a startup configuration error
func LoadSaltFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeConfig, "cannot read salt file %s", path)
	}
	salt := strings.TrimRight(string(b), "\r\n")
	if salt == "" {
		return "", perr.Configf("salt file %s is empty", path)
	}
	return salt, nil
}
