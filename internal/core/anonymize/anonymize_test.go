package anonymize

import (
	"os"
	"path/filepath"
	"testing"

	perr "torrenthealth/internal/platform/errors"
)

func TestToken_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := New("pepper")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t1 := a.Token("203.0.113.7")
	t2 := a.Token("203.0.113.7")
	if t1 != t2 {
		t.Fatalf("same input produced different tokens: %s vs %s", t1, t2)
	}
	if len(t1) != TokenLen {
		t.Fatalf("token length = %d, want %d", len(t1), TokenLen)
	}
}

func TestToken_SaltChangesEveryToken(t *testing.T) {
	t.Parallel()

	a1, _ := New("salt-one")
	a2, _ := New("salt-two")

	for _, addr := range []string{"203.0.113.7", "198.51.100.9", "2001:db8::1"} {
		if a1.Token(addr) == a2.Token(addr) {
			t.Fatalf("token for %s unchanged across salts", addr)
		}
	}
}

func TestToken_DistinctAddresses(t *testing.T) {
	t.Parallel()

	a, _ := New("pepper")
	if a.Token("203.0.113.7") == a.Token("203.0.113.8") {
		t.Fatal("distinct addresses collided")
	}
}

func TestTokens_SetSemantics(t *testing.T) {
	t.Parallel()

	a, _ := New("pepper")
	in := map[string]struct{}{"a": {}, "b": {}}
	out := a.Tokens(in)
	if len(out) != 2 {
		t.Fatalf("got %d tokens, want 2", len(out))
	}
}

func TestNew_EmptySalt(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil || !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("expected Config error for empty salt, got %v", err)
	}
}

func TestLoadSaltFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".salt")
	if err := os.WriteFile(path, []byte("s3cret\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	salt, err := LoadSaltFile(path)
	if err != nil {
		t.Fatalf("LoadSaltFile: %v", err)
	}
	if salt != "s3cret" {
		t.Fatalf("salt = %q, want trailing newline stripped", salt)
	}

	if _, err := LoadSaltFile(filepath.Join(dir, "missing")); err == nil || !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("expected Config error for missing file, got %v", err)
	}

	empty := filepath.Join(dir, "empty")
	_ = os.WriteFile(empty, []byte("\n"), 0o600)
	if _, err := LoadSaltFile(empty); err == nil || !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("expected Config error for empty file, got %v", err)
	}
}
