package infohash

import (
	"strings"
	"testing"

	perr "torrenthealth/internal/platform/errors"
)

const wantHex = "614797344a302a0a909f312df68e918a158ae0ad"

// base32 of the same 20 bytes
const wantB32 = "MFDZONCKGAVAVEE7GEW7NDURRIKYVYFN"

func TestParse_Hex(t *testing.T) {
	t.Parallel()

	h, err := Parse(wantHex)
	if err != nil {
		t.Fatalf("Parse(hex): %v", err)
	}
	if h.Hex() != wantHex {
		t.Fatalf("round trip mismatch: got %s want %s", h.Hex(), wantHex)
	}
}

func TestParse_HexUppercaseRejected(t *testing.T) {
	t.Parallel()

	// uppercase hex still decodes; canonical form must come out lowercase
	got, err := Canonical(strings.ToUpper(wantHex))
	if err != nil {
		t.Fatalf("Canonical(upper hex): %v", err)
	}
	if got != wantHex {
		t.Fatalf("canonical not lowercase: %s", got)
	}
}

func TestParse_Base32(t *testing.T) {
	t.Parallel()

	got, err := Canonical(wantB32)
	if err != nil {
		t.Fatalf("Canonical(b32): %v", err)
	}
	if got != wantHex {
		t.Fatalf("base32 decode mismatch: got %s want %s", got, wantHex)
	}

	// lowercase base32 is accepted too
	got, err = Canonical(strings.ToLower(wantB32))
	if err != nil {
		t.Fatalf("Canonical(lower b32): %v", err)
	}
	if got != wantHex {
		t.Fatalf("lower base32 mismatch: got %s", got)
	}
}

func TestParse_BadLength(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "abc1234567", strings.Repeat("a", 39), strings.Repeat("a", 41)} {
		_, err := Parse(in)
		if err == nil {
			t.Fatalf("Parse(%q): expected error", in)
		}
		if !perr.IsCode(err, perr.ErrorCodeInvalidIdentifier) {
			t.Fatalf("Parse(%q): code = %v, want InvalidIdentifier", in, perr.CodeOf(err))
		}
	}
}

func TestParse_BadCharacters(t *testing.T) {
	t.Parallel()

	bad := strings.Repeat("z", HexLen) // z is not hex
	if _, err := Parse(bad); err == nil || !perr.IsCode(err, perr.ErrorCodeInvalidIdentifier) {
		t.Fatalf("expected InvalidIdentifier for non-hex input, got %v", err)
	}

	bad = strings.Repeat("1", B32Len) // 1 is not in the base32 alphabet
	if _, err := Parse(bad); err == nil || !perr.IsCode(err, perr.ErrorCodeInvalidIdentifier) {
		t.Fatalf("expected InvalidIdentifier for non-base32 input, got %v", err)
	}
}
