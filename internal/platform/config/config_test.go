package config

import (
	"testing"
	"time"
)

func TestPrefixComposition(t *testing.T) {
	t.Setenv("SAMPLER_INTERVAL", "5m")

	c := New().Prefix("SAMPLER_")
	if got := c.MayDuration("INTERVAL", time.Second); got != 5*time.Minute {
		t.Fatalf("got %v", got)
	}
}

func TestMayDefaults(t *testing.T) {
	c := New().Prefix("NOPE_")

	if got := c.MayString("MISSING", "fallback"); got != "fallback" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayInt("MISSING", 42); got != 42 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayBool("MISSING", true); !got {
		t.Fatal("MayBool default lost")
	}
	if got := c.MayDuration("MISSING", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration = %v", got)
	}
}

func TestMayInvalidFallsBack(t *testing.T) {
	t.Setenv("X_PORT", "not-a-number")
	t.Setenv("X_DEBUG", "not-a-bool")

	c := New().Prefix("X_")
	if got := c.MayInt("PORT", 8080); got != 8080 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayBool("DEBUG", false); got {
		t.Fatal("MayBool accepted garbage")
	}
}

func TestMayCSV(t *testing.T) {
	t.Setenv("API_CORS_ORIGINS", "https://a.example, https://b.example,,")

	c := New().Prefix("API_")
	got := c.MayCSV("CORS_ORIGINS", []string{"*"})
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("MayCSV = %v", got)
	}
	if def := c.MayCSV("MISSING", []string{"*"}); len(def) != 1 || def[0] != "*" {
		t.Fatalf("default = %v", def)
	}
}

func TestMustStringPanicsOnMissing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustString did not panic for missing key")
		}
	}()
	New().Prefix("DEFINITELY_NOT_SET_").MustString("DBURL")
}
