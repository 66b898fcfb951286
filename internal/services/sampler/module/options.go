package module

import (
	"time"

	"torrenthealth/internal/platform/config"
)

// Options captures the sampler knobs read from SAMPLER_* env
type Options struct {
	SaltFile        string
	Settle          time.Duration
	Interval        time.Duration
	TrackerInterval time.Duration
	TrackerTimeout  time.Duration
	DHTPort         int
	LookupTimeout   time.Duration

	// PublicIP pins the scraper's own address for the tracker self
	// filter; empty means discover it at startup
	PublicIP string
}

// FromConfig reads Options with the original cadence as defaults
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("SAMPLER_")
	return Options{
		SaltFile:        c.MustString("SALT_FILE"),
		Settle:          c.MayDuration("SETTLE", 60*time.Second),
		Interval:        c.MayDuration("INTERVAL", 5*time.Minute),
		TrackerInterval: c.MayDuration("TRACKER_INTERVAL", 5*time.Minute),
		TrackerTimeout:  c.MayDuration("TRACKER_TIMEOUT", 15*time.Second),
		DHTPort:         c.MayInt("DHT_PORT", 0),
		LookupTimeout:   c.MayDuration("LOOKUP_TIMEOUT", 30*time.Second),
		PublicIP:        c.MayString("PUBLIC_IP", ""),
	}
}
