// Package domain defines stats core ports and types
package domain

// Window lengths in seconds, matching the reporting periods the
// availability views are built around
const (
	DailyWindow   = int64(86_400)
	WeeklyWindow  = int64(604_800)
	MonthlyWindow = int64(2_592_000)
)

// Cutoffs are epoch lower bounds for each reporting window
type Cutoffs struct {
	Daily   int64
	Weekly  int64
	Monthly int64
}

// WindowCounts are distinct-peer counts per reporting window
type WindowCounts struct {
	Daily   int64 `json:"daily"`
	Weekly  int64 `json:"weekly"`
	Monthly int64 `json:"monthly"`
}

// TorrentStats is the availability picture for one identifier.
// Identifiers with no samples report zeroes, never disappear
type TorrentStats struct {
	Hash   string `json:"hash"`
	Name   string `json:"name"`
	Magnet string `json:"magnet"`

	// DHT and Tracker are kept as independent series; the two sampling
	// paths see different swarm slices and merging them would hide that
	DHT     WindowCounts `json:"dht"`
	Tracker WindowCounts `json:"tracker"`

	// TrackersReachable counts distinct trackers that answered in the
	// daily window
	TrackersReachable int64 `json:"trackers_reachable"`

	// LatestEpoch and LatestDHT describe the most recent DHT cycle that
	// produced samples for this identifier
	LatestEpoch int64 `json:"latest_epoch"`
	LatestDHT   int64 `json:"latest_dht"`
}
