// Package domain defines registry core ports and types
package domain

// Torrent is one tracked identifier and its display metadata
type Torrent struct {
	Hash   string `json:"hash"`
	Name   string `json:"name"`
	Magnet string `json:"magnet"`
}

// AddInput is the payload for registering a torrent
type AddInput struct {
	// Name is optional; the magnet display name is used when empty
	Name   string `json:"name" validate:"omitempty,max=512"`
	Magnet string `json:"magnet" validate:"required"`
}

// ImportStats summarizes a bulk CSV import
type ImportStats struct {
	Rows    int `json:"rows"`
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}
