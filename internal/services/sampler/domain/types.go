// Package domain defines sampler core ports and types
package domain

// CycleStats summarizes one sampling pass for logging and tests
type CycleStats struct {
	Epoch       int64
	Identifiers int
	Failed      int
	Peers       int
	Inserted    int
}
