package domain

import "time"

// Game groups the inventory a bundle is drawn from. MarginPct and
// VIPWinProbability override the service defaults when non-zero.
type Game struct {
	ID                string
	Name              string
	MarginPct         float64
	VIPWinProbability float64
	CreatedAt         time.Time
}
