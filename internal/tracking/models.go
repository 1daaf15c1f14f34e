package tracking

import (
	"time"

	"travlysis/internal/tripstats"
)

const (
	StatusActive  = "active"
	StatusStopped = "stopped"
)

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
	Status    string    `json:"status"`
}

type TrackPoint struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Summary struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	tripstats.Snapshot
}

type PointResult struct {
	Point   TrackPoint               `json:"point"`
	Summary Summary                  `json:"summary"`
	Faults  []tripstats.QualityFault `json:"faults,omitempty"`
}
