package survey

import (
	"time"

	"travlysis/internal/tracking"
	"travlysis/internal/tripstats"
)

type Survey struct {
	SessionID  string  `json:"session_id,omitempty"`
	UserID     string  `json:"user_id"`
	Purpose    string  `json:"purpose"`
	Transport  string  `json:"transport"`
	DistanceKm float64 `json:"distance_km"`
}

// Receipt acknowledges a survey. InferredMode and ModeMatches are set only
// when the survey names a live tracking session with a classified mode.
type Receipt struct {
	ID           string         `json:"id"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Survey       Survey         `json:"survey"`
	Transport    tripstats.Mode `json:"transport"`
	InferredMode tripstats.Mode `json:"inferred_mode,omitempty"`
	ModeMatches  *bool          `json:"mode_matches,omitempty"`
}

type Confirmation struct {
	ConfirmedAt time.Time          `json:"confirmed_at"`
	Trips       []tracking.Summary `json:"trips"`
	Missing     []string           `json:"missing,omitempty"`
}
