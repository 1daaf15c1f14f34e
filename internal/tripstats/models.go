package tripstats

// GeoFix is one observed position sample.
type GeoFix struct {
	Latitude         float64 `json:"lat"`
	Longitude        float64 `json:"lon"`
	ObservedAtMillis int64   `json:"observed_at_ms"`
}

type FaultKind string

const (
	FaultClockRegression   FaultKind = "clock_regression"
	FaultRepeatedTimestamp FaultKind = "repeated_timestamp"
	FaultImplausibleJump   FaultKind = "implausible_jump"
	FaultNegativeDuration  FaultKind = "negative_duration"
)

// QualityFault is an advisory warning about the recorded data. The fix that
// raised it is still part of the trip.
type QualityFault struct {
	Kind     FaultKind `json:"kind"`
	FixIndex int       `json:"fix_index"`
	Detail   string    `json:"detail"`
}

// Snapshot is a derived view of a trip, recomputed on every call.
type Snapshot struct {
	PointCount      int            `json:"point_count"`
	TotalDistanceKm float64        `json:"total_distance_km"`
	StartedAtMillis int64          `json:"started_at_ms,omitempty"`
	LastFixAtMillis int64          `json:"last_fix_at_ms,omitempty"`
	DurationMinutes float64        `json:"duration_minutes"`
	AverageSpeedKmh *float64       `json:"average_speed_kmh"`
	Mode            Mode           `json:"mode"`
	Faults          []QualityFault `json:"faults,omitempty"`
}

// Empty reports whether no fix has been recorded yet.
func (s Snapshot) Empty() bool {
	return s.PointCount == 0
}

// Speed returns the average speed and whether it is defined.
func (s Snapshot) Speed() (float64, bool) {
	if s.AverageSpeedKmh == nil {
		return 0, false
	}
	return *s.AverageSpeedKmh, true
}

// Degraded reports whether any data-quality fault was flagged.
func (s Snapshot) Degraded() bool {
	return len(s.Faults) > 0
}
