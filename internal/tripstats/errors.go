package tripstats

import "fmt"

// InvalidFixError is returned when a fix has out-of-range or non-finite
// coordinates. The engine state is left untouched.
type InvalidFixError struct {
	Fix    GeoFix
	Reason string
}

func (e *InvalidFixError) Error() string {
	return fmt.Sprintf("invalid fix (%v, %v): %s", e.Fix.Latitude, e.Fix.Longitude, e.Reason)
}

// InvalidSpeedError is returned by GuessMode for negative or non-finite speeds.
type InvalidSpeedError struct {
	SpeedKmh float64
}

func (e *InvalidSpeedError) Error() string {
	return fmt.Sprintf("invalid speed %v km/h: must be finite and non-negative", e.SpeedKmh)
}
