package tripstats

import (
	"fmt"
	"math"
	"strings"
)

type Mode string

const (
	ModeWalking Mode = "Walking"
	ModeCycling Mode = "Cycling"
	ModeCar     Mode = "Car"
	ModeOther   Mode = "Other"
	ModeUnknown Mode = "Unknown"
)

const (
	cyclingFromKmh = 5.0
	carFromKmh     = 15.0
	otherFromKmh   = 50.0
)

// GuessMode classifies an average speed. Lower bounds are inclusive.
func GuessMode(speedKmh float64) (Mode, error) {
	if math.IsNaN(speedKmh) || math.IsInf(speedKmh, 0) || speedKmh < 0 {
		return ModeUnknown, &InvalidSpeedError{SpeedKmh: speedKmh}
	}
	switch {
	case speedKmh < cyclingFromKmh:
		return ModeWalking, nil
	case speedKmh < carFromKmh:
		return ModeCycling, nil
	case speedKmh < otherFromKmh:
		return ModeCar, nil
	default:
		return ModeOther, nil
	}
}

// ParseMode accepts a classified mode name in any case. Unknown is rejected.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeWalking, ModeCycling, ModeCar, ModeOther} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return ModeUnknown, fmt.Errorf("unknown transport mode %q", s)
}
