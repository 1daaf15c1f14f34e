// Package tripstats accumulates distance, duration, speed and an inferred
// transport mode from a stream of position fixes belonging to one trip.
package tripstats

import (
	"fmt"
	"math"

	"travlysis/internal/shared/geo"
)

// DefaultSpeedCeilingKmh is the implied speed between two fixes above which a
// jump is flagged as implausible.
const DefaultSpeedCeilingKmh = 500.0

const millisPerMinute = 60000.0

// Engine holds the state of a single trip. It is not safe for concurrent use.
type Engine struct {
	fixes           []GeoFix
	totalDistanceKm float64
	faults          []QualityFault
	speedCeilingKmh float64
}

type Option func(*Engine)

// WithSpeedCeiling overrides DefaultSpeedCeilingKmh. Non-positive values are ignored.
func WithSpeedCeiling(kmh float64) Option {
	return func(e *Engine) {
		if kmh > 0 && !math.IsInf(kmh, 0) {
			e.speedCeilingKmh = kmh
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{speedCeilingKmh: DefaultSpeedCeilingKmh}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GreatCircleDistanceKm is the haversine distance between two fixes.
func GreatCircleDistanceKm(a, b GeoFix) float64 {
	return geo.HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// RecordFix appends a fix and adds the distance from the previous one to the
// running total. Faults returned are advisory: the fix has been recorded.
func (e *Engine) RecordFix(fix GeoFix) ([]QualityFault, error) {
	if !geo.ValidLatLng(fix.Latitude, fix.Longitude) {
		return nil, &InvalidFixError{Fix: fix, Reason: "latitude must be in [-90,90] and longitude in [-180,180]"}
	}

	var found []QualityFault
	if n := len(e.fixes); n > 0 {
		prev := e.fixes[n-1]
		d := GreatCircleDistanceKm(prev, fix)
		found = e.inspect(prev, fix, d, n)
		e.totalDistanceKm += d
	}

	e.fixes = append(e.fixes, fix)
	e.faults = append(e.faults, found...)
	return found, nil
}

func (e *Engine) inspect(prev, fix GeoFix, distanceKm float64, index int) []QualityFault {
	var out []QualityFault
	elapsed := elapsedMillis(prev.ObservedAtMillis, fix.ObservedAtMillis)

	switch {
	case fix.ObservedAtMillis < prev.ObservedAtMillis:
		out = append(out, QualityFault{
			Kind:     FaultClockRegression,
			FixIndex: index,
			Detail:   fmt.Sprintf("timestamp went back %d ms", gapMillis(fix.ObservedAtMillis, prev.ObservedAtMillis)),
		})
	case fix.ObservedAtMillis == prev.ObservedAtMillis:
		out = append(out, QualityFault{
			Kind:     FaultRepeatedTimestamp,
			FixIndex: index,
			Detail:   "timestamp equals previous fix",
		})
	}

	if distanceKm == 0 {
		return out
	}
	if fix.ObservedAtMillis <= prev.ObservedAtMillis {
		out = append(out, QualityFault{
			Kind:     FaultImplausibleJump,
			FixIndex: index,
			Detail:   fmt.Sprintf("moved %.3f km with no elapsed time", distanceKm),
		})
		return out
	}
	if speed := distanceKm / (elapsed / millisPerMinute / 60); speed > e.speedCeilingKmh {
		out = append(out, QualityFault{
			Kind:     FaultImplausibleJump,
			FixIndex: index,
			Detail:   fmt.Sprintf("implied speed %.1f km/h exceeds %.1f km/h", speed, e.speedCeilingKmh),
		})
	}
	return out
}

// Snapshot recomputes the derived statistics. It never mutates the engine.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		PointCount:      len(e.fixes),
		TotalDistanceKm: e.totalDistanceKm,
		Mode:            ModeUnknown,
		Faults:          append([]QualityFault(nil), e.faults...),
	}
	if snap.PointCount == 0 {
		return snap
	}

	first, last := e.fixes[0], e.fixes[len(e.fixes)-1]
	snap.StartedAtMillis = first.ObservedAtMillis
	snap.LastFixAtMillis = last.ObservedAtMillis

	if last.ObservedAtMillis < first.ObservedAtMillis {
		snap.Faults = append(snap.Faults, QualityFault{
			Kind:     FaultNegativeDuration,
			FixIndex: len(e.fixes) - 1,
			Detail:   fmt.Sprintf("last fix is %d ms before the first", gapMillis(last.ObservedAtMillis, first.ObservedAtMillis)),
		})
		return snap
	}

	snap.DurationMinutes = elapsedMillis(first.ObservedAtMillis, last.ObservedAtMillis) / millisPerMinute
	if snap.DurationMinutes == 0 {
		return snap
	}

	speed := snap.TotalDistanceKm / (snap.DurationMinutes / 60)
	mode, err := GuessMode(speed)
	if err != nil {
		return snap
	}
	snap.AverageSpeedKmh = &speed
	snap.Mode = mode
	return snap
}

// elapsedMillis is to-from in float64 so extreme timestamps cannot overflow.
func elapsedMillis(from, to int64) float64 {
	return float64(to) - float64(from)
}

// gapMillis is hi-lo for hi >= lo; the unsigned difference is exact over the
// whole int64 range.
func gapMillis(lo, hi int64) uint64 {
	return uint64(hi) - uint64(lo)
}

// Fixes returns a copy of the recorded fixes in insertion order.
func (e *Engine) Fixes() []GeoFix {
	return append([]GeoFix(nil), e.fixes...)
}

func (e *Engine) TotalDistanceKm() float64 {
	return e.totalDistanceKm
}

// Reset discards the trip and returns the engine to its initial state.
func (e *Engine) Reset() {
	e.fixes = nil
	e.totalDistanceKm = 0
	e.faults = nil
}
