package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"travlysis/internal/tripstats"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("tracking session not found")

// Broadcaster fans a session's latest summary out to live subscribers.
type Broadcaster interface {
	Broadcast(sessionID string, payload []byte)
}

type Metrics interface {
	FixRecorded(d time.Duration)
	FixRejected()
	QualityFault(kind string)
	SetActiveSessions(n int)
}

type trackedSession struct {
	mu      sync.Mutex
	session Session
	engine  *tripstats.Engine
}

type Service struct {
	mu       sync.RWMutex
	sessions map[string]*trackedSession

	hub          Broadcaster
	metrics      Metrics
	speedCeiling float64
	now          func() time.Time
}

// NewService keeps trips in memory only: a stopped trip is discarded.
// hub and m may be nil.
func NewService(hub Broadcaster, m Metrics, speedCeilingKmh float64) *Service {
	return &Service{
		sessions:     map[string]*trackedSession{},
		hub:          hub,
		metrics:      m,
		speedCeiling: speedCeilingKmh,
		now:          time.Now,
	}
}

func (s *Service) StartSession(_ context.Context, input Session) (Session, error) {
	input.ID = uuid.NewString()
	if input.StartedAt.IsZero() {
		input.StartedAt = s.now()
	}
	input.Status = StatusActive

	s.mu.Lock()
	s.sessions[input.ID] = &trackedSession{
		session: input,
		engine:  tripstats.NewEngine(tripstats.WithSpeedCeiling(s.speedCeiling)),
	}
	active := len(s.sessions)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetActiveSessions(active)
	}
	log.Printf("tracking session %s started for user %s", input.ID, input.UserID)
	return input, nil
}

// AddPoint records a fix for the session and pushes the refreshed summary to
// the hub. Advisory faults are returned alongside the summary.
func (s *Service) AddPoint(_ context.Context, sessionID string, input TrackPoint) (PointResult, error) {
	ts, err := s.lookup(sessionID)
	if err != nil {
		return PointResult{}, err
	}
	if input.RecordedAt.IsZero() {
		input.RecordedAt = s.now()
	}

	start := time.Now()
	ts.mu.Lock()
	if ts.session.Status == StatusStopped {
		// stopped while this call was in flight
		ts.mu.Unlock()
		return PointResult{}, ErrSessionNotFound
	}
	faults, err := ts.engine.RecordFix(tripstats.GeoFix{
		Latitude:         input.Lat,
		Longitude:        input.Lon,
		ObservedAtMillis: input.RecordedAt.UnixMilli(),
	})
	if err != nil {
		ts.mu.Unlock()
		if s.metrics != nil {
			s.metrics.FixRejected()
		}
		return PointResult{}, err
	}
	summary := ts.summary()
	ts.mu.Unlock()

	if s.metrics != nil {
		s.metrics.FixRecorded(time.Since(start))
		for _, f := range faults {
			s.metrics.QualityFault(string(f.Kind))
		}
	}
	for _, f := range faults {
		log.Printf("tracking session %s: %s at fix %d: %s", sessionID, f.Kind, f.FixIndex, f.Detail)
	}

	s.broadcast(summary)
	return PointResult{Point: input, Summary: summary, Faults: faults}, nil
}

func (s *Service) Summary(_ context.Context, sessionID string) (Summary, error) {
	ts, err := s.lookup(sessionID)
	if err != nil {
		return Summary{}, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.summary(), nil
}

func (s *Service) Points(_ context.Context, sessionID string) ([]tripstats.GeoFix, error) {
	ts, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.engine.Fixes(), nil
}

// StopSession returns the final summary, then resets and forgets the trip.
func (s *Service) StopSession(_ context.Context, sessionID string) (Summary, error) {
	s.mu.Lock()
	ts, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	active := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return Summary{}, ErrSessionNotFound
	}

	ts.mu.Lock()
	ts.session.Status = StatusStopped
	final := ts.summary()
	ts.engine.Reset()
	ts.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetActiveSessions(active)
	}
	s.broadcast(final)
	log.Printf("tracking session %s stopped: %.2f km over %d points", sessionID, final.TotalDistanceKm, final.PointCount)
	return final, nil
}

// CurrentJSON encodes the latest summary for new stream subscribers.
func (s *Service) CurrentJSON(sessionID string) ([]byte, bool) {
	summary, err := s.Summary(context.Background(), sessionID)
	if err != nil {
		return nil, false
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (s *Service) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) lookup(sessionID string) (*trackedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ts, nil
}

func (s *Service) broadcast(summary Summary) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		log.Printf("tracking summary encode error: %v", err)
		return
	}
	s.hub.Broadcast(summary.SessionID, payload)
}

func (ts *trackedSession) summary() Summary {
	return Summary{
		SessionID: ts.session.ID,
		Status:    ts.session.Status,
		Snapshot:  ts.engine.Snapshot(),
	}
}
