package survey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"travlysis/internal/tracking"
	"travlysis/internal/tripstats"

	"github.com/google/uuid"
)

// ErrInvalidSurvey wraps every validation failure of a submitted survey.
var ErrInvalidSurvey = errors.New("invalid survey")

// Trips is the part of the tracking service surveys and reviews rely on.
type Trips interface {
	Summary(ctx context.Context, sessionID string) (tracking.Summary, error)
	StopSession(ctx context.Context, sessionID string) (tracking.Summary, error)
}

type Metrics interface {
	SurveySubmitted()
}

type Service struct {
	trips   Trips
	metrics Metrics
	now     func() time.Time
}

func NewService(trips Trips, m Metrics) *Service {
	return &Service{trips: trips, metrics: m, now: time.Now}
}

// Submit validates a post-trip survey and compares the declared transport
// with the mode inferred for the named session, if it is still live.
// Surveys are acknowledged and logged, not stored.
func (s *Service) Submit(ctx context.Context, input Survey) (Receipt, error) {
	input.Purpose = strings.TrimSpace(input.Purpose)
	if input.Purpose == "" {
		return Receipt{}, fmt.Errorf("%w: purpose required", ErrInvalidSurvey)
	}
	transport, err := tripstats.ParseMode(input.Transport)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrInvalidSurvey, err)
	}
	if math.IsNaN(input.DistanceKm) || math.IsInf(input.DistanceKm, 0) || input.DistanceKm < 0 {
		return Receipt{}, fmt.Errorf("%w: distance_km must be a non-negative number", ErrInvalidSurvey)
	}

	receipt := Receipt{
		ID:          uuid.NewString(),
		SubmittedAt: s.now(),
		Survey:      input,
		Transport:   transport,
	}

	if input.SessionID != "" && s.trips != nil {
		summary, err := s.trips.Summary(ctx, input.SessionID)
		switch {
		case errors.Is(err, tracking.ErrSessionNotFound):
			log.Printf("survey %s references unknown session %s", receipt.ID, input.SessionID)
		case err != nil:
			return Receipt{}, err
		case summary.Mode != tripstats.ModeUnknown:
			matches := summary.Mode == transport
			receipt.InferredMode = summary.Mode
			receipt.ModeMatches = &matches
		}
	}

	if s.metrics != nil {
		s.metrics.SurveySubmitted()
	}
	log.Printf("survey %s submitted: purpose=%q transport=%s distance=%.2fkm", receipt.ID, input.Purpose, transport, input.DistanceKm)
	return receipt, nil
}

// Confirm ends every listed trip and returns their final summaries. Unknown
// session ids are reported in Missing rather than failing the batch.
func (s *Service) Confirm(ctx context.Context, sessionIDs []string) (Confirmation, error) {
	if len(sessionIDs) == 0 {
		return Confirmation{}, fmt.Errorf("%w: session_ids required", ErrInvalidSurvey)
	}

	out := Confirmation{ConfirmedAt: s.now(), Trips: []tracking.Summary{}}
	seen := map[string]struct{}{}
	for _, id := range sessionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		summary, err := s.trips.StopSession(ctx, id)
		if errors.Is(err, tracking.ErrSessionNotFound) {
			out.Missing = append(out.Missing, id)
			continue
		}
		if err != nil {
			return Confirmation{}, err
		}
		out.Trips = append(out.Trips, summary)
	}
	log.Printf("confirmed %d trips (%d missing)", len(out.Trips), len(out.Missing))
	return out, nil
}
