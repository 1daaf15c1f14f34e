// Package ingest feeds position fixes published by device gateways on NATS
// into tracking sessions.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"travlysis/internal/tracking"

	"github.com/nats-io/nats.go"
)

const (
	ResultRecorded    = "recorded"
	ResultDecodeError = "decode_error"
	ResultRejected    = "rejected"
	ResultNoSession   = "no_session"
)

// FixMessage is the wire format of one fix. SessionID may be omitted when the
// subject's last token carries it (travlysis.fixes.<session>). A missing
// observed_at_ms means the fix is stamped on receipt; 0 is the epoch.
type FixMessage struct {
	SessionID        string  `json:"session_id"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	ObservedAtMillis *int64  `json:"observed_at_ms,omitempty"`
}

type PointRecorder interface {
	AddPoint(ctx context.Context, sessionID string, input tracking.TrackPoint) (tracking.PointResult, error)
}

type Metrics interface {
	IngestResult(result string)
}

type Consumer struct {
	nc       *nats.Conn
	sub      *nats.Subscription
	recorder PointRecorder
	metrics  Metrics
}

// Connect dials NATS with the same lifecycle logging the publishers use.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("travlysis-ingest"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("nats closed")
		}),
	)
}

func NewConsumer(nc *nats.Conn, recorder PointRecorder, m Metrics) *Consumer {
	return &Consumer{nc: nc, recorder: recorder, metrics: m}
}

// Start subscribes to subject; messages are handled on the NATS callback goroutine.
func (c *Consumer) Start(subject string) error {
	if c.nc == nil {
		return errors.New("nats connection required")
	}
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		c.handle(msg.Subject, msg.Data)
	})
	if err != nil {
		return err
	}
	c.sub = sub
	log.Printf("ingest subscribed to %s", subject)
	return nil
}

func (c *Consumer) Close() {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	if c.nc != nil {
		_ = c.nc.Drain()
	}
}

func (c *Consumer) handle(subject string, data []byte) string {
	result := c.process(subject, data)
	if c.metrics != nil {
		c.metrics.IngestResult(result)
	}
	return result
}

func (c *Consumer) process(subject string, data []byte) string {
	var msg FixMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("ingest decode error on %s: %v", subject, err)
		return ResultDecodeError
	}
	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = lastToken(subject)
	}

	point := tracking.TrackPoint{Lat: msg.Lat, Lon: msg.Lon}
	if msg.ObservedAtMillis != nil {
		point.RecordedAt = time.UnixMilli(*msg.ObservedAtMillis)
	}

	_, err := c.recorder.AddPoint(context.Background(), sessionID, point)
	switch {
	case err == nil:
		return ResultRecorded
	case errors.Is(err, tracking.ErrSessionNotFound):
		log.Printf("ingest: no tracking session %q", sessionID)
		return ResultNoSession
	default:
		log.Printf("ingest: session %s: %v", sessionID, err)
		return ResultRejected
	}
}

func lastToken(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return subject
}
