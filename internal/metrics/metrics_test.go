package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.FixRecorded(time.Millisecond)
	c.FixRecorded(time.Millisecond)
	c.FixRejected()
	c.QualityFault("clock_regression")
	c.SetActiveSessions(3)
	c.IngestResult("recorded")
	c.SurveySubmitted()

	if got := testutil.ToFloat64(c.FixesRecorded); got != 2 {
		t.Fatalf("fixes recorded = %v", got)
	}
	if got := testutil.ToFloat64(c.FixesRejected); got != 1 {
		t.Fatalf("fixes rejected = %v", got)
	}
	if got := testutil.ToFloat64(c.QualityFaults.WithLabelValues("clock_regression")); got != 1 {
		t.Fatalf("quality faults = %v", got)
	}
	if got := testutil.ToFloat64(c.ActiveSessions); got != 3 {
		t.Fatalf("active sessions = %v", got)
	}
	if got := testutil.ToFloat64(c.IngestMessages.WithLabelValues("recorded")); got != 1 {
		t.Fatalf("ingest messages = %v", got)
	}
	if got := testutil.ToFloat64(c.Surveys); got != 1 {
		t.Fatalf("surveys = %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.FixRecorded(time.Second)
	c.FixRejected()
	c.QualityFault("x")
	c.SetActiveSessions(1)
	c.IngestResult("recorded")
	c.SurveySubmitted()
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.FixRejected()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "travlysis_fixes_rejected_total 1") {
		t.Fatalf("metrics output missing counter: %s", body)
	}
}
