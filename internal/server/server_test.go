package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"travlysis/internal/auth"
	"travlysis/internal/config"
	"travlysis/internal/tracking"
)

func testServer() *Server {
	return NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0", SpeedCeilingKmh: 500}, nil)
}

func TestHealthRoute(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestTrackingRequiresToken(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/tracking/sessions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := s.App.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}
}

func TestTripFlowAndMetrics(t *testing.T) {
	s := testServer()
	token, err := auth.SignToken("secret", "user-9", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	call := func(method, path string, body any) *http.Response {
		t.Helper()
		var r io.Reader
		if body != nil {
			b, _ := json.Marshal(body)
			r = bytes.NewReader(b)
		}
		req := httptest.NewRequest(method, path, r)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		return resp
	}

	resp := call(http.MethodPost, "/tracking/sessions", map[string]string{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start: %d", resp.StatusCode)
	}
	var session tracking.Session
	_ = json.NewDecoder(resp.Body).Decode(&session)
	if session.UserID != "user-9" {
		t.Fatalf("expected token user, got %q", session.UserID)
	}

	start := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	call(http.MethodPost, "/tracking/sessions/"+session.ID+"/points", tracking.TrackPoint{Lat: 0, Lon: 0, RecordedAt: start})
	call(http.MethodPost, "/tracking/sessions/"+session.ID+"/points", tracking.TrackPoint{Lat: 0, Lon: 1, RecordedAt: start.Add(time.Hour)})
	if resp := call(http.MethodPost, "/tracking/sessions/"+session.ID+"/points", tracking.TrackPoint{Lat: 95}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected invalid fix rejection, got %d", resp.StatusCode)
	}

	resp = call(http.MethodPost, "/survey/", map[string]any{"session_id": session.ID, "purpose": "travel", "transport": "Other", "distance_km": 111})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("survey: %d", resp.StatusCode)
	}

	resp = call(http.MethodPost, "/survey/confirm", map[string]any{"session_ids": []string{session.ID}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: %d", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err = s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		"travlysis_fixes_recorded_total 2",
		"travlysis_fixes_rejected_total 1",
		"travlysis_surveys_submitted_total 1",
		"travlysis_active_sessions 0",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
