package survey

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"travlysis/internal/tracking"

	"github.com/gofiber/fiber/v2"
)

func surveyApp(trips *tracking.Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/survey"), NewService(trips, nil), func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})
	return app
}

func post(t *testing.T, app *fiber.App, path string, body []byte) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp
}

func TestSurveyHandlers(t *testing.T) {
	trips := tracking.NewService(nil, nil, 0)
	sessionID := cyclingTrip(t, trips)
	app := surveyApp(trips)

	body, _ := json.Marshal(Survey{SessionID: sessionID, Purpose: "school", Transport: "Cycling", DistanceKm: 1.1})
	resp := post(t, app, "/survey/", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status: %d", resp.StatusCode)
	}
	var receipt Receipt
	_ = json.NewDecoder(resp.Body).Decode(&receipt)
	if receipt.Survey.UserID != "user-1" {
		t.Fatalf("expected user from token, got %q", receipt.Survey.UserID)
	}
	if receipt.ModeMatches == nil || !*receipt.ModeMatches {
		t.Fatalf("expected mode match")
	}

	body, _ = json.Marshal(map[string][]string{"session_ids": {sessionID}})
	resp = post(t, app, "/survey/confirm", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm status: %d", resp.StatusCode)
	}
	var confirmation Confirmation
	_ = json.NewDecoder(resp.Body).Decode(&confirmation)
	if len(confirmation.Trips) != 1 {
		t.Fatalf("expected one confirmed trip")
	}
}

func TestSurveyHandlersBadRequest(t *testing.T) {
	app := surveyApp(tracking.NewService(nil, nil, 0))

	for name, c := range map[string]struct {
		path string
		body string
	}{
		"malformed survey":  {"/survey/", "{"},
		"invalid survey":    {"/survey/", `{"purpose":"","transport":"Car"}`},
		"malformed confirm": {"/survey/confirm", "{"},
		"empty confirm":     {"/survey/confirm", `{"session_ids":[]}`},
	} {
		resp := post(t, app, c.path, []byte(c.body))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected bad request, got %d", name, resp.StatusCode)
		}
	}
}
