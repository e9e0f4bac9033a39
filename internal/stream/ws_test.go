// internal/stream/ws_test.go
package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/breathlab/respire/internal/session"
)

func testSnapshot() session.Status {
	return session.Status{
		SessionID:       "test-session",
		IsConnected:     true,
		BreathAmplitude: 0.5,
		BreathPhase:     "inhale",
		BreathingRate:   12.5,
		CurrentForce:    4.2,
	}
}

func TestWebServer_HandleState(t *testing.T) {
	s := NewWebServer(WebConfig{Addr: ":0", IntervalMs: 50}, testSnapshot)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	s.handleState(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got session.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.SessionID != "test-session" {
		t.Errorf("sessionId = %q, want %q", got.SessionID, "test-session")
	}
	if !got.IsConnected {
		t.Error("isConnected = false, want true")
	}
	if got.BreathAmplitude != 0.5 {
		t.Errorf("breathAmplitude = %v, want 0.5", got.BreathAmplitude)
	}
	if got.BreathPhase != "inhale" {
		t.Errorf("breathPhase = %q, want %q", got.BreathPhase, "inhale")
	}
}

func TestWebServer_StateFieldNames(t *testing.T) {
	s := NewWebServer(WebConfig{Addr: ":0", IntervalMs: 50}, testSnapshot)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	s.handleState(rec, req)

	body := rec.Body.String()
	for _, field := range []string{
		"sessionId",
		"isConnected",
		"breathAmplitude",
		"breathPhase",
		"breathingRate",
		"isCalibrating",
		"calibrationProgress",
		"currentForce",
		"sessionElapsedSeconds",
	} {
		if !strings.Contains(body, `"`+field+`"`) {
			t.Errorf("state JSON missing field %q: %s", field, body)
		}
	}
}

func TestWebServer_HandleWS_PushesState(t *testing.T) {
	s := NewWebServer(WebConfig{Addr: ":0", IntervalMs: 20}, testSnapshot)

	srv := httptest.NewServer(http.HandlerFunc(s.handleWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var got session.Status
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON error = %v", err)
	}
	if got.SessionID != "test-session" {
		t.Errorf("pushed sessionId = %q, want %q", got.SessionID, "test-session")
	}
	if got.BreathingRate != 12.5 {
		t.Errorf("pushed breathingRate = %v, want 12.5", got.BreathingRate)
	}

	// A second frame should follow on the push cadence.
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("second ReadJSON error = %v", err)
	}
}

func TestWebServer_HandleWS_RejectsPlainHTTP(t *testing.T) {
	s := NewWebServer(WebConfig{Addr: ":0", IntervalMs: 50}, testSnapshot)

	req := httptest.NewRequest(http.MethodGet, "/ws/state", nil)
	rec := httptest.NewRecorder()
	s.handleWS(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d for non-upgrade request", rec.Code, http.StatusBadRequest)
	}
}
