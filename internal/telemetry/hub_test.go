package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHubHistoryLimit(t *testing.T) {
	hub := NewHub(3)
	for i := 0; i < 5; i++ {
		hub.Report(Event{Stage: StageRunning})
	}
	if got := len(hub.History()); got != 3 {
		t.Fatalf("expected history capped at 3, got %d", got)
	}
}

func TestHubStampsTime(t *testing.T) {
	hub := NewHub(0)
	hub.Report(Event{Stage: StageArmed})
	last, ok := hub.Last()
	if !ok {
		t.Fatalf("expected an event")
	}
	if last.Time.IsZero() {
		t.Fatalf("expected report to stamp the event time")
	}
}

func TestHubSubscribe(t *testing.T) {
	hub := NewHub(0)
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Report(Event{Stage: StageUploaded, Message: "2048 samples"})

	select {
	case e := <-ch:
		if e.Stage != StageUploaded || e.Message != "2048 samples" {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered")
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(0)
	_, cancel := hub.Subscribe()
	defer cancel()

	// More events than the subscriber channel buffers; Report must not stall.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Report(Event{Stage: StageRunning})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("report blocked on a slow subscriber")
	}
}

func TestMultiReporter(t *testing.T) {
	a, b := NewHub(0), NewHub(0)
	MultiReporter{a, nil, b}.Report(Event{Stage: StageComplete})
	if len(a.History()) != 1 || len(b.History()) != 1 {
		t.Fatalf("expected event in both hubs")
	}
}

func TestHandleStatus(t *testing.T) {
	hub := NewHub(0)
	hub.Report(Event{Stage: StageArmed})
	s := NewStatusServer("127.0.0.1:0", hub, nil)

	rr := httptest.NewRecorder()
	s.handleStatus(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp struct {
		Stage  Stage `json:"stage"`
		Events int   `json:"events"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Stage != StageArmed || resp.Events != 1 {
		t.Fatalf("unexpected status %+v", resp)
	}
}

func TestHandleStatusMethodNotAllowed(t *testing.T) {
	s := NewStatusServer("127.0.0.1:0", NewHub(0), nil)
	rr := httptest.NewRecorder()
	s.handleStatus(rr, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestHandleEvents(t *testing.T) {
	hub := NewHub(0)
	hub.Report(Event{Stage: StageValidated})
	hub.Report(Event{Stage: StageUploaded})
	s := NewStatusServer("127.0.0.1:0", hub, nil)

	rr := httptest.NewRecorder()
	s.handleEvents(rr, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var events []Event
	if err := json.NewDecoder(rr.Body).Decode(&events); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(events) != 2 || events[0].Stage != StageValidated {
		t.Fatalf("unexpected events %+v", events)
	}
}
